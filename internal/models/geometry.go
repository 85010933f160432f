package models

import (
	"strings"
	"time"
)

// Vec3 is a point or extent in the host's right-handed, Z-up world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GeometryPrimitive is one bounding-box-shaped drawable entity.
type GeometryPrimitive struct {
	Category     string            `json:"category"`
	ElementID    string            `json:"elementId,omitempty"`
	IsWebCreated bool              `json:"isWebCreated"`
	Color        string            `json:"color,omitempty"`
	Center       Vec3              `json:"center"`
	Size         Vec3              `json:"size"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// HasPositiveExtent reports whether all three size components are strictly positive.
// Primitives failing this check are degenerate and must not be exported.
func (p GeometryPrimitive) HasPositiveExtent() bool {
	return p.Size.X > 0 && p.Size.Y > 0 && p.Size.Z > 0
}

// Clone returns a deep copy of the primitive.
func (p GeometryPrimitive) Clone() GeometryPrimitive {
	if p.Properties != nil {
		props := make(map[string]string, len(p.Properties))
		for k, v := range p.Properties {
			props[k] = v
		}
		p.Properties = props
	}
	return p
}

// GeometrySnapshot is a full replacement image of one project's visible geometry.
type GeometrySnapshot struct {
	ProjectName        string              `json:"projectName"`
	TimestampUtc       time.Time           `json:"timestampUtc"`
	Primitives         []GeometryPrimitive `json:"primitives"`
	SelectedElementIDs []string            `json:"selectedElementIds"`
}

// Clone returns a deep copy so that no mutable state is shared with the caller.
func (s *GeometrySnapshot) Clone() *GeometrySnapshot {
	if s == nil {
		return nil
	}
	out := &GeometrySnapshot{
		ProjectName:  s.ProjectName,
		TimestampUtc: s.TimestampUtc,
		Primitives:   make([]GeometryPrimitive, len(s.Primitives)),
	}
	for i, p := range s.Primitives {
		out.Primitives[i] = p.Clone()
	}
	if s.SelectedElementIDs != nil {
		out.SelectedElementIDs = append([]string(nil), s.SelectedElementIDs...)
	}
	return out
}

// ProjectKey normalizes a project name into its case-insensitive lookup key.
func ProjectKey(projectName string) string {
	return strings.ToLower(strings.TrimSpace(projectName))
}
