package models

import "time"

// Command types understood by the host applier. The queue accepts any non-empty type.
const (
	CommandAddBoxes       = "ADD_BOXES"
	CommandDeleteElements = "DELETE_ELEMENTS"
	CommandMoveElement    = "MOVE_ELEMENT"
	CommandSelectElements = "SELECT_ELEMENTS"
)

// BoxSpec describes a box to create through an ADD_BOXES command.
type BoxSpec struct {
	CenterX    float64           `json:"centerX"`
	CenterY    float64           `json:"centerY"`
	CenterZ    float64           `json:"centerZ"`
	SizeX      float64           `json:"sizeX"`
	SizeY      float64           `json:"sizeY"`
	SizeZ      float64           `json:"sizeZ"`
	Category   string            `json:"category,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

func (b BoxSpec) Center() Vec3 { return Vec3{X: b.CenterX, Y: b.CenterY, Z: b.CenterZ} }
func (b BoxSpec) Size() Vec3   { return Vec3{X: b.SizeX, Y: b.SizeY, Z: b.SizeZ} }

// GeometryCommand is one web-to-host instruction. Payload fields are populated per Type.
type GeometryCommand struct {
	ProjectName string    `json:"projectName"`
	CommandID   string    `json:"commandId"`
	CreatedUtc  time.Time `json:"createdUtc"`
	Type        string    `json:"type"`

	Boxes           []BoxSpec `json:"boxes,omitempty"`
	ElementIDs      []string  `json:"elementIds,omitempty"`
	TargetElementID string    `json:"targetElementId,omitempty"`
	NewCenter       *Vec3     `json:"newCenter,omitempty"`
}

// EnqueueResponse is returned by the relay after a command was queued.
type EnqueueResponse struct {
	CommandID string `json:"commandId"`
}

// Clone returns a copy of the command that shares no slices or maps with c.
func (c GeometryCommand) Clone() GeometryCommand {
	if c.Boxes != nil {
		boxes := make([]BoxSpec, len(c.Boxes))
		for i, b := range c.Boxes {
			if b.Properties != nil {
				props := make(map[string]string, len(b.Properties))
				for k, v := range b.Properties {
					props[k] = v
				}
				b.Properties = props
			}
			boxes[i] = b
		}
		c.Boxes = boxes
	}
	if c.ElementIDs != nil {
		c.ElementIDs = append([]string(nil), c.ElementIDs...)
	}
	if c.NewCenter != nil {
		center := *c.NewCenter
		c.NewCenter = &center
	}
	return c
}
