package host

import (
	"log"

	"geometry-relay/internal/models"
)

// Exporter captures the visible document geometry as a snapshot. Snapshot must run on
// the document goroutine.
type Exporter struct {
	Doc Document
}

// Snapshot builds a snapshot of the document. Elements with a non-positive extent are
// dropped; colours are assigned per category.
func (e *Exporter) Snapshot() *models.GeometrySnapshot {
	elements := e.Doc.Elements()
	all := make([]models.GeometryPrimitive, 0, len(elements))
	for _, el := range elements {
		all = append(all, models.GeometryPrimitive{
			Category:     el.Category,
			ElementID:    el.ID,
			IsWebCreated: el.WebCreated,
			Color:        models.CategoryColor(el.Category),
			Center:       el.Center,
			Size:         el.Size,
			Properties:   el.Properties,
		}.Clone())
	}
	primitives := FilterDegenerate(all)
	if dropped := len(all) - len(primitives); dropped > 0 {
		log.Printf("[EXPORT] Dropped %d degenerate elements", dropped)
	}
	return &models.GeometrySnapshot{
		ProjectName:        e.Doc.ProjectName(),
		Primitives:         primitives,
		SelectedElementIDs: e.Doc.Selection(),
	}
}

// FilterDegenerate returns the primitives whose extents are all strictly positive.
func FilterDegenerate(primitives []models.GeometryPrimitive) []models.GeometryPrimitive {
	out := make([]models.GeometryPrimitive, 0, len(primitives))
	for _, p := range primitives {
		if p.HasPositiveExtent() {
			out = append(out, p)
		}
	}
	return out
}
