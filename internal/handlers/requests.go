package handlers

import "geometry-relay/internal/models"

// snapshotRequest is the ingest body. timestampUtc is not decoded: the relay stamps
// snapshots itself, so a malformed or zoneless host timestamp must not reject the request.
type snapshotRequest struct {
	ProjectName        string                     `json:"projectName"`
	Primitives         []models.GeometryPrimitive `json:"primitives"`
	SelectedElementIDs []string                   `json:"selectedElementIds"`
}

func (r snapshotRequest) toModel() models.GeometrySnapshot {
	return models.GeometrySnapshot{
		ProjectName:        r.ProjectName,
		Primitives:         r.Primitives,
		SelectedElementIDs: r.SelectedElementIDs,
	}
}

// commandRequest is the enqueue body. createdUtc is not decoded for the same reason.
type commandRequest struct {
	ProjectName     string           `json:"projectName"`
	CommandID       string           `json:"commandId"`
	Type            string           `json:"type"`
	Boxes           []models.BoxSpec `json:"boxes"`
	ElementIDs      []string         `json:"elementIds"`
	TargetElementID string           `json:"targetElementId"`
	NewCenter       *models.Vec3     `json:"newCenter"`
}

func (r commandRequest) toModel() models.GeometryCommand {
	return models.GeometryCommand{
		ProjectName:     r.ProjectName,
		CommandID:       r.CommandID,
		Type:            r.Type,
		Boxes:           r.Boxes,
		ElementIDs:      r.ElementIDs,
		TargetElementID: r.TargetElementID,
		NewCenter:       r.NewCenter,
	}
}
