// Package viewer is the browser-side half of the sync loop: a reducer over the rendered
// scene and a Reconciler that polls snapshots and issues optimistic edits.
package viewer

import (
	"fmt"
	"time"

	"geometry-relay/internal/models"
)

// EditKind identifies the kind of an optimistic edit.
type EditKind int

const (
	EditAdd EditKind = iota
	EditMove
	EditDelete
)

func (k EditKind) String() string {
	switch k {
	case EditAdd:
		return "add"
	case EditMove:
		return "move"
	case EditDelete:
		return "delete"
	}
	return fmt.Sprintf("EditKind(%d)", int(k))
}

// PendingEdit is a local mutation rendered before the host confirmed it.
type PendingEdit struct {
	LocalID string
	Kind    EditKind

	Added      []models.GeometryPrimitive // EditAdd
	ElementIDs []string                   // EditMove (one id) and EditDelete
	NewCenter  models.Vec3                // EditMove
}

// SceneState is the viewer's render state: the authoritative image from the last snapshot
// plus the pending edits layered on top of it.
type SceneState struct {
	ProjectName   string
	Timestamp     time.Time
	Authoritative []models.GeometryPrimitive
	HostSelection []string
	Pending       []PendingEdit
}

// Action is an input to Reduce.
type Action interface {
	isAction()
}

// SnapshotReceived carries a snapshot fetched from the relay.
type SnapshotReceived struct {
	Snapshot *models.GeometrySnapshot
}

// OptimisticAdd renders provisional primitives under LocalID.
type OptimisticAdd struct {
	LocalID    string
	Primitives []models.GeometryPrimitive
}

// OptimisticMove relocates a host element locally.
type OptimisticMove struct {
	LocalID   string
	ElementID string
	NewCenter models.Vec3
}

// OptimisticDelete hides host elements locally.
type OptimisticDelete struct {
	LocalID    string
	ElementIDs []string
}

// Rollback discards the pending edit with LocalID.
type Rollback struct {
	LocalID string
}

func (SnapshotReceived) isAction() {}
func (OptimisticAdd) isAction()    {}
func (OptimisticMove) isAction()   {}
func (OptimisticDelete) isAction() {}
func (Rollback) isAction()         {}

// Reduce returns the state after applying action. The input state is never modified.
//
// A snapshot strictly newer than the last one seen replaces the authoritative set and drops
// every pending edit, whether or not the snapshot already reflects it. Older or equal
// snapshots are ignored.
func Reduce(state SceneState, action Action) SceneState {
	switch a := action.(type) {
	case SnapshotReceived:
		if a.Snapshot == nil || !a.Snapshot.TimestampUtc.After(state.Timestamp) {
			return state
		}
		snap := a.Snapshot.Clone()
		return SceneState{
			ProjectName:   snap.ProjectName,
			Timestamp:     snap.TimestampUtc,
			Authoritative: snap.Primitives,
			HostSelection: snap.SelectedElementIDs,
		}
	case OptimisticAdd:
		added := make([]models.GeometryPrimitive, len(a.Primitives))
		for i, p := range a.Primitives {
			added[i] = p.Clone()
		}
		return state.withEdit(PendingEdit{LocalID: a.LocalID, Kind: EditAdd, Added: added})
	case OptimisticMove:
		return state.withEdit(PendingEdit{
			LocalID:    a.LocalID,
			Kind:       EditMove,
			ElementIDs: []string{a.ElementID},
			NewCenter:  a.NewCenter,
		})
	case OptimisticDelete:
		return state.withEdit(PendingEdit{
			LocalID:    a.LocalID,
			Kind:       EditDelete,
			ElementIDs: append([]string(nil), a.ElementIDs...),
		})
	case Rollback:
		pending := make([]PendingEdit, 0, len(state.Pending))
		for _, e := range state.Pending {
			if e.LocalID != a.LocalID {
				pending = append(pending, e)
			}
		}
		state.Pending = pending
		return state
	}
	return state
}

func (s SceneState) withEdit(edit PendingEdit) SceneState {
	pending := make([]PendingEdit, len(s.Pending), len(s.Pending)+1)
	copy(pending, s.Pending)
	s.Pending = append(pending, edit)
	return s
}

// RenderedEntity is one drawable entity with its provenance.
type RenderedEntity struct {
	// Key is the host element id, or a client-local id for provisional entities.
	Key       string
	Primitive models.GeometryPrimitive
	Pending   bool
	Selected  bool
}

// Rendered resolves the scene into drawable entities: authoritative primitives with pending
// moves and deletes applied, followed by provisional additions in edit order.
func (s SceneState) Rendered() []RenderedEntity {
	deleted := make(map[string]bool)
	moved := make(map[string]models.Vec3)
	for _, e := range s.Pending {
		switch e.Kind {
		case EditDelete:
			for _, id := range e.ElementIDs {
				deleted[id] = true
			}
		case EditMove:
			if len(e.ElementIDs) > 0 {
				moved[e.ElementIDs[0]] = e.NewCenter
			}
		}
	}
	selected := make(map[string]bool, len(s.HostSelection))
	for _, id := range s.HostSelection {
		selected[id] = true
	}

	out := make([]RenderedEntity, 0, len(s.Authoritative))
	for i, p := range s.Authoritative {
		key := p.ElementID
		if key == "" {
			key = fmt.Sprintf("primitive-%d", i)
		} else if deleted[key] {
			continue
		}
		entity := RenderedEntity{Key: key, Primitive: withColor(p.Clone()), Selected: selected[p.ElementID] && p.ElementID != ""}
		if center, ok := moved[p.ElementID]; ok && p.ElementID != "" {
			entity.Primitive.Center = center
			entity.Pending = true
		}
		out = append(out, entity)
	}
	for _, e := range s.Pending {
		if e.Kind != EditAdd {
			continue
		}
		for i, p := range e.Added {
			p = withColor(p.Clone())
			p.IsWebCreated = true
			out = append(out, RenderedEntity{Key: fmt.Sprintf("%s/%d", e.LocalID, i), Primitive: p, Pending: true})
		}
	}
	return out
}

func withColor(p models.GeometryPrimitive) models.GeometryPrimitive {
	if p.Color == "" {
		p.Color = models.CategoryColor(p.Category)
	}
	return p
}
