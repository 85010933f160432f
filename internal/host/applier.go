package host

import (
	"log"

	"github.com/pkg/errors"

	"geometry-relay/internal/models"
)

// ErrUnsupportedCommand is returned for command types the host does not understand.
var ErrUnsupportedCommand = errors.New("unsupported command type")

// Notifier reports apply failures to the human operator. The failed command is not retried.
type Notifier interface {
	ApplyFailed(cmd models.GeometryCommand, err error)
}

// LogNotifier reports apply failures to the process log.
type LogNotifier struct{}

func (LogNotifier) ApplyFailed(cmd models.GeometryCommand, err error) {
	log.Printf("[APPLY] Command %s (%s) for project %s failed: %v", cmd.CommandID, cmd.Type, cmd.ProjectName, err)
}

// Applier translates commands into document mutations. Apply must run on the document goroutine.
type Applier struct {
	Doc Document
}

// Apply executes cmd as a single document transaction.
func (a *Applier) Apply(cmd models.GeometryCommand) error {
	switch cmd.Type {
	case models.CommandAddBoxes:
		return a.Doc.Transact("Add boxes", func() error {
			for i, box := range cmd.Boxes {
				if _, err := a.Doc.AddBox(box); err != nil {
					return errors.Wrapf(err, "box %d", i)
				}
			}
			return nil
		})
	case models.CommandDeleteElements:
		return a.Doc.Transact("Delete elements", func() error {
			for _, id := range cmd.ElementIDs {
				err := a.Doc.DeleteElement(id)
				if errors.Is(err, ErrElementNotFound) {
					log.Printf("[APPLY] Element %s already gone, skipping delete", id)
					continue
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	case models.CommandMoveElement:
		if cmd.NewCenter == nil {
			return errors.New("MOVE_ELEMENT without newCenter")
		}
		return a.Doc.Transact("Move element", func() error {
			return a.Doc.MoveElement(cmd.TargetElementID, *cmd.NewCenter)
		})
	case models.CommandSelectElements:
		return a.Doc.SetSelection(cmd.ElementIDs)
	default:
		return errors.Wrapf(ErrUnsupportedCommand, "%q", cmd.Type)
	}
}
