package services

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"geometry-relay/internal/models"
)

type projectQueue struct {
	mu    sync.Mutex
	items []models.GeometryCommand
}

func (q *projectQueue) push(cmd models.GeometryCommand) {
	q.mu.Lock()
	q.items = append(q.items, cmd)
	q.mu.Unlock()
}

func (q *projectQueue) pop() (models.GeometryCommand, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return models.GeometryCommand{}, false
	}
	head := q.items[0]
	q.items[0] = models.GeometryCommand{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return head, true
}

func (q *projectQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// CommandQueue keeps one unbounded FIFO of pending commands per project. Delivery is
// at-most-once: a command handed out by DequeueNext is gone, whatever the consumer does next.
type CommandQueue struct {
	queues  sync.Map // map[string]*projectQueue
	journal CommandJournal
	now     func() time.Time
	newID   func() string
}

// NewCommandQueue creates an empty queue. journal may be nil.
func NewCommandQueue(journal CommandJournal) *CommandQueue {
	return &CommandQueue{
		journal: journal,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// ValidateCommand applies the structural checks required before a command may be queued.
// Unknown types are accepted without payload checks.
func ValidateCommand(cmd models.GeometryCommand) error {
	if strings.TrimSpace(cmd.ProjectName) == "" {
		return ErrProjectRequired
	}
	if strings.TrimSpace(cmd.Type) == "" {
		return ErrCommandTypeRequired
	}
	switch cmd.Type {
	case models.CommandAddBoxes:
		if len(cmd.Boxes) == 0 {
			return &ValidationError{Message: "ADD_BOXES requires at least one box"}
		}
	case models.CommandDeleteElements, models.CommandSelectElements:
		if len(cmd.ElementIDs) == 0 {
			return &ValidationError{Message: cmd.Type + " requires at least one elementId"}
		}
	case models.CommandMoveElement:
		if strings.TrimSpace(cmd.TargetElementID) == "" || cmd.NewCenter == nil {
			return &ValidationError{Message: "MOVE_ELEMENT requires targetElementId and newCenter"}
		}
	}
	return nil
}

// Enqueue validates cmd, stamps CreatedUtc, assigns a CommandID when the producer sent none
// and appends it to its project's queue. The queued copy is returned.
func (q *CommandQueue) Enqueue(cmd models.GeometryCommand) (models.GeometryCommand, error) {
	if err := ValidateCommand(cmd); err != nil {
		return models.GeometryCommand{}, err
	}
	queued := cmd.Clone()
	queued.CreatedUtc = q.now().UTC()
	if strings.TrimSpace(queued.CommandID) == "" {
		queued.CommandID = q.newID()
	}

	value, _ := q.queues.LoadOrStore(models.ProjectKey(queued.ProjectName), &projectQueue{})
	value.(*projectQueue).push(queued)

	q.record(queued, models.CommandEventEnqueued)
	return queued, nil
}

// DequeueNext pops the head of projectName's queue. With an empty projectName it scans the
// known queues in ascending key order and pops from the first non-empty one; there is no
// fairness between projects. ErrQueueEmpty is returned when nothing is pending.
func (q *CommandQueue) DequeueNext(projectName string) (models.GeometryCommand, error) {
	if strings.TrimSpace(projectName) != "" {
		value, ok := q.queues.Load(models.ProjectKey(projectName))
		if !ok {
			return models.GeometryCommand{}, ErrQueueEmpty
		}
		cmd, ok := value.(*projectQueue).pop()
		if !ok {
			return models.GeometryCommand{}, ErrQueueEmpty
		}
		q.record(cmd, models.CommandEventDequeued)
		return cmd, nil
	}

	for _, key := range q.keys() {
		value, ok := q.queues.Load(key)
		if !ok {
			continue
		}
		if cmd, ok := value.(*projectQueue).pop(); ok {
			q.record(cmd, models.CommandEventDequeued)
			return cmd, nil
		}
	}
	return models.GeometryCommand{}, ErrQueueEmpty
}

// Pending returns the number of queued commands for projectName, or across all projects
// when projectName is empty.
func (q *CommandQueue) Pending(projectName string) int {
	if strings.TrimSpace(projectName) != "" {
		value, ok := q.queues.Load(models.ProjectKey(projectName))
		if !ok {
			return 0
		}
		return value.(*projectQueue).len()
	}
	total := 0
	q.queues.Range(func(_, value any) bool {
		total += value.(*projectQueue).len()
		return true
	})
	return total
}

func (q *CommandQueue) keys() []string {
	var keys []string
	q.queues.Range(func(key, _ any) bool {
		keys = append(keys, key.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

func (q *CommandQueue) record(cmd models.GeometryCommand, event string) {
	if q.journal == nil {
		return
	}
	err := q.journal.Record(&models.CommandEvent{
		CommandID:   cmd.CommandID,
		ProjectName: cmd.ProjectName,
		Type:        cmd.Type,
		Event:       event,
		OccurredAt:  q.now().UTC(),
	})
	if err != nil {
		log.Printf("Command journal: failed to record %s for command %s: %v", event, cmd.CommandID, err)
	}
}
