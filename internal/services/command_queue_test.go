package services

import (
	"errors"
	"sync"
	"testing"

	"geometry-relay/internal/models"
)

type recordingJournal struct {
	mu     sync.Mutex
	events []models.CommandEvent
	err    error
}

func (j *recordingJournal) Record(event *models.CommandEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, *event)
	return j.err
}

func addBoxes(project string) models.GeometryCommand {
	return models.GeometryCommand{
		ProjectName: project,
		Type:        models.CommandAddBoxes,
		Boxes:       []models.BoxSpec{{SizeX: 10, SizeY: 10, SizeZ: 10}},
	}
}

func TestValidateCommand(t *testing.T) {
	center := &models.Vec3{X: 1}
	cases := []struct {
		name string
		cmd  models.GeometryCommand
		ok   bool
	}{
		{"missing project", models.GeometryCommand{Type: models.CommandAddBoxes, Boxes: []models.BoxSpec{{}}}, false},
		{"missing type", models.GeometryCommand{ProjectName: "P"}, false},
		{"add without boxes", models.GeometryCommand{ProjectName: "P", Type: models.CommandAddBoxes}, false},
		{"add with box", addBoxes("P"), true},
		{"delete without ids", models.GeometryCommand{ProjectName: "P", Type: models.CommandDeleteElements}, false},
		{"delete with ids", models.GeometryCommand{ProjectName: "P", Type: models.CommandDeleteElements, ElementIDs: []string{"1"}}, true},
		{"select without ids", models.GeometryCommand{ProjectName: "P", Type: models.CommandSelectElements}, false},
		{"move without center", models.GeometryCommand{ProjectName: "P", Type: models.CommandMoveElement, TargetElementID: "1"}, false},
		{"move without target", models.GeometryCommand{ProjectName: "P", Type: models.CommandMoveElement, NewCenter: center}, false},
		{"move", models.GeometryCommand{ProjectName: "P", Type: models.CommandMoveElement, TargetElementID: "1", NewCenter: center}, true},
		{"unknown type", models.GeometryCommand{ProjectName: "P", Type: "PAINT_ELEMENTS"}, true},
	}
	for _, tc := range cases {
		err := ValidateCommand(tc.cmd)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestEnqueueDequeue_ExactlyOnceFIFO(t *testing.T) {
	q := NewCommandQueue(nil)
	c1, err := q.Enqueue(addBoxes("P"))
	if err != nil {
		t.Fatal(err)
	}
	c2, err := q.Enqueue(models.GeometryCommand{ProjectName: "P", Type: models.CommandDeleteElements, ElementIDs: []string{"42"}})
	if err != nil {
		t.Fatal(err)
	}

	got1, err := q.DequeueNext("P")
	if err != nil || got1.CommandID != c1.CommandID {
		t.Fatalf("first dequeue: got %+v, %v", got1, err)
	}
	got2, err := q.DequeueNext("p")
	if err != nil || got2.CommandID != c2.CommandID {
		t.Fatalf("second dequeue: got %+v, %v", got2, err)
	}
	if _, err := q.DequeueNext("P"); err != ErrQueueEmpty {
		t.Fatalf("third dequeue: expected ErrQueueEmpty, got %v", err)
	}
}

func TestEnqueue_EndToEndAddBoxes(t *testing.T) {
	q := NewCommandQueue(nil)
	queued, err := q.Enqueue(addBoxes("P"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := q.DequeueNext("P")
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != models.CommandAddBoxes || len(got.Boxes) != 1 || got.Boxes[0].SizeX != 10 {
		t.Fatalf("unexpected command %+v", got)
	}
	if got.CommandID != queued.CommandID {
		t.Fatalf("command id changed: %s vs %s", got.CommandID, queued.CommandID)
	}
	if _, err := q.DequeueNext("P"); err != ErrQueueEmpty {
		t.Fatalf("expected empty after single delivery, got %v", err)
	}
}

func TestEnqueue_AssignsIDAndServerTimestamp(t *testing.T) {
	clock := newFakeClock()
	q := NewCommandQueue(nil)
	q.now = clock.Now

	cmd := addBoxes("P")
	cmd.CreatedUtc = clock.Now().AddDate(-1, 0, 0)
	queued, err := q.Enqueue(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if queued.CommandID == "" {
		t.Fatal("expected relay-assigned command id")
	}
	if !queued.CreatedUtc.Equal(clock.Now()) {
		t.Fatalf("expected createdUtc %v, got %v", clock.Now(), queued.CreatedUtc)
	}

	cmd.CommandID = "client-1"
	queued, _ = q.Enqueue(cmd)
	if queued.CommandID != "client-1" {
		t.Fatalf("client command id must be kept, got %s", queued.CommandID)
	}
}

func TestEnqueue_RejectedCommandIsNotQueued(t *testing.T) {
	q := NewCommandQueue(nil)
	if _, err := q.Enqueue(models.GeometryCommand{Type: models.CommandAddBoxes}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if q.Pending("") != 0 {
		t.Fatal("rejected command must not be queued")
	}
}

func TestDequeueNext_ProjectAgnostic(t *testing.T) {
	q := NewCommandQueue(nil)
	q.Enqueue(addBoxes("beta"))
	q.Enqueue(addBoxes("alpha"))
	q.Enqueue(addBoxes("alpha"))

	var order []string
	for {
		cmd, err := q.DequeueNext("")
		if err == ErrQueueEmpty {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		order = append(order, cmd.ProjectName)
	}
	want := []string{"alpha", "alpha", "beta"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestDequeueNext_UnknownProjectIsEmpty(t *testing.T) {
	q := NewCommandQueue(nil)
	if _, err := q.DequeueNext("nope"); err != ErrQueueEmpty {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}
	if _, err := q.DequeueNext(""); err != ErrQueueEmpty {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}
}

func TestEnqueue_QueuedCopyIsIsolated(t *testing.T) {
	q := NewCommandQueue(nil)
	cmd := models.GeometryCommand{ProjectName: "P", Type: models.CommandDeleteElements, ElementIDs: []string{"1"}}
	q.Enqueue(cmd)
	cmd.ElementIDs[0] = "changed"

	got, _ := q.DequeueNext("P")
	if got.ElementIDs[0] != "1" {
		t.Fatalf("queued command shares memory with the producer: %v", got.ElementIDs)
	}
}

func TestCommandQueue_ConcurrentProducersAndConsumers(t *testing.T) {
	const producers, perProducer = 8, 100
	q := NewCommandQueue(nil)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if _, err := q.Enqueue(addBoxes("P")); err != nil {
					t.Error(err)
				}
			}
		}()
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	done := make(chan struct{})
	var consumers sync.WaitGroup
	for c := 0; c < 4; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				cmd, err := q.DequeueNext("P")
				if err == ErrQueueEmpty {
					select {
					case <-done:
						if q.Pending("P") == 0 {
							return
						}
					default:
					}
					continue
				}
				mu.Lock()
				seen[cmd.CommandID]++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	close(done)
	consumers.Wait()

	if len(seen) != producers*perProducer {
		t.Fatalf("expected %d distinct deliveries, got %d", producers*perProducer, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("command %s delivered %d times", id, n)
		}
	}
}

func TestCommandQueue_JournalRecordsTransitions(t *testing.T) {
	journal := &recordingJournal{}
	q := NewCommandQueue(journal)
	queued, _ := q.Enqueue(addBoxes("P"))
	q.DequeueNext("P")

	if len(journal.events) != 2 {
		t.Fatalf("expected 2 journal events, got %d", len(journal.events))
	}
	if journal.events[0].Event != models.CommandEventEnqueued || journal.events[1].Event != models.CommandEventDequeued {
		t.Fatalf("unexpected events %+v", journal.events)
	}
	if journal.events[1].CommandID != queued.CommandID {
		t.Fatalf("journal command id mismatch: %s", journal.events[1].CommandID)
	}
}

func TestCommandQueue_JournalFailureDoesNotFailQueue(t *testing.T) {
	q := NewCommandQueue(&recordingJournal{err: errors.New("db down")})
	if _, err := q.Enqueue(addBoxes("P")); err != nil {
		t.Fatalf("journal failure leaked into enqueue: %v", err)
	}
	if _, err := q.DequeueNext("P"); err != nil {
		t.Fatalf("journal failure leaked into dequeue: %v", err)
	}
}
