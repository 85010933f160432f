package viewer

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"geometry-relay/internal/models"
	"geometry-relay/internal/relayclient"
)

// ErrPollInFlight is returned by Poll when another poll has not finished yet.
var ErrPollInFlight = errors.New("poll already in flight")

// Status is the poll state of a Reconciler.
type Status int

const (
	StatusIdle Status = iota
	StatusPolling
	StatusFresh
	StatusStale
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPolling:
		return "polling"
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Relay is the part of the relay API the viewer uses.
type Relay interface {
	FetchLatest(ctx context.Context, projectName, etag string) (*relayclient.FetchResult, error)
	Enqueue(ctx context.Context, cmd models.GeometryCommand) (string, error)
}

// Reconciler keeps a SceneState in step with the relay. Polls and edits may be issued from
// any goroutine.
type Reconciler struct {
	relay Relay

	// ProjectName scopes fetches and edits. When empty the viewer follows the newest
	// snapshot of any project and addresses edits to that snapshot's project.
	ProjectName string
	// Interval and Timeout fall back to DefaultInterval and relayclient.DefaultTimeout
	// when not positive.
	Interval time.Duration
	Timeout  time.Duration

	// OnChange, when set, is called with each new state after it was stored.
	OnChange func(SceneState)

	inFlight atomic.Bool

	mu      sync.Mutex
	state   SceneState
	status  Status
	lastErr error
	etags   map[string]string

	newLocalID func() string
}

// DefaultInterval is the poll period used when Interval is not positive.
const DefaultInterval = 2 * time.Second

// NewReconciler creates a reconciler polling every DefaultInterval with the relay client's
// default request timeout.
func NewReconciler(relay Relay, projectName string) *Reconciler {
	return &Reconciler{
		relay:       relay,
		ProjectName: projectName,
		Interval:    DefaultInterval,
		Timeout:     relayclient.DefaultTimeout,
		etags:       make(map[string]string),
		newLocalID:  func() string { return "local-" + uuid.NewString() },
	}
}

// State returns the current scene.
func (r *Reconciler) State() SceneState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Status returns the poll state and the error of the last failed poll.
func (r *Reconciler) Status() (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.lastErr
}

// Rendered is shorthand for State().Rendered().
func (r *Reconciler) Rendered() []RenderedEntity {
	return r.State().Rendered()
}

// Run polls immediately and then on every interval until ctx ends. A tick that fires while
// the previous poll is still running is skipped. Cancelling ctx aborts the in-flight fetch.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()

	var wg sync.WaitGroup
	tick := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Poll(ctx)
			switch {
			case err == nil, errors.Is(err, ErrPollInFlight), ctx.Err() != nil:
			default:
				log.Printf("[VIEWER] Poll failed: %v", err)
			}
		}()
	}

	tick()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			r.setStatus(StatusIdle, nil)
			return ctx.Err()
		case <-ticker.C:
			tick()
		}
	}
}

// Poll fetches the latest snapshot once. A 404 for the configured project falls back to
// the newest snapshot of any project. "Nothing yet" leaves the viewer Stale, not in Error.
func (r *Reconciler) Poll(ctx context.Context) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		return ErrPollInFlight
	}
	defer r.inFlight.Store(false)

	r.setStatus(StatusPolling, nil)

	reqCtx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	res, err := r.fetch(reqCtx, r.ProjectName)
	if errors.Is(err, relayclient.ErrNotFound) && models.ProjectKey(r.ProjectName) != "" {
		res, err = r.fetch(reqCtx, "")
	}
	switch {
	case err != nil && ctx.Err() != nil:
		r.setStatus(StatusIdle, nil)
		return ctx.Err()
	case errors.Is(err, relayclient.ErrNotFound):
		r.setStatus(StatusStale, nil)
		return nil
	case err != nil:
		r.setStatus(StatusError, err)
		return err
	case res.NotModified:
		r.setStatus(StatusStale, nil)
		return nil
	}

	r.mu.Lock()
	before := r.state.Timestamp
	r.state = Reduce(r.state, SnapshotReceived{Snapshot: res.Snapshot})
	applied := r.state.Timestamp.After(before)
	if applied {
		r.status = StatusFresh
	} else {
		r.status = StatusStale
	}
	r.lastErr = nil
	state := r.state
	r.mu.Unlock()

	if applied {
		r.notify(state)
	}
	return nil
}

func (r *Reconciler) fetch(ctx context.Context, project string) (*relayclient.FetchResult, error) {
	key := models.ProjectKey(project)

	r.mu.Lock()
	etag := r.etags[key]
	r.mu.Unlock()

	res, err := r.relay.FetchLatest(ctx, project, etag)
	if err != nil {
		return nil, err
	}
	if res.ETag != "" {
		r.mu.Lock()
		r.etags[key] = res.ETag
		r.mu.Unlock()
	}
	return res, nil
}

// AddBoxes renders the boxes as provisional entities and enqueues an ADD_BOXES command.
// If the enqueue fails the provisional entities are removed again.
func (r *Reconciler) AddBoxes(ctx context.Context, boxes []models.BoxSpec) (string, error) {
	primitives := make([]models.GeometryPrimitive, 0, len(boxes))
	for _, b := range boxes {
		category := b.Category
		if category == "" {
			category = "WebBox"
		}
		primitives = append(primitives, models.GeometryPrimitive{
			Category:     category,
			IsWebCreated: true,
			Center:       b.Center(),
			Size:         b.Size(),
			Properties:   b.Properties,
		})
	}
	localID := r.newLocalID()
	return r.edit(ctx, OptimisticAdd{LocalID: localID, Primitives: primitives}, localID, models.GeometryCommand{
		Type:  models.CommandAddBoxes,
		Boxes: boxes,
	})
}

// MoveElement relocates a host element locally and enqueues a MOVE_ELEMENT command.
func (r *Reconciler) MoveElement(ctx context.Context, elementID string, center models.Vec3) (string, error) {
	localID := r.newLocalID()
	return r.edit(ctx, OptimisticMove{LocalID: localID, ElementID: elementID, NewCenter: center}, localID, models.GeometryCommand{
		Type:            models.CommandMoveElement,
		TargetElementID: elementID,
		NewCenter:       &center,
	})
}

// DeleteElements hides host elements locally and enqueues a DELETE_ELEMENTS command.
func (r *Reconciler) DeleteElements(ctx context.Context, elementIDs []string) (string, error) {
	localID := r.newLocalID()
	return r.edit(ctx, OptimisticDelete{LocalID: localID, ElementIDs: elementIDs}, localID, models.GeometryCommand{
		Type:       models.CommandDeleteElements,
		ElementIDs: elementIDs,
	})
}

// SelectElements asks the host to select elementIDs. The local scene is not changed; the
// host selection comes back with the next snapshot.
func (r *Reconciler) SelectElements(ctx context.Context, elementIDs []string) (string, error) {
	cmd := models.GeometryCommand{
		ProjectName: r.commandProject(),
		Type:        models.CommandSelectElements,
		ElementIDs:  elementIDs,
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	return r.relay.Enqueue(ctx, cmd)
}

func (r *Reconciler) edit(ctx context.Context, action Action, localID string, cmd models.GeometryCommand) (string, error) {
	cmd.ProjectName = r.commandProject()
	r.dispatch(action)

	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	id, err := r.relay.Enqueue(ctx, cmd)
	if err != nil {
		log.Printf("[VIEWER] %s rejected, rolling back %s: %v", cmd.Type, localID, err)
		r.dispatch(Rollback{LocalID: localID})
		return "", errors.Wrapf(err, "enqueue %s", cmd.Type)
	}
	return id, nil
}

func (r *Reconciler) dispatch(action Action) {
	r.mu.Lock()
	r.state = Reduce(r.state, action)
	state := r.state
	r.mu.Unlock()
	r.notify(state)
}

func (r *Reconciler) notify(state SceneState) {
	if r.OnChange != nil {
		r.OnChange(state)
	}
}

func (r *Reconciler) commandProject() string {
	if r.ProjectName != "" {
		return r.ProjectName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.ProjectName
}

func (r *Reconciler) interval() time.Duration {
	if r.Interval <= 0 {
		return DefaultInterval
	}
	return r.Interval
}

func (r *Reconciler) timeout() time.Duration {
	if r.Timeout <= 0 {
		return relayclient.DefaultTimeout
	}
	return r.Timeout
}

func (r *Reconciler) setStatus(status Status, err error) {
	r.mu.Lock()
	r.status = status
	r.lastErr = err
	r.mu.Unlock()
}
