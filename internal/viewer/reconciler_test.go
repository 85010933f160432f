package viewer

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"

	"geometry-relay/internal/handlers"
	"geometry-relay/internal/models"
	"geometry-relay/internal/relayclient"
	"geometry-relay/internal/services"
	"geometry-relay/internal/utils"
)

type fetchCall struct {
	project string
	etag    string
}

type fakeRelay struct {
	mu        sync.Mutex
	snapshots map[string]*models.GeometrySnapshot
	fetches   []fetchCall
	enqueued  []models.GeometryCommand
	enqueueFn func(models.GeometryCommand) error
	fetchErr  error
	block     chan struct{}
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{snapshots: make(map[string]*models.GeometrySnapshot)}
}

func (f *fakeRelay) put(s *models.GeometrySnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[models.ProjectKey(s.ProjectName)] = s
}

func (f *fakeRelay) FetchLatest(ctx context.Context, project, etag string) (*relayclient.FetchResult, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, fetchCall{project: project, etag: etag})
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	var snap *models.GeometrySnapshot
	if key := models.ProjectKey(project); key != "" {
		snap = f.snapshots[key]
	} else {
		for _, s := range f.snapshots {
			if snap == nil || s.TimestampUtc.After(snap.TimestampUtc) {
				snap = s
			}
		}
	}
	if snap == nil {
		return nil, relayclient.ErrNotFound
	}
	tag := fmt.Sprintf("%q", snap.ProjectName+snap.TimestampUtc.String())
	if tag == etag {
		return &relayclient.FetchResult{ETag: tag, NotModified: true}, nil
	}
	return &relayclient.FetchResult{Snapshot: snap.Clone(), ETag: tag}, nil
}

func (f *fakeRelay) Enqueue(_ context.Context, cmd models.GeometryCommand) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueFn != nil {
		if err := f.enqueueFn(cmd); err != nil {
			return "", err
		}
	}
	f.enqueued = append(f.enqueued, cmd)
	return fmt.Sprintf("cmd-%d", len(f.enqueued)), nil
}

func assertStatus(t *testing.T, r *Reconciler, want Status) {
	t.Helper()
	if got, err := r.Status(); got != want {
		t.Fatalf("expected status %s, got %s (err %v)", want, got, err)
	}
}

func TestReconciler_PollFreshThenStale(t *testing.T) {
	relay := newFakeRelay()
	relay.put(snapshotAt(t0, "1"))
	r := NewReconciler(relay, "Tower")

	if err := r.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	assertStatus(t, r, StatusFresh)

	if err := r.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	assertStatus(t, r, StatusStale)

	if relay.fetches[1].etag == "" || relay.fetches[1].etag != relay.fetches[0].etag {
		t.Fatalf("second poll must present the first etag: %+v", relay.fetches)
	}
}

func TestReconciler_FallsBackToAnyProject(t *testing.T) {
	relay := newFakeRelay()
	relay.put(snapshotAt(t0, "1"))
	r := NewReconciler(relay, "Unknown")

	if err := r.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(relay.fetches) != 2 || relay.fetches[0].project != "Unknown" || relay.fetches[1].project != "" {
		t.Fatalf("expected scoped fetch then fallback, got %+v", relay.fetches)
	}
	if r.State().ProjectName != "Tower" {
		t.Fatalf("expected fallback snapshot, got %+v", r.State())
	}
}

func TestReconciler_NothingYetIsStale(t *testing.T) {
	r := NewReconciler(newFakeRelay(), "")
	if err := r.Poll(context.Background()); err != nil {
		t.Fatalf("not found must not be an error: %v", err)
	}
	assertStatus(t, r, StatusStale)
}

func TestReconciler_TransportErrorSetsError(t *testing.T) {
	relay := newFakeRelay()
	relay.fetchErr = errors.New("connection refused")
	r := NewReconciler(relay, "Tower")

	if err := r.Poll(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	assertStatus(t, r, StatusError)
}

func TestReconciler_OverlappingPollIsSkipped(t *testing.T) {
	relay := newFakeRelay()
	relay.put(snapshotAt(t0, "1"))
	relay.block = make(chan struct{})
	r := NewReconciler(relay, "Tower")

	first := make(chan error, 1)
	go func() { first <- r.Poll(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for {
		if s, _ := r.Status(); s == StatusPolling {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first poll never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := r.Poll(context.Background()); !errors.Is(err, ErrPollInFlight) {
		t.Fatalf("expected ErrPollInFlight, got %v", err)
	}
	close(relay.block)
	if err := <-first; err != nil {
		t.Fatal(err)
	}
	if len(relay.fetches) != 1 {
		t.Fatalf("expected exactly one fetch, got %d", len(relay.fetches))
	}
}

func TestReconciler_OptimisticAddRolledBackOnReject(t *testing.T) {
	relay := newFakeRelay()
	relay.put(snapshotAt(t0, "1"))
	relay.enqueueFn = func(models.GeometryCommand) error { return relayclient.ErrValidation }
	r := NewReconciler(relay, "Tower")
	if err := r.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}

	var sawPending bool
	r.OnChange = func(s SceneState) {
		for _, e := range s.Rendered() {
			sawPending = sawPending || e.Pending
		}
	}

	before := keys(r.Rendered())
	_, err := r.AddBoxes(context.Background(), []models.BoxSpec{{SizeX: 1, SizeY: 1, SizeZ: 1}})
	if !errors.Is(err, relayclient.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !sawPending {
		t.Fatal("box must be rendered before the relay answers")
	}
	if after := keys(r.Rendered()); len(after) != len(before) {
		t.Fatalf("rendered set changed: before %v after %v", before, after)
	}
}

func TestReconciler_PendingEditVanishesOnNewerSnapshot(t *testing.T) {
	relay := newFakeRelay()
	relay.put(snapshotAt(t0, "1"))
	r := NewReconciler(relay, "Tower")
	if err := r.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := r.DeleteElements(context.Background(), []string{"1"}); err != nil {
		t.Fatal(err)
	}
	if len(r.Rendered()) != 0 {
		t.Fatal("deleted element must be hidden while pending")
	}
	if got := relay.enqueued[0]; got.Type != models.CommandDeleteElements || got.ProjectName != "Tower" {
		t.Fatalf("unexpected command: %+v", got)
	}

	// Host has not applied the delete yet; the newer snapshot still wins.
	relay.put(snapshotAt(t0.Add(time.Second), "1"))
	if err := r.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := keys(r.Rendered()); len(got) != 1 || got[0] != "1" {
		t.Fatalf("expected host state after reconcile, got %v", got)
	}
}

func TestReconciler_EditsUseSnapshotProjectWhenUnscoped(t *testing.T) {
	relay := newFakeRelay()
	relay.put(snapshotAt(t0, "1"))
	r := NewReconciler(relay, "")
	if err := r.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := r.MoveElement(context.Background(), "1", models.Vec3{X: 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.SelectElements(context.Background(), []string{"1"}); err != nil {
		t.Fatal(err)
	}
	if len(relay.enqueued) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(relay.enqueued))
	}
	for _, cmd := range relay.enqueued {
		if cmd.ProjectName != "Tower" {
			t.Fatalf("command addressed to %q", cmd.ProjectName)
		}
	}
	if len(r.State().Pending) != 1 {
		t.Fatal("select must not create a pending edit")
	}
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	relay := newFakeRelay()
	relay.put(snapshotAt(t0, "1"))
	r := NewReconciler(relay, "Tower")
	r.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assertStatus(t, r, StatusIdle)
	if len(r.Rendered()) != 1 {
		t.Fatal("Run never applied a snapshot")
	}
}

func TestReconciler_AgainstRelay(t *testing.T) {
	store := services.NewSnapshotStore()
	app := fiber.New()
	handlers.RegisterRoutes(app.Group("/api"),
		handlers.NewGeometryHandler(store, services.NewExportService(store, nil, ""), utils.NewMetrics(prometheus.NewRegistry())),
		handlers.NewCommandHandler(services.NewCommandQueue(nil), nil, utils.NewMetrics(prometheus.NewRegistry())))
	srv := httptest.NewServer(adaptor.FiberApp(app))
	defer srv.Close()

	client := relayclient.New(srv.URL+"/api", time.Second)
	r := NewReconciler(client, "")

	// No snapshot yet, so no project is known and the relay rejects the command.
	_, err := r.AddBoxes(context.Background(), []models.BoxSpec{{SizeX: 10, SizeY: 10, SizeZ: 10}})
	if !errors.Is(err, relayclient.ErrValidation) {
		t.Fatalf("expected relay rejection, got %v", err)
	}
	if len(r.Rendered()) != 0 {
		t.Fatal("rejected add must be rolled back")
	}

	if err := client.IngestSnapshot(context.Background(), snapshotAt(t0, "1")); err != nil {
		t.Fatal(err)
	}
	if err := r.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddBoxes(context.Background(), []models.BoxSpec{{SizeX: 10, SizeY: 10, SizeZ: 10}}); err != nil {
		t.Fatal(err)
	}
	cmd, err := client.DequeueNext(context.Background(), "tower")
	if err != nil || cmd == nil {
		t.Fatalf("expected queued command, got %v, %v", cmd, err)
	}
	if cmd.Type != models.CommandAddBoxes || len(cmd.Boxes) != 1 {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

type deadlineRelay struct {
	*fakeRelay
	mu        sync.Mutex
	remaining []time.Duration
}

func (d *deadlineRelay) record(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return errors.New("relay call without deadline")
	}
	d.mu.Lock()
	d.remaining = append(d.remaining, time.Until(deadline))
	d.mu.Unlock()
	return nil
}

func (d *deadlineRelay) FetchLatest(ctx context.Context, project, etag string) (*relayclient.FetchResult, error) {
	if err := d.record(ctx); err != nil {
		return nil, err
	}
	return d.fakeRelay.FetchLatest(ctx, project, etag)
}

func (d *deadlineRelay) Enqueue(ctx context.Context, cmd models.GeometryCommand) (string, error) {
	if err := d.record(ctx); err != nil {
		return "", err
	}
	return d.fakeRelay.Enqueue(ctx, cmd)
}

func TestReconciler_NonPositiveDurationsUseDefaults(t *testing.T) {
	inner := newFakeRelay()
	inner.put(snapshotAt(t0, "1"))
	relay := &deadlineRelay{fakeRelay: inner}
	r := NewReconciler(relay, "Tower")
	r.Interval = 0
	r.Timeout = -time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for len(r.Rendered()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Run never applied a snapshot")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := r.DeleteElements(context.Background(), []string{"1"}); err != nil {
		t.Fatalf("edit with non-positive Timeout failed: %v", err)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	relay.mu.Lock()
	defer relay.mu.Unlock()
	for _, left := range relay.remaining {
		if left <= 0 || left > relayclient.DefaultTimeout {
			t.Fatalf("expected calls bounded by the default timeout, got %v", left)
		}
	}
}
