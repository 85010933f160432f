package host

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEvery_ContinuesAfterErrorsAndPanics(t *testing.T) {
	var calls int32
	task := Every(context.Background(), "TEST", 5*time.Millisecond, func(ctx context.Context) error {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			return errors.New("transient")
		case 2:
			panic("unexpected")
		}
		return nil
	})
	defer task.Stop()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&calls) < 4 {
		select {
		case <-deadline:
			t.Fatalf("task stopped ticking after %d calls", atomic.LoadInt32(&calls))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEvery_StopCancelsRunningTick(t *testing.T) {
	started := make(chan struct{})
	var once int32
	task := Every(context.Background(), "TEST", time.Millisecond, func(ctx context.Context) error {
		if atomic.CompareAndSwapInt32(&once, 0, 1) {
			close(started)
		}
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	stopped := make(chan struct{})
	go func() {
		task.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel the running tick")
	}
	select {
	case <-task.Done():
	default:
		t.Fatal("Done must be closed after Stop")
	}
}

func TestEvery_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := Every(ctx, "TEST", time.Hour, func(context.Context) error { return nil })
	cancel()
	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task must stop when its parent context ends")
	}
}
