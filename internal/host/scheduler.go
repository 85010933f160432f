package host

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Task is a running fixed-period job started by Every.
type Task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// Every runs fn every interval until ctx is cancelled or Stop is called. A failing or
// panicking tick is logged and the schedule continues; ticks that fire while fn is still
// running are dropped rather than queued.
func Every(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{name: name, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := runTick(ctx, fn); err != nil && ctx.Err() == nil {
					log.Printf("[%s] %v", name, err)
				}
			}
		}
	}()
	return t
}

// Stop cancels the task and waits for the running tick, if any, to return.
func (t *Task) Stop() {
	t.cancel()
	<-t.done
}

// Done is closed once the task has stopped.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func runTick(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
