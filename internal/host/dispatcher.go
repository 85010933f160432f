package host

import (
	"context"
	"fmt"
)

type job struct {
	ctx  context.Context
	fn   func() error
	done chan error
}

// Dispatcher hands units of work to the single goroutine that owns the host document.
// Any goroutine may Post; only the goroutine inside Run executes work.
type Dispatcher struct {
	work chan *job
}

// NewDispatcher creates a dispatcher accepting up to backlog posts before Post blocks.
func NewDispatcher(backlog int) *Dispatcher {
	if backlog < 0 {
		backlog = 0
	}
	return &Dispatcher{work: make(chan *job, backlog)}
}

// Post queues fn for the document goroutine and blocks until it ran, returning its error.
// Work whose context ends before it is picked up is skipped.
func (d *Dispatcher) Post(ctx context.Context, fn func() error) error {
	j := &job{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case d.work <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains posted work on the calling goroutine until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-d.work:
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			j.done <- execute(j.fn)
		}
	}
}

func execute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("document work panicked: %v", r)
		}
	}()
	return fn()
}
