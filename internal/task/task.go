// Package task provides the small concurrency primitives the viewer builds
// on: cancellable background handles for the per-workbook parse/index
// workers, and a coalescer that folds bursts of scroll events into one
// recomputation per frame.
package task

import (
	"context"
	"sync"
)

// Handle is a cancellable background task. The worker must check Context
// between chunks; cancellation is cooperative, never preemptive, so partial
// chunk writes cannot corrupt the store.
type Handle struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

// Start launches fn on its own goroutine and returns its handle.
func Start(parent context.Context, fn func(ctx context.Context) error) *Handle {
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{ctx: ctx, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.err = fn(ctx)
	}()
	return h
}

// Context exposes the task's context for cooperative checks.
func (h *Handle) Context() context.Context { return h.ctx }

// Cancel requests cooperative shutdown. Safe to call more than once.
func (h *Handle) Cancel() {
	h.once.Do(h.cancel)
}

// Wait blocks until the task returns and reports its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Done closes when the task has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Coalescer collapses any number of Trigger calls into a single pending
// flush. Scroll handlers Trigger on every event; the render loop calls
// Flush once per frame, so recomputation runs at most once per frame.
type Coalescer struct {
	mu      sync.Mutex
	pending bool
	fn      func()
}

// NewCoalescer wraps fn.
func NewCoalescer(fn func()) *Coalescer {
	return &Coalescer{fn: fn}
}

// Trigger marks work pending. Cheap; callable from any goroutine.
func (c *Coalescer) Trigger() {
	c.mu.Lock()
	c.pending = true
	c.mu.Unlock()
}

// Flush runs the wrapped function once if any Trigger arrived since the
// last flush. Returns whether it ran.
func (c *Coalescer) Flush() bool {
	c.mu.Lock()
	run := c.pending
	c.pending = false
	c.mu.Unlock()
	if run {
		c.fn()
	}
	return run
}
