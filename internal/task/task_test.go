package task

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHandleWaitReturnsWorkerError(t *testing.T) {
	want := errors.New("worker failed")
	h := Start(context.Background(), func(ctx context.Context) error {
		return want
	})
	if err := h.Wait(); !errors.Is(err, want) {
		t.Fatalf("Wait = %v, want %v", err, want)
	}
	select {
	case <-h.Done():
	default:
		t.Fatalf("Done not closed after Wait")
	}
}

func TestHandleCancelIsCooperative(t *testing.T) {
	started := make(chan struct{})
	h := Start(context.Background(), func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	h.Cancel()
	h.Cancel() // safe to call again
	if err := h.Wait(); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait after cancel = %v", err)
	}
}

func TestHandleInheritsParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := Start(parent, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()
	done := make(chan error, 1)
	go func() { done <- h.Wait() }()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Wait = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("task ignored parent cancellation")
	}
}

func TestCoalescerManyTriggersOneFlush(t *testing.T) {
	runs := 0
	c := NewCoalescer(func() { runs++ })
	for i := 0; i < 100; i++ {
		c.Trigger()
	}
	if !c.Flush() {
		t.Fatalf("Flush with pending work reported false")
	}
	if runs != 1 {
		t.Fatalf("fn ran %d times for one flush, want 1", runs)
	}
	// Nothing pending: Flush is a no-op.
	if c.Flush() {
		t.Fatalf("Flush without triggers reported true")
	}
	if runs != 1 {
		t.Fatalf("fn ran again without a trigger")
	}
}

func TestCoalescerTriggerAfterFlush(t *testing.T) {
	runs := 0
	c := NewCoalescer(func() { runs++ })
	c.Trigger()
	c.Flush()
	c.Trigger()
	c.Flush()
	if runs != 2 {
		t.Fatalf("fn ran %d times, want 2", runs)
	}
}
