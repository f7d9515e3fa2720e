package core

import (
	"context"
	"sync"
	"time"
)

// ResultChannel is a single-assignment cell carrying a task's value or failure from
// the goroutine that produced it to any number of readers.
//
// Write happens-before every Read that observes the result. Reads after the cell
// is ready always return the same outcome.
type ResultChannel[R any] struct {
	mu    sync.Mutex
	done  chan struct{}
	ready bool
	value R
	err   error
}

// NewResultChannel returns a pending ResultChannel. It can be used on its own as a
// promise: one goroutine calls Write, others call Read.
func NewResultChannel[R any]() *ResultChannel[R] {
	return &ResultChannel[R]{done: make(chan struct{})}
}

// Write stores the outcome and wakes all blocked readers. A non-nil err marks the
// outcome as a failure and value is discarded. Only the first call succeeds; later
// calls return ErrAlreadyWritten and leave the stored outcome untouched.
func (c *ResultChannel[R]) Write(value R, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return ErrAlreadyWritten
	}
	if err != nil {
		var zero R
		value = zero
	}
	c.value, c.err = value, err
	c.ready = true
	close(c.done)
	return nil
}

// Read blocks until the outcome is written and returns it.
func (c *ResultChannel[R]) Read() (R, error) {
	<-c.done
	return c.load()
}

// ReadWithTimeout is Read bounded by d. It returns ErrTimedOut if nothing was written
// in time; the producer is not affected and a later Read still sees the real outcome.
func (c *ResultChannel[R]) ReadWithTimeout(d time.Duration) (R, error) {
	if v, ok, err := c.TryRead(); ok {
		return v, err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.done:
		return c.load()
	case <-timer.C:
		var zero R
		return zero, ErrTimedOut
	}
}

// ReadContext is Read bounded by ctx. It returns ctx.Err() if ctx ends first.
func (c *ResultChannel[R]) ReadContext(ctx context.Context) (R, error) {
	select {
	case <-c.done:
		return c.load()
	case <-ctx.Done():
		// Prefer a result that raced with cancellation.
		if v, ok, err := c.TryRead(); ok {
			return v, err
		}
		var zero R
		return zero, ctx.Err()
	}
}

// TryRead returns the outcome without blocking; ok is false while pending.
func (c *ResultChannel[R]) TryRead() (value R, ok bool, err error) {
	select {
	case <-c.done:
		value, err = c.load()
		return value, true, err
	default:
		return value, false, nil
	}
}

// Ready reports whether the outcome has been written.
func (c *ResultChannel[R]) Ready() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the outcome is written.
func (c *ResultChannel[R]) Done() <-chan struct{} {
	return c.done
}

func (c *ResultChannel[R]) load() (R, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.err
}

// =============================================================================
// Future: read-only handle returned to submitters
// =============================================================================

// Future is the read side of a submitted task's ResultChannel. It is safe to share
// between goroutines and to read more than once.
type Future[R any] struct {
	id TaskID
	ch *ResultChannel[R]
}

// TaskID returns the ID of the task this Future belongs to.
func (f *Future[R]) TaskID() TaskID { return f.id }

// Get blocks until the task finishes. Failures are returned as *TaskFailure.
func (f *Future[R]) Get() (R, error) { return f.ch.Read() }

// GetWithTimeout returns ErrTimedOut if the task has not finished within d.
func (f *Future[R]) GetWithTimeout(d time.Duration) (R, error) { return f.ch.ReadWithTimeout(d) }

// GetContext returns ctx.Err() if ctx ends before the task finishes.
func (f *Future[R]) GetContext(ctx context.Context) (R, error) { return f.ch.ReadContext(ctx) }

// TryGet returns the outcome if ready.
func (f *Future[R]) TryGet() (R, bool, error) { return f.ch.TryRead() }

// Ready reports whether the task has finished (or was cancelled).
func (f *Future[R]) Ready() bool { return f.ch.Ready() }

// Done returns a channel closed when the outcome is available.
func (f *Future[R]) Done() <-chan struct{} { return f.ch.Done() }
