package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when a pool is constructed with unusable settings.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrQueueClosed is returned when enqueueing onto a closed TaskQueue.
	ErrQueueClosed = errors.New("task queue is closed")

	// ErrPoolShuttingDown is returned by Submit once Shutdown has begun.
	ErrPoolShuttingDown = errors.New("thread pool is shutting down")

	// ErrTimedOut is returned by bounded reads that expire before a result is written.
	// The task itself keeps running.
	ErrTimedOut = errors.New("timed out waiting for result")

	// ErrAlreadyWritten is returned by a second Write on the same ResultChannel.
	ErrAlreadyWritten = errors.New("result already written")

	// ErrCancelled is delivered to tasks that were still queued when the pool
	// shut down with ShutdownCancelQueued.
	ErrCancelled = errors.New("task cancelled before start")

	// ErrNilTask is returned when a nil task or callable is submitted.
	ErrNilTask = errors.New("task cannot be nil")

	// ErrTaskExited is delivered when a callable ends its goroutine with
	// runtime.Goexit (t.FailNow inside a task, for example) instead of returning.
	ErrTaskExited = errors.New("task exited its goroutine without returning")
)

// TaskFailure is the error delivered through a ResultChannel when the task's
// callable returned an error or panicked.
type TaskFailure struct {
	TaskID TaskID
	Name   string

	// Err is the error returned by the callable, or a synthesized error for panics.
	Err error

	Panicked   bool
	PanicValue any
	Stack      []byte
}

func (f *TaskFailure) Error() string {
	if f.Panicked {
		return fmt.Sprintf("task %s (%s) panicked: %v", f.Name, f.TaskID, f.PanicValue)
	}
	return fmt.Sprintf("task %s (%s) failed: %v", f.Name, f.TaskID, f.Err)
}

func (f *TaskFailure) Unwrap() error {
	return f.Err
}

// errPanic is the Err carried by a TaskFailure produced from a recovered panic.
var errPanic = errors.New("task panicked")

func newPanicFailure(id TaskID, name string, value any, stack []byte) *TaskFailure {
	err := errPanic
	if e, ok := value.(error); ok {
		err = fmt.Errorf("%w: %w", errPanic, e)
	}
	return &TaskFailure{
		TaskID:     id,
		Name:       name,
		Err:        err,
		Panicked:   true,
		PanicValue: value,
		Stack:      stack,
	}
}

// IsPanic reports whether err carries a recovered task panic.
func IsPanic(err error) bool {
	return errors.Is(err, errPanic)
}
