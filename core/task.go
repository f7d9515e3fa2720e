package core

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// TaskID identifies a submitted task.
type TaskID uuid.UUID

// GenerateTaskID returns a new random TaskID.
func GenerateTaskID() TaskID {
	return TaskID(uuid.New())
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id was never assigned.
func (id TaskID) IsZero() bool {
	return id == TaskID(uuid.Nil)
}

// =============================================================================
// Callable: the unit of work supplied by callers
// =============================================================================

// Callable is any value that can be invoked once to produce a result of type R or fail.
// The context is cancelled when the pool shuts down with ShutdownCancelQueued, so
// long-running callables may return early; the engine never interrupts them otherwise.
type Callable[R any] interface {
	Call(ctx context.Context) (R, error)
}

// CallableFunc adapts a function to Callable.
type CallableFunc[R any] func(ctx context.Context) (R, error)

// Call implements Callable.
func (f CallableFunc[R]) Call(ctx context.Context) (R, error) {
	return f(ctx)
}

// Bind binds arg to fn. arg is copied at bind time, so later changes made by the
// caller to its own variable are not observed by the task.
func Bind[A, R any](fn func(context.Context, A) (R, error), arg A) Callable[R] {
	if fn == nil {
		return nil
	}
	return CallableFunc[R](func(ctx context.Context) (R, error) {
		return fn(ctx, arg)
	})
}

// Bind2 is Bind for two-argument functions.
func Bind2[A, B, R any](fn func(context.Context, A, B) (R, error), a A, b B) Callable[R] {
	if fn == nil {
		return nil
	}
	return CallableFunc[R](func(ctx context.Context) (R, error) {
		return fn(ctx, a, b)
	})
}

// Pure wraps a function that cannot fail.
func Pure[A, R any](fn func(A) R, arg A) Callable[R] {
	if fn == nil {
		return nil
	}
	return CallableFunc[R](func(context.Context) (R, error) {
		return fn(arg), nil
	})
}

// =============================================================================
// Task: the type-erased work item held by the TaskQueue
// =============================================================================

// Task is a callable already bound to the ResultChannel that receives its outcome.
type Task interface {
	ID() TaskID
	Name() string

	// Execute runs the task, writes its outcome to the paired ResultChannel and
	// reports what happened. Panics raised by the callable are recovered. If the
	// callable calls runtime.Goexit, ErrTaskExited is written before the calling
	// goroutine ends and Execute does not return.
	Execute(ctx context.Context) Outcome

	// Cancel writes a failure wrapping cause to the paired ResultChannel without
	// running the task.
	Cancel(cause error) error
}

// Outcome describes a single task execution as seen by the worker.
type Outcome struct {
	Err        error
	Panicked   bool
	PanicValue any
	Stack      []byte
	StartedAt  time.Time
	FinishedAt time.Time

	// WriteErr is non-nil if the outcome could not be stored, which only happens
	// when something else already wrote the channel.
	WriteErr error
}

// Duration returns how long the callable ran.
func (o Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

type boundTask[R any] struct {
	id       TaskID
	name     string
	callable Callable[R]
	result   *ResultChannel[R]
}

func newBoundTask[R any](name string, callable Callable[R]) *boundTask[R] {
	id := GenerateTaskID()
	if name == "" {
		name = resolveTaskName(callable)
	}
	return &boundTask[R]{
		id:       id,
		name:     name,
		callable: callable,
		result:   NewResultChannel[R](),
	}
}

func (t *boundTask[R]) ID() TaskID   { return t.id }
func (t *boundTask[R]) Name() string { return t.name }

func (t *boundTask[R]) Execute(ctx context.Context) (out Outcome) {
	var (
		value R
		err   error
	)

	out.StartedAt = time.Now()

	// A callable that calls runtime.Goexit skips everything after the inner func;
	// this defer still runs and writes a failure so readers never hang.
	returned := false
	defer func() {
		if returned {
			return
		}
		var zero R
		out.FinishedAt = time.Now()
		out.Err = &TaskFailure{TaskID: t.id, Name: t.name, Err: ErrTaskExited}
		out.WriteErr = t.result.Write(zero, out.Err)
	}()

	func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				err = newPanicFailure(t.id, t.name, r, stack)
				out.Panicked = true
				out.PanicValue = r
				out.Stack = stack
			}
		}()
		value, err = t.callable.Call(ctx)
		if err != nil {
			err = &TaskFailure{TaskID: t.id, Name: t.name, Err: err}
		}
	}()
	returned = true
	out.FinishedAt = time.Now()

	if err != nil {
		var zero R
		value = zero
	}
	out.Err = err
	out.WriteErr = t.result.Write(value, err)
	return out
}

func (t *boundTask[R]) Cancel(cause error) error {
	var zero R
	return t.result.Write(zero, &TaskFailure{TaskID: t.id, Name: t.name, Err: cause})
}

func (t *boundTask[R]) future() *Future[R] {
	return &Future[R]{id: t.id, ch: t.result}
}
