package core

import "context"

// Async runs c on its own goroutine, outside any pool, and returns its Future.
// Panics are recovered into a *TaskFailure exactly as in a pool worker.
func Async[R any](ctx context.Context, c Callable[R]) *Future[R] {
	if f, ok := c.(CallableFunc[R]); c == nil || (ok && f == nil) {
		ch := NewResultChannel[R]()
		var zero R
		_ = ch.Write(zero, ErrNilTask)
		return &Future[R]{ch: ch}
	}

	task := newBoundTask("", c)
	go task.Execute(ctx)
	return task.future()
}
