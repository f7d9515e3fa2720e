// Package taskpool provides a fixed-size worker pool that runs submitted callables
// and hands their results back through write-once Futures.
//
// The engine lives in the core package; this package re-exports the types most
// callers need so a single import is enough.
//
// # Quick Start
//
// Create a pool, submit work, read the results, and close the pool:
//
//	pool, err := taskpool.NewThreadPool(4)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	future, err := taskpool.Submit(pool, taskpool.Pure(square, 7))
//	if err != nil {
//		return err
//	}
//	v, err := future.Get() // 49
//
// # Key Concepts
//
// Callable: any value with Call(ctx) (R, error). Bind, Bind2 and Pure adapt plain
// functions and copy their arguments at submission time.
//
// Future: the read side of a task's ResultChannel. Get blocks until the outcome is
// written; GetWithTimeout and GetContext bound the wait without cancelling the
// task. Any number of goroutines may read the same Future.
//
// ThreadPool: the workers and the FIFO TaskQueue they share. Tasks start in
// submission order. A task that returns an error or panics reports a *TaskFailure
// through its own Future and never affects other tasks or the worker.
//
// # Shutdown
//
// Shutdown(true), or Close, stops accepting submissions and waits for the workers.
// Under ShutdownDrain (the default) every queued task still runs. Under
// ShutdownCancelQueued queued tasks receive ErrCancelled and running tasks see
// their context cancelled. Submissions made after shutdown began fail with an error
// matching both ErrPoolShuttingDown and ErrQueueClosed.
package taskpool
