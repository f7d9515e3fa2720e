package taskpool

import (
	"context"

	"github.com/Swind/go-task-pool/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the taskpool package for most use cases.

// ThreadPool owns the workers and the task queue.
type ThreadPool = core.ThreadPool

// Config configures a ThreadPool.
type Config = core.Config

// ShutdownPolicy selects what happens to queued tasks at shutdown.
type ShutdownPolicy = core.ShutdownPolicy

// Callable is the unit of work submitted to a pool.
type Callable[R any] = core.Callable[R]

// CallableFunc adapts a function to Callable.
type CallableFunc[R any] = core.CallableFunc[R]

// Future is the read side of a submitted task's result.
type Future[R any] = core.Future[R]

// ResultChannel is a write-once result slot usable on its own as a promise.
type ResultChannel[R any] = core.ResultChannel[R]

type (
	TaskID              = core.TaskID
	TaskFailure         = core.TaskFailure
	PoolStats           = core.PoolStats
	PoolState           = core.PoolState
	TaskExecutionRecord = core.TaskExecutionRecord
	Logger              = core.Logger
	Field               = core.Field
	Metrics             = core.Metrics
	PanicHandler        = core.PanicHandler
	RejectedTaskHandler = core.RejectedTaskHandler
)

// Shutdown policies
const (
	ShutdownDrain        = core.ShutdownDrain
	ShutdownCancelQueued = core.ShutdownCancelQueued
)

// Errors
var (
	ErrInvalidConfiguration = core.ErrInvalidConfiguration
	ErrQueueClosed          = core.ErrQueueClosed
	ErrPoolShuttingDown     = core.ErrPoolShuttingDown
	ErrTimedOut             = core.ErrTimedOut
	ErrAlreadyWritten       = core.ErrAlreadyWritten
	ErrCancelled            = core.ErrCancelled
	ErrNilTask              = core.ErrNilTask
	ErrTaskExited           = core.ErrTaskExited
)

var (
	DefaultConfig = core.DefaultConfig
	LoadConfig    = core.LoadConfig
	IsPanic       = core.IsPanic
	F             = core.F
)

// NewThreadPool starts a pool with the given number of workers.
func NewThreadPool(workers int) (*ThreadPool, error) {
	return core.NewThreadPool(workers)
}

// NewThreadPoolWithConfig starts a pool from cfg.
func NewThreadPoolWithConfig(cfg Config) (*ThreadPool, error) {
	return core.NewThreadPoolWithConfig(cfg)
}

// NewResultChannel creates an empty ResultChannel.
func NewResultChannel[R any]() *ResultChannel[R] {
	return core.NewResultChannel[R]()
}

// Generic functions cannot be re-exported as variables, so they are forwarded.

// Submit queues c on p and returns its Future.
func Submit[R any](p *ThreadPool, c Callable[R]) (*Future[R], error) {
	return core.Submit(p, c)
}

// SubmitNamed is Submit with an explicit task name.
func SubmitNamed[R any](p *ThreadPool, name string, c Callable[R]) (*Future[R], error) {
	return core.SubmitNamed(p, name, c)
}

// SubmitFunc submits a plain function.
func SubmitFunc[R any](p *ThreadPool, fn func(ctx context.Context) (R, error)) (*Future[R], error) {
	return core.SubmitFunc(p, fn)
}

// Post submits a task that produces no value.
func Post(p *ThreadPool, fn func(ctx context.Context)) (*Future[struct{}], error) {
	return core.Post(p, fn)
}

// Async runs c on a dedicated goroutine outside any pool.
func Async[R any](ctx context.Context, c Callable[R]) *Future[R] {
	return core.Async(ctx, c)
}

// Bind binds one argument to fn.
func Bind[A, R any](fn func(context.Context, A) (R, error), arg A) Callable[R] {
	return core.Bind(fn, arg)
}

// Bind2 binds two arguments to fn.
func Bind2[A, B, R any](fn func(context.Context, A, B) (R, error), a A, b B) Callable[R] {
	return core.Bind2(fn, a, b)
}

// Pure wraps a function that cannot fail.
func Pure[A, R any](fn func(A) R, arg A) Callable[R] {
	return core.Pure(fn, arg)
}
