package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// PoolState is the lifecycle state of a ThreadPool.
type PoolState int32

const (
	// PoolRunning accepts submissions.
	PoolRunning PoolState = iota
	// PoolDraining refuses submissions while workers finish.
	PoolDraining
	// PoolStopped means every worker has exited.
	PoolStopped
)

func (s PoolState) String() string {
	switch s {
	case PoolRunning:
		return "running"
	case PoolDraining:
		return "draining"
	case PoolStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ThreadPool owns a fixed set of workers and one TaskQueue.
//
// Workers start in the constructor and run until Shutdown (or Close). A pool that
// is never shut down keeps its goroutines alive; callers should defer Close.
type ThreadPool struct {
	id     string
	cfg    Config
	logger Logger

	queue   *TaskQueue
	workers []*Worker
	wg      sync.WaitGroup

	// ctx is handed to every task; cancelled once the pool stops, or at shutdown
	// under ShutdownCancelQueued.
	ctx    context.Context
	cancel context.CancelFunc

	state        atomic.Int32
	shutdownOnce sync.Once
	stopped      chan struct{}

	history *executionHistory

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	panicked  atomic.Int64
	cancelled atomic.Int64
	rejected  atomic.Int64
	active    atomic.Int32
}

// NewThreadPool creates a pool with the given number of workers and default handlers.
func NewThreadPool(workers int) (*ThreadPool, error) {
	cfg := DefaultConfig()
	cfg.Workers = workers
	return NewThreadPoolWithConfig(cfg)
}

// NewThreadPoolWithConfig validates cfg and starts cfg.Workers workers.
// On error no goroutine is started.
func NewThreadPoolWithConfig(cfg Config) (*ThreadPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if cfg.ID == "" {
		cfg.ID = "pool-" + uuid.NewString()[:8]
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &ThreadPool{
		id:      cfg.ID,
		cfg:     cfg,
		logger:  cfg.Logger,
		queue:   NewTaskQueue(),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		history: newExecutionHistory(cfg.HistoryCapacity),
	}

	p.workers = make([]*Worker, cfg.Workers)
	p.wg.Add(cfg.Workers)
	for i := range cfg.Workers {
		w := newWorker(i, p.queue, p)
		p.workers[i] = w
		go w.run(p.ctx)
	}

	go func() {
		p.wg.Wait()
		p.state.Store(int32(PoolStopped))
		p.cancel()
		p.logger.Info("thread pool stopped", F("pool", p.id))
		close(p.stopped)
	}()

	p.logger.Info("thread pool started",
		F("pool", p.id),
		F("workers", cfg.Workers),
		F("shutdown_policy", cfg.ShutdownPolicy),
	)
	return p, nil
}

// =============================================================================
// Submission
// =============================================================================

// Submit queues c and returns the Future that will receive its result.
// It never waits for the task to run. After shutdown has begun it returns an
// error matching both ErrPoolShuttingDown and ErrQueueClosed.
func Submit[R any](p *ThreadPool, c Callable[R]) (*Future[R], error) {
	return SubmitNamed(p, "", c)
}

// SubmitNamed is Submit with an explicit task name for logs and history.
func SubmitNamed[R any](p *ThreadPool, name string, c Callable[R]) (*Future[R], error) {
	if c == nil {
		return nil, p.reject("nil task", ErrNilTask)
	}
	if f, ok := c.(CallableFunc[R]); ok && f == nil {
		return nil, p.reject("nil task", ErrNilTask)
	}

	task := newBoundTask(name, c)
	if err := p.enqueue(task); err != nil {
		return nil, err
	}
	return task.future(), nil
}

// SubmitFunc submits a plain function.
func SubmitFunc[R any](p *ThreadPool, fn func(ctx context.Context) (R, error)) (*Future[R], error) {
	if fn == nil {
		return nil, p.reject("nil task", ErrNilTask)
	}
	return SubmitNamed(p, resolveTaskName(fn), CallableFunc[R](fn))
}

// Post submits a task that produces no value. The returned Future reports
// completion, failures and panics.
func Post(p *ThreadPool, fn func(ctx context.Context)) (*Future[struct{}], error) {
	if fn == nil {
		return nil, p.reject("nil task", ErrNilTask)
	}
	return SubmitNamed(p, resolveTaskName(fn), CallableFunc[struct{}](func(ctx context.Context) (struct{}, error) {
		fn(ctx)
		return struct{}{}, nil
	}))
}

func (p *ThreadPool) enqueue(t Task) error {
	if p.State() != PoolRunning {
		return p.reject("shutting down", ErrPoolShuttingDown)
	}
	// Counted before the task becomes visible to workers, so Completed never
	// overtakes Submitted in a snapshot.
	p.submitted.Add(1)
	if err := p.queue.Enqueue(t); err != nil {
		p.submitted.Add(-1)
		if errors.Is(err, ErrQueueClosed) {
			// Shutdown closed the queue after the state check.
			return p.reject("shutting down", ErrPoolShuttingDown)
		}
		return err
	}
	p.cfg.Metrics.RecordQueueDepth(p.id, p.queue.Len())
	return nil
}

func (p *ThreadPool) reject(reason string, err error) error {
	p.rejected.Add(1)
	p.cfg.Metrics.RecordTaskRejected(p.id, reason)
	p.safeCall("rejected task handler", func() {
		p.cfg.RejectedTaskHandler.HandleRejectedTask(p.id, reason)
	})
	if errors.Is(err, ErrPoolShuttingDown) {
		return fmt.Errorf("%w: %w", ErrPoolShuttingDown, ErrQueueClosed)
	}
	return err
}

// =============================================================================
// Shutdown
// =============================================================================

// Shutdown closes the queue so no further submissions are accepted. Under
// ShutdownCancelQueued, tasks that have not started receive ErrCancelled. If wait
// is true it blocks until every worker has exited. Calling it again only waits.
func (p *ThreadPool) Shutdown(wait bool) {
	p.shutdownOnce.Do(p.beginShutdown)
	if wait {
		p.Wait()
	}
}

// ShutdownContext begins shutdown and waits for the workers until ctx ends.
func (p *ThreadPool) ShutdownContext(ctx context.Context) error {
	p.Shutdown(false)

	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// Close shuts the pool down and waits for the workers. It always returns nil.
func (p *ThreadPool) Close() error {
	p.Shutdown(true)
	return nil
}

func (p *ThreadPool) beginShutdown() {
	p.state.CompareAndSwap(int32(PoolRunning), int32(PoolDraining))
	p.queue.Close()

	p.logger.Info("thread pool shutting down",
		F("pool", p.id),
		F("policy", p.cfg.ShutdownPolicy),
		F("queued", p.queue.Len()),
	)

	if p.cfg.ShutdownPolicy == ShutdownCancelQueued {
		p.cancel()
		for _, t := range p.queue.DrainPending() {
			if err := t.Cancel(ErrCancelled); err != nil {
				p.logger.Error("cancel queued task", F("pool", p.id), F("task", t.ID()), F("error", err))
				continue
			}
			p.cancelled.Add(1)
			p.cfg.Metrics.RecordTaskCancelled(p.id)
		}
	}
	p.cfg.Metrics.RecordQueueDepth(p.id, p.queue.Len())
}

// Wait blocks until every worker has exited. It only returns after Shutdown.
func (p *ThreadPool) Wait() {
	<-p.stopped
}

// Done returns a channel closed once the pool has stopped.
func (p *ThreadPool) Done() <-chan struct{} {
	return p.stopped
}

// =============================================================================
// Worker events
// =============================================================================

func (p *ThreadPool) onTaskStart(w *Worker, t Task) {
	p.active.Add(1)
}

func (p *ThreadPool) onTaskEnd(w *Worker, t Task, out Outcome) {
	p.active.Add(-1)

	outcome := OutcomeSuccess
	switch {
	case out.Panicked:
		outcome = OutcomePanic
		p.panicked.Add(1)
		p.failed.Add(1)
		p.cfg.Metrics.RecordTaskPanic(p.id, out.PanicValue)
		p.safeCall("panic handler", func() {
			p.cfg.PanicHandler.HandlePanic(p.ctx, p.id, w.ID(), out.PanicValue, out.Stack)
		})
	case out.Err != nil:
		outcome = OutcomeFailure
		p.failed.Add(1)
	default:
		p.completed.Add(1)
	}

	if errors.Is(out.Err, ErrTaskExited) {
		p.logger.Warn("task exited its goroutine, worker replaced",
			F("pool", p.id),
			F("worker", w.ID()),
			F("task", t.ID()),
		)
	}

	if out.WriteErr != nil {
		p.logger.Error("task outcome not delivered",
			F("pool", p.id),
			F("task", t.ID()),
			F("error", out.WriteErr),
		)
	}

	p.cfg.Metrics.RecordTaskDuration(p.id, outcome, out.Duration())
	p.cfg.Metrics.RecordQueueDepth(p.id, p.queue.Len())
	p.history.Add(TaskExecutionRecord{
		TaskID:     t.ID(),
		Name:       t.Name(),
		PoolID:     p.id,
		WorkerID:   w.ID(),
		StartedAt:  out.StartedAt,
		FinishedAt: out.FinishedAt,
		Duration:   out.Duration(),
		Failed:     out.Err != nil,
		Panicked:   out.Panicked,
	})
}

func (p *ThreadPool) onWorkerExit(w *Worker) {
	p.logger.Debug("worker exited", F("pool", p.id), F("worker", w.ID()))
	p.wg.Done()
}

// safeCall runs a user-supplied handler without letting it take down a worker.
func (p *ThreadPool) safeCall(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(what+" panicked", F("pool", p.id), F("panic", r))
		}
	}()
	fn()
}

// =============================================================================
// Introspection
// =============================================================================

// ID returns the pool ID.
func (p *ThreadPool) ID() string { return p.id }

// State returns the lifecycle state.
func (p *ThreadPool) State() PoolState { return PoolState(p.state.Load()) }

// IsRunning reports whether the pool accepts submissions.
func (p *ThreadPool) IsRunning() bool { return p.State() == PoolRunning }

// WorkerCount returns the fixed number of workers.
func (p *ThreadPool) WorkerCount() int { return len(p.workers) }

// QueueDepth returns the number of tasks waiting for a worker.
func (p *ThreadPool) QueueDepth() int { return p.queue.Len() }

// ActiveTaskCount returns the number of tasks currently executing.
func (p *ThreadPool) ActiveTaskCount() int { return int(p.active.Load()) }

// IdleWorkerCount returns the number of workers not executing a task.
func (p *ThreadPool) IdleWorkerCount() int {
	idle := 0
	for _, w := range p.workers {
		if w.State() == WorkerIdle {
			idle++
		}
	}
	return idle
}

// RecentTasks returns up to limit execution records, newest first.
func (p *ThreadPool) RecentTasks(limit int) []TaskExecutionRecord {
	return p.history.Recent(limit)
}

// LastTask returns the most recently finished execution record.
func (p *ThreadPool) LastTask() (TaskExecutionRecord, bool) {
	return p.history.Last()
}

// Stats returns a point-in-time snapshot.
//
// A task's counters are updated after its Future is written, so a snapshot taken
// right after Get returns may not include that task yet. Submitted is counted
// before a task can start, so Completed+Failed never exceeds it.
func (p *ThreadPool) Stats() PoolStats {
	return PoolStats{
		ID:          p.id,
		State:       p.State(),
		Workers:     p.WorkerCount(),
		IdleWorkers: p.IdleWorkerCount(),
		Queued:      p.QueueDepth(),
		Active:      p.ActiveTaskCount(),
		Submitted:   p.submitted.Load(),
		Completed:   p.completed.Load(),
		Failed:      p.failed.Load(),
		Panicked:    p.panicked.Load(),
		Cancelled:   p.cancelled.Load(),
		Rejected:    p.rejected.Load(),
	}
}
