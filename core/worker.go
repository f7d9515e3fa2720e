package core

import (
	"context"
	"sync/atomic"
	"time"
)

// WorkerState is the lifecycle state of a Worker.
type WorkerState int32

const (
	WorkerIdle WorkerState = iota
	WorkerRunning
	WorkerExited
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerRunning:
		return "running"
	case WorkerExited:
		return "exited"
	default:
		return "unknown"
	}
}

// taskObserver receives worker events. ThreadPool is the only implementation.
type taskObserver interface {
	onTaskStart(w *Worker, t Task)
	onTaskEnd(w *Worker, t Task, out Outcome)
	onWorkerExit(w *Worker)
}

// Worker is a long-lived goroutine that executes tasks from a shared TaskQueue
// until the queue is closed and drained.
type Worker struct {
	id       int
	queue    *TaskQueue
	observer taskObserver
	state    atomic.Int32
}

func newWorker(id int, queue *TaskQueue, observer taskObserver) *Worker {
	return &Worker{id: id, queue: queue, observer: observer}
}

// ID returns the worker index within its pool.
func (w *Worker) ID() int { return w.id }

// State returns the current state.
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

func (w *Worker) run(ctx context.Context) {
	for {
		task, ok := w.queue.DequeueBlocking()
		if !ok {
			w.state.Store(int32(WorkerExited))
			w.observer.onWorkerExit(w)
			return
		}

		w.state.Store(int32(WorkerRunning))
		w.observer.onTaskStart(w, task)
		w.execute(ctx, task)
		w.state.Store(int32(WorkerIdle))
	}
}

// execute runs one task and reports its outcome. If the task ends the goroutine
// with runtime.Goexit, the deferred report still fires and a new goroutine takes
// over the loop, so the pool keeps its worker count.
func (w *Worker) execute(ctx context.Context, task Task) {
	startedAt := time.Now()
	returned := false
	defer func() {
		if returned {
			return
		}
		w.observer.onTaskEnd(w, task, Outcome{
			Err:        &TaskFailure{TaskID: task.ID(), Name: task.Name(), Err: ErrTaskExited},
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
		})
		w.state.Store(int32(WorkerIdle))
		go w.run(ctx)
	}()

	// Execute recovers the callable's panics and writes the outcome itself.
	out := task.Execute(ctx)
	returned = true

	w.observer.onTaskEnd(w, task, out)
}
