package core

import (
	"sync"

	"github.com/eapache/queue"
)

// TaskQueue is an unbounded FIFO of pending tasks with blocking dequeue and a
// closed flag. One mutex guards both the ring buffer and the flag; the same mutex
// backs the condition variable, so a wake-up is never lost between a consumer's
// predicate check and its Wait.
type TaskQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	tasks    *queue.Queue
	closed   bool
	waiting  int
}

// NewTaskQueue returns an empty open queue.
func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{tasks: queue.New()}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends t and wakes one blocked consumer.
// Returns ErrQueueClosed once Close has been called.
func (q *TaskQueue) Enqueue(t Task) error {
	if t == nil {
		return ErrNilTask
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.tasks.Add(t)
	q.notEmpty.Signal()
	return nil
}

// DequeueBlocking removes and returns the head of the queue, waiting while the
// queue is empty and open. ok is false once the queue is closed and drained.
func (q *TaskQueue) DequeueBlocking() (t Task, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Re-check after every wake: Signal can race with another consumer, and
	// Cond.Wait may return without a matching notification.
	for q.tasks.Length() == 0 && !q.closed {
		q.waiting++
		q.notEmpty.Wait()
		q.waiting--
	}

	if q.tasks.Length() == 0 {
		return nil, false
	}
	return q.tasks.Remove().(Task), true
}

// TryDequeue is the non-blocking form of DequeueBlocking.
func (q *TaskQueue) TryDequeue() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.tasks.Length() == 0 {
		return nil, false
	}
	return q.tasks.Remove().(Task), true
}

// Close marks the queue closed and wakes every blocked consumer. Already queued
// tasks can still be dequeued. Calling Close more than once is a no-op.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
}

// DrainPending removes every queued task and returns them in FIFO order.
func (q *TaskQueue) DrainPending() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.tasks.Length()
	if n == 0 {
		return nil
	}

	pending := make([]Task, 0, n)
	for q.tasks.Length() > 0 {
		pending = append(pending, q.tasks.Remove().(Task))
	}
	return pending
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.Length()
}

// IsEmpty reports whether no task is queued.
func (q *TaskQueue) IsEmpty() bool {
	return q.Len() == 0
}

// IsClosed reports whether Close has been called.
func (q *TaskQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Waiting returns the number of consumers currently blocked in DequeueBlocking.
func (q *TaskQueue) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiting
}
