package core

import "time"

// TaskExecutionRecord captures a completed task execution event.
type TaskExecutionRecord struct {
	TaskID     TaskID
	Name       string
	PoolID     string
	WorkerID   int
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Failed     bool
	Panicked   bool
}

// PoolStats represents runtime observability state for a thread pool.
// It is a snapshot; the pool never uses it for its own decisions.
type PoolStats struct {
	ID          string
	State       PoolState
	Workers     int
	IdleWorkers int
	Queued      int
	Active      int
	Submitted   int64
	Completed   int64
	Failed      int64
	Panicked    int64
	Cancelled   int64
	Rejected    int64
}
