package core

import (
	"context"
	"time"

	"github.com/BranchIntl/jobq/job"
)

// TaskFunc executes a job payload and returns its output. It may block for
// as long as the work takes and should return early when ctx is done.
type TaskFunc func(ctx context.Context, payload string) (string, error)

// Store interface defines what core needs from a queue store
type Store interface {
	// Submission and lookup
	Submit(ctx context.Context, req job.SubmitRequest) (job.Job, error)
	Get(ctx context.Context, id uint64) (job.Job, error)
	List(ctx context.Context) []job.Job
	Len(ctx context.Context) int

	// Job lifecycle
	ClaimNext(ctx context.Context) (job.Job, bool)
	Report(ctx context.Context, id uint64, status job.Status, result *string) bool
	Retry(ctx context.Context, id uint64) bool
	Purge(ctx context.Context) int

	Health() error
	Type() string
}

// Statistics interface defines what core needs from a statistics backend
type Statistics interface {
	// Worker lifecycle
	RegisterWorker(ctx context.Context, worker WorkerInfo) error
	UnregisterWorker(ctx context.Context, workerID string) error

	// Job metrics
	RecordJobClaimed(ctx context.Context, j job.Job, worker WorkerInfo) error
	RecordJobCompleted(ctx context.Context, j job.Job, worker WorkerInfo, duration time.Duration) error
	RecordJobRetried(ctx context.Context, j job.Job, worker WorkerInfo, err error) error
	RecordJobFailed(ctx context.Context, j job.Job, worker WorkerInfo, err error, duration time.Duration) error

	// Statistics queries
	GetWorkerStats(ctx context.Context, workerID string) (WorkerStats, error)
	GetGlobalStats(ctx context.Context) (GlobalStats, error)

	// Health and connection
	Connect(ctx context.Context) error
	Close() error
	Health() error
	Type() string
}

// WorkerInfo describes a worker
type WorkerInfo struct {
	ID       string    `json:"id"`
	Hostname string    `json:"hostname"`
	Pid      int       `json:"pid"`
	Started  time.Time `json:"started"`
}

// WorkerStats contains statistics for a worker
type WorkerStats struct {
	ID         string    `json:"id"`
	Claimed    int64     `json:"claimed"`
	Processed  int64     `json:"processed"`
	Retried    int64     `json:"retried"`
	Failed     int64     `json:"failed"`
	InProgress int64     `json:"in_progress"`
	StartTime  time.Time `json:"start_time"`
	LastJob    time.Time `json:"last_job"`
}

// GlobalStats contains global statistics
type GlobalStats struct {
	TotalClaimed   int64 `json:"total_claimed"`
	TotalProcessed int64 `json:"total_processed"`
	TotalRetried   int64 `json:"total_retried"`
	TotalFailed    int64 `json:"total_failed"`
	ActiveWorkers  int64 `json:"active_workers"`
}

// HealthStatus represents the health of the engine
type HealthStatus struct {
	Healthy       bool
	StoreHealth   error
	StatsHealth   error
	ActiveWorkers int
	TrackedJobs   int
	LastCheck     time.Time
}
