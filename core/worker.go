package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/BranchIntl/jobq/errors"
	"github.com/BranchIntl/jobq/job"
	"github.com/BranchIntl/jobq/middleware"
)

// Worker is a single dispatcher: it claims the next eligible job from the
// shared store, runs the task on its payload and reports the outcome.
type Worker struct {
	id           string
	hostname     string
	pid          int
	store        Store
	stats        Statistics
	task         TaskFunc
	chain        middleware.Middleware
	pollInterval time.Duration

	// Statistics
	claimed    int64
	processed  int64
	retried    int64
	failed     int64
	inProgress int64
	lastJob    int64
	startTime  time.Time
}

// NewWorker creates a new worker. chain may be nil.
func NewWorker(
	id string,
	store Store,
	stats Statistics,
	task TaskFunc,
	chain middleware.Middleware,
	pollInterval time.Duration,
) *Worker {
	hostname, _ := os.Hostname()

	return &Worker{
		id:           id,
		hostname:     hostname,
		pid:          os.Getpid(),
		store:        store,
		stats:        stats,
		task:         task,
		chain:        chain,
		pollInterval: pollInterval,
		startTime:    time.Now(),
	}
}

// GetID returns the worker's unique ID
func (w *Worker) GetID() string {
	return fmt.Sprintf("%s:%d-%s", w.hostname, w.pid, w.id)
}

func (w *Worker) info() WorkerInfo {
	return WorkerInfo{
		ID:       w.GetID(),
		Hostname: w.hostname,
		Pid:      w.pid,
		Started:  w.startTime,
	}
}

// Work runs the claim → execute → report loop until ctx is cancelled. When
// nothing is claimable the worker sleeps for the poll interval.
func (w *Worker) Work(ctx context.Context) error {
	if err := w.stats.RegisterWorker(ctx, w.info()); err != nil {
		slog.Error("Failed to register worker", "error", err)
	}

	defer func() {
		if err := w.stats.UnregisterWorker(context.WithoutCancel(ctx), w.GetID()); err != nil {
			slog.Error("Failed to unregister worker", "error", err)
		}
	}()

	slog.Info("Worker started", "id", w.GetID())

	for {
		select {
		case <-ctx.Done():
			slog.Info("Worker stopping", "id", w.GetID())
			return nil
		default:
		}

		if w.Step(ctx) {
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("Worker stopping", "id", w.GetID())
			return nil
		case <-time.After(w.pollInterval):
		}
	}
}

// Step runs exactly one cycle. It returns false when no job was claimable.
func (w *Worker) Step(ctx context.Context) bool {
	j, ok := w.store.ClaimNext(ctx)
	if !ok {
		return false
	}

	w.processJob(ctx, j)
	return true
}

// processJob handles a single claimed job
func (w *Worker) processJob(ctx context.Context, j job.Job) {
	startTime := time.Now()
	worker := w.info()

	atomic.AddInt64(&w.claimed, 1)
	atomic.AddInt64(&w.inProgress, 1)
	defer atomic.AddInt64(&w.inProgress, -1)
	atomic.StoreInt64(&w.lastJob, startTime.UnixNano())

	if err := w.stats.RecordJobClaimed(ctx, j, worker); err != nil {
		slog.Error("Failed to record job claim", "error", err)
	}

	slog.Debug("Job claimed", "job_id", j.ID, "attempt", j.Attempt(), "worker", worker.ID)

	output, err := w.executeJob(ctx, j)
	if err == nil {
		if !w.store.Report(ctx, j.ID, job.StatusCompleted, &output) {
			w.handleJobDropped(j)
			return
		}
		w.handleJobSuccess(ctx, j, worker, startTime)
		return
	}

	if w.store.Retry(ctx, j.ID) {
		w.handleJobRetry(ctx, j, worker, err)
		return
	}

	message := fmt.Sprintf("Failed after %d retries: %v", j.MaxRetries, err)
	if !w.store.Report(ctx, j.ID, job.StatusFailed, &message) {
		w.handleJobDropped(j)
		return
	}
	w.handleJobError(ctx, j, worker, err, startTime)
}

// handleJobDropped covers a job that left the store while it ran, usually
// because it expired. Nothing is recorded against it.
func (w *Worker) handleJobDropped(j job.Job) {
	slog.Debug("Job no longer tracked, outcome discarded", "job_id", j.ID, "worker", w.GetID())
}

// executeJob runs the task through the middleware chain with panic recovery
func (w *Worker) executeJob(ctx context.Context, j job.Job) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = ""
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	handler := func(ctx context.Context) (string, error) {
		return w.task(ctx, j.Payload)
	}

	if w.chain != nil {
		return w.chain(ctx, j, handler)
	}
	return handler(ctx)
}

// handleJobSuccess records successful job completion
func (w *Worker) handleJobSuccess(ctx context.Context, j job.Job, worker WorkerInfo, startTime time.Time) {
	duration := time.Since(startTime)

	atomic.AddInt64(&w.processed, 1)

	if err := w.stats.RecordJobCompleted(ctx, j, worker, duration); err != nil {
		slog.Error("Failed to record job completion", "error", err)
	}

	slog.Debug("Job completed", "job_id", j.ID, "duration", duration)
}

// handleJobRetry records a failed attempt that went back into rotation
func (w *Worker) handleJobRetry(ctx context.Context, j job.Job, worker WorkerInfo, err error) {
	atomic.AddInt64(&w.retried, 1)

	taskErr := errors.NewTaskError(j.ID, j.Attempt(), err)
	if err := w.stats.RecordJobRetried(ctx, j, worker, taskErr); err != nil {
		slog.Error("Failed to record job retry", "error", err)
	}

	slog.Info("Job queued for retry", "job_id", j.ID, "retries", j.Retries+1, "max_retries", j.MaxRetries, "error", err)
}

// handleJobError records a job that exhausted its retry budget
func (w *Worker) handleJobError(ctx context.Context, j job.Job, worker WorkerInfo, err error, startTime time.Time) {
	duration := time.Since(startTime)

	atomic.AddInt64(&w.failed, 1)

	taskErr := errors.NewTaskError(j.ID, j.Attempt(), err)
	if err := w.stats.RecordJobFailed(ctx, j, worker, taskErr, duration); err != nil {
		slog.Error("Failed to record job failure", "error", err)
	}

	slog.Error("Job failed", "job_id", j.ID, "attempts", j.Attempt(), "error", err)
}

// GetStats returns current worker statistics
func (w *Worker) GetStats() WorkerStats {
	var lastJob time.Time
	if ns := atomic.LoadInt64(&w.lastJob); ns != 0 {
		lastJob = time.Unix(0, ns)
	}

	return WorkerStats{
		ID:         w.GetID(),
		Claimed:    atomic.LoadInt64(&w.claimed),
		Processed:  atomic.LoadInt64(&w.processed),
		Retried:    atomic.LoadInt64(&w.retried),
		Failed:     atomic.LoadInt64(&w.failed),
		InProgress: atomic.LoadInt64(&w.inProgress),
		StartTime:  w.startTime,
		LastJob:    lastJob,
	}
}
