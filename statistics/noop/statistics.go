// Package noop provides a statistics backend that records nothing.
package noop

import (
	"context"
	"time"

	"github.com/BranchIntl/jobq/core"
	"github.com/BranchIntl/jobq/job"
)

// NoOpStatistics implements core.Statistics with no-op operations
type NoOpStatistics struct{}

// NewStatistics creates a new no-op statistics backend
func NewStatistics() *NoOpStatistics {
	return &NoOpStatistics{}
}

func (n *NoOpStatistics) Connect(ctx context.Context) error { return nil }
func (n *NoOpStatistics) Close() error                      { return nil }
func (n *NoOpStatistics) Health() error                     { return nil }
func (n *NoOpStatistics) Type() string                      { return "noop" }

func (n *NoOpStatistics) RegisterWorker(ctx context.Context, worker core.WorkerInfo) error {
	return nil
}

func (n *NoOpStatistics) UnregisterWorker(ctx context.Context, workerID string) error {
	return nil
}

func (n *NoOpStatistics) RecordJobClaimed(ctx context.Context, j job.Job, worker core.WorkerInfo) error {
	return nil
}

func (n *NoOpStatistics) RecordJobCompleted(ctx context.Context, j job.Job, worker core.WorkerInfo, duration time.Duration) error {
	return nil
}

func (n *NoOpStatistics) RecordJobRetried(ctx context.Context, j job.Job, worker core.WorkerInfo, err error) error {
	return nil
}

func (n *NoOpStatistics) RecordJobFailed(ctx context.Context, j job.Job, worker core.WorkerInfo, err error, duration time.Duration) error {
	return nil
}

// GetWorkerStats returns empty statistics carrying only the worker id
func (n *NoOpStatistics) GetWorkerStats(ctx context.Context, workerID string) (core.WorkerStats, error) {
	return core.WorkerStats{ID: workerID}, nil
}

// GetGlobalStats returns zeroed global statistics
func (n *NoOpStatistics) GetGlobalStats(ctx context.Context) (core.GlobalStats, error) {
	return core.GlobalStats{}, nil
}
