package noop

import (
	"context"
	"testing"
	"time"

	"github.com/BranchIntl/jobq/core"
	"github.com/BranchIntl/jobq/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ core.Statistics = (*NoOpStatistics)(nil)

func TestNoOpStatistics(t *testing.T) {
	stats := NewStatistics()
	ctx := context.Background()
	worker := core.WorkerInfo{ID: "w1"}
	j := job.Job{ID: 1}

	require.NoError(t, stats.Connect(ctx))
	assert.Equal(t, "noop", stats.Type())
	assert.NoError(t, stats.Health())

	assert.NoError(t, stats.RegisterWorker(ctx, worker))
	assert.NoError(t, stats.RecordJobClaimed(ctx, j, worker))
	assert.NoError(t, stats.RecordJobRetried(ctx, j, worker, assert.AnError))
	assert.NoError(t, stats.RecordJobCompleted(ctx, j, worker, time.Second))
	assert.NoError(t, stats.RecordJobFailed(ctx, j, worker, assert.AnError, time.Second))
	assert.NoError(t, stats.UnregisterWorker(ctx, "w1"))

	ws, err := stats.GetWorkerStats(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, core.WorkerStats{ID: "w1"}, ws)

	global, err := stats.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.GlobalStats{}, global)

	assert.NoError(t, stats.Close())
}
