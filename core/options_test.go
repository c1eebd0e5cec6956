package core

import (
	"context"
	"testing"
	"time"

	"github.com/BranchIntl/jobq/job"
	"github.com/BranchIntl/jobq/middleware"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := defaultConfig()

	assert.Equal(t, 4, config.Concurrency)
	assert.Equal(t, 100*time.Millisecond, config.PollInterval)
	assert.Equal(t, time.Second, config.PurgeInterval)
	assert.Equal(t, 30*time.Second, config.ShutdownTimeout)
	assert.Empty(t, config.Middleware)
}

func TestMultipleOptions(t *testing.T) {
	config := defaultConfig()
	noop := func(ctx context.Context, j job.Job, next middleware.Handler) (string, error) {
		return next(ctx)
	}

	options := []EngineOption{
		WithConcurrency(15),
		WithPollInterval(3 * time.Second),
		WithPurgeInterval(0),
		WithShutdownTimeout(60 * time.Second),
		WithMiddleware(noop),
		WithMiddleware(noop, noop),
	}

	for _, option := range options {
		option(config)
	}

	assert.Equal(t, 15, config.Concurrency)
	assert.Equal(t, 3*time.Second, config.PollInterval)
	assert.Equal(t, time.Duration(0), config.PurgeInterval)
	assert.Equal(t, 60*time.Second, config.ShutdownTimeout)
	assert.Len(t, config.Middleware, 3)
}
