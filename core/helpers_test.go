package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BranchIntl/jobq/job"
	"github.com/BranchIntl/jobq/store/memory"
	"github.com/stretchr/testify/require"
)

// TestSetup provides common test dependencies
type TestSetup struct {
	Store *memory.MemoryStore
	Stats *MockStatistics
}

// NewTestSetup creates a standard test setup with a fresh store
func NewTestSetup() *TestSetup {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &TestSetup{
		Store: memory.NewStore(memory.DefaultOptions()),
		Stats: NewMockStatistics(),
	}
}

// ContextWithTimeout creates a context with standard timeout for tests
func ContextWithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Second)
}

// ContextWithCustomTimeout creates a context with custom timeout
func ContextWithCustomTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// EchoTask succeeds with a "Processed: " prefix
func EchoTask(ctx context.Context, payload string) (string, error) {
	return "Processed: " + payload, nil
}

// FailingTask always fails
func FailingTask(ctx context.Context, payload string) (string, error) {
	return "", errors.New("Simulated failure")
}

// JobBuilder helps submit test jobs with a fluent interface
type JobBuilder struct {
	req job.SubmitRequest
}

// NewJob starts building a submission
func NewJob(payload string) *JobBuilder {
	return &JobBuilder{req: job.SubmitRequest{Payload: payload}}
}

// WithPriority sets the job priority
func (b *JobBuilder) WithPriority(p job.Priority) *JobBuilder {
	b.req.Priority = p.Ptr()
	return b
}

// WithMaxRetries sets the retry budget
func (b *JobBuilder) WithMaxRetries(n int) *JobBuilder {
	b.req.MaxRetries = &n
	return b
}

// WithTTL sets the time to live in seconds
func (b *JobBuilder) WithTTL(seconds int64) *JobBuilder {
	b.req.TTLSeconds = &seconds
	return b
}

// Submit adds the job to the setup's store
func (b *JobBuilder) Submit(t *testing.T, s *TestSetup) job.Job {
	t.Helper()
	j, err := s.Store.Submit(context.Background(), b.req)
	require.NoError(t, err)
	return j
}

// EngineBuilder helps create engines for testing
type EngineBuilder struct {
	setup   *TestSetup
	task    TaskFunc
	options []EngineOption
}

// NewEngine starts building a test engine
func (s *TestSetup) NewEngine(task TaskFunc) *EngineBuilder {
	return &EngineBuilder{
		setup: s,
		task:  task,
		options: []EngineOption{
			WithPollInterval(5 * time.Millisecond),
			WithShutdownTimeout(time.Second),
		},
	}
}

// WithOptions adds engine options
func (b *EngineBuilder) WithOptions(options ...EngineOption) *EngineBuilder {
	b.options = append(b.options, options...)
	return b
}

// Build creates the engine
func (b *EngineBuilder) Build() *Engine {
	return NewEngine(b.setup.Store, b.setup.Stats, b.task, b.options...)
}

// NewWorker creates a worker against the setup's store
func (s *TestSetup) NewWorker(task TaskFunc, options ...EngineOption) *Worker {
	config := defaultConfig()
	for _, opt := range options {
		opt(config)
	}

	pool := NewWorkerPool(s.Store, s.Stats, task, config, "test")
	return NewWorker("test-worker", s.Store, s.Stats, task, pool.chain, 5*time.Millisecond)
}

// WaitForStatus polls the store until the job reaches status or the
// timeout elapses
func (s *TestSetup) WaitForStatus(t *testing.T, id uint64, status job.Status, timeout time.Duration) job.Job {
	t.Helper()

	require.Eventually(t, func() bool {
		j, err := s.Store.Get(context.Background(), id)
		return err == nil && j.Status == status
	}, timeout, 5*time.Millisecond, "job %d never reached %s", id, status)

	j, err := s.Store.Get(context.Background(), id)
	require.NoError(t, err)
	return j
}
