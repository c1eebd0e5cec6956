package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/BranchIntl/jobq/errors"
	"github.com/BranchIntl/jobq/job"
	"github.com/google/uuid"
)

// Engine wires a store, a statistics backend and a task function into a
// running worker pool
type Engine struct {
	store  Store
	stats  Statistics
	task   TaskFunc
	config *Config

	instanceID string
	workerPool *WorkerPool

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a new engine with dependency injection
func NewEngine(
	store Store,
	stats Statistics,
	task TaskFunc,
	options ...EngineOption,
) *Engine {
	config := defaultConfig()
	for _, opt := range options {
		opt(config)
	}

	return &Engine{
		store:      store,
		stats:      stats,
		task:       task,
		config:     config,
		instanceID: uuid.NewString()[:8],
	}
}

// Start connects statistics and launches the worker pool
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		return fmt.Errorf("engine already started")
	}
	if e.task == nil {
		return errors.ErrNilTaskFunc
	}
	if e.config.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be positive, got %d",
			errors.ErrInvalidConfig, e.config.Concurrency)
	}

	if err := e.stats.Connect(ctx); err != nil {
		return errors.NewConnectionError("",
			fmt.Errorf("failed to connect statistics: %w", err))
	}

	e.ctx, e.cancel = context.WithCancel(ctx)
	e.workerPool = NewWorkerPool(e.store, e.stats, e.task, e.config, e.instanceID)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.workerPool.Start(e.ctx); err != nil {
			slog.Error("Worker pool error", "error", err)
		}
	}()

	slog.Info("Engine started", "instance", e.instanceID, "store", e.store.Type(), "stats", e.stats.Type())
	return nil
}

// Stop cancels the workers, waits up to the shutdown timeout for in-flight
// tasks and closes the statistics backend
func (e *Engine) Stop() error {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Engine stopped gracefully")
	case <-time.After(e.config.ShutdownTimeout):
		slog.Warn("Engine shutdown timeout exceeded")
	}

	if err := e.stats.Close(); err != nil {
		slog.Error("Error closing statistics", "error", err)
	}

	return nil
}

// Run starts the engine and blocks until ctx is done or a shutdown signal
// is received
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
	}

	return e.Stop()
}

// Submit adds a job to the store
func (e *Engine) Submit(ctx context.Context, req job.SubmitRequest) (job.Job, error) {
	return e.store.Submit(ctx, req)
}

// Get returns a snapshot of one job
func (e *Engine) Get(ctx context.Context, id uint64) (job.Job, error) {
	return e.store.Get(ctx, id)
}

// List returns a snapshot of every tracked job in claim order
func (e *Engine) List(ctx context.Context) []job.Job {
	return e.store.List(ctx)
}

// Health returns the current health status
func (e *Engine) Health() HealthStatus {
	storeHealth := e.store.Health()
	statsHealth := e.stats.Health()

	activeWorkers := 0
	if pool := e.pool(); pool != nil {
		activeWorkers = pool.ActiveWorkers()
	}

	return HealthStatus{
		Healthy:       storeHealth == nil && statsHealth == nil,
		StoreHealth:   storeHealth,
		StatsHealth:   statsHealth,
		ActiveWorkers: activeWorkers,
		TrackedJobs:   e.store.Len(context.Background()),
		LastCheck:     time.Now(),
	}
}

// WorkerStats returns in-process counters for every worker
func (e *Engine) WorkerStats() []WorkerStats {
	pool := e.pool()
	if pool == nil {
		return nil
	}
	return pool.GetWorkerStats()
}

// GlobalStats returns aggregate counters from the statistics backend
func (e *Engine) GlobalStats(ctx context.Context) (GlobalStats, error) {
	return e.stats.GetGlobalStats(ctx)
}

// GetStore returns the store
func (e *Engine) GetStore() Store {
	return e.store
}

// GetStats returns the statistics backend
func (e *Engine) GetStats() Statistics {
	return e.stats
}

// GetConfig returns a copy of the engine configuration
func (e *Engine) GetConfig() Config {
	return *e.config
}

func (e *Engine) pool() *WorkerPool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workerPool
}
