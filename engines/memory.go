// Package engines provides a pre-configured engine for the common case: an
// in-memory queue store, the built-in task handlers, a statistics backend
// chosen by configuration and the standard execution middleware.
//
// Example usage:
//
//	engine, err := engines.NewMemoryEngine(engines.DefaultMemoryOptions())
//	if err != nil {
//		return err
//	}
//	engine.Register("resize_image:", resizeHandler)
//	engine.Run(ctx)
package engines

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BranchIntl/jobq/core"
	"github.com/BranchIntl/jobq/middleware"
	"github.com/BranchIntl/jobq/registry"
	"github.com/BranchIntl/jobq/statistics"
	"github.com/BranchIntl/jobq/store/memory"
	"github.com/BranchIntl/jobq/tasks"
)

// MemoryOptions holds configuration for the in-memory engine
type MemoryOptions struct {
	StoreOptions memory.Options
	Stats        statistics.Config

	// Simulated work delay range applied before every handler
	TaskMinDelay time.Duration
	TaskMaxDelay time.Duration

	// TaskTimeout bounds one attempt; 0 disables it
	TaskTimeout time.Duration

	// Logger is used by the execution middleware; nil means slog.Default()
	Logger *slog.Logger

	EngineOptions []core.EngineOption
}

// DefaultMemoryOptions returns default options for the in-memory engine
func DefaultMemoryOptions() MemoryOptions {
	return MemoryOptions{
		StoreOptions:  memory.DefaultOptions(),
		Stats:         statistics.Config{Type: statistics.NoOp},
		TaskMinDelay:  2 * time.Second,
		TaskMaxDelay:  5 * time.Second,
		EngineOptions: []core.EngineOption{},
	}
}

// MemoryEngine provides a pre-configured engine over the in-memory store
type MemoryEngine struct {
	engine   *core.Engine
	store    *memory.MemoryStore
	stats    core.Statistics
	registry *registry.Registry
}

// NewMemoryEngine creates a new in-memory engine with the built-in handlers
// registered
func NewMemoryEngine(options MemoryOptions) (*MemoryEngine, error) {
	if options.TaskMaxDelay < options.TaskMinDelay {
		return nil, fmt.Errorf("task delay range [%s, %s] is invalid",
			options.TaskMinDelay, options.TaskMaxDelay)
	}

	stats, err := statistics.NewStatistics(options.Stats)
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := memory.NewStore(options.StoreOptions)
	reg := tasks.NewRegistry()

	engineOptions := append([]core.EngineOption{
		core.WithMiddleware(
			middleware.Recover(logger),
			middleware.Tracing(),
			middleware.Metrics(),
			middleware.Logging(logger),
			middleware.Timeout(options.TaskTimeout),
			tasks.SimulatedWork(options.TaskMinDelay, options.TaskMaxDelay),
		),
	}, options.EngineOptions...)

	engine := core.NewEngine(store, stats, reg.Task(), engineOptions...)

	return &MemoryEngine{
		engine:   engine,
		store:    store,
		stats:    stats,
		registry: reg,
	}, nil
}

// Register adds a handler for a payload marker
func (e *MemoryEngine) Register(marker string, handler registry.Handler) error {
	return e.registry.Register(marker, handler)
}

// Run starts the engine and blocks until shutdown
func (e *MemoryEngine) Run(ctx context.Context) error {
	return e.engine.Run(ctx)
}

// Start begins processing jobs
func (e *MemoryEngine) Start(ctx context.Context) error {
	return e.engine.Start(ctx)
}

// Stop gracefully shuts down the engine
func (e *MemoryEngine) Stop() error {
	return e.engine.Stop()
}

// MustStart begins processing and panics on error
func (e *MemoryEngine) MustStart(ctx context.Context) {
	if err := e.Start(ctx); err != nil {
		panic(fmt.Sprintf("MemoryEngine.Start failed: %v", err))
	}
}

// Health returns the engine health status
func (e *MemoryEngine) Health() core.HealthStatus {
	return e.engine.Health()
}

// Component accessors

// Engine returns the underlying core engine
func (e *MemoryEngine) Engine() *core.Engine {
	return e.engine
}

// GetStore returns the memory store
func (e *MemoryEngine) GetStore() *memory.MemoryStore {
	return e.store
}

// GetStats returns the statistics backend
func (e *MemoryEngine) GetStats() core.Statistics {
	return e.stats
}

// GetRegistry returns the handler registry
func (e *MemoryEngine) GetRegistry() *registry.Registry {
	return e.registry
}
