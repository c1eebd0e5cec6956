package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BranchIntl/jobq/middleware"
)

// WorkerPool runs a fixed number of workers against one shared store, plus
// a background sweep of expired jobs.
type WorkerPool struct {
	store         Store
	stats         Statistics
	task          TaskFunc
	chain         middleware.Middleware
	concurrency   int
	pollInterval  time.Duration
	purgeInterval time.Duration
	prefix        string

	mu            sync.RWMutex
	workers       []*Worker
	activeWorkers int32
	wg            sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. Worker ids are derived from
// prefix and the worker's slot number.
func NewWorkerPool(
	store Store,
	stats Statistics,
	task TaskFunc,
	config *Config,
	prefix string,
) *WorkerPool {
	var chain middleware.Middleware
	if len(config.Middleware) > 0 {
		chain = middleware.Chain(config.Middleware...)
	}

	return &WorkerPool{
		store:         store,
		stats:         stats,
		task:          task,
		chain:         chain,
		concurrency:   config.Concurrency,
		pollInterval:  config.PollInterval,
		purgeInterval: config.PurgeInterval,
		prefix:        prefix,
		workers:       make([]*Worker, 0, config.Concurrency),
	}
}

// Start runs every worker and blocks until ctx is cancelled and all of them
// have returned
func (wp *WorkerPool) Start(ctx context.Context) error {
	slog.Info("Starting worker pool", "workers", wp.concurrency)

	wp.mu.Lock()
	for i := 0; i < wp.concurrency; i++ {
		worker := NewWorker(
			fmt.Sprintf("%s-%d", wp.prefix, i),
			wp.store,
			wp.stats,
			wp.task,
			wp.chain,
			wp.pollInterval,
		)
		wp.workers = append(wp.workers, worker)
	}
	workers := wp.workers
	wp.mu.Unlock()

	for _, worker := range workers {
		wp.wg.Add(1)
		atomic.AddInt32(&wp.activeWorkers, 1)
		go func(w *Worker) {
			defer wp.wg.Done()
			defer atomic.AddInt32(&wp.activeWorkers, -1)

			if err := w.Work(ctx); err != nil {
				slog.Error("Worker error", "error", err)
			}
		}(worker)
	}

	if wp.purgeInterval > 0 {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			wp.purgeLoop(ctx)
		}()
	}

	wp.wg.Wait()
	slog.Info("Worker pool stopped")
	return nil
}

// purgeLoop removes expired jobs on a fixed interval
func (wp *WorkerPool) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(wp.purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := wp.store.Purge(ctx); n > 0 {
				slog.Debug("Purged expired jobs", "count", n)
			}
		}
	}
}

// ActiveWorkers returns the number of active workers
func (wp *WorkerPool) ActiveWorkers() int {
	return int(atomic.LoadInt32(&wp.activeWorkers))
}

// GetWorkerStats returns statistics for all workers
func (wp *WorkerPool) GetWorkerStats() []WorkerStats {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	stats := make([]WorkerStats, 0, len(wp.workers))
	for _, worker := range wp.workers {
		stats = append(stats, worker.GetStats())
	}
	return stats
}
