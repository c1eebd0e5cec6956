// Package jobq is an in-process priority job queue. Jobs are submitted
// with a payload, an optional priority, retry budget and time-to-live, and
// are executed by a fixed pool of workers that always claim the highest
// priority pending job first.
//
// jobq is made of small pieces that can be used on their own:
//   - store/memory: the bounded queue store
//   - core: the engine, worker pool and workers
//   - registry and tasks: payload routing and the built-in handlers
//   - middleware: logging, panic recovery, timeouts, tracing and metrics
//     around each attempt
//   - statistics: noop, Redis and RabbitMQ counters
//   - api: the HTTP binding
//
// # Example
//
//	package main
//
//	import (
//		"context"
//
//		"github.com/BranchIntl/jobq/core"
//		"github.com/BranchIntl/jobq/statistics/noop"
//		"github.com/BranchIntl/jobq/store/memory"
//		"github.com/BranchIntl/jobq/tasks"
//	)
//
//	func main() {
//		store := memory.NewStore(memory.DefaultOptions())
//		reg := tasks.NewRegistry()
//
//		engine := core.NewEngine(
//			store,
//			noop.NewStatistics(),
//			reg.Task(),
//			core.WithConcurrency(8),
//		)
//
//		// Start processing and wait for shutdown signals
//		ctx := context.Background()
//		if err := engine.Run(ctx); err != nil {
//			panic(err)
//		}
//	}
//
// # Sharing Resources
//
// To create handlers that share a database pool or other
// resources, use a closure to share variables.
//
//	func newReportHandler(db *sql.DB) registry.Handler {
//		return func(ctx context.Context, userID string) (string, error) {
//			return buildReport(ctx, db, userID)
//		}
//	}
//
//	reg.Register("generate_report_for_user:", newReportHandler(db))
//
// # Retries
//
// A failed attempt goes back to Pending, keeping its place in line, until
// its max_retries budget is spent. The job then becomes Failed with the
// result "Failed after <max_retries> retries: <error>".
//
// # Expiration
//
// A job submitted with ttl_seconds is removed from the store once
// created_at + ttl has passed, whatever its status. Removal happens
// before every claim and on the worker pool's purge interval.
package jobq
