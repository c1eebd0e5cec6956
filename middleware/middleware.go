// Package middleware wraps task execution with cross-cutting behavior such
// as logging, panic recovery, tracing and metrics. Middleware runs inside the
// dispatcher, between a successful claim and the outcome report.
package middleware

import (
	"context"

	"github.com/BranchIntl/jobq/job"
)

// Handler runs the task for the job being executed and returns its output.
type Handler func(ctx context.Context) (string, error)

// Middleware wraps a Handler. It receives a snapshot of the claimed job and
// must call next to continue the chain unless it short-circuits.
type Middleware func(ctx context.Context, j job.Job, next Handler) (string, error)

// Chain composes middleware into one. The first middleware in the list is
// the outermost wrapper:
//
//	Chain(logging, recover)  // logging → recover → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, j job.Job, next Handler) (string, error) {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) (string, error) {
				return mw(ctx, j, prev)
			}
		}
		return h(ctx)
	}
}
