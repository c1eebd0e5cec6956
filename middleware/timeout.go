package middleware

import (
	"context"
	"time"

	"github.com/BranchIntl/jobq/job"
)

// Timeout returns middleware that bounds each attempt. A zero or negative
// limit disables it. The task is expected to honor ctx; a task that ignores
// cancellation still runs to completion.
func Timeout(limit time.Duration) Middleware {
	return func(ctx context.Context, j job.Job, next Handler) (string, error) {
		if limit <= 0 {
			return next(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, limit)
		defer cancel()
		return next(ctx)
	}
}
