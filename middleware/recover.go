package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/BranchIntl/jobq/job"
)

// Recover returns middleware that turns a panicking task into an error,
// logging the stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j job.Job, next Handler) (out string, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("task panicked",
					slog.Uint64("job_id", j.ID),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				out = ""
				retErr = fmt.Errorf("panic: %v", r)
			}
		}()
		return next(ctx)
	}
}
