package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/BranchIntl/jobq/job"
)

// Logging returns middleware that logs the start and outcome of each attempt.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j job.Job, next Handler) (string, error) {
		logger.Info("job attempt started",
			slog.Uint64("job_id", j.ID),
			slog.String("priority", j.EffectivePriority().String()),
			slog.Int("attempt", j.Attempt()),
		)

		start := time.Now()
		out, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("job attempt failed",
				slog.Uint64("job_id", j.ID),
				slog.Int("attempt", j.Attempt()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("job attempt succeeded",
				slog.Uint64("job_id", j.ID),
				slog.Int("attempt", j.Attempt()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return out, err
	}
}
