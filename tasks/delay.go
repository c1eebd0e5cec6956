package tasks

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/BranchIntl/jobq/job"
	"github.com/BranchIntl/jobq/middleware"
)

// SimulatedWork returns middleware that sleeps a uniformly random duration
// in [lo, hi] before running the task. If ctx ends first the attempt fails
// with the context error. A hi below lo is treated as lo.
func SimulatedWork(lo, hi time.Duration) middleware.Middleware {
	return func(ctx context.Context, j job.Job, next middleware.Handler) (string, error) {
		if err := sleep(ctx, randomDuration(lo, hi)); err != nil {
			return "", err
		}
		return next(ctx)
	}
}

func randomDuration(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
