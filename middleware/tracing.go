package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/BranchIntl/jobq/job"
)

// instrumentationName is the scope name for jobq traces and metrics.
const instrumentationName = "github.com/BranchIntl/jobq"

// Tracing returns middleware that wraps each attempt in a span from the
// global TracerProvider. Without a configured provider it is a pass-through.
//
// Span attributes: jobq.job.id, jobq.job.priority, jobq.job.attempt,
// jobq.job.max_retries.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(instrumentationName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j job.Job, next Handler) (string, error) {
		ctx, span := tracer.Start(ctx, "jobq.job.execute",
			trace.WithAttributes(
				attribute.Int64("jobq.job.id", int64(j.ID)),
				attribute.String("jobq.job.priority", j.EffectivePriority().String()),
				attribute.Int("jobq.job.attempt", j.Attempt()),
				attribute.Int("jobq.job.max_retries", j.MaxRetries),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		out, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return out, err
	}
}
