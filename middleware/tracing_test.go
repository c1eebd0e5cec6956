package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	mw "github.com/BranchIntl/jobq/middleware"
)

func setupTestTracer() (*tracetest.SpanRecorder, trace.Tracer) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, tp.Tracer("test")
}

func TestTracing_SpanAttributes(t *testing.T) {
	sr, tracer := setupTestTracer()
	j := newTestJob()

	_, err := mw.TracingWithTracer(tracer)(context.Background(), j, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "jobq.job.execute", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	attrs := make(map[string]any)
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, int64(7), attrs["jobq.job.id"])
	assert.Equal(t, "High", attrs["jobq.job.priority"])
	assert.Equal(t, int64(2), attrs["jobq.job.attempt"])
	assert.Equal(t, int64(3), attrs["jobq.job.max_retries"])
}

func TestTracing_ErrorStatus(t *testing.T) {
	sr, tracer := setupTestTracer()

	_, err := mw.TracingWithTracer(tracer)(context.Background(), newTestJob(), func(context.Context) (string, error) {
		return "", errors.New("Simulated failure")
	})
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "Simulated failure", spans[0].Status().Description)
	assert.NotEmpty(t, spans[0].Events())
}

func TestTracing_PropagatesSpanContext(t *testing.T) {
	_, tracer := setupTestTracer()

	_, _ = mw.TracingWithTracer(tracer)(context.Background(), newTestJob(), func(ctx context.Context) (string, error) {
		assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
		return "", nil
	})
}

func TestTracing_GlobalNoop(t *testing.T) {
	out, err := mw.Tracing()(context.Background(), newTestJob(), func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
