package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/BranchIntl/jobq/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinHandlers(t *testing.T) {
	task := NewRegistry().Task()

	tests := []struct {
		payload string
		want    string
		wantErr error
	}{
		{payload: "generate_report_for_user:42", want: "Report generated for user 42"},
		{payload: "send_email:a@b.c", want: "Email sent to a@b.c"},
		{payload: "send_email:a@b.c:extra", want: "Email sent to a@b.c"},
		{payload: "send_email:", want: "Email sent to "},
		{payload: "fail", wantErr: ErrSimulatedFailure},
		{payload: "failure", want: "Processed: failure"},
		{payload: "hello world", want: "Processed: hello world"},
		{payload: "", want: "Processed: "},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			out, err := task(context.Background(), tt.payload)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "Simulated failure", err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestNewRegistry_Markers(t *testing.T) {
	assert.Equal(t, []string{"fail", "generate_report_for_user:", "send_email:"}, NewRegistry().List())
}

func TestRandomDuration(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := randomDuration(2*time.Millisecond, 5*time.Millisecond)
		assert.GreaterOrEqual(t, d, 2*time.Millisecond)
		assert.LessOrEqual(t, d, 5*time.Millisecond)
	}

	assert.Equal(t, 3*time.Millisecond, randomDuration(3*time.Millisecond, time.Millisecond))
	assert.Equal(t, time.Duration(0), randomDuration(0, 0))
}

func TestSimulatedWork_Delays(t *testing.T) {
	m := SimulatedWork(20*time.Millisecond, 30*time.Millisecond)

	start := time.Now()
	out, err := m(context.Background(), job.Job{ID: 1}, func(context.Context) (string, error) {
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSimulatedWork_HonorsCancel(t *testing.T) {
	m := SimulatedWork(time.Hour, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	called := false
	_, err := m(ctx, job.Job{ID: 1}, func(context.Context) (string, error) {
		called = true
		return "", nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}
