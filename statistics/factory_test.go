package statistics

import (
	"testing"

	"github.com/BranchIntl/jobq/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatistics(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantType string
	}{
		{"default", Config{}, "noop"},
		{"noop", Config{Type: NoOp}, "noop"},
		{"redis", Config{Type: Redis, URI: "redis://localhost:6379/1"}, "redis"},
		{"rabbitmq", Config{Type: RabbitMQ, Namespace: "test."}, "rabbitmq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := NewStatistics(tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, stats.Type())
		})
	}
}

func TestNewStatistics_Unsupported(t *testing.T) {
	stats, err := NewStatistics(Config{Type: "prometheus"})
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, errors.ErrUnsupportedStats)
	assert.Contains(t, err.Error(), "prometheus")
}
