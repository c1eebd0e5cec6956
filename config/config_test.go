package config

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/BranchIntl/jobq/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"JOBQ_HTTP_ADDR", "JOBQ_CONCURRENCY", "JOBQ_CAPACITY", "JOBQ_DEFAULT_MAX_RETRIES",
		"JOBQ_POLL_INTERVAL", "JOBQ_PURGE_INTERVAL", "JOBQ_SHUTDOWN_TIMEOUT",
		"JOBQ_TASK_MIN_DELAY", "JOBQ_TASK_MAX_DELAY", "JOBQ_TASK_TIMEOUT",
		"JOBQ_STATS_TYPE", "JOBQ_STATS_URI", "JOBQ_STATS_NAMESPACE",
		"JOBQ_CORS_ORIGINS", "JOBQ_SUBMIT_RATE", "JOBQ_SUBMIT_BURST",
		"JOBQ_LOG_LEVEL", "JOBQ_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JOBQ_HTTP_ADDR", ":9090")
	t.Setenv("JOBQ_CONCURRENCY", "8")
	t.Setenv("JOBQ_CAPACITY", "10")
	t.Setenv("JOBQ_DEFAULT_MAX_RETRIES", "0")
	t.Setenv("JOBQ_POLL_INTERVAL", "20ms")
	t.Setenv("JOBQ_TASK_MIN_DELAY", "0s")
	t.Setenv("JOBQ_TASK_MAX_DELAY", "0s")
	t.Setenv("JOBQ_TASK_TIMEOUT", "1m")
	t.Setenv("JOBQ_STATS_TYPE", "redis")
	t.Setenv("JOBQ_STATS_URI", "redis://localhost:6379/2")
	t.Setenv("JOBQ_CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("JOBQ_SUBMIT_RATE", "2.5")
	t.Setenv("JOBQ_SUBMIT_BURST", "5")
	t.Setenv("JOBQ_LOG_LEVEL", "DEBUG")
	t.Setenv("JOBQ_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 10, cfg.Capacity)
	assert.Equal(t, 0, cfg.DefaultMaxRetries)
	assert.Equal(t, 20*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.TaskMaxDelay)
	assert.Equal(t, time.Minute, cfg.TaskTimeout)
	assert.Equal(t, "redis", cfg.StatsType)
	assert.Equal(t, "redis://localhost:6379/2", cfg.StatsURI)
	assert.Equal(t, "jobq:", cfg.StatsNamespace)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2.5, cfg.SubmitRate)
	assert.Equal(t, 5, cfg.SubmitBurst)
	assert.Equal(t, LoggingConfig{Level: "debug", Format: "json"}, cfg.Logging)
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"JOBQ_CONCURRENCY", "four"},
		{"JOBQ_POLL_INTERVAL", "100"},
		{"JOBQ_SUBMIT_RATE", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }},
		{"negative retries", func(c *Config) { c.DefaultMaxRetries = -1 }},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }},
		{"negative purge interval", func(c *Config) { c.PurgeInterval = -time.Second }},
		{"inverted delays", func(c *Config) { c.TaskMinDelay, c.TaskMaxDelay = 5*time.Second, time.Second }},
		{"negative task timeout", func(c *Config) { c.TaskTimeout = -time.Second }},
		{"negative rate", func(c *Config) { c.SubmitRate = -1 }},
		{"unknown stats", func(c *Config) { c.StatsType = "statsd" }},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), errors.ErrInvalidConfig)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "job_id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(7), entry["job_id"])

	buf.Reset()
	logger, err = NewLogger(LoggingConfig{Level: "info", Format: "text"}, &buf)
	require.NoError(t, err)
	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	_, err = NewLogger(LoggingConfig{Format: "xml"}, &buf)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	_, err = NewLogger(LoggingConfig{Level: "loud"}, &buf)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}
