package core

import (
	"time"

	"github.com/BranchIntl/jobq/middleware"
)

// Config holds engine configuration
type Config struct {
	Concurrency     int
	PollInterval    time.Duration
	PurgeInterval   time.Duration
	ShutdownTimeout time.Duration
	Middleware      []middleware.Middleware
}

// EngineOption is a function that modifies engine configuration
type EngineOption func(*Config)

// defaultConfig returns default configuration
func defaultConfig() *Config {
	return &Config{
		Concurrency:     4,
		PollInterval:    100 * time.Millisecond,
		PurgeInterval:   time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// WithConcurrency sets the number of concurrent workers
func WithConcurrency(n int) EngineOption {
	return func(c *Config) {
		c.Concurrency = n
	}
}

// WithPollInterval sets how long an idle worker waits before claiming again
func WithPollInterval(d time.Duration) EngineOption {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithPurgeInterval sets how often expired jobs are swept. Zero disables the
// sweep; expired jobs are then only removed when a worker claims.
func WithPurgeInterval(d time.Duration) EngineOption {
	return func(c *Config) {
		c.PurgeInterval = d
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout
func WithShutdownTimeout(d time.Duration) EngineOption {
	return func(c *Config) {
		c.ShutdownTimeout = d
	}
}

// WithMiddleware appends task execution middleware. The first one given is
// the outermost.
func WithMiddleware(mws ...middleware.Middleware) EngineOption {
	return func(c *Config) {
		c.Middleware = append(c.Middleware, mws...)
	}
}
