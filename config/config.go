// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BranchIntl/jobq/errors"
	"github.com/joho/godotenv"
)

// Config is the full process configuration for `jobq serve`
type Config struct {
	HTTPAddr string

	Concurrency       int
	Capacity          int
	DefaultMaxRetries int
	PollInterval      time.Duration
	PurgeInterval     time.Duration
	ShutdownTimeout   time.Duration

	TaskMinDelay time.Duration
	TaskMaxDelay time.Duration
	// TaskTimeout bounds one attempt; 0 disables it
	TaskTimeout time.Duration

	StatsType      string
	StatsURI       string
	StatsNamespace string

	CORSAllowedOrigins []string
	// SubmitRate is submissions per second; 0 disables limiting
	SubmitRate  float64
	SubmitBurst int

	Logging LoggingConfig
}

// LoggingConfig selects the slog handler
type LoggingConfig struct {
	Level  string
	Format string
}

// Default returns the built-in defaults
func Default() Config {
	return Config{
		HTTPAddr:          ":8080",
		Concurrency:       4,
		Capacity:          100,
		DefaultMaxRetries: 3,
		PollInterval:      100 * time.Millisecond,
		PurgeInterval:     time.Second,
		ShutdownTimeout:   30 * time.Second,
		TaskMinDelay:      2 * time.Second,
		TaskMaxDelay:      5 * time.Second,
		StatsType:         "noop",
		StatsNamespace:    "jobq:",
		SubmitBurst:       1,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads .env if present, then the JOBQ_* environment variables over
// the defaults
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	p := &parser{}

	cfg.HTTPAddr = getenv("JOBQ_HTTP_ADDR", cfg.HTTPAddr)
	cfg.Concurrency = p.int("JOBQ_CONCURRENCY", cfg.Concurrency)
	cfg.Capacity = p.int("JOBQ_CAPACITY", cfg.Capacity)
	cfg.DefaultMaxRetries = p.int("JOBQ_DEFAULT_MAX_RETRIES", cfg.DefaultMaxRetries)
	cfg.PollInterval = p.duration("JOBQ_POLL_INTERVAL", cfg.PollInterval)
	cfg.PurgeInterval = p.duration("JOBQ_PURGE_INTERVAL", cfg.PurgeInterval)
	cfg.ShutdownTimeout = p.duration("JOBQ_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.TaskMinDelay = p.duration("JOBQ_TASK_MIN_DELAY", cfg.TaskMinDelay)
	cfg.TaskMaxDelay = p.duration("JOBQ_TASK_MAX_DELAY", cfg.TaskMaxDelay)
	cfg.TaskTimeout = p.duration("JOBQ_TASK_TIMEOUT", cfg.TaskTimeout)

	cfg.StatsType = getenv("JOBQ_STATS_TYPE", cfg.StatsType)
	cfg.StatsURI = getenv("JOBQ_STATS_URI", cfg.StatsURI)
	cfg.StatsNamespace = getenv("JOBQ_STATS_NAMESPACE", cfg.StatsNamespace)

	for _, o := range strings.Split(getenv("JOBQ_CORS_ORIGINS", ""), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}
	cfg.SubmitRate = p.float("JOBQ_SUBMIT_RATE", cfg.SubmitRate)
	cfg.SubmitBurst = p.int("JOBQ_SUBMIT_BURST", cfg.SubmitBurst)

	cfg.Logging.Level = strings.ToLower(getenv("JOBQ_LOG_LEVEL", cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(getenv("JOBQ_LOG_FORMAT", cfg.Logging.Format))

	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations
func (c Config) Validate() error {
	switch {
	case c.Concurrency < 1:
		return invalid("concurrency must be positive, got %d", c.Concurrency)
	case c.Capacity < 1:
		return invalid("capacity must be positive, got %d", c.Capacity)
	case c.DefaultMaxRetries < 0:
		return invalid("default max retries must not be negative, got %d", c.DefaultMaxRetries)
	case c.PollInterval <= 0:
		return invalid("poll interval must be positive, got %s", c.PollInterval)
	case c.PurgeInterval < 0:
		return invalid("purge interval must not be negative, got %s", c.PurgeInterval)
	case c.TaskMinDelay < 0 || c.TaskMaxDelay < c.TaskMinDelay:
		return invalid("task delay range [%s, %s] is invalid", c.TaskMinDelay, c.TaskMaxDelay)
	case c.TaskTimeout < 0:
		return invalid("task timeout must not be negative, got %s", c.TaskTimeout)
	case c.SubmitRate < 0:
		return invalid("submit rate must not be negative, got %g", c.SubmitRate)
	}

	switch c.StatsType {
	case "noop", "redis", "rabbitmq":
	default:
		return invalid("unknown stats type %q", c.StatsType)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return invalid("unknown log format %q", c.Logging.Format)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errors.ErrInvalidConfig}, args...)...)
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// parser keeps the first conversion error so Load can report it once
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q: %v", errors.ErrInvalidConfig, key, value, err)
	}
}

func (p *parser) int(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}
