// Package statistics builds a statistics backend from a generic config.
package statistics

import (
	"fmt"
	"time"

	"github.com/BranchIntl/jobq/core"
	"github.com/BranchIntl/jobq/errors"
	"github.com/BranchIntl/jobq/statistics/noop"
	"github.com/BranchIntl/jobq/statistics/rabbitmq"
	"github.com/BranchIntl/jobq/statistics/redis"
)

// StatsType represents the type of statistics backend
type StatsType string

const (
	NoOp     StatsType = "noop"
	Redis    StatsType = "redis"
	RabbitMQ StatsType = "rabbitmq"
)

// Config is a generic statistics configuration. Empty URI and Namespace
// keep the backend defaults.
type Config struct {
	Type           StatsType
	URI            string
	Namespace      string
	ConnectTimeout time.Duration
}

// NewStatistics creates a statistics backend based on the configuration
func NewStatistics(config Config) (core.Statistics, error) {
	switch config.Type {
	case NoOp, "":
		return noop.NewStatistics(), nil

	case Redis:
		opts := redis.DefaultOptions()
		if config.URI != "" {
			opts.URI = config.URI
		}
		if config.Namespace != "" {
			opts.Namespace = config.Namespace
		}
		if config.ConnectTimeout > 0 {
			opts.ConnectTimeout = config.ConnectTimeout
		}
		return redis.NewStatistics(opts), nil

	case RabbitMQ:
		opts := rabbitmq.DefaultOptions()
		if config.URI != "" {
			opts.URI = config.URI
		}
		if config.Namespace != "" {
			opts.Namespace = config.Namespace
		}
		if config.ConnectTimeout > 0 {
			opts.ConnectTimeout = config.ConnectTimeout
		}
		return rabbitmq.NewStatistics(opts), nil

	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedStats, config.Type)
	}
}
