package redis

import (
	redisconn "github.com/BranchIntl/jobq/internal/redis"
)

// Options for Redis statistics
type Options struct {
	redisconn.Options

	// Namespace is the key prefix in Redis
	Namespace string

	// FailureLimit caps the failure history list; 0 keeps everything
	FailureLimit int
}

// DefaultOptions returns default Redis statistics options
func DefaultOptions() Options {
	return Options{
		Options:      redisconn.DefaultOptions(),
		Namespace:    "jobq:",
		FailureLimit: 1000,
	}
}
