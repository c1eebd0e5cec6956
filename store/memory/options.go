package memory

import "time"

// Options for the memory store
type Options struct {
	// Capacity is the maximum number of tracked jobs, in any status
	Capacity int

	// DefaultMaxRetries applies when a submission omits max_retries. Zero
	// is a real budget of no retries, so start from DefaultOptions() to
	// get the default of 3.
	DefaultMaxRetries int

	// Clock returns the current time; nil means time.Now
	Clock func() time.Time
}

// DefaultOptions returns default memory store options
func DefaultOptions() Options {
	return Options{
		Capacity:          100,
		DefaultMaxRetries: 3,
	}
}
