// Package job defines the job record tracked by the queue and its
// lifecycle state.
package job

import (
	"time"
)

// DefaultMaxRetries is used when a submission does not specify a retry budget.
const DefaultMaxRetries = 3

// Job describes one unit of submitted work.
type Job struct {
	ID         uint64     `json:"job_id"`
	Status     Status     `json:"status"`
	Payload    string     `json:"payload"`
	Result     *string    `json:"result"`
	Priority   *Priority  `json:"priority"`
	Retries    int        `json:"retries"`
	MaxRetries int        `json:"max_retries"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// SubmitRequest carries the caller-supplied fields of a new job.
// Nil fields take their defaults.
type SubmitRequest struct {
	Payload    string    `json:"payload"`
	Priority   *Priority `json:"priority,omitempty"`
	MaxRetries *int      `json:"max_retries,omitempty"`
	TTLSeconds *int64    `json:"ttl_seconds,omitempty"`
}

// EffectivePriority returns the priority used for ordering; an absent
// priority orders as Medium.
func (j Job) EffectivePriority() Priority {
	if j.Priority == nil {
		return PriorityMedium
	}
	return *j.Priority
}

// Expired reports whether the job has an expiry at or before now.
func (j Job) Expired(now time.Time) bool {
	return j.ExpiresAt != nil && !j.ExpiresAt.After(now)
}

// CanRetry reports whether the retry budget still has room.
func (j Job) CanRetry() bool {
	return j.Retries < j.MaxRetries
}

// Attempt returns the 1-based number of the current execution.
func (j Job) Attempt() int {
	return j.Retries + 1
}

// ResultString returns the result or an empty string when unset.
func (j Job) ResultString() string {
	if j.Result == nil {
		return ""
	}
	return *j.Result
}

// Clone returns a deep copy so callers never share pointers with the store.
func (j Job) Clone() Job {
	cp := j
	if j.Result != nil {
		r := *j.Result
		cp.Result = &r
	}
	if j.Priority != nil {
		p := *j.Priority
		cp.Priority = &p
	}
	if j.ExpiresAt != nil {
		e := *j.ExpiresAt
		cp.ExpiresAt = &e
	}
	return cp
}
