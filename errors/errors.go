// Package errors provides error types and utilities for the jobq library.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNotConnected     = errors.New("not connected")
	ErrQueueFull        = errors.New("queue is full")
	ErrJobNotFound      = errors.New("job not found")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrTimeout          = errors.New("operation timed out")
	ErrShutdown         = errors.New("shutting down")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrEmptyMarker      = errors.New("payload marker cannot be empty")
	ErrNilTaskFunc      = errors.New("task function cannot be nil")
	ErrNoHandler        = errors.New("no handler for payload")
	ErrUnsupportedStats = errors.New("unsupported statistics backend")
)

// StoreError represents a rejected queue store operation
type StoreError struct {
	Op    string // operation being performed
	JobID uint64 // job id (zero when not yet assigned)
	Err   error  // underlying error
}

func (e *StoreError) Error() string {
	if e.JobID != 0 {
		return fmt.Sprintf("store %s on job %d: %v", e.Op, e.JobID, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// TaskError represents a task execution failure
type TaskError struct {
	JobID   uint64 // job being executed
	Attempt int    // 1 for the first execution
	Err     error  // underlying error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task for job %d (attempt %d): %v", e.JobID, e.Attempt, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// ConnectionError represents connection-related errors
type ConnectionError struct {
	URI string // connection URI (may be redacted)
	Err error  // underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s: %v", e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Temporary() bool {
	if t, ok := e.Err.(interface{ Temporary() bool }); ok {
		return t.Temporary()
	}
	return false
}

func (e *ConnectionError) Timeout() bool {
	if t, ok := e.Err.(interface{ Timeout() bool }); ok {
		return t.Timeout()
	}
	return false
}

// Helper functions for creating errors

// NewStoreError creates a new store error
func NewStoreError(op string, jobID uint64, err error) error {
	return &StoreError{Op: op, JobID: jobID, Err: err}
}

// NewTaskError creates a new task error
func NewTaskError(jobID uint64, attempt int, err error) error {
	return &TaskError{JobID: jobID, Attempt: attempt, Err: err}
}

// NewConnectionError creates a new connection error
func NewConnectionError(uri string, err error) error {
	return &ConnectionError{URI: uri, Err: err}
}

// IsTemporary checks if an error is temporary and retryable by the caller
func IsTemporary(err error) bool {
	if t, ok := err.(interface{ Temporary() bool }); ok {
		return t.Temporary()
	}

	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrQueueFull)
}

// IsTimeout checks if an error is a timeout
func IsTimeout(err error) bool {
	if t, ok := err.(interface{ Timeout() bool }); ok {
		return t.Timeout()
	}
	return errors.Is(err, ErrTimeout)
}

// IsNotFound reports whether err is a job-not-found miss
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}
