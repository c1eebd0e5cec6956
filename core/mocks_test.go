package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BranchIntl/jobq/job"
)

// Mock implementations for testing

// MockJobCall records one statistics call
type MockJobCall struct {
	JobID    uint64
	Attempt  int
	WorkerID string
	Err      error
}

// MockStatistics implements the Statistics interface for testing
type MockStatistics struct {
	mu              sync.RWMutex
	connected       bool
	closed          bool
	connectError    error
	healthError     error
	registerError   error
	unregisterError error
	recordError     error
	workers         map[string]WorkerInfo
	registered      []string
	jobsClaimed     []MockJobCall
	jobsCompleted   []MockJobCall
	jobsRetried     []MockJobCall
	jobsFailed      []MockJobCall
}

func NewMockStatistics() *MockStatistics {
	return &MockStatistics{
		workers: make(map[string]WorkerInfo),
	}
}

func (m *MockStatistics) RegisterWorker(ctx context.Context, worker WorkerInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registerError != nil {
		return m.registerError
	}

	m.workers[worker.ID] = worker
	m.registered = append(m.registered, worker.ID)
	return nil
}

func (m *MockStatistics) UnregisterWorker(ctx context.Context, workerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unregisterError != nil {
		return m.unregisterError
	}

	delete(m.workers, workerID)
	return nil
}

func (m *MockStatistics) record(calls *[]MockJobCall, j job.Job, worker WorkerInfo, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recordError != nil {
		return m.recordError
	}

	*calls = append(*calls, MockJobCall{
		JobID:    j.ID,
		Attempt:  j.Attempt(),
		WorkerID: worker.ID,
		Err:      err,
	})
	return nil
}

func (m *MockStatistics) RecordJobClaimed(ctx context.Context, j job.Job, worker WorkerInfo) error {
	return m.record(&m.jobsClaimed, j, worker, nil)
}

func (m *MockStatistics) RecordJobCompleted(ctx context.Context, j job.Job, worker WorkerInfo, duration time.Duration) error {
	return m.record(&m.jobsCompleted, j, worker, nil)
}

func (m *MockStatistics) RecordJobRetried(ctx context.Context, j job.Job, worker WorkerInfo, err error) error {
	return m.record(&m.jobsRetried, j, worker, err)
}

func (m *MockStatistics) RecordJobFailed(ctx context.Context, j job.Job, worker WorkerInfo, err error, duration time.Duration) error {
	return m.record(&m.jobsFailed, j, worker, err)
}

func (m *MockStatistics) GetWorkerStats(ctx context.Context, workerID string) (WorkerStats, error) {
	return WorkerStats{ID: workerID}, nil
}

func (m *MockStatistics) GetGlobalStats(ctx context.Context) (GlobalStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return GlobalStats{
		TotalClaimed:   int64(len(m.jobsClaimed)),
		TotalProcessed: int64(len(m.jobsCompleted)),
		TotalRetried:   int64(len(m.jobsRetried)),
		TotalFailed:    int64(len(m.jobsFailed)),
		ActiveWorkers:  int64(len(m.workers)),
	}, nil
}

func (m *MockStatistics) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connectError != nil {
		return m.connectError
	}

	m.connected = true
	return nil
}

func (m *MockStatistics) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = false
	m.closed = true
	return nil
}

func (m *MockStatistics) Health() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.healthError != nil {
		return m.healthError
	}

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	return nil
}

func (m *MockStatistics) Type() string {
	return "mock"
}

// Test helpers
func (m *MockStatistics) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectError = err
}

func (m *MockStatistics) SetHealthError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthError = err
}

func (m *MockStatistics) SetRecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordError = err
}

func (m *MockStatistics) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *MockStatistics) GetRegistered() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.registered...)
}

func (m *MockStatistics) GetActiveWorkers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}

func (m *MockStatistics) GetJobsClaimed() []MockJobCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]MockJobCall(nil), m.jobsClaimed...)
}

func (m *MockStatistics) GetJobsCompleted() []MockJobCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]MockJobCall(nil), m.jobsCompleted...)
}

func (m *MockStatistics) GetJobsRetried() []MockJobCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]MockJobCall(nil), m.jobsRetried...)
}

func (m *MockStatistics) GetJobsFailed() []MockJobCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]MockJobCall(nil), m.jobsFailed...)
}

// MockTask is a scripted task function that records every payload it runs
type MockTask struct {
	mu       sync.Mutex
	payloads []string
	fn       func(ctx context.Context, payload string) (string, error)
}

func NewMockTask(fn func(ctx context.Context, payload string) (string, error)) *MockTask {
	return &MockTask{fn: fn}
}

// Func returns the task as a TaskFunc
func (m *MockTask) Func() TaskFunc {
	return func(ctx context.Context, payload string) (string, error) {
		m.mu.Lock()
		m.payloads = append(m.payloads, payload)
		m.mu.Unlock()
		return m.fn(ctx, payload)
	}
}

func (m *MockTask) Payloads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.payloads...)
}

func (m *MockTask) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}
