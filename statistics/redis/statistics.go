// Package redis keeps worker and job counters in Redis so several processes
// can report into one place.
//
// Key layout, relative to the namespace:
//
//	workers                  set of registered worker ids
//	worker:<id>              worker info (JSON)
//	worker:<id>:job          job currently running on the worker (JSON)
//	stat:<kind>              global counter; kind is claimed|processed|retried|failed
//	stat:<kind>:<id>         per-worker counter
//	failed                   list of failure records (JSON), newest last
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BranchIntl/jobq/core"
	"github.com/BranchIntl/jobq/errors"
	redisconn "github.com/BranchIntl/jobq/internal/redis"
	"github.com/BranchIntl/jobq/job"
	redigo "github.com/gomodule/redigo/redis"
)

const (
	statClaimed   = "claimed"
	statProcessed = "processed"
	statRetried   = "retried"
	statFailed    = "failed"
)

var statKinds = []string{statClaimed, statProcessed, statRetried, statFailed}

// RedisStatistics implements core.Statistics on top of Redis
type RedisStatistics struct {
	pool      *redigo.Pool
	namespace string
	options   Options
}

// NewStatistics creates a new Redis statistics backend
func NewStatistics(options Options) *RedisStatistics {
	return &RedisStatistics{
		namespace: options.Namespace,
		options:   options,
	}
}

// Connect creates the pool and verifies the server answers
func (r *RedisStatistics) Connect(ctx context.Context) error {
	pool := redisconn.NewPool(r.options.Options)
	if err := redisconn.Ping(pool, r.options.URI); err != nil {
		pool.Close()
		return err
	}

	r.pool = pool
	return nil
}

// Close closes the Redis connection pool
func (r *RedisStatistics) Close() error {
	if r.pool != nil {
		return r.pool.Close()
	}
	return nil
}

// Health checks the Redis connection health
func (r *RedisStatistics) Health() error {
	if r.pool == nil {
		return errors.ErrNotConnected
	}
	return redisconn.Ping(r.pool, r.options.URI)
}

// Type returns the statistics backend type
func (r *RedisStatistics) Type() string {
	return "redis"
}

func (r *RedisStatistics) conn() (redigo.Conn, error) {
	if r.pool == nil {
		return nil, errors.ErrNotConnected
	}
	return r.pool.Get(), nil
}

// RegisterWorker records a worker and resets its counters
func (r *RedisStatistics) RegisterWorker(ctx context.Context, worker core.WorkerInfo) error {
	conn, err := r.conn()
	if err != nil {
		return err
	}
	defer conn.Close()

	workerData, err := json.Marshal(worker)
	if err != nil {
		return fmt.Errorf("failed to marshal worker info: %w", err)
	}

	conn.Send("MULTI")
	conn.Send("SADD", r.workersKey(), worker.ID)
	conn.Send("SET", r.workerKey(worker.ID), workerData)
	for _, kind := range statKinds {
		conn.Send("SET", r.statKey(kind, worker.ID), 0)
	}
	if _, err := conn.Do("EXEC"); err != nil {
		return fmt.Errorf("failed to register worker: %w", err)
	}

	return nil
}

// UnregisterWorker removes a worker and its keys
func (r *RedisStatistics) UnregisterWorker(ctx context.Context, workerID string) error {
	conn, err := r.conn()
	if err != nil {
		return err
	}
	defer conn.Close()

	keys := []interface{}{r.workerKey(workerID), r.workerJobKey(workerID)}
	for _, kind := range statKinds {
		keys = append(keys, r.statKey(kind, workerID))
	}

	conn.Send("MULTI")
	conn.Send("SREM", r.workersKey(), workerID)
	conn.Send("DEL", keys...)
	if _, err := conn.Do("EXEC"); err != nil {
		return fmt.Errorf("failed to unregister worker: %w", err)
	}

	return nil
}

// RecordJobClaimed marks the job as running on the worker
func (r *RedisStatistics) RecordJobClaimed(ctx context.Context, j job.Job, worker core.WorkerInfo) error {
	conn, err := r.conn()
	if err != nil {
		return err
	}
	defer conn.Close()

	workData, err := json.Marshal(map[string]interface{}{
		"job_id":   j.ID,
		"payload":  j.Payload,
		"attempt":  j.Attempt(),
		"priority": j.EffectivePriority(),
		"run_at":   time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal work data: %w", err)
	}

	conn.Send("MULTI")
	r.sendIncr(conn, statClaimed, worker.ID)
	conn.Send("SET", r.workerJobKey(worker.ID), workData)
	if _, err := conn.Do("EXEC"); err != nil {
		return fmt.Errorf("failed to record job claim: %w", err)
	}

	return nil
}

// RecordJobCompleted records successful job completion
func (r *RedisStatistics) RecordJobCompleted(ctx context.Context, j job.Job, worker core.WorkerInfo, duration time.Duration) error {
	return r.finish(statProcessed, worker.ID, nil)
}

// RecordJobRetried records a failed attempt that went back to Pending
func (r *RedisStatistics) RecordJobRetried(ctx context.Context, j job.Job, worker core.WorkerInfo, err error) error {
	return r.finish(statRetried, worker.ID, nil)
}

// RecordJobFailed records a job that exhausted its retries
func (r *RedisStatistics) RecordJobFailed(ctx context.Context, j job.Job, worker core.WorkerInfo, err error, duration time.Duration) error {
	failure, jsonErr := json.Marshal(map[string]interface{}{
		"failed_at":   time.Now().Format(time.RFC3339),
		"job_id":      j.ID,
		"payload":     j.Payload,
		"retries":     j.Retries,
		"max_retries": j.MaxRetries,
		"error":       err.Error(),
		"worker":      worker,
		"duration_ms": duration.Milliseconds(),
	})
	if jsonErr != nil {
		return fmt.Errorf("failed to marshal failure data: %w", jsonErr)
	}

	return r.finish(statFailed, worker.ID, failure)
}

// finish bumps a counter pair, clears the worker's current job and, for
// failures, appends to the failure history
func (r *RedisStatistics) finish(kind, workerID string, failure []byte) error {
	conn, err := r.conn()
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.Send("MULTI")
	r.sendIncr(conn, kind, workerID)
	conn.Send("DEL", r.workerJobKey(workerID))
	if failure != nil {
		conn.Send("RPUSH", r.failedKey(), failure)
		if limit := r.options.FailureLimit; limit > 0 {
			conn.Send("LTRIM", r.failedKey(), -limit, -1)
		}
	}
	if _, err := conn.Do("EXEC"); err != nil {
		return fmt.Errorf("failed to record job %s: %w", kind, err)
	}

	return nil
}

func (r *RedisStatistics) sendIncr(conn redigo.Conn, kind, workerID string) {
	conn.Send("INCR", r.statKey(kind, ""))
	conn.Send("INCR", r.statKey(kind, workerID))
}

// GetWorkerStats returns statistics for a specific worker
func (r *RedisStatistics) GetWorkerStats(ctx context.Context, workerID string) (core.WorkerStats, error) {
	conn, err := r.conn()
	if err != nil {
		return core.WorkerStats{}, err
	}
	defer conn.Close()

	counts, err := r.counters(conn, workerID)
	if err != nil {
		return core.WorkerStats{}, err
	}

	stats := core.WorkerStats{
		ID:        workerID,
		Claimed:   counts[statClaimed],
		Processed: counts[statProcessed],
		Retried:   counts[statRetried],
		Failed:    counts[statFailed],
	}

	if data, err := redigo.Bytes(conn.Do("GET", r.workerKey(workerID))); err == nil {
		var info core.WorkerInfo
		if json.Unmarshal(data, &info) == nil {
			stats.StartTime = info.Started
		}
	}

	if exists, err := redigo.Bool(conn.Do("EXISTS", r.workerJobKey(workerID))); err == nil && exists {
		stats.InProgress = 1
	}

	return stats, nil
}

// GetGlobalStats returns global statistics
func (r *RedisStatistics) GetGlobalStats(ctx context.Context) (core.GlobalStats, error) {
	conn, err := r.conn()
	if err != nil {
		return core.GlobalStats{}, err
	}
	defer conn.Close()

	counts, err := r.counters(conn, "")
	if err != nil {
		return core.GlobalStats{}, err
	}

	activeWorkers, err := redigo.Int64(conn.Do("SCARD", r.workersKey()))
	if err != nil {
		return core.GlobalStats{}, fmt.Errorf("failed to get active workers: %w", err)
	}

	return core.GlobalStats{
		TotalClaimed:   counts[statClaimed],
		TotalProcessed: counts[statProcessed],
		TotalRetried:   counts[statRetried],
		TotalFailed:    counts[statFailed],
		ActiveWorkers:  activeWorkers,
	}, nil
}

// counters reads every counter kind for a worker, or the global ones when
// workerID is empty. Missing keys count as zero.
func (r *RedisStatistics) counters(conn redigo.Conn, workerID string) (map[string]int64, error) {
	keys := make([]interface{}, 0, len(statKinds))
	for _, kind := range statKinds {
		keys = append(keys, r.statKey(kind, workerID))
	}

	values, err := redigo.Values(conn.Do("MGET", keys...))
	if err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}

	counts := make(map[string]int64, len(statKinds))
	for i, kind := range statKinds {
		if values[i] == nil {
			continue
		}
		n, err := redigo.Int64(values[i], nil)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s counter: %w", kind, err)
		}
		counts[kind] = n
	}
	return counts, nil
}

// Helper methods for Redis keys

func (r *RedisStatistics) workersKey() string {
	return r.namespace + "workers"
}

func (r *RedisStatistics) workerKey(workerID string) string {
	return fmt.Sprintf("%sworker:%s", r.namespace, workerID)
}

func (r *RedisStatistics) workerJobKey(workerID string) string {
	return fmt.Sprintf("%sworker:%s:job", r.namespace, workerID)
}

func (r *RedisStatistics) statKey(kind, workerID string) string {
	if workerID == "" {
		return fmt.Sprintf("%sstat:%s", r.namespace, kind)
	}
	return fmt.Sprintf("%sstat:%s:%s", r.namespace, kind, workerID)
}

func (r *RedisStatistics) failedKey() string {
	return r.namespace + "failed"
}
