// Package rabbitmq keeps job counters in process and publishes every worker
// and job lifecycle change as a JSON event on a topic exchange.
//
// Routing keys: worker.registered, worker.unregistered, job.claimed,
// job.completed, job.retried, job.failed and stats.snapshot.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BranchIntl/jobq/core"
	"github.com/BranchIntl/jobq/errors"
	"github.com/BranchIntl/jobq/job"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RMQStatistics implements core.Statistics by publishing to RabbitMQ
type RMQStatistics struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	options Options
	mu      sync.RWMutex
	done    chan struct{}

	workers map[string]*workerData
	global  core.GlobalStats
}

type workerData struct {
	Info  core.WorkerInfo  `json:"info"`
	Stats core.WorkerStats `json:"stats"`
}

// NewStatistics creates a new RabbitMQ statistics backend
func NewStatistics(options Options) *RMQStatistics {
	return &RMQStatistics{
		options: options,
		workers: make(map[string]*workerData),
	}
}

// Connect dials the broker and declares the events exchange
func (r *RMQStatistics) Connect(ctx context.Context) error {
	conn, err := amqp.DialConfig(r.options.URI, amqp.Config{
		Heartbeat: r.options.Heartbeat,
		Dial:      amqp.DefaultDial(r.options.ConnectTimeout),
	})
	if err != nil {
		return errors.NewConnectionError(r.options.URI,
			fmt.Errorf("failed to connect to RabbitMQ: %w", err))
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return errors.NewConnectionError(r.options.URI,
			fmt.Errorf("failed to open channel: %w", err))
	}

	if err := channel.ExchangeDeclare(
		r.exchange(),
		"topic",
		r.options.ExchangeDurable,
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare events exchange: %w", err)
	}

	done := make(chan struct{})

	r.mu.Lock()
	r.conn = conn
	r.channel = channel
	r.done = done
	r.mu.Unlock()

	if r.options.SnapshotInterval > 0 {
		go r.publishSnapshots(done)
	}
	go r.watchClose(conn)

	return nil
}

// Close closes the channel and connection
func (r *RMQStatistics) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		close(r.done)
		r.done = nil
	}

	var errs []error
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
		r.channel = nil
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
		r.conn = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

// Health checks the RabbitMQ connection health
func (r *RMQStatistics) Health() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.conn == nil || r.channel == nil {
		return errors.ErrNotConnected
	}
	if r.conn.IsClosed() || r.channel.IsClosed() {
		return errors.NewConnectionError(r.options.URI, fmt.Errorf("connection is closed"))
	}
	return nil
}

// Type returns the statistics backend type
func (r *RMQStatistics) Type() string {
	return "rabbitmq"
}

// RegisterWorker registers a worker
func (r *RMQStatistics) RegisterWorker(ctx context.Context, worker core.WorkerInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.workers[worker.ID] = &workerData{
		Info:  worker,
		Stats: core.WorkerStats{ID: worker.ID, StartTime: worker.Started},
	}
	r.global.ActiveWorkers = int64(len(r.workers))

	return r.publish(ctx, "worker.registered", map[string]interface{}{
		"worker_id": worker.ID,
		"hostname":  worker.Hostname,
		"pid":       worker.Pid,
		"started":   worker.Started,
	})
}

// UnregisterWorker removes a worker
func (r *RMQStatistics) UnregisterWorker(ctx context.Context, workerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workers[workerID]; !exists {
		return nil
	}
	delete(r.workers, workerID)
	r.global.ActiveWorkers = int64(len(r.workers))

	return r.publish(ctx, "worker.unregistered", map[string]interface{}{
		"worker_id": workerID,
	})
}

// RecordJobClaimed records that a worker claimed a job
func (r *RMQStatistics) RecordJobClaimed(ctx context.Context, j job.Job, worker core.WorkerInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.global.TotalClaimed++
	if w, exists := r.workers[worker.ID]; exists {
		w.Stats.Claimed++
		w.Stats.InProgress = 1
		w.Stats.LastJob = time.Now()
	}

	return r.publish(ctx, "job.claimed", jobEvent(j, worker, nil))
}

// RecordJobCompleted records successful job completion
func (r *RMQStatistics) RecordJobCompleted(ctx context.Context, j job.Job, worker core.WorkerInfo, duration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.global.TotalProcessed++
	if w, exists := r.workers[worker.ID]; exists {
		w.Stats.Processed++
		w.Stats.InProgress = 0
	}

	event := jobEvent(j, worker, nil)
	event["duration_ms"] = duration.Milliseconds()
	return r.publish(ctx, "job.completed", event)
}

// RecordJobRetried records a failed attempt that went back to Pending
func (r *RMQStatistics) RecordJobRetried(ctx context.Context, j job.Job, worker core.WorkerInfo, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.global.TotalRetried++
	if w, exists := r.workers[worker.ID]; exists {
		w.Stats.Retried++
		w.Stats.InProgress = 0
	}

	return r.publish(ctx, "job.retried", jobEvent(j, worker, err))
}

// RecordJobFailed records a job that exhausted its retries
func (r *RMQStatistics) RecordJobFailed(ctx context.Context, j job.Job, worker core.WorkerInfo, err error, duration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.global.TotalFailed++
	if w, exists := r.workers[worker.ID]; exists {
		w.Stats.Failed++
		w.Stats.InProgress = 0
	}

	event := jobEvent(j, worker, err)
	event["duration_ms"] = duration.Milliseconds()
	return r.publish(ctx, "job.failed", event)
}

// GetWorkerStats returns statistics for a specific worker
func (r *RMQStatistics) GetWorkerStats(ctx context.Context, workerID string) (core.WorkerStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, exists := r.workers[workerID]
	if !exists {
		return core.WorkerStats{ID: workerID}, nil
	}
	return w.Stats, nil
}

// GetGlobalStats returns global statistics
func (r *RMQStatistics) GetGlobalStats(ctx context.Context) (core.GlobalStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.global, nil
}

func (r *RMQStatistics) exchange() string {
	return r.options.Namespace + "events"
}

func jobEvent(j job.Job, worker core.WorkerInfo, err error) map[string]interface{} {
	event := map[string]interface{}{
		"job_id":      j.ID,
		"payload":     j.Payload,
		"priority":    j.EffectivePriority(),
		"attempt":     j.Attempt(),
		"max_retries": j.MaxRetries,
		"worker_id":   worker.ID,
		"at":          time.Now(),
	}
	if err != nil {
		event["error"] = err.Error()
	}
	return event
}

// publish sends one event. Callers hold r.mu.
func (r *RMQStatistics) publish(ctx context.Context, routingKey string, data interface{}) error {
	if r.channel == nil {
		return errors.ErrNotConnected
	}

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	if r.options.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.options.PublishTimeout)
		defer cancel()
	}

	return r.channel.PublishWithContext(ctx,
		r.exchange(),
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
}

// publishSnapshots periodically publishes the full counter state
func (r *RMQStatistics) publishSnapshots(done <-chan struct{}) {
	ticker := time.NewTicker(r.options.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := r.publishSnapshot(); err != nil {
				slog.Warn("Failed to publish stats snapshot", "error", err)
			}
		}
	}
}

func (r *RMQStatistics) publishSnapshot() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.publish(context.Background(), "stats.snapshot", map[string]interface{}{
		"timestamp": time.Now(),
		"global":    r.global,
		"workers":   r.workers,
	})
}

// watchClose logs an unexpected connection loss
func (r *RMQStatistics) watchClose(conn *amqp.Connection) {
	closeChan := conn.NotifyClose(make(chan *amqp.Error, 1))
	for closeErr := range closeChan {
		if closeErr != nil {
			slog.Error("RabbitMQ statistics connection closed", "error", closeErr)
		}
	}
}
