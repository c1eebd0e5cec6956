// Package memory provides the in-process queue store. Every job record
// lives in memory for the lifetime of the process and all reads and
// mutations are serialized by a single mutex.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/BranchIntl/jobq/errors"
	"github.com/BranchIntl/jobq/job"
)

// MemoryStore owns the job collection. Records are kept ordered by
// descending priority with submission order as the tie-break; claims take
// the first Pending record in that order.
type MemoryStore struct {
	mu      sync.Mutex
	jobs    []*job.Job
	index   map[uint64]*job.Job
	nextID  uint64
	options Options
	now     func() time.Time
}

// NewStore creates a new in-memory store
func NewStore(options Options) *MemoryStore {
	now := options.Clock
	if now == nil {
		now = time.Now
	}
	if options.DefaultMaxRetries < 0 {
		options.DefaultMaxRetries = 0
	}

	return &MemoryStore{
		index:   make(map[uint64]*job.Job),
		nextID:  1,
		options: options,
		now:     now,
	}
}

// Type returns the store type
func (m *MemoryStore) Type() string {
	return "memory"
}

// Capacity returns the configured maximum number of tracked jobs
func (m *MemoryStore) Capacity() int {
	return m.options.Capacity
}

// Len returns the number of tracked jobs
func (m *MemoryStore) Len(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.jobs)
}

// Submit validates capacity, assigns the next id and inserts a Pending job
func (m *MemoryStore) Submit(ctx context.Context, req job.SubmitRequest) (job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.jobs) >= m.options.Capacity {
		return job.Job{}, errors.NewStoreError("submit", 0, errors.ErrQueueFull)
	}

	id := m.nextID
	m.nextID++

	now := m.now()
	maxRetries := m.options.DefaultMaxRetries
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	j := &job.Job{
		ID:         id,
		Status:     job.StatusPending,
		Payload:    req.Payload,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Priority != nil {
		j.Priority = req.Priority.Ptr()
	}
	if req.TTLSeconds != nil {
		expiresAt := now.Add(ttlDuration(*req.TTLSeconds))
		j.ExpiresAt = &expiresAt
	}

	m.insert(j)
	m.index[id] = j

	return j.Clone(), nil
}

// maxTTLSeconds is the largest ttl that fits in a time.Duration
const maxTTLSeconds = int64(math.MaxInt64 / int64(time.Second))

// ttlDuration converts seconds to a Duration, saturating at the Duration
// range instead of wrapping.
func ttlDuration(seconds int64) time.Duration {
	switch {
	case seconds > maxTTLSeconds:
		return time.Duration(math.MaxInt64)
	case seconds < -maxTTLSeconds:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(seconds) * time.Second
}

// insert places j after every record of equal or higher priority. Since ids
// grow with submission order, this keeps the collection identical to a
// stable re-sort by priority.
func (m *MemoryStore) insert(j *job.Job) {
	p := j.EffectivePriority()
	pos := sort.Search(len(m.jobs), func(i int) bool {
		return m.jobs[i].EffectivePriority() < p
	})

	m.jobs = append(m.jobs, nil)
	copy(m.jobs[pos+1:], m.jobs[pos:])
	m.jobs[pos] = j
}

// Get returns a snapshot of the job with the given id
func (m *MemoryStore) Get(ctx context.Context, id uint64) (job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.index[id]
	if !ok {
		return job.Job{}, errors.NewStoreError("get", id, errors.ErrJobNotFound)
	}
	return j.Clone(), nil
}

// List returns a snapshot of every tracked job in internal order
func (m *MemoryStore) List(ctx context.Context) []job.Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := make([]job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j.Clone())
	}
	return jobs
}

// ClaimNext purges expired jobs, then flips the first Pending job to
// Running and returns a copy of it
func (m *MemoryStore) ClaimNext(ctx context.Context) (job.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.purge(now)

	for _, j := range m.jobs {
		if j.Status != job.StatusPending {
			continue
		}
		j.Status = job.StatusRunning
		j.UpdatedAt = now
		return j.Clone(), true
	}

	return job.Job{}, false
}

// Report records a terminal outcome and reports whether it was applied.
// Missing ids, non-terminal statuses and jobs that already reached a
// terminal status are left untouched.
func (m *MemoryStore) Report(ctx context.Context, id uint64, status job.Status, result *string) bool {
	if !status.Terminal() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.index[id]
	if !ok || j.Status.Terminal() {
		return false
	}

	j.Status = status
	j.Result = nil
	if result != nil {
		r := *result
		j.Result = &r
	}
	j.UpdatedAt = m.now()
	return true
}

// Retry returns a Running job to Pending and consumes one retry. It returns
// false, leaving the job untouched, when the budget is spent or the job is
// missing or not Running.
func (m *MemoryStore) Retry(ctx context.Context, id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.index[id]
	if !ok || j.Status != job.StatusRunning || !j.CanRetry() {
		return false
	}

	j.Retries++
	j.Status = job.StatusPending
	j.UpdatedAt = m.now()
	return true
}

// Purge removes every expired job regardless of status and returns how
// many were removed
func (m *MemoryStore) Purge(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.purge(m.now())
}

func (m *MemoryStore) purge(now time.Time) int {
	kept := m.jobs[:0]
	removed := 0
	for _, j := range m.jobs {
		if j.Expired(now) {
			delete(m.index, j.ID)
			removed++
			continue
		}
		kept = append(kept, j)
	}
	for i := len(kept); i < len(m.jobs); i++ {
		m.jobs[i] = nil
	}
	m.jobs = kept
	return removed
}

// Health always succeeds for the memory store
func (m *MemoryStore) Health() error {
	return nil
}
