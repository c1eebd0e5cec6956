package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/BranchIntl/jobq/core"
	jobqerrors "github.com/BranchIntl/jobq/errors"
	"github.com/BranchIntl/jobq/job"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type handler struct {
	svc JobService
}

type submitResponse struct {
	Message string     `json:"message"`
	JobID   uint64     `json:"job_id"`
	Status  job.Status `json:"status"`
}

type healthResponse struct {
	Healthy       bool      `json:"healthy"`
	Store         string    `json:"store"`
	Stats         string    `json:"stats"`
	ActiveWorkers int       `json:"active_workers"`
	TrackedJobs   int       `json:"tracked_jobs"`
	LastCheck     time.Time `json:"last_check"`
}

type statsResponse struct {
	Global  core.GlobalStats   `json:"global"`
	Workers []core.WorkerStats `json:"workers"`
}

// createJobRequest is the POST /jobs body. payload is required; an empty
// string is a valid payload, a missing one is not.
type createJobRequest struct {
	Payload    *string       `json:"payload"`
	Priority   *job.Priority `json:"priority"`
	MaxRetries *int          `json:"max_retries"`
	TTLSeconds *int64        `json:"ttl_seconds"`
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	var body createJobRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		if errors.Is(err, jobqerrors.ErrInvalidPriority) {
			writeError(w, http.StatusBadRequest, "Invalid priority, expected Low, Medium or High")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Payload == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: payload is required")
		return
	}
	if body.MaxRetries != nil && *body.MaxRetries < 0 {
		writeError(w, http.StatusBadRequest, "max_retries must not be negative")
		return
	}

	created, err := h.svc.Submit(r.Context(), job.SubmitRequest{
		Payload:    *body.Payload,
		Priority:   body.Priority,
		MaxRetries: body.MaxRetries,
		TTLSeconds: body.TTLSeconds,
	})
	if err != nil {
		if errors.Is(err, jobqerrors.ErrQueueFull) {
			writeError(w, http.StatusBadRequest, "Queue is full")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		Message: "Job created successfully",
		JobID:   created.ID,
		Status:  created.Status,
	})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid job id")
		return
	}

	j, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if jobqerrors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Job with id %d not found", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch job")
		return
	}

	writeJSON(w, http.StatusOK, j)
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	jobs := h.svc.List(r.Context())

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := job.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid status, expected Pending, Running, Completed or Failed")
			return
		}
		filtered := make([]job.Job, 0, len(jobs))
		for _, j := range jobs {
			if j.Status == status {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	hs := h.svc.Health()

	resp := healthResponse{
		Healthy:       hs.Healthy,
		Store:         healthText(hs.StoreHealth),
		Stats:         healthText(hs.StatsHealth),
		ActiveWorkers: hs.ActiveWorkers,
		TrackedJobs:   hs.TrackedJobs,
		LastCheck:     hs.LastCheck,
	}

	status := http.StatusOK
	if !hs.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	global, err := h.svc.GlobalStats(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Statistics unavailable")
		return
	}

	workers := h.svc.WorkerStats()
	if workers == nil {
		workers = []core.WorkerStats{}
	}

	writeJSON(w, http.StatusOK, statsResponse{Global: global, Workers: workers})
}

func healthText(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
