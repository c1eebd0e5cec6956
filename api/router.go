// Package api binds the job queue to HTTP.
//
//	POST /jobs        submit a job
//	GET  /jobs        list jobs, optionally ?status=Pending|Running|Completed|Failed
//	GET  /jobs/{id}   fetch one job
//	GET  /health      engine health, 503 when unhealthy
//	GET  /stats       global and per-worker counters
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BranchIntl/jobq/core"
	"github.com/BranchIntl/jobq/job"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// JobService is what the API needs from the engine
type JobService interface {
	Submit(ctx context.Context, req job.SubmitRequest) (job.Job, error)
	Get(ctx context.Context, id uint64) (job.Job, error)
	List(ctx context.Context) []job.Job
	Health() core.HealthStatus
	GlobalStats(ctx context.Context) (core.GlobalStats, error)
	WorkerStats() []core.WorkerStats
}

// Options configures the router
type Options struct {
	CORSAllowedOrigins []string

	// SubmitRate is the allowed submissions per second; 0 disables limiting
	SubmitRate  float64
	SubmitBurst int

	// Logger receives one line per request; nil means slog.Default()
	Logger *slog.Logger
}

// NewRouter builds the HTTP handler for svc
func NewRouter(svc JobService, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)

	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	h := &handler{svc: svc}

	r.Get("/health", h.health)
	r.Get("/stats", h.stats)

	r.Route("/jobs", func(r chi.Router) {
		submit := http.Handler(http.HandlerFunc(h.submit))
		if opts.SubmitRate > 0 {
			submit = rateLimit(opts.SubmitRate, opts.SubmitBurst)(submit)
		}
		r.Method(http.MethodPost, "/", submit)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})

	return r
}

// rateLimit rejects requests over the configured rate with 429
func rateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
