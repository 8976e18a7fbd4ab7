// Package api exposes the crawl trigger and status endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

// Canceler cancels an in-flight run by job ID.
type Canceler interface {
	Cancel(jobID string) bool
}

// Server wires the HTTP handlers to the job store and queue.
type Server struct {
	jobs     crawler.JobStore
	queue    crawler.Queue
	ids      crawler.IDGenerator
	clock    crawler.Clock
	canceler Canceler
	maxPages int
	logger   *zap.Logger
}

func NewServer(
	jobs crawler.JobStore,
	queue crawler.Queue,
	ids crawler.IDGenerator,
	clock crawler.Clock,
	canceler Canceler,
	maxPages int,
	logger *zap.Logger,
) *Server {
	return &Server{
		jobs:     jobs,
		queue:    queue,
		ids:      ids,
		clock:    clock,
		canceler: canceler,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Router builds the chi router with the standard middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/crawls", func(r chi.Router) {
		r.Post("/", s.handleSubmit)
		r.Get("/{jobID}/status", s.handleStatus)
		r.Post("/{jobID}/cancel", s.handleCancel)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type submitRequest struct {
	TargetName string `json:"target_name"`
	MaxPages   int    `json:"max_pages,omitempty"`
}

type submitResponse struct {
	JobID  string            `json:"job_id"`
	Status crawler.JobStatus `json:"status"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.TargetName = strings.TrimSpace(req.TargetName)
	if req.TargetName == "" {
		s.writeError(w, http.StatusBadRequest, "target_name is required")
		return
	}
	if req.MaxPages < 0 || req.MaxPages > s.maxPages {
		req.MaxPages = s.maxPages
	}

	jobID, err := s.ids.NewID()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not allocate job id")
		return
	}
	now := s.clock.Now()
	job := crawler.Job{
		ID:        jobID,
		Status:    crawler.JobStatusQueued,
		Submitted: now,
		Parameters: crawler.JobParameters{
			TargetName: req.TargetName,
			MaxPages:   req.MaxPages,
		},
	}
	if err := s.jobs.CreateJob(r.Context(), job); err != nil {
		s.logger.Error("creating job failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not persist job")
		return
	}

	item := crawler.QueueItem{JobID: jobID, Params: job.Parameters, Submitted: now.Unix()}
	enqueueCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.queue.Enqueue(enqueueCtx, item); err != nil {
		s.logger.Warn("enqueue failed", zap.String("job_id", jobID), zap.Error(err))
		_ = s.jobs.UpdateJobStatus(r.Context(), jobID, crawler.JobStatusFailed, "queue full", crawler.JobCounters{})
		s.writeError(w, http.StatusServiceUnavailable, "queue is full, try again later")
		return
	}

	s.writeJSON(w, http.StatusAccepted, submitResponse{JobID: jobID, Status: crawler.JobStatusQueued})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	switch job.Status {
	case crawler.JobStatusSucceeded, crawler.JobStatusFailed, crawler.JobStatusCanceled:
		s.writeError(w, http.StatusConflict, "job already finished")
		return
	}

	if !s.canceler.Cancel(jobID) {
		// Still queued. Mark it canceled in the store; the worker checks
		// the stored status before starting a dequeued job.
		if err := s.jobs.UpdateJobStatus(r.Context(), jobID, crawler.JobStatusCanceled, "", job.Counters); err != nil {
			s.writeError(w, http.StatusInternalServerError, "could not cancel job")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID, "status": string(crawler.JobStatusCanceled)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
