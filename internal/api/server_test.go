package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
	"github.com/ly2306/bizdir-crawler/internal/id/uuid"
	"github.com/ly2306/bizdir-crawler/internal/queue/memory"
	jobmem "github.com/ly2306/bizdir-crawler/internal/storage/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeCanceler struct {
	running  map[string]bool
	canceled []string
}

func (c *fakeCanceler) Cancel(jobID string) bool {
	if !c.running[jobID] {
		return false
	}
	c.canceled = append(c.canceled, jobID)
	return true
}

func newTestServer(t *testing.T) (*Server, *jobmem.JobStore, *memory.Queue, *fakeCanceler) {
	t.Helper()
	jobs := jobmem.NewJobStore()
	q := memory.NewQueue(4)
	canceler := &fakeCanceler{running: make(map[string]bool)}
	s := NewServer(jobs, q, uuid.Generator{}, fixedClock{t: time.Unix(1700000000, 0).UTC()}, canceler, 200, zap.NewNop())
	return s, jobs, q, canceler
}

func TestServer_SubmitCrawl(t *testing.T) {
	t.Parallel()

	s, jobs, q, _ := newTestServer(t)
	router := s.Router()

	body, _ := json.Marshal(map[string]any{"target_name": "Hồ Chí Minh", "max_pages": 10})
	req := httptest.NewRequest(http.MethodPost, "/v1/crawls", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JobID)
	require.Equal(t, crawler.JobStatusQueued, resp.Status)

	job, err := jobs.GetJob(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, "Hồ Chí Minh", job.Parameters.TargetName)
	require.Equal(t, 10, job.Parameters.MaxPages)

	item, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, resp.JobID, item.JobID)
}

func TestServer_SubmitRejectsMissingTarget(t *testing.T) {
	t.Parallel()

	s, _, _, _ := newTestServer(t)
	router := s.Router()

	req := httptest.NewRequest(http.MethodPost, "/v1/crawls", bytes.NewReader([]byte(`{"target_name":"  "}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/crawls", bytes.NewReader([]byte(`not json`)))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Status(t *testing.T) {
	t.Parallel()

	s, jobs, _, _ := newTestServer(t)
	router := s.Router()

	require.NoError(t, jobs.CreateJob(context.Background(), crawler.Job{
		ID:     "job-1",
		Status: crawler.JobStatusRunning,
		Parameters: crawler.JobParameters{
			TargetName: "Hà Nội",
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/crawls/job-1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var job crawler.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	require.Equal(t, crawler.JobStatusRunning, job.Status)

	req = httptest.NewRequest(http.MethodGet, "/v1/crawls/ghost/status", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Cancel(t *testing.T) {
	t.Parallel()

	s, jobs, _, canceler := newTestServer(t)
	router := s.Router()
	ctx := context.Background()

	require.NoError(t, jobs.CreateJob(ctx, crawler.Job{ID: "running-job", Status: crawler.JobStatusRunning}))
	require.NoError(t, jobs.CreateJob(ctx, crawler.Job{ID: "queued-job", Status: crawler.JobStatusQueued}))
	require.NoError(t, jobs.CreateJob(ctx, crawler.Job{ID: "done-job", Status: crawler.JobStatusSucceeded}))
	canceler.running["running-job"] = true

	// Running job goes through the registry.
	req := httptest.NewRequest(http.MethodPost, "/v1/crawls/running-job/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, canceler.canceled, "running-job")

	// Queued job is marked canceled directly in the store.
	req = httptest.NewRequest(http.MethodPost, "/v1/crawls/queued-job/cancel", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	job, err := jobs.GetJob(ctx, "queued-job")
	require.NoError(t, err)
	require.Equal(t, crawler.JobStatusCanceled, job.Status)

	// Finished jobs cannot be canceled.
	req = httptest.NewRequest(http.MethodPost, "/v1/crawls/done-job/cancel", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	s, _, _, _ := newTestServer(t)
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
