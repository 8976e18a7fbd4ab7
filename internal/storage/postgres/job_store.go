// Package postgres provides a Postgres-backed job store.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// JobStore persists crawl run metadata in Postgres.
type JobStore struct {
	db   DB
	pool *pgxpool.Pool
}

// NewJobStore connects a pool and returns a store.
func NewJobStore(ctx context.Context, dsn string) (*JobStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return &JobStore{db: pool, pool: pool}, nil
}

// NewJobStoreWithDB wraps an existing connection, mainly for tests.
func NewJobStoreWithDB(db DB) *JobStore {
	return &JobStore{db: db}
}

// Close closes the underlying connection pool.
func (s *JobStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateJob inserts a new run row.
func (s *JobStore) CreateJob(ctx context.Context, job crawler.Job) error {
	counters, err := json.Marshal(job.Counters)
	if err != nil {
		return fmt.Errorf("marshal counters: %w", err)
	}
	query := `
		INSERT INTO crawl_jobs (id, status, submitted_at, target_name, max_pages, counters)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	if _, err := s.db.Exec(ctx, query,
		job.ID, string(job.Status), job.Submitted, job.Parameters.TargetName, job.Parameters.MaxPages, counters,
	); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// UpdateJobStatus updates status, error text, counters, and the
// started/finished timestamps derived from the status transition.
func (s *JobStore) UpdateJobStatus(
	ctx context.Context,
	jobID string,
	status crawler.JobStatus,
	errText string,
	counters crawler.JobCounters,
) error {
	payload, err := json.Marshal(counters)
	if err != nil {
		return fmt.Errorf("marshal counters: %w", err)
	}
	now := time.Now().UTC()
	query := `
		UPDATE crawl_jobs
		SET status = $1,
			error_text = $2,
			counters = $3,
			started_at = CASE WHEN $1 = 'running' AND started_at IS NULL THEN $4 ELSE started_at END,
			finished_at = CASE WHEN $1 IN ('succeeded', 'failed', 'canceled') THEN $4 ELSE finished_at END
		WHERE id = $5;
	`
	tag, err := s.db.Exec(ctx, query, string(status), errText, payload, now, jobID)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s not found", jobID)
	}
	return nil
}

// GetJob fetches a run row by ID.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (crawler.Job, error) {
	query := `
		SELECT id, status, submitted_at, started_at, finished_at, error_text, target_name, max_pages, counters
		FROM crawl_jobs
		WHERE id = $1;
	`
	var (
		job      crawler.Job
		status   string
		errText  *string
		counters []byte
	)
	row := s.db.QueryRow(ctx, query, jobID)
	if err := row.Scan(
		&job.ID, &status, &job.Submitted, &job.Started, &job.Finished,
		&errText, &job.Parameters.TargetName, &job.Parameters.MaxPages, &counters,
	); err != nil {
		return crawler.Job{}, fmt.Errorf("select job: %w", err)
	}
	job.Status = crawler.JobStatus(status)
	if errText != nil {
		job.ErrorText = *errText
	}
	if len(counters) > 0 {
		if err := json.Unmarshal(counters, &job.Counters); err != nil {
			return crawler.Job{}, fmt.Errorf("unmarshal counters: %w", err)
		}
	}
	return job, nil
}
