package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

func TestJobStore_CreateJob(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewJobStoreWithDB(mock)
	submitted := time.Unix(1700000000, 0).UTC()
	job := crawler.Job{
		ID:         "job-1",
		Status:     crawler.JobStatusQueued,
		Submitted:  submitted,
		Parameters: crawler.JobParameters{TargetName: "Hồ Chí Minh", MaxPages: 50},
	}

	mock.ExpectExec("INSERT INTO crawl_jobs").
		WithArgs("job-1", "queued", submitted, "Hồ Chí Minh", 50, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.CreateJob(context.Background(), job))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_UpdateJobStatus_MissingJob(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewJobStoreWithDB(mock)

	mock.ExpectExec("UPDATE crawl_jobs").
		WithArgs("failed", "boom", pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.UpdateJobStatus(context.Background(), "missing", crawler.JobStatusFailed, "boom", crawler.JobCounters{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_GetJob(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewJobStoreWithDB(mock)
	submitted := time.Unix(1700000000, 0).UTC()
	errText := "one district failed"

	rows := pgxmock.NewRows([]string{
		"id", "status", "submitted_at", "started_at", "finished_at",
		"error_text", "target_name", "max_pages", "counters",
	}).AddRow(
		"job-1", "succeeded", submitted, (*time.Time)(nil), (*time.Time)(nil),
		&errText, "Hà Nội", 200, []byte(`{"districts_done":3,"records_appended":42}`),
	)

	mock.ExpectQuery("SELECT (.+) FROM crawl_jobs").
		WithArgs("job-1").
		WillReturnRows(rows)

	job, err := store.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, crawler.JobStatusSucceeded, job.Status)
	require.Equal(t, "Hà Nội", job.Parameters.TargetName)
	require.Equal(t, 3, job.Counters.DistrictsDone)
	require.Equal(t, 42, job.Counters.RecordsAppended)
	require.Equal(t, "one district failed", job.ErrorText)
	require.NoError(t, mock.ExpectationsWereMet())
}
