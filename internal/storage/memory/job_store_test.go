package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

func TestJobStore_Lifecycle(t *testing.T) {
	t.Parallel()

	s := NewJobStore()
	ctx := context.Background()

	job := crawler.Job{ID: "job-1", Status: crawler.JobStatusQueued, Parameters: crawler.JobParameters{TargetName: "Hà Nội"}}
	require.NoError(t, s.CreateJob(ctx, job))
	require.Error(t, s.CreateJob(ctx, job), "duplicate job IDs are rejected")

	require.NoError(t, s.UpdateJobStatus(ctx, "job-1", crawler.JobStatusRunning, "", crawler.JobCounters{}))
	got, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, crawler.JobStatusRunning, got.Status)
	require.NotNil(t, got.Started)
	require.Nil(t, got.Finished)

	counters := crawler.JobCounters{DistrictsDone: 2, RecordsAppended: 17}
	require.NoError(t, s.UpdateJobStatus(ctx, "job-1", crawler.JobStatusSucceeded, "", counters))
	got, err = s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, crawler.JobStatusSucceeded, got.Status)
	require.Equal(t, counters, got.Counters)
	require.NotNil(t, got.Finished)
}

func TestJobStore_MissingJob(t *testing.T) {
	t.Parallel()

	s := NewJobStore()
	ctx := context.Background()

	_, err := s.GetJob(ctx, "nope")
	require.Error(t, err)
	require.Error(t, s.UpdateJobStatus(ctx, "nope", crawler.JobStatusFailed, "x", crawler.JobCounters{}))
}
