package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

func TestQueue_RoundTrip(t *testing.T) {
	t.Parallel()

	q := NewQueue(2)
	ctx := context.Background()

	in := crawler.QueueItem{JobID: "job-1", Params: crawler.JobParameters{TargetName: "Hồ Chí Minh"}}
	require.NoError(t, q.Enqueue(ctx, in))

	out, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestQueue_DequeueHonorsContext(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_EnqueueBlocksWhenFull(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, crawler.QueueItem{JobID: "a"}))

	blockedCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(blockedCtx, crawler.QueueItem{JobID: "b"})
	require.Error(t, err)
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	q.Close()
	q.Close()

	_, err := q.Dequeue(context.Background())
	require.EqualError(t, err, "queue closed")
}
