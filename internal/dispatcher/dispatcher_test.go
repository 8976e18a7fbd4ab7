package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
	"github.com/ly2306/bizdir-crawler/internal/queue/memory"
)

type recordingExecutor struct {
	mu   sync.Mutex
	seen []string
	done chan struct{}
	want int
}

func (e *recordingExecutor) Execute(_ context.Context, item crawler.QueueItem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = append(e.seen, item.JobID)
	if len(e.seen) == e.want {
		close(e.done)
	}
}

func TestDispatcher_DrainsQueue(t *testing.T) {
	t.Parallel()

	q := memory.NewQueue(8)
	exec := &recordingExecutor{done: make(chan struct{}), want: 3}
	d := NewDispatcher(q, exec, 2, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Run(ctx)
	}()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(ctx, crawler.QueueItem{JobID: id}))
	}

	select {
	case <-exec.done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs were not executed in time")
	}

	cancel()
	wg.Wait()

	exec.mu.Lock()
	defer exec.mu.Unlock()
	require.ElementsMatch(t, []string{"a", "b", "c"}, exec.seen)
}
