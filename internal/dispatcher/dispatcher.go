// Package dispatcher drains the job queue with a fixed worker pool.
package dispatcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

// Executor runs one dequeued job to completion.
type Executor interface {
	Execute(ctx context.Context, item crawler.QueueItem)
}

// Dispatcher pulls queue items and hands them to the executor. Runs
// are serialized per pool slot; the pool size bounds concurrent runs.
type Dispatcher struct {
	queue    crawler.Queue
	executor Executor
	workers  int
	logger   *zap.Logger
}

func NewDispatcher(queue crawler.Queue, executor Executor, workers int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{queue: queue, executor: executor, workers: workers, logger: logger}
}

// Run blocks until the context ends and all in-flight runs finish.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			d.loop(ctx, slot)
		}(i)
	}
	wg.Wait()
}

func (d *Dispatcher) loop(ctx context.Context, slot int) {
	logger := d.logger.With(zap.Int("slot", slot))
	for {
		item, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("dequeue failed, stopping slot", zap.Error(err))
			}
			return
		}
		logger.Info("picked up job", zap.String("job_id", item.JobID))
		d.executor.Execute(ctx, item)
	}
}
