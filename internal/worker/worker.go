// Package worker executes crawl runs end to end: group resolution,
// district discovery, the per-district fan-out, and persistence.
package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
	"github.com/ly2306/bizdir-crawler/internal/detail"
	"github.com/ly2306/bizdir-crawler/internal/discovery"
	"github.com/ly2306/bizdir-crawler/internal/listing"
	"github.com/ly2306/bizdir-crawler/internal/metrics"
	"github.com/ly2306/bizdir-crawler/internal/sink"
	"github.com/ly2306/bizdir-crawler/internal/slug"
)

// Config holds the knobs a run needs at execution time.
type Config struct {
	TitlePrefix    string
	Concurrency    int
	MaxPages       int
	StrictDedup    bool
	Stagger        time.Duration
	PageDelay      time.Duration
	EntityDelay    time.Duration
	SnapshotPrefix string
	EventTopic     string
}

// Worker runs queued crawl jobs.
type Worker struct {
	jobs       crawler.JobStore
	tables     crawler.TableStore
	browser    crawler.Browser
	fetcher    crawler.Fetcher
	discoverer *discovery.Discoverer
	paginator  *listing.Paginator
	extractor  *detail.Extractor
	snapshots  crawler.BlobStore
	publisher  crawler.Publisher
	clock      crawler.Clock
	registry   *Registry
	cfg        Config
	logger     *zap.Logger
}

func NewWorker(
	jobs crawler.JobStore,
	tables crawler.TableStore,
	browser crawler.Browser,
	fetcher crawler.Fetcher,
	discoverer *discovery.Discoverer,
	paginator *listing.Paginator,
	extractor *detail.Extractor,
	snapshots crawler.BlobStore,
	publisher crawler.Publisher,
	clock crawler.Clock,
	registry *Registry,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		jobs:       jobs,
		tables:     tables,
		browser:    browser,
		fetcher:    fetcher,
		discoverer: discoverer,
		paginator:  paginator,
		extractor:  extractor,
		snapshots:  snapshots,
		publisher:  publisher,
		clock:      clock,
		registry:   registry,
		cfg:        cfg,
		logger:     logger,
	}
}

// RecordEvent is published for every appended row.
type RecordEvent struct {
	JobID      string    `json:"job_id"`
	District   string    `json:"district"`
	Table      string    `json:"table"`
	Seq        int       `json:"seq"`
	Name       string    `json:"name"`
	DetailURL  string    `json:"detail_url"`
	AppendedAt time.Time `json:"appended_at"`
}

// Execute runs one job to completion and persists its final state.
func (w *Worker) Execute(ctx context.Context, item crawler.QueueItem) {
	logger := w.logger.With(
		zap.String("job_id", item.JobID),
		zap.String("target", item.Params.TargetName))

	runCtx, cancel := context.WithCancel(ctx)
	w.registry.register(item.JobID, cancel)
	defer cancel()

	counters := &runCounters{}
	status, errText := w.run(runCtx, item, counters, logger)
	if w.registry.wasCanceled(item.JobID) {
		status = crawler.JobStatusCanceled
		errText = ""
	}
	w.registry.unregister(item.JobID)

	// Persist the outcome even when the run context is gone.
	updateCtx, updateCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer updateCancel()
	if err := w.jobs.UpdateJobStatus(updateCtx, item.JobID, status, errText, counters.snapshot()); err != nil {
		logger.Error("persisting final job state failed", zap.Error(err))
	}
	metrics.ObserveRunFinished(string(status))
	logger.Info("run finished", zap.String("status", string(status)), zap.String("error", errText))
}

func (w *Worker) run(ctx context.Context, item crawler.QueueItem, counters *runCounters, logger *zap.Logger) (crawler.JobStatus, string) {
	// A job canceled while still queued never starts.
	if job, err := w.jobs.GetJob(ctx, item.JobID); err == nil && job.Status == crawler.JobStatusCanceled {
		logger.Info("skipping canceled job")
		return crawler.JobStatusCanceled, ""
	}

	if err := w.jobs.UpdateJobStatus(ctx, item.JobID, crawler.JobStatusRunning, "", crawler.JobCounters{}); err != nil {
		logger.Warn("marking job running failed", zap.Error(err))
	}

	groupID, err := w.tables.FindOrCreateGroup(ctx, w.cfg.TitlePrefix+item.Params.TargetName)
	if err != nil {
		return crawler.JobStatusFailed, err.Error()
	}

	region := w.discoverer.Resolve(item.Params.TargetName)
	districts, err := w.discoverer.Districts(ctx, item.JobID, region)
	if err != nil {
		return crawler.JobStatusFailed, err.Error()
	}
	if len(districts) == 0 {
		return crawler.JobStatusSucceeded, ""
	}

	maxPages := item.Params.MaxPages
	if maxPages <= 0 {
		maxPages = w.cfg.MaxPages
	}

	sem := make(chan struct{}, w.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, d := range districts {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			if err := sleep(ctx, w.cfg.Stagger); err != nil {
				break
			}
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(d crawler.District) {
			defer wg.Done()
			defer func() { <-sem }()
			metrics.RunnerStarted()
			defer metrics.RunnerFinished()

			if err := w.runDistrict(ctx, item, groupID, d, maxPages, counters, logger); err != nil {
				counters.districtFailed()
				logger.Warn("district run failed",
					zap.String("district", d.Name), zap.Error(err))
			} else {
				counters.districtDone()
			}
		}(d)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return crawler.JobStatusFailed, "run interrupted"
	}
	snap := counters.snapshot()
	if snap.DistrictsFailed > 0 {
		return crawler.JobStatusSucceeded,
			fmt.Sprintf("%d of %d districts failed", snap.DistrictsFailed, len(districts))
	}
	return crawler.JobStatusSucceeded, ""
}

// runDistrict crawls one district start to finish. It owns its own
// browser session and dedup snapshot; an error here never touches the
// sibling districts.
func (w *Worker) runDistrict(
	ctx context.Context,
	item crawler.QueueItem,
	groupID string,
	d crawler.District,
	maxPages int,
	counters *runCounters,
	logger *zap.Logger,
) error {
	dlog := logger.With(zap.String("district", d.Name))

	session, err := w.browser.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("open browser session: %w", err)
	}
	defer session.Close()

	s, err := sink.Open(ctx, w.tables, groupID, d.Name, w.cfg.StrictDedup, dlog)
	if err != nil {
		return err
	}

	for page := 1; page <= maxPages; page++ {
		if page > 1 {
			if err := sleep(ctx, w.cfg.PageDelay); err != nil {
				return err
			}
		}
		result, body, err := w.paginator.FetchPage(ctx, session, d, page)
		if err != nil {
			metrics.ObserveFetchError("listing")
			return fmt.Errorf("listing page %d: %w", page, err)
		}
		counters.pageFetched()
		w.snapshot(ctx, item.JobID, d.Name, fmt.Sprintf("page-%d.html", page), body, dlog)

		for _, stub := range result.Stubs {
			if err := w.processStub(ctx, item.JobID, d, s, stub, counters, dlog); err != nil {
				if ctx.Err() != nil {
					return err
				}
				counters.entityFailed()
				dlog.Warn("entity failed", zap.String("name", stub.Name), zap.Error(err))
			}
			if err := sleep(ctx, w.cfg.EntityDelay); err != nil {
				return err
			}
		}
		if !result.HasNext {
			break
		}
	}
	dlog.Info("district done")
	return nil
}

func (w *Worker) processStub(
	ctx context.Context,
	jobID string,
	d crawler.District,
	s *sink.DistrictSink,
	stub crawler.EntityStub,
	counters *runCounters,
	logger *zap.Logger,
) error {
	if s.IsDuplicate(stub.Name) {
		counters.duplicateSkipped()
		return nil
	}
	if !isAbsolute(stub.DetailURL) {
		logger.Warn("skipping non-absolute detail link",
			zap.String("name", stub.Name), zap.String("href", stub.DetailURL))
		return nil
	}

	resp, err := w.fetcher.Fetch(ctx, crawler.FetchRequest{JobID: jobID, URL: stub.DetailURL, Referer: d.URL})
	if err != nil {
		metrics.ObserveFetchError("detail")
		return fmt.Errorf("detail %s: %w", stub.DetailURL, err)
	}
	html := string(resp.Body)
	w.snapshot(ctx, jobID, d.Name, slug.Make(stub.Name)+".html", resp.Body, logger)

	rec, err := w.extractor.Extract(html, stub.DetailURL, stub)
	if err != nil {
		return err
	}
	written, err := s.Append(ctx, &rec)
	if err != nil {
		return err
	}
	if !written {
		counters.duplicateSkipped()
		return nil
	}
	counters.recordAppended()

	// Event delivery is best effort; a broker hiccup never fails the run.
	event := RecordEvent{
		JobID:      jobID,
		District:   d.Name,
		Table:      s.Table(),
		Seq:        rec.Seq,
		Name:       rec.Name,
		DetailURL:  stub.DetailURL,
		AppendedAt: w.clock.Now(),
	}
	if _, err := w.publisher.Publish(ctx, w.cfg.EventTopic, event); err != nil {
		logger.Warn("publishing record event failed", zap.Error(err))
	}
	return nil
}

func (w *Worker) snapshot(ctx context.Context, jobID, district, filename string, body []byte, logger *zap.Logger) {
	if len(body) == 0 {
		return
	}
	path := fmt.Sprintf("%s/%s/%s/%s", w.cfg.SnapshotPrefix, jobID, slug.Make(district), filename)
	if _, err := w.snapshots.PutObject(ctx, path, "text/html; charset=utf-8", body); err != nil {
		logger.Warn("snapshot write failed", zap.String("path", path), zap.Error(err))
	}
}

func isAbsolute(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// runCounters aggregates progress across district goroutines.
type runCounters struct {
	mu sync.Mutex
	c  crawler.JobCounters
}

func (rc *runCounters) districtDone()   { rc.add(func(c *crawler.JobCounters) { c.DistrictsDone++ }) }
func (rc *runCounters) districtFailed() { rc.add(func(c *crawler.JobCounters) { c.DistrictsFailed++ }) }
func (rc *runCounters) pageFetched()    { rc.add(func(c *crawler.JobCounters) { c.PagesFetched++ }) }
func (rc *runCounters) recordAppended() { rc.add(func(c *crawler.JobCounters) { c.RecordsAppended++ }) }
func (rc *runCounters) duplicateSkipped() {
	rc.add(func(c *crawler.JobCounters) { c.DuplicatesSkipped++ })
}
func (rc *runCounters) entityFailed() { rc.add(func(c *crawler.JobCounters) { c.EntitiesFailed++ }) }

func (rc *runCounters) add(f func(*crawler.JobCounters)) {
	rc.mu.Lock()
	f(&rc.c)
	rc.mu.Unlock()
}

func (rc *runCounters) snapshot() crawler.JobCounters {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.c
}
