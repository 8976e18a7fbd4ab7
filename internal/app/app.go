// Package app assembles the service from its configured providers.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/api"
	blobgcs "github.com/ly2306/bizdir-crawler/internal/blob/gcs"
	bloblocal "github.com/ly2306/bizdir-crawler/internal/blob/local"
	blobnoop "github.com/ly2306/bizdir-crawler/internal/blob/noop"
	"github.com/ly2306/bizdir-crawler/internal/clock/system"
	"github.com/ly2306/bizdir-crawler/internal/config"
	"github.com/ly2306/bizdir-crawler/internal/crawler"
	"github.com/ly2306/bizdir-crawler/internal/detail"
	"github.com/ly2306/bizdir-crawler/internal/discovery"
	"github.com/ly2306/bizdir-crawler/internal/dispatcher"
	"github.com/ly2306/bizdir-crawler/internal/fetcher/headless"
	"github.com/ly2306/bizdir-crawler/internal/fetcher/web"
	"github.com/ly2306/bizdir-crawler/internal/id/uuid"
	"github.com/ly2306/bizdir-crawler/internal/listing"
	pubnoop "github.com/ly2306/bizdir-crawler/internal/publisher/noop"
	pubps "github.com/ly2306/bizdir-crawler/internal/publisher/pubsub"
	queuemem "github.com/ly2306/bizdir-crawler/internal/queue/memory"
	jobmem "github.com/ly2306/bizdir-crawler/internal/storage/memory"
	jobpg "github.com/ly2306/bizdir-crawler/internal/storage/postgres"
	tabmem "github.com/ly2306/bizdir-crawler/internal/tabular/memory"
	tabsheets "github.com/ly2306/bizdir-crawler/internal/tabular/sheets"
	"github.com/ly2306/bizdir-crawler/internal/worker"
)

// App holds the assembled service: the HTTP handler, the queue
// dispatcher, and everything that needs closing on shutdown.
type App struct {
	Handler    http.Handler
	Dispatcher *dispatcher.Dispatcher
	Queue      *queuemem.Queue

	closers []func()
}

// Build wires all providers according to the configuration.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}
	clk := system.Clock{}
	ids := uuid.NewGenerator()

	jobs, err := a.buildJobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tables, err := a.buildTableStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	snapshots, err := a.buildSnapshotStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	publisher, err := a.buildPublisher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	fetcher := web.NewFetcher(
		cfg.HTTPTimeout(),
		cfg.Crawler.UserAgents,
		cfg.Crawler.BaseURL,
		cfg.Crawler.PerHostRPS,
		logger,
	)

	var browser crawler.Browser
	if cfg.Headless.Enabled {
		b := headless.NewBrowser(ctx, headless.Options{
			UserAgent:      cfg.Crawler.UserAgents[0],
			Referer:        cfg.Crawler.BaseURL,
			NavTimeout:     time.Duration(cfg.Headless.NavTimeoutSeconds) * time.Second,
			DismissTimeout: time.Duration(cfg.Headless.DismissTimeoutSeconds) * time.Second,
			DismissButton:  cfg.Selectors.DismissButton,
		}, logger)
		a.closers = append(a.closers, b.Close)
		browser = b
	} else {
		browser = headless.NewPlainBrowser(fetcher)
	}

	registry := worker.NewRegistry()
	w := worker.NewWorker(
		jobs,
		tables,
		browser,
		fetcher,
		discovery.NewDiscoverer(fetcher, cfg.Crawler.BaseURL, cfg.Selectors, logger),
		listing.NewPaginator(cfg.Selectors, logger),
		detail.NewExtractor(cfg.Selectors, logger),
		snapshots,
		publisher,
		clk,
		registry,
		worker.Config{
			TitlePrefix:    cfg.Sheets.TitlePrefix,
			Concurrency:    cfg.Crawler.Concurrency,
			MaxPages:       cfg.Crawler.MaxPages,
			StrictDedup:    cfg.Crawler.StrictDedup,
			Stagger:        cfg.Stagger(),
			PageDelay:      cfg.PageDelay(),
			EntityDelay:    cfg.EntityDelay(),
			SnapshotPrefix: cfg.Snapshots.Prefix,
			EventTopic:     cfg.PubSub.TopicName,
		},
		logger,
	)

	a.Queue = queuemem.NewQueue(cfg.Crawler.QueueDepth)
	// One run at a time; concurrency lives inside the run's district
	// fan-out, and the target site is shared by every run anyway.
	a.Dispatcher = dispatcher.NewDispatcher(a.Queue, w, 1, logger)

	server := api.NewServer(jobs, a.Queue, ids, clk, registry, cfg.Crawler.MaxPages, logger)
	a.Handler = server.Router()
	return a, nil
}

func (a *App) buildJobStore(ctx context.Context, cfg config.Config) (crawler.JobStore, error) {
	switch cfg.DB.Provider {
	case "memory", "":
		return jobmem.NewJobStore(), nil
	case "postgres":
		store, err := jobpg.NewJobStore(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres job store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown db provider %q", cfg.DB.Provider)
	}
}

func (a *App) buildTableStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (crawler.TableStore, error) {
	switch cfg.Sheets.Provider {
	case "sheets", "":
		return tabsheets.NewStore(ctx, tabsheets.Options{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			ShareEmail:      cfg.Sheets.ShareEmail,
			ShareAnyone:     cfg.Sheets.ShareAnyone,
		}, logger)
	case "memory":
		return tabmem.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown sheets provider %q", cfg.Sheets.Provider)
	}
}

func (a *App) buildSnapshotStore(ctx context.Context, cfg config.Config) (crawler.BlobStore, error) {
	switch cfg.Snapshots.Provider {
	case "noop", "":
		return blobnoop.NewStore(), nil
	case "local":
		return bloblocal.NewStore(cfg.Snapshots.BaseDir)
	case "gcs":
		store, err := blobgcs.NewStore(ctx, cfg.Snapshots.GCSBucket)
		if err != nil {
			return nil, fmt.Errorf("gcs snapshot store: %w", err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		return store, nil
	default:
		return nil, fmt.Errorf("unknown snapshots provider %q", cfg.Snapshots.Provider)
	}
}

func (a *App) buildPublisher(ctx context.Context, cfg config.Config) (crawler.Publisher, error) {
	switch cfg.PubSub.Provider {
	case "noop", "":
		return pubnoop.NewPublisher(), nil
	case "pubsub":
		pub, err := pubps.NewPublisher(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub publisher: %w", err)
		}
		a.closers = append(a.closers, func() { _ = pub.Close() })
		return pub, nil
	default:
		return nil, fmt.Errorf("unknown pubsub provider %q", cfg.PubSub.Provider)
	}
}

// Close tears down providers in reverse construction order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
