// Package headless renders detail pages in a shared Chrome instance.
// Each district runner gets its own tab via NewSession.
package headless

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

// Options configure the Chrome allocator and per-page behavior.
type Options struct {
	UserAgent      string
	Referer        string
	NavTimeout     time.Duration
	DismissTimeout time.Duration
	DismissButton  string
}

// Browser owns the Chrome allocator shared by all sessions.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	opts        Options
	logger      *zap.Logger
}

// NewBrowser starts the allocator. Chrome itself launches lazily with
// the first session.
func NewBrowser(ctx context.Context, opts Options, logger *zap.Logger) *Browser {
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	if opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(opts.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, flags...)
	return &Browser{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		opts:        opts,
		logger:      logger,
	}
}

// NewSession opens a fresh tab.
func (b *Browser) NewSession(ctx context.Context) (crawler.RenderSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, tabCancel := chromedp.NewContext(b.allocCtx)

	// Close the tab if the caller's context ends first.
	go func() {
		select {
		case <-ctx.Done():
			tabCancel()
		case <-tabCtx.Done():
		}
	}()

	actions := []chromedp.Action{network.Enable()}
	if b.opts.Referer != "" {
		actions = append(actions, network.SetExtraHTTPHeaders(network.Headers{
			"Referer": b.opts.Referer,
		}))
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		tabCancel()
		return nil, err
	}
	return &session{
		tabCtx:    tabCtx,
		tabCancel: tabCancel,
		opts:      b.opts,
		logger:    b.logger,
	}, nil
}

// Close shuts down Chrome and every open tab.
func (b *Browser) Close() {
	b.allocCancel()
}

type session struct {
	tabCtx    context.Context
	tabCancel context.CancelFunc
	opts      Options
	logger    *zap.Logger
}

// Render navigates to the URL, clicks the interstitial dismiss button
// when it shows up, and returns the rendered document. A page without
// the dialog is the common case and is not an error.
func (s *session) Render(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	navCtx, cancel := context.WithTimeout(s.tabCtx, s.opts.NavTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return "", &crawler.FetchError{URL: url, Err: err}
	}

	if s.opts.DismissButton != "" {
		dismissCtx, dismissCancel := context.WithTimeout(s.tabCtx, s.opts.DismissTimeout)
		err := chromedp.Run(dismissCtx,
			chromedp.WaitVisible(s.opts.DismissButton, chromedp.ByQuery),
			chromedp.Click(s.opts.DismissButton, chromedp.ByQuery),
		)
		dismissCancel()
		if err != nil {
			s.logger.Debug("no dismissable dialog", zap.String("url", url))
		}
	}

	var html string
	if err := chromedp.Run(navCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", &crawler.FetchError{URL: url, Err: err}
	}
	return html, nil
}

func (s *session) Close() {
	s.tabCancel()
}
