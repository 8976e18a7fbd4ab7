// Package web implements the plain-HTTP fetcher used for discovery and
// listing pages.
package web

import (
	"context"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

// Fetcher fetches pages with a rotating User-Agent and a fixed Referer,
// throttled per host.
type Fetcher struct {
	timeout    time.Duration
	userAgents []string
	referer    string
	rps        rate.Limit
	logger     *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher constructs a Fetcher. referer is sent on every request;
// rps bounds requests per second per target host.
func NewFetcher(timeout time.Duration, userAgents []string, referer string, rps float64, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		timeout:    timeout,
		userAgents: userAgents,
		referer:    referer,
		rps:        rate.Limit(rps),
		logger:     logger,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// Fetch retrieves one URL. Non-2xx responses come back as FetchError
// with the status code filled in.
func (f *Fetcher) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	parsed, err := url.Parse(request.URL)
	if err != nil {
		return crawler.FetchResponse{}, &crawler.FetchError{URL: request.URL, Err: err}
	}
	if err := f.limiter(parsed.Host).Wait(ctx); err != nil {
		return crawler.FetchResponse{}, &crawler.FetchError{URL: request.URL, Err: err}
	}

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent()),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		referer := request.Referer
		if referer == "" {
			referer = f.referer
		}
		if referer != "" {
			r.Headers.Set("Referer", referer)
		}
		for key, values := range request.Headers {
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})

	var (
		resp     crawler.FetchResponse
		fetchErr error
	)
	start := time.Now()
	c.OnResponse(func(r *colly.Response) {
		resp = crawler.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headerCopy(r.Headers),
			Body:       r.Body,
			Duration:   time.Since(start),
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = &crawler.FetchError{
			URL:        request.URL,
			StatusCode: r.StatusCode,
			Err:        err,
		}
	})

	if err := c.Visit(request.URL); err != nil && fetchErr == nil {
		fetchErr = &crawler.FetchError{URL: request.URL, Err: err}
	}
	c.Wait()

	if fetchErr != nil {
		f.logger.Warn("fetch failed", zap.String("url", request.URL), zap.Error(fetchErr))
		return crawler.FetchResponse{}, fetchErr
	}
	return resp, nil
}

func (f *Fetcher) userAgent() string {
	if len(f.userAgents) == 0 {
		return ""
	}
	return f.userAgents[rand.Intn(len(f.userAgents))]
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(f.rps, 1)
	f.limiters[host] = l
	return l
}

func headerCopy(h *http.Header) http.Header {
	if h == nil {
		return nil
	}
	return h.Clone()
}
