package headless

import (
	"context"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

// PlainBrowser satisfies the Browser interface with plain HTTP fetches
// for deployments that run without Chrome. Pages that hide content
// behind scripted dialogs may come back incomplete.
type PlainBrowser struct {
	fetcher crawler.Fetcher
}

func NewPlainBrowser(fetcher crawler.Fetcher) *PlainBrowser {
	return &PlainBrowser{fetcher: fetcher}
}

func (b *PlainBrowser) NewSession(context.Context) (crawler.RenderSession, error) {
	return &plainSession{fetcher: b.fetcher}, nil
}

type plainSession struct {
	fetcher crawler.Fetcher
}

func (s *plainSession) Render(ctx context.Context, url string) (string, error) {
	resp, err := s.fetcher.Fetch(ctx, crawler.FetchRequest{URL: url})
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

func (s *plainSession) Close() {}
