// Package listing walks a district's paginated listing pages and
// extracts entity stubs.
package listing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
	"github.com/ly2306/bizdir-crawler/internal/metrics"
)

// Paginator renders and parses one listing page at a time. The caller
// owns the page loop, the inter-page delay, and the page cap. Listing
// pages go through a browser session because the site gates them
// behind a scripted interstitial dialog.
type Paginator struct {
	selectors crawler.Selectors
	logger    *zap.Logger
}

func NewPaginator(selectors crawler.Selectors, logger *zap.Logger) *Paginator {
	return &Paginator{selectors: selectors, logger: logger}
}

// PageURL builds the URL for one page of a district listing. Page one
// is the district URL itself; later pages add the page query parameter.
func PageURL(districtURL string, page int) (string, error) {
	if page <= 1 {
		return districtURL, nil
	}
	u, err := url.Parse(districtURL)
	if err != nil {
		return "", fmt.Errorf("parse district url: %w", err)
	}
	q := u.Query()
	q.Set("page", fmt.Sprint(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchPage renders and parses one listing page through the session.
// The rendered HTML is returned alongside the result so the caller can
// snapshot it.
func (p *Paginator) FetchPage(ctx context.Context, session crawler.RenderSession, district crawler.District, page int) (crawler.PageResult, []byte, error) {
	pageURL, err := PageURL(district.URL, page)
	if err != nil {
		return crawler.PageResult{}, nil, err
	}
	html, err := session.Render(ctx, pageURL)
	if err != nil {
		return crawler.PageResult{}, nil, err
	}

	result, err := p.parse(html, pageURL, district, page)
	if err != nil {
		return crawler.PageResult{}, nil, err
	}
	metrics.ObserveListingPage(district.Name)
	return result, []byte(html), nil
}

func (p *Paginator) parse(html, pageURL string, district crawler.District, page int) (crawler.PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return crawler.PageResult{}, &crawler.ParseError{URL: pageURL, What: "listing page", Err: err}
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return crawler.PageResult{}, &crawler.ParseError{URL: pageURL, What: "page url", Err: err}
	}

	section := doc.Find(p.selectors.ListingSection)
	headings := section.Find(p.selectors.StubHeading)
	anchors := section.Find(p.selectors.StubAnchor)

	n := headings.Length()
	if anchors.Length() != n {
		metrics.ObservePairingMismatch(district.Name)
		p.logger.Warn("heading/anchor count mismatch",
			zap.String("district", district.Name),
			zap.String("url", pageURL),
			zap.Int("headings", n),
			zap.Int("anchors", anchors.Length()))
		if anchors.Length() < n {
			n = anchors.Length()
		}
	}

	stubs := make([]crawler.EntityStub, 0, n)
	for i := 0; i < n; i++ {
		heading := headings.Eq(i)
		anchor := anchors.Eq(i)

		href, ok := anchor.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			p.logger.Warn("stub without detail link", zap.String("url", pageURL), zap.Int("index", i))
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			p.logger.Warn("stub with unparsable href", zap.String("href", href))
			continue
		}
		stubs = append(stubs, crawler.EntityStub{
			Name:       compositeName(p.selectors.NamePrefix, heading.Text()),
			DetailURL:  base.ResolveReference(ref).String(),
			AnchorText: strings.TrimSpace(anchor.Text()),
		})
	}

	return crawler.PageResult{
		Page:    page,
		URL:     pageURL,
		Stubs:   stubs,
		HasNext: p.hasNext(doc),
	}, nil
}

// hasNext reports whether the paginator shows a live next-page control,
// identified by its glyph and a usable href.
func (p *Paginator) hasNext(doc *goquery.Document) bool {
	found := false
	doc.Find(p.selectors.NextPageLink).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(a.Text(), p.selectors.NextPageGlyph) {
			return true
		}
		href, ok := a.Attr("href")
		if ok && strings.TrimSpace(href) != "" && href != "#" {
			found = true
			return false
		}
		return true
	})
	return found
}

// compositeName rebuilds the display name from a heading: the fixed
// prefix plus everything after the heading's first word. A one-word
// heading falls back to its own trimmed text.
func compositeName(prefix, headingText string) string {
	text := strings.TrimSpace(headingText)
	parts := strings.SplitN(text, " ", 2)
	if len(parts) < 2 {
		return text
	}
	return prefix + parts[1]
}
