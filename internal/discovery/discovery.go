// Package discovery resolves a region into its district listing URLs.
package discovery

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
	"github.com/ly2306/bizdir-crawler/internal/slug"
)

// Discoverer fetches a region's landing page and extracts the district
// navigation links.
type Discoverer struct {
	fetcher   crawler.Fetcher
	baseURL   string
	selectors crawler.Selectors
	logger    *zap.Logger
}

func NewDiscoverer(fetcher crawler.Fetcher, baseURL string, selectors crawler.Selectors, logger *zap.Logger) *Discoverer {
	return &Discoverer{fetcher: fetcher, baseURL: baseURL, selectors: selectors, logger: logger}
}

// Resolve turns a submitted target name into a Region with its URL
// path segment.
func (d *Discoverer) Resolve(name string) crawler.Region {
	return crawler.Region{Name: name, Segment: slug.Make(name)}
}

// RegionURL joins the base URL with the region's path segment.
func (d *Discoverer) RegionURL(region crawler.Region) (string, error) {
	base, err := url.Parse(d.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(region.Segment)
	if err != nil {
		return "", fmt.Errorf("parse region segment: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Districts fetches the region page and returns its districts in
// document order. A page without the district container yields an
// empty slice, not an error; the run then finishes with zero
// districts.
func (d *Discoverer) Districts(ctx context.Context, jobID string, region crawler.Region) ([]crawler.District, error) {
	pageURL, err := d.RegionURL(region)
	if err != nil {
		return nil, err
	}
	resp, err := d.fetcher.Fetch(ctx, crawler.FetchRequest{JobID: jobID, URL: pageURL})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &crawler.ParseError{URL: pageURL, What: "region page", Err: err}
	}

	container := doc.Find(d.selectors.DistrictList)
	if container.Length() == 0 {
		d.logger.Warn("district container not found",
			zap.String("url", pageURL),
			zap.String("selector", d.selectors.DistrictList))
		return nil, nil
	}

	resolved, err := url.Parse(resp.URL)
	if err != nil {
		resolved, _ = url.Parse(pageURL)
	}

	var districts []crawler.District
	seen := make(map[string]struct{})
	container.Find("a").Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		href, ok := a.Attr("href")
		if name == "" || !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			d.logger.Warn("skipping district with bad href",
				zap.String("name", name), zap.String("href", href))
			return
		}
		abs := resolved.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		districts = append(districts, crawler.District{Name: name, URL: abs})
	})

	d.logger.Info("discovered districts",
		zap.String("region", region.Name),
		zap.Int("count", len(districts)))
	return districts, nil
}
