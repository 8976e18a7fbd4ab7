// Package detail extracts entity fields from a rendered detail page.
package detail

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

// Source and target layouts for the establishment date. Dates that do
// not match the source layout are kept verbatim.
const (
	establishedSourceLayout = "2006-01-02 15:04:05"
	establishedTargetLayout = "02/01/2006"
)

// Extractor pulls record fields out of detail-page HTML. Every field
// is independent; a missing one stays empty without failing the rest.
type Extractor struct {
	selectors crawler.Selectors
	logger    *zap.Logger
}

func NewExtractor(selectors crawler.Selectors, logger *zap.Logger) *Extractor {
	return &Extractor{selectors: selectors, logger: logger}
}

// Extract builds the record for one entity. The name comes from the
// listing stub, never from the detail page.
func (e *Extractor) Extract(html, pageURL string, stub crawler.EntityStub) (crawler.EntityRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return crawler.EntityRecord{}, &crawler.ParseError{URL: pageURL, What: "detail page", Err: err}
	}

	rec := crawler.EntityRecord{Name: stub.Name}
	e.extractReviewList(doc, &rec)
	e.extractPhone(doc, &rec)
	e.extractInfoTable(doc, pageURL, &rec)
	e.extractIndustry(doc, &rec)
	return rec, nil
}

// extractReviewList reads the address and tax code from the summary
// list. The tax-code item is recognized by its label; the first
// unlabeled item is the address.
func (e *Extractor) extractReviewList(doc *goquery.Document, rec *crawler.EntityRecord) {
	doc.Find(e.selectors.ReviewList).First().Find("li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		if text == "" {
			return
		}
		if idx := strings.Index(text, e.selectors.CodeLabel); idx >= 0 {
			if rec.Code == "" {
				rec.Code = strings.TrimSpace(text[idx+len(e.selectors.CodeLabel):])
			}
			return
		}
		if rec.Address == "" {
			rec.Address = text
		}
	})
}

func (e *Extractor) extractPhone(doc *goquery.Document, rec *crawler.EntityRecord) {
	rec.Phone = strings.TrimSpace(doc.Find(e.selectors.PhoneItem).First().Find("a").First().Text())
}

// extractInfoTable walks the two-cell rows of the info table, matching
// rows by their label cell.
func (e *Extractor) extractInfoTable(doc *goquery.Document, pageURL string, rec *crawler.EntityRecord) {
	doc.Find(e.selectors.InfoTable).First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSpace(cells.Eq(0).Text())
		value := cells.Eq(1)

		switch {
		case strings.Contains(label, e.selectors.RepresentativeRow):
			rep := strings.TrimSpace(value.Find("strong").First().Text())
			if rep == "" {
				rep = strings.TrimSpace(value.Text())
			}
			rec.Representative = rep
		case strings.Contains(label, e.selectors.EstablishedRow):
			raw := strings.TrimSpace(value.Text())
			normalized, err := NormalizeEstablished(raw)
			if err != nil {
				e.logger.Debug("keeping establishment date verbatim",
					zap.String("url", pageURL), zap.String("raw", raw))
			}
			rec.Established = normalized
		}
	})
}

// extractIndustry takes the first paragraph after the business title.
// Without both the container and the titled heading the field stays
// empty; an arbitrary paragraph is not an industry.
func (e *Extractor) extractIndustry(doc *goquery.Document, rec *crawler.EntityRecord) {
	container := doc.Find(e.selectors.BusinessContainer).First()
	if container.Length() == 0 {
		return
	}
	title := container.Find(e.selectors.BusinessTitle).First()
	if title.Length() == 0 {
		return
	}
	rec.Industry = strings.TrimSpace(title.NextAllFiltered("p").First().Text())
}

// NormalizeEstablished reformats a timestamped date to day/month/year.
// Unparsable input is returned as-is with a FormatError so the caller
// can log it and keep the raw value.
func NormalizeEstablished(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	ts, err := time.Parse(establishedSourceLayout, raw)
	if err != nil {
		return raw, &crawler.FormatError{Field: "established", Raw: raw, Err: err}
	}
	return ts.Format(establishedTargetLayout), nil
}
