// Package crawler defines core types shared across subsystems.
package crawler

import (
	"net/http"
	"time"
)

// JobStatus represents the lifecycle state of a crawl job.
type JobStatus string

// Job status values persisted in the job store.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Region is the top-level crawl target: the human-readable name the
// caller submitted and the canonical URL path segment derived from it.
type Region struct {
	Name    string `json:"name"`
	Segment string `json:"segment"`
}

// District is one second-level subdivision discovered under a region.
// Each district maps to exactly one sheet in the target spreadsheet.
type District struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// EntityStub is the minimal listing-page reference to a business:
// the composite display name used as the dedup identity, the absolute
// detail-page link, and the raw anchor text.
type EntityStub struct {
	Name       string
	DetailURL  string
	AnchorText string
}

// EntityRecord is the persisted unit, one row per business. Name is
// the uniqueness key within a district sheet; every other field is
// optional and left empty when the detail page does not carry it.
type EntityRecord struct {
	Seq            int
	Name           string
	Phone          string
	Representative string
	Code           string
	Industry       string
	Established    string
	Address        string
}

// Row returns the record as a sheet row matching HeaderRow ordering.
func (r EntityRecord) Row() []any {
	return []any{r.Seq, r.Name, r.Phone, r.Representative, r.Code, r.Industry, r.Established, r.Address}
}

// HeaderRow is the fixed first row written to every district sheet.
var HeaderRow = []string{"SEQ", "NAME", "PHONE", "REPRESENTATIVE", "CODE", "INDUSTRY", "ESTABLISHED", "ADDRESS"}

// JobParameters captures per-job configuration requested by the client.
type JobParameters struct {
	TargetName string `json:"target_name"`
	MaxPages   int    `json:"max_pages,omitempty"`
}

// Job represents the metadata persisted for each submitted crawl run.
type Job struct {
	ID         string        `json:"id"`
	Status     JobStatus     `json:"status"`
	Submitted  time.Time     `json:"submitted_at"`
	Started    *time.Time    `json:"started_at,omitempty"`
	Finished   *time.Time    `json:"finished_at,omitempty"`
	ErrorText  string        `json:"error_text,omitempty"`
	Parameters JobParameters `json:"parameters"`
	Counters   JobCounters   `json:"counters"`
}

// JobCounters tracks per-run progress stats.
type JobCounters struct {
	DistrictsDone     int `json:"districts_done"`
	DistrictsFailed   int `json:"districts_failed"`
	PagesFetched      int `json:"pages_fetched"`
	RecordsAppended   int `json:"records_appended"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
	EntitiesFailed    int `json:"entities_failed"`
}

// QueueItem wraps a job ready to run.
type QueueItem struct {
	JobID     string
	Params    JobParameters
	Attempt   int
	Submitted int64
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	JobID   string
	URL     string
	Referer string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// PageResult is one listing page yielded by the paginator.
type PageResult struct {
	Page    int
	URL     string
	Stubs   []EntityStub
	HasNext bool
}
