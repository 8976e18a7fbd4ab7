package crawler

import (
	"context"
	"time"
)

// JobStore persists crawl run metadata.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errText string, counters JobCounters) error
	GetJob(ctx context.Context, jobID string) (Job, error)
}

// TableStore is the spreadsheet-like persistence backend: a named
// group (workbook) holding one table (sheet) per district.
type TableStore interface {
	// FindOrCreateGroup looks a group up by exact name and creates it
	// only when absent; calling it twice returns the same identifier.
	FindOrCreateGroup(ctx context.Context, name string) (string, error)
	// EnsureTable creates the named table with the given header row if
	// it does not already exist.
	EnsureTable(ctx context.Context, groupID, table string, header []string) error
	// ReadColumn returns all values of one zero-based column, header
	// row excluded.
	ReadColumn(ctx context.Context, groupID, table string, col int) ([]string, error)
	// AppendRow appends a single row after the current last row.
	AppendRow(ctx context.Context, groupID, table string, row []any) error
}

// BlobStore writes raw page snapshots and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes appended-record events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Fetcher fetches a URL over plain HTTP and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// RenderSession is a single browser tab owned by one district runner.
// Sessions are not safe for concurrent use and must be closed.
type RenderSession interface {
	// Render navigates to the URL, dismisses the interstitial dialog
	// when one appears, and returns the rendered HTML.
	Render(ctx context.Context, url string) (string, error)
	Close()
}

// Browser hands out independent render sessions.
type Browser interface {
	NewSession(ctx context.Context) (RenderSession, error)
}

// Queue provides enqueue/dequeue semantics for crawl jobs.
type Queue interface {
	Enqueue(ctx context.Context, job QueueItem) error
	Dequeue(ctx context.Context) (QueueItem, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
