// Package metrics exposes Prometheus collectors for the crawl service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	listingPagesTotal      *prometheus.CounterVec
	recordsAppendedTotal   *prometheus.CounterVec
	duplicatesSkippedTotal *prometheus.CounterVec
	fetchErrorsTotal       *prometheus.CounterVec
	pairingMismatchTotal   *prometheus.CounterVec
	crawlRunsTotal         *prometheus.CounterVec
	activeRunners          prometheus.Gauge

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		listingPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizdir_listing_pages_total",
				Help: "Listing pages processed, labeled by district.",
			},
			[]string{"district"},
		)
		recordsAppendedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizdir_records_appended_total",
				Help: "Rows appended to district sheets.",
			},
			[]string{"district"},
		)
		duplicatesSkippedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizdir_duplicates_skipped_total",
				Help: "Entities skipped because their name was already persisted.",
			},
			[]string{"district"},
		)
		fetchErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizdir_fetch_errors_total",
				Help: "Fetch failures, labeled by pipeline stage.",
			},
			[]string{"stage"},
		)
		pairingMismatchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizdir_stub_pairing_mismatch_total",
				Help: "Listing pages whose heading and anchor counts differed.",
			},
			[]string{"district"},
		)
		crawlRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizdir_crawl_runs_total",
				Help: "Completed crawl runs, labeled by terminal status.",
			},
			[]string{"status"},
		)
		activeRunners = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bizdir_active_district_runners",
				Help: "District runners currently executing.",
			},
		)
	})
}

// ObserveListingPage counts one processed listing page.
func ObserveListingPage(district string) {
	if listingPagesTotal != nil {
		listingPagesTotal.WithLabelValues(district).Inc()
	}
}

// ObserveRecordAppended counts one appended row.
func ObserveRecordAppended(district string) {
	if recordsAppendedTotal != nil {
		recordsAppendedTotal.WithLabelValues(district).Inc()
	}
}

// ObserveDuplicateSkipped counts one dedup skip.
func ObserveDuplicateSkipped(district string) {
	if duplicatesSkippedTotal != nil {
		duplicatesSkippedTotal.WithLabelValues(district).Inc()
	}
}

// ObserveFetchError counts one fetch failure for a pipeline stage.
func ObserveFetchError(stage string) {
	if fetchErrorsTotal != nil {
		fetchErrorsTotal.WithLabelValues(stage).Inc()
	}
}

// ObservePairingMismatch counts a heading/anchor count mismatch.
func ObservePairingMismatch(district string) {
	if pairingMismatchTotal != nil {
		pairingMismatchTotal.WithLabelValues(district).Inc()
	}
}

// ObserveRunFinished counts one finished run by terminal status.
func ObserveRunFinished(status string) {
	if crawlRunsTotal != nil {
		crawlRunsTotal.WithLabelValues(status).Inc()
	}
}

// RunnerStarted increments the active runner gauge.
func RunnerStarted() {
	if activeRunners != nil {
		activeRunners.Inc()
	}
}

// RunnerFinished decrements the active runner gauge.
func RunnerFinished() {
	if activeRunners != nil {
		activeRunners.Dec()
	}
}
