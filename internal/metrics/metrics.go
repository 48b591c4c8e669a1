// Package metrics provides Prometheus metrics for the headway analyzer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"headways.subwaydata.nyc/internal/analysis"
)

// Drop-reason label values for HeadwaysDropped.
const (
	ReasonBelowFloor = "below_floor"
	ReasonAboveCap   = "above_cap"
)

// Download-status label values for ArchiveDownloads.
const (
	DownloadOK      = "ok"
	DownloadSkipped = "skipped"
	DownloadMissing = "missing"
	DownloadFailed  = "failed"
)

// Metrics holds all Prometheus metrics for the analyzer. Counters double as
// the data-quality report for a batch run.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// Ingest metrics
	ArchivesLoaded  prometheus.Counter
	ArchiveFailures prometheus.Counter
	RecordsIngested prometheus.Counter

	// Pipeline metrics
	MalformedStopIDs prometheus.Counter
	HeadwaysComputed prometheus.Counter
	HeadwaysDropped  *prometheus.CounterVec

	// Downloader metrics
	ArchiveDownloads *prometheus.CounterVec
}

// New creates and registers all analyzer metrics with a new registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	archivesLoaded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "headways_archives_loaded_total",
		Help: "Daily archives successfully parsed",
	})

	archiveFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "headways_archive_failures_total",
		Help: "Daily archives that could not be parsed",
	})

	recordsIngested := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "headways_records_ingested_total",
		Help: "Raw arrival records read from archives",
	})

	malformedStopIDs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "headways_malformed_stop_ids_total",
		Help: "Records excluded because the stop id has no recognized direction letter",
	})

	headwaysComputed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "headways_computed_total",
		Help: "Raw consecutive-arrival gaps computed before outlier classification",
	})

	headwaysDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "headways_dropped_total",
			Help: "Gaps removed by the outlier policy",
		},
		[]string{"reason"},
	)

	archiveDownloads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "headways_archive_downloads_total",
			Help: "Archive download attempts by outcome",
		},
		[]string{"status"},
	)

	// Register all metrics with the custom registry
	registry.MustRegister(
		archivesLoaded,
		archiveFailures,
		recordsIngested,
		malformedStopIDs,
		headwaysComputed,
		headwaysDropped,
		archiveDownloads,
	)

	return &Metrics{
		Registry:         registry,
		ArchivesLoaded:   archivesLoaded,
		ArchiveFailures:  archiveFailures,
		RecordsIngested:  recordsIngested,
		MalformedStopIDs: malformedStopIDs,
		HeadwaysComputed: headwaysComputed,
		HeadwaysDropped:  headwaysDropped,
		ArchiveDownloads: archiveDownloads,
	}
}

// RecordPipeline transfers a pipeline result's counters onto the registry.
func (m *Metrics) RecordPipeline(result analysis.Result) {
	m.RecordsIngested.Add(float64(result.RecordsIn))
	m.MalformedStopIDs.Add(float64(result.MalformedStopIDs))
	m.HeadwaysComputed.Add(float64(result.HeadwaysComputed))
	m.HeadwaysDropped.WithLabelValues(ReasonBelowFloor).Add(float64(result.DroppedBelowFloor))
	m.HeadwaysDropped.WithLabelValues(ReasonAboveCap).Add(float64(result.DroppedAboveCap))
}
