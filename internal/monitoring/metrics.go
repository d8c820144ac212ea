// internal/monitoring/metrics.go

// Package monitoring exposes Prometheus metrics and a health endpoint
// for scrape runs.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "grantscraper"
)

// Metrics holds the per-run Prometheus instruments. All instruments
// are labelled by source so dashboards can break runs down per site.
type Metrics struct {
	TargetsDiscovered *prometheus.CounterVec
	RecordsExtracted  *prometheus.CounterVec
	GrantsBuilt       *prometheus.CounterVec
	PartialGrants     *prometheus.CounterVec
	FetchErrors       *prometheus.CounterVec
	ParseErrors       *prometheus.CounterVec
	SourceDuration    *prometheus.HistogramVec
	SourcesRunning    prometheus.Gauge
	DuplicatesMerged  prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers the scraper's instruments on a
// fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		TargetsDiscovered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "targets_discovered_total",
			Help:      "Grant page targets discovered per source",
		}, []string{"source"}),
		RecordsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_extracted_total",
			Help:      "Raw records extracted per source",
		}, []string{"source"}),
		GrantsBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "grants_built_total",
			Help:      "Normalized grants built per source",
		}, []string{"source"}),
		PartialGrants: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "grants_partial_total",
			Help:      "Grants built with missing required values",
		}, []string{"source"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fetch_errors_total",
			Help:      "Failed page fetches per source and class",
		}, []string{"source", "class"}),
		ParseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "parse_errors_total",
			Help:      "Targets whose extraction failed per source",
		}, []string{"source"}),
		SourceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "source_duration_seconds",
			Help:      "Wall time of one source's scrape",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"source"}),
		SourcesRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sources_running",
			Help:      "Sources currently being scraped",
		}),
		DuplicatesMerged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "duplicates_merged_total",
			Help:      "Grants merged away during deduplication",
		}),
	}
}

// Registry exposes the backing registry for the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
