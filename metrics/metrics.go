// Package metrics bundles Prometheus collectors for the mirror tool.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all collectors on a dedicated registry.
type Metrics struct {
	Registry       *prometheus.Registry
	FetchesTotal   *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	SitemapsTotal  *prometheus.CounterVec
	PagesTotal     *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
	RunsTotal      *prometheus.CounterVec
	URLsDiscovered prometheus.Counter
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemirror_fetches_total",
			Help: "Total HTTP requests issued, by phase.",
		},
		[]string{"phase"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitemirror_fetch_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	sitemaps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemirror_sitemaps_resolved_total",
			Help: "Sitemap documents resolved, by kind.",
		},
		[]string{"kind"},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemirror_pages_total",
			Help: "Page materialization outcomes.",
		},
		[]string{"outcome"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemirror_errors_total",
			Help: "Errors encountered, by type.",
		},
		[]string{"error_type"},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemirror_runs_total",
			Help: "Runs finished, by outcome.",
		},
		[]string{"outcome"},
	)
	discovered := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sitemirror_urls_discovered_total",
			Help: "Page URLs recovered from sitemaps.",
		},
	)

	registry.MustRegister(fetches, fetchDuration, sitemaps, pages, errorsTotal, runs, discovered)

	return &Metrics{
		Registry:       registry,
		FetchesTotal:   fetches,
		FetchDuration:  fetchDuration,
		SitemapsTotal:  sitemaps,
		PagesTotal:     pages,
		ErrorsTotal:    errorsTotal,
		RunsTotal:      runs,
		URLsDiscovered: discovered,
	}
}

// IncFetch increments the fetch counter for a phase.
func (m *Metrics) IncFetch(phase string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(phase).Inc()
}

// ObserveFetchDuration records an HTTP request duration.
func (m *Metrics) ObserveFetchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncSitemap increments the resolved-sitemap counter for a kind.
func (m *Metrics) IncSitemap(kind string) {
	if m == nil {
		return
	}
	m.SitemapsTotal.WithLabelValues(kind).Inc()
}

// IncPage increments the page counter for an outcome.
func (m *Metrics) IncPage(outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
}

// IncError increments the error counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncRun increments the finished-run counter for an outcome.
func (m *Metrics) IncRun(outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

// AddDiscovered adds to the discovered-URL counter.
func (m *Metrics) AddDiscovered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.URLsDiscovered.Add(float64(n))
}
