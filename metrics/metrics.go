// Package metrics exposes Prometheus instruments for the search pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Page outcome labels for PagesTotal.
const (
	PageLoaded        = "loaded"
	PageTimeout       = "timeout"
	PageFailed        = "failed"
	PageEmpty         = "empty"
	PageExtractFailed = "extract_failed"
)

// Metrics groups the collector's instruments. A nil *Metrics is valid and
// records nothing, so library callers and tests can skip instrumentation.
type Metrics struct {
	SearchesTotal  *prometheus.CounterVec
	PagesTotal     *prometheus.CounterVec
	ListingsTotal  prometheus.Counter
	SearchDuration prometheus.Histogram
	PagesInUse     prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers all instruments on reg. Pass a fresh prometheus.NewRegistry()
// in tests to avoid duplicate registration panics.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SearchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inserate_searches_total",
				Help: "Total number of searches by final status",
			},
			[]string{"status"},
		),
		PagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inserate_pages_total",
				Help: "Result pages visited by outcome",
			},
			[]string{"outcome"},
		),
		ListingsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "inserate_listings_total",
				Help: "Listings extracted from result pages",
			},
		),
		SearchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inserate_search_duration_seconds",
				Help:    "Search duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		),
		PagesInUse: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "inserate_pages_in_use",
				Help: "Browser pages currently held by searches",
			},
		),
		gatherer: reg,
	}
}

func (m *Metrics) ObserveSearch(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(status).Inc()
	m.SearchDuration.Observe(d.Seconds())
}

func (m *Metrics) ObservePage(outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddListings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ListingsTotal.Add(float64(n))
}

func (m *Metrics) PageAcquired() {
	if m == nil {
		return
	}
	m.PagesInUse.Inc()
}

func (m *Metrics) PageReleased() {
	if m == nil {
		return
	}
	m.PagesInUse.Dec()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
