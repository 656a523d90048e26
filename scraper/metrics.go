package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a scraping run.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesTotal      prometheus.Counter
	AppsTotal       *prometheus.CounterVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	DownloadBytes   prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fdscrape_pages_total",
			Help: "Total catalog pages crawled.",
		},
	)
	apps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fdscrape_apps_total",
			Help: "Total apps handled, by outcome.",
		},
		[]string{"outcome"},
	)
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fdscrape_requests_total",
			Help: "Total detail and rating HTTP requests, by host.",
		},
		[]string{"host"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fdscrape_request_duration_seconds",
			Help:    "HTTP request latency for detail and rating lookups.",
			Buckets: prometheus.DefBuckets,
		},
	)
	downloadBytes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fdscrape_download_bytes_total",
			Help: "Total archive bytes streamed to disk.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fdscrape_errors_total",
			Help: "Total errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(pages, apps, requests, requestDuration, downloadBytes, errorsTotal)

	return &Metrics{
		Registry:        registry,
		PagesTotal:      pages,
		AppsTotal:       apps,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		DownloadBytes:   downloadBytes,
		ErrorsTotal:     errorsTotal,
	}
}

// IncPage increments the crawled-pages counter.
func (m *Metrics) IncPage() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// IncApp increments the apps counter for an outcome label.
func (m *Metrics) IncApp(outcome string) {
	if m == nil {
		return
	}
	m.AppsTotal.WithLabelValues(outcome).Inc()
}

// IncRequest increments the requests counter for a host label.
func (m *Metrics) IncRequest(host string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(host).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// AddDownloadBytes adds streamed archive bytes.
func (m *Metrics) AddDownloadBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.DownloadBytes.Add(float64(n))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
