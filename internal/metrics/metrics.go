// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes.
const (
	LookupSuccess = "success"
	LookupFailure = "failure"
	LookupEmpty   = "not_found"
)

var (
	pagesFetchedTotal          *prometheus.CounterVec
	pageBytesTotal             *prometheus.CounterVec
	omdbLookupsTotal           *prometheus.CounterVec
	omdbKeyUsesTotal           *prometheus.CounterVec
	stageDurationSeconds       *prometheus.HistogramVec
	recordsEmittedTotal        *prometheus.CounterVec
	rateLimitDelaySeconds      *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oscar_pages_fetched_total",
				Help: "Total number of Wikipedia pages fetched, labeled by page kind and status.",
			},
			[]string{"kind", "status"},
		)

		pageBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oscar_page_bytes_total",
				Help: "Total number of page bytes fetched, labeled by page kind.",
			},
			[]string{"kind"},
		)

		omdbLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oscar_omdb_lookups_total",
				Help: "Total number of OMDb lookups, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		omdbKeyUsesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oscar_omdb_key_uses_total",
				Help: "Total number of OMDb requests per credential index.",
			},
			[]string{"key"},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oscar_stage_duration_seconds",
				Help:    "Histogram of pipeline stage durations.",
				Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		)

		recordsEmittedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oscar_records_emitted_total",
				Help: "Total number of records written, labeled by artifact.",
			},
			[]string{"artifact"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oscar_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the per-host page rate limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"host"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePageFetch counts a page fetch. status is the HTTP code, or "error"
// when no response arrived.
func ObservePageFetch(kind string, status string, bytesFetched int) {
	pagesFetchedTotal.WithLabelValues(kind, status).Inc()
	if bytesFetched > 0 {
		pageBytesTotal.WithLabelValues(kind).Add(float64(bytesFetched))
	}
}

// ObserveLookup counts an OMDb lookup outcome.
func ObserveLookup(outcome string) {
	omdbLookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveKeyUse counts a request made with the credential at index.
func ObserveKeyUse(index int) {
	omdbKeyUsesTotal.WithLabelValues(strconv.Itoa(index)).Inc()
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, duration time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveRecords counts rows written to an artifact.
func ObserveRecords(artifact string, n int) {
	recordsEmittedTotal.WithLabelValues(artifact).Add(float64(n))
}

// ObserveRateLimitDelay records a wait imposed by the page rate limiter.
func ObserveRateLimitDelay(host string, d time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(host).Observe(d.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
