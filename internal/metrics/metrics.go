package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	renderDuration      prometheus.Histogram
	centroidCacheHits   prometheus.Counter
	centroidCacheMisses prometheus.Counter
	traceRequests       *prometheus.CounterVec
	feedRefreshTotal    prometheus.Counter
	feedRefreshErrors   prometheus.Counter
}

// New creates a fresh Metrics registry with HTTP, render, and trace metrics
// registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracenet",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by core-go",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tracenet",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by core-go",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	renderDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tracenet",
		Name:      "topology_render_duration_seconds",
		Help:      "Duration of a full layout/filter/overlay pipeline run",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})

	centroidCacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tracenet",
		Name:      "centroid_cache_hits_total",
		Help:      "Centroid alignment results served from cache",
	})

	centroidCacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tracenet",
		Name:      "centroid_cache_misses_total",
		Help:      "Centroid alignment results recomputed",
	})

	traceRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracenet",
		Name:      "trace_requests_total",
		Help:      "Trace requests by outcome",
	}, []string{"outcome"})

	feedRefreshTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tracenet",
		Name:      "feed_refresh_total",
		Help:      "Device/cable snapshot refreshes attempted",
	})

	feedRefreshErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tracenet",
		Name:      "feed_refresh_errors_total",
		Help:      "Device/cable snapshot refreshes that failed",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		renderDuration,
		centroidCacheHits,
		centroidCacheMisses,
		traceRequests,
		feedRefreshTotal,
		feedRefreshErrors,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		renderDuration:      renderDuration,
		centroidCacheHits:   centroidCacheHits,
		centroidCacheMisses: centroidCacheMisses,
		traceRequests:       traceRequests,
		feedRefreshTotal:    feedRefreshTotal,
		feedRefreshErrors:   feedRefreshErrors,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveRender records one full pipeline run.
func (m *Metrics) ObserveRender(duration time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(duration.Seconds())
}

// AddCentroidCache accumulates centroid cache hit/miss deltas from one run.
func (m *Metrics) AddCentroidCache(hits, misses int64) {
	if m == nil {
		return
	}
	if hits > 0 {
		m.centroidCacheHits.Add(float64(hits))
	}
	if misses > 0 {
		m.centroidCacheMisses.Add(float64(misses))
	}
}

// IncTraceRequest counts one trace request with its outcome: ok, not_found,
// policy, error, or stale_discarded.
func (m *Metrics) IncTraceRequest(outcome string) {
	if m == nil {
		return
	}
	m.traceRequests.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// IncFeedRefresh counts one snapshot refresh attempt and whether it failed.
func (m *Metrics) IncFeedRefresh(failed bool) {
	if m == nil {
		return
	}
	m.feedRefreshTotal.Inc()
	if failed {
		m.feedRefreshErrors.Inc()
	}
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
