// Package metrics provides Prometheus metrics for the mediafold gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mediafold/mediafold"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafold_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediafold_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Capability metrics
	capabilityChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafold_capability_checks_total",
			Help: "Total readonly capability verifications",
		},
		[]string{"outcome"},
	)

	capabilitiesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediafold_capabilities_issued_total",
			Help: "Total readonly URLs issued",
		},
	)

	// Readonly proxy metrics
	readBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafold_read_bytes_total",
			Help: "Total bytes streamed through the readonly proxy",
		},
		[]string{"store"},
	)

	// Store metrics
	storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediafold_store_operation_duration_seconds",
			Help:    "Backing store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "operation"},
	)

	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafold_store_operations_total",
			Help: "Total backing store operations",
		},
		[]string{"store", "operation", "status"},
	)

	// Thumbnail metrics
	thumbnailsRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafold_thumbnails_rendered_total",
			Help: "Total thumbnail render attempts",
		},
		[]string{"status"},
	)

	// Registry metrics
	registryQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediafold_registry_query_duration_seconds",
			Help:    "File registry query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// Maintenance metrics
	sweepRemovalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediafold_sweep_removals_total",
			Help: "Total orphaned cache artifacts removed by sweeps",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCapabilityCheck records one readonly URL verification outcome.
func RecordCapabilityCheck(outcome mediafold.Outcome) {
	capabilityChecksTotal.WithLabelValues(outcome.String()).Inc()
}

// RecordCapabilitiesIssued records a batch of issued readonly URLs.
func RecordCapabilitiesIssued(count int) {
	capabilitiesIssuedTotal.Add(float64(count))
}

// RecordReadBytes records bytes streamed from a store through the proxy.
func RecordReadBytes(store string, bytes int64) {
	readBytesTotal.WithLabelValues(store).Add(float64(bytes))
}

// RecordStoreOperation records a backing store operation.
func RecordStoreOperation(store, operation string, duration time.Duration, err error) {
	storeOperationDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	storeOperationsTotal.WithLabelValues(store, operation, status).Inc()
}

// RecordThumbnailRender records a thumbnail render attempt.
func RecordThumbnailRender(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	thumbnailsRenderedTotal.WithLabelValues(status).Inc()
}

// RecordRegistryQuery records a file registry query duration.
func RecordRegistryQuery(query string, duration time.Duration) {
	registryQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordSweepRemovals records orphaned cache artifacts removed by a sweep.
func RecordSweepRemovals(count int) {
	sweepRemovalsTotal.Add(float64(count))
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics. The
// route label is the chi route pattern, so raw object keys never become
// label values.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
