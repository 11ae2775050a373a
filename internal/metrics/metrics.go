// Package metrics registers the Prometheus collectors for the HTTP surface
// and the listing search cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SearchCacheTotal    *prometheus.CounterVec
	ImageUploadsTotal   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estatehub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "estatehub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SearchCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estatehub_search_cache_total",
				Help: "Listing search cache lookups by result",
			},
			[]string{"result"},
		),
		ImageUploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estatehub_image_uploads_total",
				Help: "Image uploads to object storage by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.HTTPRequestsTotal, m.HTTPRequestDuration, m.SearchCacheTotal, m.ImageUploadsTotal)
	return m
}

// Middleware records request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// CacheResult counts a search cache lookup ("hit", "miss" or "error").
func (m *Metrics) CacheResult(result string) {
	m.SearchCacheTotal.WithLabelValues(result).Inc()
}

// UploadResult counts an image upload ("ok" or "error").
func (m *Metrics) UploadResult(outcome string) {
	m.ImageUploadsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
