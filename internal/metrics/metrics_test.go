package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/listing/get/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/listing/get/abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/listing/get/{id}", "404"))
	assert.Equal(t, float64(1), got)
}

func TestCacheAndUploadCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CacheResult("hit")
	m.CacheResult("hit")
	m.CacheResult("miss")
	m.UploadResult("error")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.SearchCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchCacheTotal.WithLabelValues("miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ImageUploadsTotal.WithLabelValues("error")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.CacheResult("miss")

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "estatehub_search_cache_total")
}
