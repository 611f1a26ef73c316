package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveJob("lock", ResultSuccess)
	m.ObserveJob("lock", ResultSuccess)
	m.ObserveJob("unlock", ResultFailure)
	m.ObserveRefresh(nil)
	m.ObserveRefresh(errors.New("boom"))
	m.ObserveRefresh(errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.jobs.WithLabelValues("lock", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("unlock", ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.refreshes.WithLabelValues(ResultFailure)))
}

func TestMetrics_Gauges(t *testing.T) {
	m := New()

	m.SetAvailable("lock_OE1X", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.available.WithLabelValues("lock_OE1X")))
	m.SetAvailable("lock_OE1X", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.available.WithLabelValues("lock_OE1X")))

	m.SetBatteryLevel("OE1X", 87)
	assert.Equal(t, 87.0, testutil.ToFloat64(m.battery.WithLabelValues("OE1X")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveJob("lock", ResultSuccess)
		m.ObserveRefresh(nil)
		m.SetAvailable("x", true)
		m.SetBatteryLevel("x", 1)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_HandlerAndMiddleware(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/locks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/locks/lock_A", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/locks/{id}", http.MethodGet, "404")))

	m.ObserveJob("open", ResultSuccess)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `igloohome_jobs_total{action="open",result="success"} 1`)
}
