package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/govdesk/govdesk/testing"
)

func TestObserveLogin(t *testing.T) {
	m := NewMetrics()

	m.ObserveLogin("success", "legacy-digest")
	m.ObserveLogin("success", "legacy-digest")
	m.ObserveLogin("rejected", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.loginsTotal.WithLabelValues("success", "legacy-digest")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginsTotal.WithLabelValues("rejected", "")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	m.ObserveLogin("success", "modern-hash")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/panel", nil))
	assert.Equal(t, http.StatusNoContent, res.Code)
}

func TestMiddlewareRecordsRouteAndStatus(t *testing.T) {
	m := NewMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/panel/{bolum}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/panel/envanter", nil))
	require.Equal(t, http.StatusTeapot, res.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/panel/{bolum}", "418")))
}

func TestMetricsEndpointExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.ObserveLogin("success", "modern-hash")

	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "govdesk_logins_total")
}
