package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectMetric returns the first metric of c whose labels include labels.
func collectMetric(t *testing.T, c prometheus.Collector, labels map[string]string) *dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		matched := 0
		for _, lp := range d.GetLabel() {
			if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return d
		}
	}
	return nil
}

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-route-test"))
	r.Delete("/api/cart/items/{key}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, key := range []string{"p1", "p2", "p3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/cart/items/"+key, nil))
	}

	m := collectMetric(t, httpRequestsTotal, map[string]string{
		"service": "metrics-route-test",
		"route":   "/api/cart/items/{key}",
		"status":  "204",
	})
	require.NotNil(t, m)
	assert.Equal(t, 3.0, m.GetCounter().GetValue())

	h := collectMetric(t, httpRequestDuration, map[string]string{
		"service": "metrics-route-test",
		"route":   "/api/cart/items/{key}",
	})
	require.NotNil(t, h)
	assert.Equal(t, uint64(3), h.GetHistogram().GetSampleCount())
}

func TestPrometheusMetrics_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-unmatched-test"))
	r.Get("/known", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	m := collectMetric(t, httpRequestsTotal, map[string]string{
		"service": "metrics-unmatched-test",
		"route":   "unmatched",
		"status":  "404",
	})
	require.NotNil(t, m)
	assert.Equal(t, 1.0, m.GetCounter().GetValue())
}

func TestPrometheusMetrics_InFlightReturnsToZero(t *testing.T) {
	handler := PrometheusMetrics("metrics-inflight-test")(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	m := collectMetric(t, httpRequestsInFlight, map[string]string{"service": "metrics-inflight-test"})
	require.NotNil(t, m)
	assert.Equal(t, 0.0, m.GetGauge().GetValue())
}
