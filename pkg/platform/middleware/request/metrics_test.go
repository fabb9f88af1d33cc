package request

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

func TestLatencyMiddleware_LabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Get("/balances/{identity}", func(w http.ResponseWriter, _ *http.Request) {})

	for _, id := range []string{"0xa", "0xb", "0xc"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/balances/"+id, nil))
	}

	count, err := testutil.GatherAndCount(reg, "cloakswap_endpoint_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "one series per route pattern")
}

func TestObserveEndpointLatency_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveEndpointLatency("/x", http.MethodGet, 0.1) })
}
