package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds process-wide Prometheus collectors.
type Metrics struct {
	registry  *prometheus.Registry
	BuildInfo *prometheus.GaugeVec
}

// New creates a registry with Go and process collectors plus build info.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry: reg,
		BuildInfo: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "cloakswap_build_info",
			Help: "Build and runtime mode of the running server",
		}, []string{"version", "backend", "storage"}),
	}
}

// Registerer is where component metrics are registered.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// SetBuildInfo records the running version and modes.
func (m *Metrics) SetBuildInfo(version, backend, storage string) {
	m.BuildInfo.WithLabelValues(version, backend, storage).Set(1)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
