// Package metrics provides Prometheus metrics for eligibility checks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds eligibility check instrumentation. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ChecksTotal          *prometheus.CounterVec
	CheckDurationSeconds prometheus.Histogram
	AuditFailuresTotal   prometheus.Counter
}

// New registers the metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cloakswap_eligibility_checks_total",
			Help: "Eligibility checks by reason code",
		}, []string{"reason"}),

		CheckDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cloakswap_eligibility_check_duration_seconds",
			Help:    "Duration of eligibility checks including the audit write",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		AuditFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "cloakswap_eligibility_audit_failures_total",
			Help: "Checks whose audit entry could not be written",
		}),
	}
}

func (m *Metrics) IncrementOutcome(reason string) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveCheckLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.CheckDurationSeconds.Observe(d.Seconds())
}

func (m *Metrics) IncrementAuditFailure() {
	if m == nil {
		return
	}
	m.AuditFailuresTotal.Inc()
}
