package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes arbitration counters. A nil *Metrics records nothing.
type Metrics struct {
	decisions         *prometheus.CounterVec
	sourceUnavailable *prometheus.CounterVec
	estimateAccuracy  prometheus.Gauge
	estimateTime      prometheus.Gauge
}

func (m *Metrics) observeDecision(source string, decision Decision) {
	if m == nil {
		return
	}

	m.decisions.WithLabelValues(source, decision.String()).Inc()
}

func (m *Metrics) observeEstimate(estimate Sample) {
	if m == nil {
		return
	}

	m.estimateAccuracy.Set(estimate.Accuracy)
	m.estimateTime.Set(float64(estimate.Time) / 1000)
}

func (m *Metrics) observeUnavailable(source string) {
	if m == nil {
		return
	}

	m.sourceUnavailable.WithLabelValues(source).Inc()
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_samples_total",
			Help: "Total number of evaluated samples by source and decision",
		}, []string{"source", "decision"}),
		sourceUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_source_unavailable_total",
			Help: "Total number of times a source was reported unavailable",
		}, []string{"source"}),
		estimateAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_estimate_accuracy_meters",
			Help: "Accuracy radius of the current estimate",
		}),
		estimateTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_estimate_timestamp_seconds",
			Help: "Timestamp of the current estimate",
		}),
	}

	reg.MustRegister(
		m.decisions,
		m.sourceUnavailable,
		m.estimateAccuracy,
		m.estimateTime,
	)

	return m
}
