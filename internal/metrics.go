package internal

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes engine activity to Prometheus. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	confidence prometheus.Gauge
	pending    prometheus.Gauge
	commits    *prometheus.CounterVec
	failures   *prometheus.CounterVec
	signals    *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry so several
// engines in one process do not collide.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		confidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gitnotes",
			Name:      "confidence_score",
			Help:      "Most recent auto-commit confidence score (0-100).",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gitnotes",
			Name:      "pending_notes",
			Help:      "Notes saved but not yet committed.",
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitnotes",
			Name:      "commits_total",
			Help:      "Successful commits by trigger.",
		}, []string{"trigger"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitnotes",
			Name:      "commit_failures_total",
			Help:      "Failed commit attempts by trigger.",
		}, []string{"trigger"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitnotes",
			Name:      "signals_total",
			Help:      "Confidence signals fired during evaluation.",
		}, []string{"signal"}),
	}

	m.registry.MustRegister(m.confidence, m.pending, m.commits, m.failures, m.signals)
	return m
}

func (m *Metrics) ObserveConfidence(res ConfidenceResult) {
	if m == nil {
		return
	}
	m.confidence.Set(float64(res.Score))
	for _, name := range res.Signals.Names() {
		m.signals.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func (m *Metrics) CommitSucceeded(trigger Trigger) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(string(trigger)).Inc()
}

func (m *Metrics) CommitFailed(trigger Trigger) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(trigger)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
