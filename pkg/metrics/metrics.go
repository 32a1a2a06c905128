// Package metrics provides Prometheus metrics for execgate.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for execgate.
type Metrics struct {
	EventsTotal       *prometheus.CounterVec
	ChecksTotal       *prometheus.CounterVec
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	PolicyLoadsTotal  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execgate_events_appended_total",
				Help: "Total number of events appended to execution requests by type.",
			},
			[]string{"type"},
		),
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execgate_authorization_checks_total",
				Help: "Total number of permission checks by permission and verdict.",
			},
			[]string{"permission", "verdict"},
		),
		ExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execgate_executions_total",
				Help: "Total number of execution attempts by outcome reason.",
			},
			[]string{"reason"},
		),
		ExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "execgate_execution_duration_seconds",
				Help:    "Executor duration by resulting status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		PolicyLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execgate_policy_loads_total",
				Help: "Total number of role document loads by result.",
			},
			[]string{"result"},
		),
		registry: reg,
	}

	reg.MustRegister(m.EventsTotal)
	reg.MustRegister(m.ChecksTotal)
	reg.MustRegister(m.ExecutionsTotal)
	reg.MustRegister(m.ExecutionDuration)
	reg.MustRegister(m.PolicyLoadsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordEvent increments the appended events counter.
func (m *Metrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(eventType).Inc()
}

// RecordCheck increments the authorization check counter.
func (m *Metrics) RecordCheck(permission string, allowed bool) {
	if m == nil {
		return
	}
	verdict := "denied"
	if allowed {
		verdict = "allowed"
	}
	m.ChecksTotal.WithLabelValues(permission, verdict).Inc()
}

// RecordExecution increments the execution counter.
func (m *Metrics) RecordExecution(reason string) {
	if m == nil {
		return
	}
	m.ExecutionsTotal.WithLabelValues(reason).Inc()
}

// ObserveExecution records how long the executor ran.
func (m *Metrics) ObserveExecution(status string, seconds float64) {
	if m == nil {
		return
	}
	m.ExecutionDuration.WithLabelValues(status).Observe(seconds)
}

// RecordPolicyLoad increments the role document load counter.
func (m *Metrics) RecordPolicyLoad(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.PolicyLoadsTotal.WithLabelValues(result).Inc()
}
