package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting daemon metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - Desktop action dispatch counts and latencies per action
//   - Screen capture outcomes
//   - Shell command runs and their durations
//   - Active WebSocket control-plane connections
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	metrics.RecordAction("left_click", "success", time.Since(start).Seconds())
type Metrics struct {
	// ActionsTotal counts dispatched desktop actions.
	// Labels: action (the vocabulary entry, or "invalid"), status (success|error)
	ActionsTotal *prometheus.CounterVec

	// ActionDuration measures action dispatch latency in seconds.
	// Labels: action
	// Buckets: 1ms, 5ms, 10ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s
	ActionDuration *prometheus.HistogramVec

	// CapturesTotal counts screen captures.
	// Labels: status (success|error)
	CapturesTotal *prometheus.CounterVec

	// CommandsTotal counts shell command runs.
	// Labels: status (success|timeout|error)
	CommandsTotal *prometheus.CounterVec

	// CommandDuration measures shell command wall time in seconds.
	// Buckets: 10ms, 50ms, 100ms, 500ms, 1s, 5s, 10s, 30s, 60s, 120s
	CommandDuration prometheus.Histogram

	// WSConnections is a gauge tracking active control-plane connections.
	WSConnections prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates all Prometheus collectors on a fresh private registry.
// Using a private registry keeps repeated construction (tests, embedding)
// from colliding in the process-global default registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskhand_actions_total",
				Help: "Total number of desktop actions dispatched by action and status",
			},
			[]string{"action", "status"},
		),

		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskhand_action_duration_seconds",
				Help:    "Duration of desktop action dispatch in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"action"},
		),

		CapturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskhand_captures_total",
				Help: "Total number of screen captures by status",
			},
			[]string{"status"},
		),

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskhand_commands_total",
				Help: "Total number of shell commands run by status",
			},
			[]string{"status"},
		),

		CommandDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deskhand_command_duration_seconds",
				Help:    "Wall time of shell commands in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskhand_ws_connections_active",
				Help: "Current number of active control-plane connections",
			},
		),

		registry: registry,
	}
}

// Registry returns the private registry holding all collectors, for
// wiring into a promhttp handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAction records one desktop action dispatch.
func (m *Metrics) RecordAction(action, status string, durationSeconds float64) {
	m.ActionsTotal.WithLabelValues(action, status).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(durationSeconds)
}

// RecordCapture records one screen capture attempt.
func (m *Metrics) RecordCapture(status string) {
	m.CapturesTotal.WithLabelValues(status).Inc()
}

// RecordCommand records one shell command run.
func (m *Metrics) RecordCommand(status string, durationSeconds float64) {
	m.CommandsTotal.WithLabelValues(status).Inc()
	m.CommandDuration.Observe(durationSeconds)
}
