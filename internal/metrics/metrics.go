// Package metrics exposes Prometheus collectors for the insight engines and their hosts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every collector the service exports.
type Registry struct {
	RuleFailures     *prometheus.CounterVec
	AlertsEmitted    *prometheus.CounterVec
	AlertsDispatched *prometheus.CounterVec
	EngineDuration   *prometheus.HistogramVec
}

// NewRegistry creates the collectors and registers them on reg.
// A nil reg registers on the Prometheus default registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Registry{
		RuleFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meatdesk_trigger_rule_failures_total",
				Help: "Trigger rules that failed and were skipped",
			},
			[]string{"rule"},
		),
		AlertsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meatdesk_alerts_emitted_total",
				Help: "Alerts produced by trigger rules",
			},
			[]string{"rule", "severity"},
		),
		AlertsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meatdesk_alerts_dispatched_total",
				Help: "Alerts pushed to operators, by outcome",
			},
			[]string{"result"},
		),
		EngineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meatdesk_engine_duration_seconds",
				Help:    "Duration of one engine evaluation",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"engine"},
		),
	}

	reg.MustRegister(r.RuleFailures, r.AlertsEmitted, r.AlertsDispatched, r.EngineDuration)
	return r
}

// RuleFailed counts a guarded rule failure.
func (r *Registry) RuleFailed(rule string) {
	r.RuleFailures.WithLabelValues(rule).Inc()
}

// AlertEmitted counts one alert produced by a rule.
func (r *Registry) AlertEmitted(rule, severity string) {
	r.AlertsEmitted.WithLabelValues(rule, severity).Inc()
}

// AlertDispatched counts a push attempt with its outcome (sent, duplicate, failed).
func (r *Registry) AlertDispatched(result string) {
	r.AlertsDispatched.WithLabelValues(result).Inc()
}

// ObserveEngine records how long an engine took since start.
func (r *Registry) ObserveEngine(engine string, start time.Time) {
	r.EngineDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
}
