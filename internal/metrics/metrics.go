// Package metrics exposes engine counters over Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the engine's Prometheus collectors.
type Registry struct {
	reg *prometheus.Registry

	EventsIngested      *prometheus.CounterVec
	GatewayFrames       *prometheus.CounterVec
	Findings            *prometheus.CounterVec
	Punishments         *prometheus.CounterVec
	AttributionFailures prometheus.Counter
	PolicyErrors        prometheus.Counter
	AlertFailures       prometheus.Counter
	DetectionSeconds    prometheus.Histogram
}

// New creates and registers all collectors on a private registry.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		EventsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_events_ingested_total",
			Help: "Normalized events handed to the rule engine, by action kind.",
		}, []string{"kind"}),
		GatewayFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_gateway_frames_total",
			Help: "Raw gateway dispatch frames observed, by event type.",
		}, []string{"type"}),
		Findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_findings_total",
			Help: "Rule violations detected, by rule.",
		}, []string{"rule"}),
		Punishments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_punishments_total",
			Help: "Sanctions attempted, by punishment kind and outcome.",
		}, []string{"kind", "outcome"}),
		AttributionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_attribution_failures_total",
			Help: "Events dropped because no audit trail entry matched.",
		}),
		PolicyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_policy_errors_total",
			Help: "Events dropped because the policy store was unavailable.",
		}),
		AlertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_alert_failures_total",
			Help: "Alerts that could not be delivered.",
		}),
		DetectionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_detection_seconds",
			Help:    "Event receipt to decision latency.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	reg.MustRegister(
		r.EventsIngested,
		r.GatewayFrames,
		r.Findings,
		r.Punishments,
		r.AttributionFailures,
		r.PolicyErrors,
		r.AlertFailures,
		r.DetectionSeconds,
	)
	return r
}

// Handler returns the scrape endpoint for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
