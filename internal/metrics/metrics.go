// Package metrics holds the prometheus instrumentation for the hook
// ingestion path and the process supervisor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons recorded on hook_events_dropped_total.
const (
	DropUnknownAgent  = "unknown_agent"
	DropBadNonce      = "bad_nonce"
	DropUnparseable   = "unparseable"
	DropUnrecognized  = "unrecognized"
	DropSlowSubscribe = "slow_subscriber"
)

// Metrics bundles the collectors for one server instance, with its own
// registry so tests can construct independent instances.
type Metrics struct {
	registry *prometheus.Registry

	EventsReceived *prometheus.CounterVec
	EventsDropped  *prometheus.CounterVec
	AgentsSpawned  prometheus.Counter
	AgentsLive     prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_hook_events_total",
			Help: "Normalized hook events fanned out, by provider and kind.",
		}, []string{"provider", "kind"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_hook_events_dropped_total",
			Help: "Inbound hook deliveries discarded before fan-out, by reason.",
		}, []string{"reason"}),
		AgentsSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_agents_spawned_total",
			Help: "Agent processes launched since startup.",
		}),
		AgentsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clubhouse_agents_live",
			Help: "Agent registrations currently tracked.",
		}),
	}

	m.registry.MustRegister(m.EventsReceived, m.EventsDropped, m.AgentsSpawned, m.AgentsLive)
	return m
}

// Handler returns the scrape endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Dropped increments the drop counter for a reason.
func (m *Metrics) Dropped(reason string) {
	m.EventsDropped.WithLabelValues(reason).Inc()
}

// Received increments the fan-out counter.
func (m *Metrics) Received(providerID, kind string) {
	m.EventsReceived.WithLabelValues(providerID, kind).Inc()
}
