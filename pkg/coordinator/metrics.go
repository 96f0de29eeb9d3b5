package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	labels = prometheus.Labels{"iid": InstanceId}

	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "relay_connections_active",
		Help:        "The current number of registered connections.",
		ConstLabels: labels,
	})
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "relay_sessions_active",
		Help:        "The current number of active sessions.",
		ConstLabels: labels,
	})
	joins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:        "relay_joins_total",
		Help:        "Join requests by role and result.",
		ConstLabels: labels,
	}, []string{"role", "result"})
	relayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:        "relay_payloads_total",
		Help:        "Relay payloads by sender role and result.",
		ConstLabels: labels,
	}, []string{"role", "result"})
	departures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:        "relay_departures_total",
		Help:        "Removed connections by role and cause.",
		ConstLabels: labels,
	}, []string{"role", "cause"})
	throttled = promauto.NewCounter(prometheus.CounterOpts{
		Name:        "relay_throttled_total",
		Help:        "Inbound messages rejected by the per-connection rate limit.",
		ConstLabels: labels,
	})
	transportDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:        "relay_transport_drops_total",
		Help:        "Outbound messages not delivered, by cause: full send buffer or closed link.",
		ConstLabels: labels,
	}, []string{"cause"})
)
