// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)

	SyncRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_total",
			Help: "Submitted sync records by outcome (created, accepted, conflict, skipped)",
		},
		[]string{"outcome"},
	)
	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Time spent reconciling one sync batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	PresenceConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_connections",
			Help: "Open connectivity websocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(RLRequests)
	prometheus.MustRegister(RLBlocked)
	prometheus.MustRegister(SyncRecords)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(PresenceConnections)
}
