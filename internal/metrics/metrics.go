// Package metrics provides Prometheus metrics for the event seating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OptimizationsTotal tracks seating runs by outcome
	OptimizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Subsystem: "seating",
			Name:      "optimizations_total",
			Help:      "Total number of seating optimizations by status",
		},
		[]string{"status"},
	)

	// OptimizationDuration tracks wall time of a full run, load to write-back
	OptimizationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "events",
			Subsystem: "seating",
			Name:      "optimization_duration_seconds",
			Help:      "Duration of seating optimizations in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// OptimizationIterations tracks tabu iterations used per run
	OptimizationIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "events",
			Subsystem: "seating",
			Name:      "optimization_iterations",
			Help:      "Tabu search iterations per seating optimization",
			Buckets:   []float64{1, 5, 10, 15, 25, 50, 75, 100, 200},
		},
	)

	// OptimizationImprovement tracks score gained by the tabu phase
	OptimizationImprovement = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "events",
			Subsystem: "seating",
			Name:      "optimization_score_improvement",
			Help:      "Score gained by local search over the constructed assignment",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	// SeatingDiagnosticsTotal tracks soft-constraint shortfalls by kind
	SeatingDiagnosticsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Subsystem: "seating",
			Name:      "diagnostics_total",
			Help:      "Soft-constraint shortfalls recorded while seating guests",
		},
		[]string{"kind"},
	)

	// GuestRegistrationsTotal tracks public registrations
	GuestRegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Subsystem: "guests",
			Name:      "registrations_total",
			Help:      "Public guest registrations by kind (single, family)",
		},
		[]string{"kind"},
	)

	// BrokerMessagesTotal tracks broker publishes and consumes
	BrokerMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Subsystem: "broker",
			Name:      "messages_total",
			Help:      "Broker messages by queue, direction and status",
		},
		[]string{"queue", "direction", "status"},
	)

	// WebsocketClients tracks connected websocket clients
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "events",
			Subsystem: "notify",
			Name:      "websocket_clients",
			Help:      "Number of connected websocket clients",
		},
	)

	// RateLimitedTotal counts requests rejected by the token bucket
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter by route",
		},
		[]string{"route"},
	)

	// CacheLookupsTotal counts response cache lookups by result (hit, miss)
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Subsystem: "http",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result",
		},
		[]string{"result"},
	)
)
