// Package metrics holds the Prometheus collectors exported on /api/metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FriendRequestOps counts lifecycle operations.
	// Labels:
	//   - op: "send", "accept", "accept_now", "reject"
	//   - outcome: "ok" or the error kind ("conflict", "forbidden", ...)
	FriendRequestOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "langbridge_friend_request_ops_total",
			Help: "Friend request lifecycle operations by outcome",
		},
		[]string{"op", "outcome"},
	)

	// HTTPRequestDuration measures handler latency per route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "langbridge_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route", "status"},
	)

	// RateLimited counts requests rejected with 429, by limit name.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "langbridge_rate_limited_total",
			Help: "Requests rejected by a rate limit",
		},
		[]string{"limit"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "langbridge_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)
)
