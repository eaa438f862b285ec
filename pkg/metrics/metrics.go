package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videovault_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// SessionsInvalidated counts credential invalidations by trigger (login|admin|logout|sweep).
	SessionsInvalidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videovault_sessions_invalidated_total",
			Help: "Total number of sessions invalidated",
		},
		[]string{"trigger"},
	)

	// SupersededRejections counts requests rejected because the presented
	// credential was replaced by a newer login (token|session channel).
	SupersededRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videovault_superseded_rejections_total",
			Help: "Requests rejected because the credential was superseded",
		},
		[]string{"channel"},
	)

	// ActiveSessions tracks the number of tracked cookie sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "videovault_active_sessions",
			Help: "Number of tracked cookie sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "videovault_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
