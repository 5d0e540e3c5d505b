package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure|inactive).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoaxify_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// TokensIssued counts bearer tokens created at login.
	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hoaxify_tokens_issued_total",
			Help: "Total number of bearer tokens issued",
		},
	)

	// SweepRemovals counts rows removed by maintenance sweeps, labelled by sweep (tokens|attachments).
	SweepRemovals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoaxify_sweep_removed_total",
			Help: "Total number of rows removed by maintenance sweeps",
		},
		[]string{"sweep"},
	)

	// SweepFailures counts per-item failures during maintenance sweeps.
	SweepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoaxify_sweep_failures_total",
			Help: "Total number of items a maintenance sweep failed to remove",
		},
		[]string{"sweep"},
	)

	// UploadedBytes tracks the size of accepted uploads by kind (attachment|profile).
	UploadedBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hoaxify_upload_bytes",
			Help:    "Size of accepted uploads",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"kind"},
	)

	// EmailDeliveries counts outgoing mail by template and result (success|failure|disabled).
	EmailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoaxify_email_deliveries_total",
			Help: "Total number of outgoing emails",
		},
		[]string{"template", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hoaxify_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
