// Package metrics exposes the Prometheus collectors of the platform.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GenerationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techpulse_generation_attempts_total",
			Help: "Generation calls per provider, labelled by outcome",
		},
		[]string{"provider", "outcome"},
	)

	GenerationFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "techpulse_generation_fallback_total",
			Help: "Generations served by the fallback credential",
		},
	)

	CredentialUsageErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "techpulse_credential_usage_errors_total",
			Help: "Usage increments that failed to persist",
		},
	)

	ArticlesCollected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "techpulse_articles_collected_total",
			Help: "Articles stored by the feed collector",
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techpulse_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "techpulse_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

func init() {
	prometheus.MustRegister(
		GenerationAttempts,
		GenerationFallbacks,
		CredentialUsageErrors,
		ArticlesCollected,
		HTTPRequests,
		HTTPRequestDuration,
	)
}
