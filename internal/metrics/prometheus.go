// Package metrics registers the Prometheus collectors for the generation
// pipeline: provider attempts, fallbacks, critic verdicts, reviews, gate
// rejections and HTTP latency.
package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "copydesk"

// LatencyBuckets covers sub-second gate work up to slow model calls.
var LatencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 20, 30, 45, 60, 90, 120,
}

// =============================================================================
// Generation Metrics
// =============================================================================

var (
	// GenerationAttempts counts provider attempts by outcome
	// (success, provider_error, parse_failure, schema_invalid).
	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_attempts_total",
			Help:      "Provider attempts by task, slot, vendor and outcome",
		},
		[]string{"task", "slot", "vendor", "model", "outcome"},
	)

	// GenerationAttemptLatency tracks the wall time of each attempt.
	GenerationAttemptLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_attempt_latency_seconds",
			Help:      "Provider attempt latency in seconds",
			Buckets:   LatencyBuckets,
		},
		[]string{"task", "slot", "vendor"},
	)

	// GenerationFallbacks counts tasks that were served by the fallback slot.
	GenerationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Tasks answered by the fallback provider",
		},
		[]string{"task"},
	)

	// CriticVerdicts counts per-variant verdicts.
	CriticVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "critic_verdicts_total",
			Help:      "Critic verdicts by value",
		},
		[]string{"verdict"},
	)

	// Reviews counts second-opinion outcomes (ok, unavailable, failed, timeout).
	Reviews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Second-opinion reviews by outcome",
		},
		[]string{"outcome"},
	)
)

// =============================================================================
// Gate Metrics
// =============================================================================

var (
	// GateRejections counts requests refused by the gate.
	GateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_rejections_total",
			Help:      "Requests rejected by the gate by policy and reason",
		},
		[]string{"policy", "reason"}, // reason: unauthenticated, rate_limited, invalid_input
	)

	// RateLimiterErrors counts limiter backend failures.
	RateLimiterErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limiter_errors_total",
			Help:      "Rate limiter backend errors by policy and resolution",
		},
		[]string{"policy", "resolution"}, // resolution: fail_open, fail_closed
	)
)

// =============================================================================
// Credential Store Metrics
// =============================================================================

// DBConnectionPoolSize reports credential database connections by store and
// state (open, in_use, idle, max).
var DBConnectionPoolSize = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "db_connection_pool_size",
		Help:      "Credential database connections by state",
	},
	[]string{"store", "state"},
)

// DBConnectionWaits reports the cumulative number of waits for a connection.
var DBConnectionWaits = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "db_connection_waits",
		Help:      "Cumulative waits for a credential database connection",
	},
	[]string{"store"},
)

// UpdateDBPoolStats publishes a pool snapshot for store.
func UpdateDBPoolStats(store string, stats sql.DBStats) {
	DBConnectionPoolSize.WithLabelValues(store, "open").Set(float64(stats.OpenConnections))
	DBConnectionPoolSize.WithLabelValues(store, "in_use").Set(float64(stats.InUse))
	DBConnectionPoolSize.WithLabelValues(store, "idle").Set(float64(stats.Idle))
	DBConnectionPoolSize.WithLabelValues(store, "max").Set(float64(stats.MaxOpenConnections))
	DBConnectionWaits.WithLabelValues(store).Set(float64(stats.WaitCount))
}

// RecordAttempt records one provider attempt.
func RecordAttempt(task, slot, vendor, model, outcome string, latency time.Duration) {
	model = sanitizeModelLabel(model)
	GenerationAttempts.WithLabelValues(task, slot, vendor, model, outcome).Inc()
	GenerationAttemptLatency.WithLabelValues(task, slot, vendor).Observe(latency.Seconds())
}

// RecordFallback records a task served by its fallback.
func RecordFallback(task string) {
	GenerationFallbacks.WithLabelValues(task).Inc()
}

// RecordVerdict records a critic verdict.
func RecordVerdict(verdict string) {
	CriticVerdicts.WithLabelValues(verdict).Inc()
}

// RecordReview records a second-opinion outcome.
func RecordReview(outcome string) {
	Reviews.WithLabelValues(outcome).Inc()
}

// RecordRejection records a gate rejection.
func RecordRejection(policy, reason string) {
	GateRejections.WithLabelValues(policy, reason).Inc()
}

// RecordLimiterError records a limiter backend error.
func RecordLimiterError(policy string, failOpen bool) {
	resolution := "fail_closed"
	if failOpen {
		resolution = "fail_open"
	}
	RateLimiterErrors.WithLabelValues(policy, resolution).Inc()
}
