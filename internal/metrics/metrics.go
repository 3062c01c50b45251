package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redis Operations Metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Live Counter Store Metrics
var (
	// LiveStoreDegradedTotal tracks accelerator writes that degraded instead of
	// failing the caller, by operation (like/unlike/impression)
	LiveStoreDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_store_degraded_total",
			Help: "Total best-effort live store writes that degraded, by operation",
		},
		[]string{"operation"},
	)

	// CounterRebuildsTotal tracks counter rebuilds from the durable like table
	CounterRebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counter_rebuilds_total",
			Help: "Total live counter rebuilds from durable storage by result",
		},
		[]string{"result"},
	)
)

// Ranking Query Metrics
var (
	// RankingQueriesTotal tracks ranking queries by the source that served them
	RankingQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_queries_total",
			Help: "Total ranking queries by source (live/snapshot/not_found)",
		},
		[]string{"source"},
	)

	// RankingBuildDuration tracks live candidate build duration
	RankingBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_build_duration_seconds",
			Help:    "Live candidate build duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Finalization Metrics
var (
	// FinalizeRunsTotal tracks finalize batch runs by status
	FinalizeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finalize_runs_total",
			Help: "Total finalize batch runs by status (success/error)",
		},
		[]string{"status"},
	)

	// FinalizeThemesTotal tracks per-theme finalize results within batches
	FinalizeThemesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finalize_themes_total",
			Help: "Total themes finalized by result (written/empty/skipped)",
		},
		[]string{"result"},
	)

	// FinalizeWorksSkippedTotal tracks candidates dropped because the work was
	// missing from durable storage
	FinalizeWorksSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "finalize_works_skipped_total",
			Help: "Total candidates skipped during finalize because the work no longer exists",
		},
	)

	// FinalizeDuration tracks full batch duration
	FinalizeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finalize_duration_seconds",
			Help:    "Finalize batch duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "go_version"},
	)
)
