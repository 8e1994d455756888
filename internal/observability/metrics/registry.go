// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Business metrics track pipeline-run-level outcomes. Per-call analyst
// and clusterer metrics (LLM latency, extraction state, score
// distribution) live in their own packages (internal/analyst,
// internal/cluster); these are the cross-cutting run/fetch metrics that
// don't belong to either.
var (
	// SignalsTotal tracks total number of signals in the database.
	SignalsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signals_total",
			Help: "Total number of signals in the database",
		},
	)

	// SourceSetsTotal tracks total number of active source sets.
	SourceSetsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "source_sets_total",
			Help: "Total number of active source sets",
		},
	)

	// PostsFetchedTotal counts posts fetched from each subreddit.
	PostsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_fetched_total",
			Help: "Total number of posts fetched from subreddits",
		},
		[]string{"subreddit"},
	)

	// PostsAnalyzedTotal counts post analyses by outcome.
	PostsAnalyzedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_analyzed_total",
			Help: "Total number of posts analyzed, by outcome",
		},
		[]string{"outcome"}, // outcome: qualified, disqualified, not_extractable, error
	)

	// SubredditFetchDuration measures time to fetch one subreddit's listing.
	SubredditFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subreddit_fetch_duration_seconds",
			Help:    "Time taken to fetch one subreddit's post listing",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"subreddit"},
	)

	// SubredditFetchErrors counts errors fetching a subreddit's listing.
	SubredditFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subreddit_fetch_errors_total",
			Help: "Total number of subreddit fetch errors",
		},
		[]string{"subreddit", "error_type"},
	)

	// RunDuration measures the wall-clock time of a full pipeline run.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Time taken by a full pipeline run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"status"}, // status: completed, failed
	)

	// ClusteringDuration measures the wall-clock time of a weekly
	// clustering pass.
	ClusteringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weekly_clustering_duration_seconds",
			Help:    "Time taken by a weekly pain-cluster run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// AlertMatchesTotal counts watchlist alert matches recorded.
	AlertMatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_matches_total",
			Help: "Total number of watchlist alert matches recorded",
		},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordOperationDuration records the duration of a named operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
