package metrics

import (
	"time"
)

// RecordPostsFetched records the number of posts fetched from a subreddit.
func RecordPostsFetched(subreddit string, count int) {
	PostsFetchedTotal.WithLabelValues(subreddit).Add(float64(count))
}

// RecordPostAnalyzed records the outcome of analyzing one post. Outcome
// should be one of "qualified", "disqualified", "not_extractable", or
// "error".
func RecordPostAnalyzed(outcome string) {
	PostsAnalyzedTotal.WithLabelValues(outcome).Inc()
}

// RecordSubredditFetch records metrics for fetching one subreddit's
// listing page.
func RecordSubredditFetch(subreddit string, duration time.Duration, postsFound int) {
	SubredditFetchDuration.WithLabelValues(subreddit).Observe(duration.Seconds())
	if postsFound > 0 {
		RecordPostsFetched(subreddit, postsFound)
	}
}

// RecordSubredditFetchError records an error fetching a subreddit's
// listing page.
func RecordSubredditFetchError(subreddit, errorType string) {
	SubredditFetchErrors.WithLabelValues(subreddit, errorType).Inc()
}

// RecordRun records the outcome and duration of one pipeline run. Status
// should be "completed" or "failed".
func RecordRun(status string, duration time.Duration) {
	RunDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordClustering records the duration of one weekly clustering pass.
func RecordClustering(duration time.Duration) {
	ClusteringDuration.Observe(duration.Seconds())
}

// RecordAlertMatches records newly-inserted watchlist alert matches.
func RecordAlertMatches(count int) {
	if count <= 0 {
		return
	}
	AlertMatchesTotal.Add(float64(count))
}

// UpdateSignalsTotal updates the gauge tracking total signals stored.
// Call periodically to reflect current database state.
func UpdateSignalsTotal(count int) {
	SignalsTotal.Set(float64(count))
}

// UpdateSourceSetsTotal updates the gauge tracking total active source
// sets.
func UpdateSourceSetsTotal(count int) {
	SourceSetsTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "select_signals",
// "insert_post").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
