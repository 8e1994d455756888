// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Business metrics (signals, posts, subreddit fetches, runs, clustering)
//   - Database query metrics
//   - Application performance metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "github.com/albeorla/reddit-pain-radar/internal/observability/metrics"
//
//	func fetchSubreddit(subreddit string) {
//	    start := time.Now()
//	    // ... fetch listing ...
//	    count := 10
//
//	    metrics.RecordSubredditFetch(subreddit, time.Since(start), count)
//	    metrics.RecordOperationDuration("fetch_subreddit", time.Since(start))
//	}
package metrics
