// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Run/post/subreddit field enrichment via WithFields
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "github.com/albeorla/reddit-pain-radar/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewFromConfig(settings.LogLevel, settings.LogFormat)
//	    logger.Info("pipeline worker started")
//	}
//
//	func processPost(ctx context.Context, runID int64, postID string) {
//	    logger := logging.WithFields(logging.FromContext(ctx), map[string]interface{}{
//	        "run_id": runID, "post_id": postID,
//	    })
//	    logger.Info("analyzing post")
//	}
package logging
