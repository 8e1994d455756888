// Package tracing provides OpenTelemetry span helpers for the pipeline run
// lifecycle, using go.opentelemetry.io/otel/sdk directly: one span per
// pipeline run, with child spans per subreddit fetch and per post
// analysis.
//
// Example usage:
//
//	import "github.com/albeorla/reddit-pain-radar/internal/observability/tracing"
//
//	func main() {
//	    shutdown, _ := tracing.InitTracerProvider(ctx, "reddit-pain-radar")
//	    defer shutdown(ctx)
//	}
//
//	func (o *Orchestrator) RunPipeline(ctx context.Context, cfg Config, fetchNew bool) (Result, error) {
//	    ctx, span := tracing.StartRun(ctx, runID)
//	    defer span.End()
//	    // ...
//	}
package tracing
