package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartRun opens the root span for one pipeline run.
func StartRun(ctx context.Context, runID int64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.Int64("run.id", runID),
	))
}

// StartSubredditFetch opens a child span for fetching one subreddit's listing.
func StartSubredditFetch(ctx context.Context, subreddit string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pipeline.fetch_subreddit", trace.WithAttributes(
		attribute.String("subreddit", subreddit),
	))
}

// StartPostAnalysis opens a child span for analyzing one post.
func StartPostAnalysis(ctx context.Context, postID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pipeline.analyze_post", trace.WithAttributes(
		attribute.String("post.id", postID),
	))
}

// EndWithError records err on span (if non-nil) before ending it, the
// same error-to-span-status mapping used across every span in this
// package.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
