package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prevTracer := tracer
	tracer = tp.Tracer("test")
	t.Cleanup(func() { tracer = prevTracer })
	return sr
}

func TestStartRun_RecordsRunIDAttribute(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartRun(context.Background(), 42)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "pipeline.run", spans[0].Name())
	assertHasAttribute(t, spans[0], "run.id", int64(42))
}

func TestStartSubredditFetch_RecordsSubredditAttribute(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartSubredditFetch(context.Background(), "saas")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "pipeline.fetch_subreddit", spans[0].Name())
	assertHasAttribute(t, spans[0], "subreddit", "saas")
}

func TestStartPostAnalysis_RecordsPostIDAttribute(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartPostAnalysis(context.Background(), "abc123")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "pipeline.analyze_post", spans[0].Name())
	assertHasAttribute(t, spans[0], "post.id", "abc123")
}

func TestEndWithError_MarksSpanErrorStatus(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartPostAnalysis(context.Background(), "failing-post")
	EndWithError(span, errors.New("analysis failed"))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "analysis failed", spans[0].Status().Description)
}

func TestEndWithError_NilErrorLeavesStatusUnset(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartPostAnalysis(context.Background(), "ok-post")
	EndWithError(span, nil)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Empty(t, spans[0].Status().Description)
}

func assertHasAttribute(t *testing.T, span sdktrace.ReadOnlySpan, key string, want interface{}) {
	t.Helper()
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			assert.EqualValues(t, want, kv.Value.AsInterface())
			return
		}
	}
	t.Fatalf("attribute %q not found on span %q", key, span.Name())
}
