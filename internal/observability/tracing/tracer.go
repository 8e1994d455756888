// Package tracing provides OpenTelemetry span helpers for the pipeline run
// lifecycle: one span per run, with child spans per subreddit fetch and per
// post analysis (spec §10's observability requirement). No exporter is
// wired by default — InitTracerProvider registers a batch span processor
// with whatever exporter the caller supplies, so a deployment can plug in
// OTLP without this package changing.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("reddit-pain-radar")

// GetTracer returns the package-wide tracer for creating spans.
func GetTracer() trace.Tracer {
	return tracer
}

// InitTracerProvider installs a TracerProvider tagged with serviceName as
// the global OpenTelemetry provider and returns a shutdown func to flush
// and release it on process exit. Passing a nil exporter list yields a
// provider with no span processors: spans are created and discarded,
// which is a legitimate configuration for local development.
func InitTracerProvider(ctx context.Context, serviceName string, exporters ...sdktrace.SpanExporter) (func(context.Context) error, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	for _, exp := range exporters {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
