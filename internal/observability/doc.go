// Package observability provides production-grade observability infrastructure
// including structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// This package centralizes observability concerns to enable:
//   - Request tracing across service boundaries
//   - Structured logging with context propagation
//   - Prometheus metrics for monitoring
//   - Performance profiling and debugging
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracing integration
//
// Example usage:
//
//	import (
//	    "github.com/albeorla/reddit-pain-radar/internal/observability/logging"
//	    "github.com/albeorla/reddit-pain-radar/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewFromConfig(settings.LogLevel, settings.LogFormat)
//	    logger.Info("application started")
//
//	    metrics.RecordPostsFetched("saas", 10)
//	}
package observability
