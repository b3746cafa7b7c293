// Package observability provides the monitoring surface for the deskhand
// daemon: structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Logging
//
// Logging is built on Go's slog package. NewLogger produces a *slog.Logger
// from a LogConfig, selecting JSON output for production or text for
// development:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:  "debug",
//	    Format: "text",
//	})
//	logger.Info("action dispatched", "action", "left_click")
//
// # Metrics
//
// Metrics are implemented with Prometheus client libraries on a private
// registry, so constructing Metrics twice (as tests do) never panics on
// duplicate registration. The registry is exposed for the /metrics
// endpoint:
//
//	metrics := observability.NewMetrics()
//	handler := promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})
//
// Tracked series cover desktop action dispatch, screen captures, shell
// command runs, and active WebSocket connections.
//
// # Tracing
//
// Tracing uses OpenTelemetry with an OTLP/gRPC exporter. When no endpoint
// is configured NewTracer returns a no-op tracer, so callers can
// instrument unconditionally:
//
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName: "deskhand",
//	    Endpoint:    os.Getenv("OTEL_ENDPOINT"),
//	})
//	defer shutdown(context.Background())
//
//	ctx, span := tracer.TraceToolInvoke(ctx, "computer")
//	defer span.End()
package observability
