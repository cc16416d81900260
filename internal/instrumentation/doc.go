// Package instrumentation provides OpenTelemetry instrumentation for
// the mailpilot client.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for backend API requests, authentication,
//     account syncs and assistant traffic
//   - Distributed tracing for store operations
//   - Prometheus metrics export via /metrics endpoint on a dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Backend API Metrics:
//   - api_requests_total: Counter of backend requests by method and status
//   - api_request_duration_seconds: Histogram of backend request durations
//
// Session Metrics:
//   - auth_attempts_total: Counter of login/register attempts by result
//   - active_sessions: Gauge of active user sessions
//
// Account Sync Metrics:
//   - account_syncs_total: Counter of per-account sync operations by provider and result
//   - account_sync_duration_seconds: Histogram of sync durations
//
// Assistant Metrics:
//   - agent_messages_total: Counter of assistant messages by type
//
// # Tracing
//
// Spans are created for store operations (<store>.<operation>) via
// StartStoreSpan.
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: mailpilot)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "mailpilot",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordRequest(ctx, "GET", "/emails/my-inbox", 200, time.Since(start))
//	recorder.RecordAccountSync(ctx, "gmail", "jane@example.com", "success", time.Since(start))
package instrumentation
