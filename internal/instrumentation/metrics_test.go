package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, detailedLabels bool) *Provider {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
		DetailedLabels:  detailedLabels,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestMetrics_RecordRequest(t *testing.T) {
	metrics := newTestProvider(t, false).Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	ctx := context.Background()
	// Should not panic
	metrics.RecordRequest(ctx, "GET", "/emails/my-inbox", 200, 100*time.Millisecond)
	metrics.RecordRequest(ctx, "PUT", "/emails/3/category", 500, 50*time.Millisecond)
	metrics.RecordRequest(ctx, "POST", "/auth/login", 0, 15*time.Second)
}

func TestMetrics_RecordRequest_DetailedLabels(t *testing.T) {
	metrics := newTestProvider(t, true).Metrics()
	metrics.RecordRequest(context.Background(), "GET", "/drafts", 200, 10*time.Millisecond)
}

func TestMetrics_RecordAuthAttempt(t *testing.T) {
	metrics := newTestProvider(t, false).Metrics()

	ctx := context.Background()
	metrics.RecordAuthAttempt(ctx, "login", StatusSuccess)
	metrics.RecordAuthAttempt(ctx, "register", StatusError)
}

func TestMetrics_SessionGauge(t *testing.T) {
	metrics := newTestProvider(t, false).Metrics()

	ctx := context.Background()
	metrics.SessionStarted(ctx)
	metrics.SessionEnded(ctx)
}

func TestMetrics_RecordAccountSync(t *testing.T) {
	metrics := newTestProvider(t, true).Metrics()

	ctx := context.Background()
	metrics.RecordAccountSync(ctx, "gmail", "jane@example.com", StatusSuccess, 2*time.Second)
	metrics.RecordAccountSync(ctx, "outlook", "bob@work.example", StatusError, 30*time.Second)
}

func TestMetrics_RecordAgentMessage(t *testing.T) {
	metrics := newTestProvider(t, false).Metrics()

	ctx := context.Background()
	metrics.RecordAgentMessage(ctx, "chat")
	metrics.RecordAgentMessage(ctx, "processing_result")
}

func TestMetrics_ZeroValueIsNoOp(t *testing.T) {
	var metrics Metrics

	ctx := context.Background()
	// None of these may panic on an uninitialized recorder.
	metrics.RecordRequest(ctx, "GET", "/emails/my-inbox", 200, time.Millisecond)
	metrics.RecordAuthAttempt(ctx, "login", StatusSuccess)
	metrics.SessionStarted(ctx)
	metrics.SessionEnded(ctx)
	metrics.RecordAccountSync(ctx, "gmail", "x@y.z", StatusSuccess, time.Second)
	metrics.RecordAgentMessage(ctx, "chat")
}

func TestStatusLabel(t *testing.T) {
	if got := statusLabel(0); got != "transport_error" {
		t.Errorf("expected transport_error for status 0, got %s", got)
	}
	if got := statusLabel(404); got != "404" {
		t.Errorf("expected 404, got %s", got)
	}
}
