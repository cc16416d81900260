package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod   = "method"
	attrPath     = "path"
	attrStatus   = "status"
	attrProvider = "provider"
	attrResult   = "result"
	attrType     = "type"
)

// Metrics provides methods for recording observability metrics. The zero
// value is a no-op recorder.
type Metrics struct {
	// Backend API metrics
	apiRequestsTotal   metric.Int64Counter
	apiRequestDuration metric.Float64Histogram

	// Session metrics
	authAttemptsTotal metric.Int64Counter
	activeSessions    metric.Int64UpDownCounter

	// Provider sync metrics
	accountSyncsTotal   metric.Int64Counter
	accountSyncDuration metric.Float64Histogram

	// Assistant metrics
	agentMessagesTotal metric.Int64Counter

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.apiRequestsTotal, err = meter.Int64Counter(
		"api_requests_total",
		metric.WithDescription("Total number of backend API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api_requests_total counter: %w", err)
	}

	m.apiRequestDuration, err = meter.Float64Histogram(
		"api_request_duration_seconds",
		metric.WithDescription("Backend API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 15.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api_request_duration_seconds histogram: %w", err)
	}

	m.authAttemptsTotal, err = meter.Int64Counter(
		"auth_attempts_total",
		metric.WithDescription("Total number of authentication attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_attempts_total counter: %w", err)
	}

	m.activeSessions, err = meter.Int64UpDownCounter(
		"active_sessions",
		metric.WithDescription("Number of active user sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_sessions gauge: %w", err)
	}

	m.accountSyncsTotal, err = meter.Int64Counter(
		"account_syncs_total",
		metric.WithDescription("Total number of email account sync operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account_syncs_total counter: %w", err)
	}

	m.accountSyncDuration, err = meter.Float64Histogram(
		"account_sync_duration_seconds",
		metric.WithDescription("Email account sync duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account_sync_duration_seconds histogram: %w", err)
	}

	m.agentMessagesTotal, err = meter.Int64Counter(
		"agent_messages_total",
		metric.WithDescription("Total number of assistant messages by type"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_messages_total counter: %w", err)
	}

	return m, nil
}

// RecordRequest records one backend API request. It satisfies the
// transport layer's recorder hook. A zero status means the request never
// got a response (transport failure or timeout).
func (m *Metrics) RecordRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if m == nil || m.apiRequestsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrStatus, statusLabel(status)),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrPath, path))
	}

	m.apiRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.apiRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordAuthAttempt records a login or register attempt and its result.
func (m *Metrics) RecordAuthAttempt(ctx context.Context, operation, result string) {
	if m == nil || m.authAttemptsTotal == nil {
		return
	}
	m.authAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String(attrResult, result),
	))
}

// SessionStarted increments the active session gauge.
func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// SessionEnded decrements the active session gauge.
func (m *Metrics) SessionEnded(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}

// RecordAccountSync records one per-account sync operation. The account
// email is reduced to its domain to keep cardinality bounded.
func (m *Metrics) RecordAccountSync(ctx context.Context, provider, accountEmail, result string, duration time.Duration) {
	if m == nil || m.accountSyncsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrProvider, provider),
		attribute.String(attrResult, result),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String("account_domain", ExtractUserDomain(accountEmail)))
	}

	m.accountSyncsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.accountSyncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordAgentMessage records one assistant websocket or REST message.
func (m *Metrics) RecordAgentMessage(ctx context.Context, messageType string) {
	if m == nil || m.agentMessagesTotal == nil {
		return
	}
	m.agentMessagesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrType, messageType),
	))
}

// statusLabel buckets an HTTP status for metric labels. Zero means the
// request failed before a status existed.
func statusLabel(status int) string {
	if status == 0 {
		return "transport_error"
	}
	return strconv.Itoa(status)
}
