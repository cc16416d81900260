package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// AuthEvent captures an authentication or account lifecycle operation
// for audit logging: login, register, logout, account connect and
// disconnect.
//
// # Privacy Considerations
//
// The UserEmail field contains PII. General logs should use UserDomain()
// for the domain only; the full address belongs in audit-specific log
// streams with appropriate access controls.
type AuthEvent struct {
	// Operation name (login, register, logout, connectAccount, ...)
	Operation string

	// User identity
	UserEmail string

	// Provider for account operations (gmail, outlook), empty otherwise
	Provider string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// UserDomain returns the domain portion of the user's email for lower-cardinality logging.
func (e *AuthEvent) UserDomain() string {
	return ExtractUserDomain(e.UserEmail)
}

// Status returns "success" or "error" based on the Success field.
func (e *AuthEvent) Status() string {
	if e.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging with
// cardinality-controlled values. For full audit logging use
// LogAuditAttrs.
func (e *AuthEvent) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", e.Operation),
		slog.String("user_domain", e.UserDomain()),
		slog.Duration("duration", e.Duration),
		slog.Bool("success", e.Success),
	}

	if e.Provider != "" {
		attrs = append(attrs, slog.String("provider", e.Provider))
	}
	if e.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", e.TraceID))
	}
	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes for full audit logging,
// including the full user email for compliance purposes. Ensure audit
// logs are stored securely and not exposed to general dashboards.
func (e *AuthEvent) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", e.Operation),
		slog.String("user", e.UserEmail),
		slog.Duration("duration", e.Duration),
		slog.Bool("success", e.Success),
	}

	if e.Provider != "" {
		attrs = append(attrs, slog.String("provider", e.Provider))
	}
	if e.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", e.TraceID))
	}
	if e.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", e.SpanID))
	}
	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}

	return attrs
}

// AuditLogger writes authentication audit events to a dedicated logger.
// A nil AuditLogger is a no-op.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
}

// NewAuditLogger creates an audit logger. When includePII is false only
// anonymized identifiers are written.
func NewAuditLogger(logger *slog.Logger, includePII bool) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger, includePII: includePII}
}

// Record writes one audit event, attaching the current trace context
// when a span is active.
func (a *AuditLogger) Record(ctx context.Context, event AuthEvent) {
	if a == nil {
		return
	}

	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		event.TraceID = span.TraceID().String()
		event.SpanID = span.SpanID().String()
	}

	attrs := event.LogAttrs()
	if a.includePII {
		attrs = event.LogAuditAttrs()
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(ctx, level, "auth audit", attrs...)
}
