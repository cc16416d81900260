package instrumentation

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestAuthEvent_UserDomain(t *testing.T) {
	event := AuthEvent{UserEmail: "jane@example.com"}
	if got := event.UserDomain(); got != "example.com" {
		t.Errorf("expected example.com, got %s", got)
	}
}

func TestAuthEvent_Status(t *testing.T) {
	if got := (&AuthEvent{Success: true}).Status(); got != StatusSuccess {
		t.Errorf("expected success, got %s", got)
	}
	if got := (&AuthEvent{Success: false}).Status(); got != StatusError {
		t.Errorf("expected error, got %s", got)
	}
}

func TestAuthEvent_LogAttrs(t *testing.T) {
	event := AuthEvent{
		Operation: "login",
		UserEmail: "jane@example.com",
		Duration:  250 * time.Millisecond,
		Success:   true,
	}

	attrs := event.LogAttrs()

	var sawDomain, sawEmail bool
	for _, attr := range attrs {
		if attr.Key == "user_domain" && attr.Value.String() == "example.com" {
			sawDomain = true
		}
		if attr.Value.String() == "jane@example.com" {
			sawEmail = true
		}
	}
	if !sawDomain {
		t.Error("expected user_domain attribute")
	}
	if sawEmail {
		t.Error("LogAttrs must not contain the full email address")
	}
}

func TestAuthEvent_LogAuditAttrs(t *testing.T) {
	event := AuthEvent{
		Operation: "connectAccount",
		UserEmail: "jane@example.com",
		Provider:  "gmail",
		Success:   false,
		Error:     "provider rejected token",
	}

	attrs := event.LogAuditAttrs()

	var sawEmail, sawProvider, sawError bool
	for _, attr := range attrs {
		switch {
		case attr.Key == "user" && attr.Value.String() == "jane@example.com":
			sawEmail = true
		case attr.Key == "provider" && attr.Value.String() == "gmail":
			sawProvider = true
		case attr.Key == "error":
			sawError = true
		}
	}
	if !sawEmail {
		t.Error("expected full email in audit attrs")
	}
	if !sawProvider {
		t.Error("expected provider in audit attrs")
	}
	if !sawError {
		t.Error("expected error in audit attrs")
	}
}

func TestAuditLogger_Record(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	audit := NewAuditLogger(logger, false)

	audit.Record(context.Background(), AuthEvent{
		Operation: "login",
		UserEmail: "jane@example.com",
		Success:   true,
	})

	out := buf.String()
	if !strings.Contains(out, "auth audit") {
		t.Errorf("expected audit log line, got %q", out)
	}
	if strings.Contains(out, "jane@example.com") {
		t.Errorf("PII leaked into non-PII audit log: %q", out)
	}
	if !strings.Contains(out, "example.com") {
		t.Errorf("expected domain in audit log, got %q", out)
	}
}

func TestAuditLogger_RecordWithPII(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	audit := NewAuditLogger(logger, true)

	audit.Record(context.Background(), AuthEvent{
		Operation: "logout",
		UserEmail: "jane@example.com",
		Success:   true,
	})

	if !strings.Contains(buf.String(), "jane@example.com") {
		t.Errorf("expected full email in PII audit log, got %q", buf.String())
	}
}

func TestAuditLogger_FailureLogsAtWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	audit := NewAuditLogger(logger, false)

	audit.Record(context.Background(), AuthEvent{
		Operation: "login",
		UserEmail: "jane@example.com",
		Success:   false,
		Error:     "bad credentials",
	})

	if !strings.Contains(buf.String(), "WARN") {
		t.Errorf("expected WARN level for failed auth event, got %q", buf.String())
	}
}

func TestAuditLogger_NilIsNoOp(t *testing.T) {
	var audit *AuditLogger
	// Must not panic.
	audit.Record(context.Background(), AuthEvent{Operation: "login"})
}
