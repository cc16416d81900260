// Package faults turns failures into user-facing recovery guidance.
// Errors carrying a transport kind are classified from their tag;
// message inspection is a fallback for opaque errors only and never
// drives control flow beyond the wording of the advice.
package faults

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mailpilot/mailpilot/internal/api"
	"github.com/mailpilot/mailpilot/internal/logging"
)

// Failure categories.
const (
	KindNetwork        = "network"
	KindAIService      = "ai_service"
	KindAuthentication = "authentication"
	KindEmailProvider  = "email_provider"
	KindValidation     = "validation"
	KindUnknown        = "unknown"
)

// Recovery actions the caller can offer the user.
const (
	ActionRetry            = "retry"
	ActionReauthenticate   = "re-authenticate"
	ActionReconnectAccount = "reconnect-account"
	ActionReload           = "reload"
)

// Recovery is the classified outcome of a failure: a category, a
// human-readable message and the suggested next step.
type Recovery struct {
	Kind    string
	Message string
	Action  string
}

// Reporter is an optional sink for classified failures, such as an
// external monitoring service.
type Reporter interface {
	Report(ctx context.Context, err error, rec Recovery)
}

// Classify maps an error to recovery guidance. Tagged transport errors
// are matched on their kind first; untagged errors fall back to
// substring heuristics over the message.
func Classify(err error) Recovery {
	if err == nil {
		return Recovery{Kind: KindUnknown, Message: "unknown failure", Action: ActionReload}
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return classifyTagged(apiErr)
	}
	return classifyOpaque(err)
}

func classifyTagged(err *api.Error) Recovery {
	switch err.Kind {
	case api.KindTimeout, api.KindTransport:
		return Recovery{
			Kind:    KindNetwork,
			Message: "Could not reach the server. Check your connection and try again.",
			Action:  ActionRetry,
		}
	case api.KindUnauthorized:
		return Recovery{
			Kind:    KindAuthentication,
			Message: "Your session has expired. Please sign in again.",
			Action:  ActionReauthenticate,
		}
	case api.KindForbidden:
		return Recovery{
			Kind:    KindAuthentication,
			Message: "You do not have access to this resource.",
			Action:  ActionReload,
		}
	case api.KindValidation, api.KindNotFound:
		// Structured backend messages are surfaced verbatim.
		msg := err.Message
		if msg == "" {
			msg = "The request was rejected."
		}
		return Recovery{Kind: KindValidation, Message: msg, Action: ActionRetry}
	case api.KindServer, api.KindDecode:
		return Recovery{
			Kind:    KindNetwork,
			Message: "The server had a problem handling the request. Try again in a moment.",
			Action:  ActionRetry,
		}
	}
	return Recovery{Kind: KindUnknown, Message: "Something went wrong.", Action: ActionReload}
}

func classifyOpaque(err error) Recovery {
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "network", "connection", "timeout", "unreachable"):
		return Recovery{
			Kind:    KindNetwork,
			Message: "A network problem interrupted the operation. Try again.",
			Action:  ActionRetry,
		}
	case containsAny(msg, "unauthorized", "token", "credential", "session", "auth"):
		return Recovery{
			Kind:    KindAuthentication,
			Message: "Your session could not be verified. Please sign in again.",
			Action:  ActionReauthenticate,
		}
	case containsAny(msg, "gmail", "outlook", "provider", "oauth"):
		return Recovery{
			Kind:    KindEmailProvider,
			Message: "The email provider connection failed. Reconnect the account.",
			Action:  ActionReconnectAccount,
		}
	case containsAny(msg, "assistant", "agent", "llm", "model", "ai service"):
		return Recovery{
			Kind:    KindAIService,
			Message: "The assistant is unavailable right now. Try again shortly.",
			Action:  ActionRetry,
		}
	}
	return Recovery{Kind: KindUnknown, Message: "Something went wrong.", Action: ActionReload}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Handler is the top-level failure boundary: it classifies, logs and
// optionally reports every error that reaches it.
type Handler struct {
	logger   *slog.Logger
	reporter Reporter
}

// NewHandler creates a failure handler. reporter may be nil.
func NewHandler(logger *slog.Logger, reporter Reporter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, reporter: reporter}
}

// Handle classifies err, records it, and returns the recovery guidance.
func (h *Handler) Handle(ctx context.Context, err error) Recovery {
	rec := Classify(err)
	h.logger.Warn("operation failed",
		slog.String("fault_kind", rec.Kind),
		slog.String("action", rec.Action),
		logging.Err(err))
	if h.reporter != nil {
		h.reporter.Report(ctx, err, rec)
	}
	return rec
}
