// Package logging provides structured logging helpers built on log/slog.
//
// It defines the canonical attribute keys used across mailpilot (operation,
// store, account, email_id, ...) so that log output stays machine-parseable
// and consistent between packages, plus helpers for logging PII safely:
// user emails are anonymized to stable hashes and bearer tokens are reduced
// to a length indicator before they ever reach a log line.
package logging
