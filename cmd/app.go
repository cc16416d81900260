package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailpilot/mailpilot/internal/api"
	"github.com/mailpilot/mailpilot/internal/config"
	"github.com/mailpilot/mailpilot/internal/faults"
	"github.com/mailpilot/mailpilot/internal/instrumentation"
	"github.com/mailpilot/mailpilot/internal/session"
)

// app bundles the wiring every command needs: configuration, logging,
// the API client with the persisted session attached, and the failure
// boundary that turns errors into recovery guidance.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *api.Client
	session *session.Store
	faults  *faults.Handler
	instr   *instrumentation.Provider
}

// newApp loads the configuration, builds the logger and API client,
// stands up instrumentation, and restores the persisted session if one
// exists. Callers defer Close to flush instrumentation.
func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	credFile := cfg.Session.CredentialsFile
	if credFile == "" {
		credFile = filepath.Join(filepath.Dir(path), "session.json")
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instr, err := instrumentation.NewProvider(cmd.Context(), instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	sess := session.NewStore(session.NewFileStore(credFile), logger)
	sess.Instrument(instr.Metrics(), instrumentation.NewAuditLogger(logger, false))

	client, err := api.NewClient(cfg.API.BaseURL, sess,
		api.WithLogger(logger), api.WithRecorder(instr.Metrics()))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	sess.Attach(client)

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		session: sess,
		faults:  faults.NewHandler(logger, nil),
		instr:   instr,
	}, nil
}

// Close flushes and shuts down instrumentation.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.instr.Shutdown(ctx); err != nil {
		a.logger.Warn("instrumentation shutdown failed", "error", err)
	}
}

// fail runs err through the failure boundary and returns the recovery
// message as the command error, with the suggested action on stderr.
func (a *app) fail(ctx context.Context, err error) error {
	rec := a.faults.Handle(ctx, err)
	if rec.Action != "" {
		fmt.Fprintf(os.Stderr, "Suggested action: %s\n", rec.Action)
	}
	return errors.New(rec.Message)
}

// requireAuth returns an error when no session is active. Commands that
// only mutate server state call this up front so the user gets a clear
// message instead of a 401.
func (a *app) requireAuth() error {
	if !a.session.Authenticated() {
		return errors.New("not logged in, run 'mailpilot auth login' first")
	}
	return nil
}

func buildLogger(cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}

// promptLine prints label and reads one trimmed line from stdin.
func promptLine(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
