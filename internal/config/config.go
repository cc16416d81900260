// Package config loads the client configuration: a TOML file under the
// user config directory, an optional .env file, and MAILPILOT_*
// environment overrides, in that order of precedence (env wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// APIConfig points the client at the backend.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// SessionConfig controls where the session credential is persisted.
type SessionConfig struct {
	CredentialsFile string `toml:"credentials_file"`
}

// OAuthConfig holds the provider OAuth application settings used when
// connecting a Gmail or Outlook account from the terminal.
type OAuthConfig struct {
	GmailClientID       string `toml:"gmail_client_id"`
	GmailClientSecret   string `toml:"gmail_client_secret"`
	OutlookClientID     string `toml:"outlook_client_id"`
	OutlookClientSecret string `toml:"outlook_client_secret"`
	RedirectURL         string `toml:"redirect_url"`
}

// MetricsConfig controls the optional metrics endpoint of long-running
// commands.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

type Config struct {
	API     APIConfig     `toml:"api"`
	Log     LogConfig     `toml:"log"`
	Session SessionConfig `toml:"session"`
	OAuth   OAuthConfig   `toml:"oauth"`
	Metrics MetricsConfig `toml:"metrics"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "mailpilot", "config.toml"), nil
}

// Load reads the config file at path (missing file is fine, defaults
// apply) and applies .env and environment overrides on top.
func Load(path string) (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{BaseURL: "http://localhost:8000"},
		Log: LogConfig{Level: "info", Format: "text"},
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.API.BaseURL, "MAILPILOT_API_URL")
	setFromEnv(&cfg.Log.Level, "MAILPILOT_LOG_LEVEL")
	setFromEnv(&cfg.Log.Format, "MAILPILOT_LOG_FORMAT")
	setFromEnv(&cfg.Session.CredentialsFile, "MAILPILOT_CREDENTIALS_FILE")
	setFromEnv(&cfg.OAuth.GmailClientID, "MAILPILOT_GMAIL_CLIENT_ID")
	setFromEnv(&cfg.OAuth.GmailClientSecret, "MAILPILOT_GMAIL_CLIENT_SECRET")
	setFromEnv(&cfg.OAuth.OutlookClientID, "MAILPILOT_OUTLOOK_CLIENT_ID")
	setFromEnv(&cfg.OAuth.OutlookClientSecret, "MAILPILOT_OUTLOOK_CLIENT_SECRET")
	setFromEnv(&cfg.OAuth.RedirectURL, "MAILPILOT_OAUTH_REDIRECT_URL")
	setFromEnv(&cfg.Metrics.Addr, "MAILPILOT_METRICS_ADDR")
}

func setFromEnv(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			*dst = trimmed
		}
	}
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url cannot be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
