// Package config loads runtime settings for both binaries.
//
// The server is configured from environment variables with sane defaults.
// The clip CLI keeps a small JSON file in the user's config directory that
// remembers which server to talk to and the session token.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server keeps runtime settings for cmd/server.
type Server struct {
	Port        int
	DBPath      string
	TemplateDir string
	StaticDir   string

	// JWTSecret signs session tokens. Required.
	JWTSecret string
	TokenTTL  time.Duration

	// BaseURL is the externally visible address, used to build the
	// confirmation link and the default GitHub callback.
	BaseURL string

	// AutoConfirm marks email sign-ups confirmed immediately. Development only.
	AutoConfirm bool

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// PurgeInterval is how often unconfirmed sign-ups older than
	// UnconfirmedTTL are removed. Zero disables the purge job.
	PurgeInterval  time.Duration
	UnconfirmedTTL time.Duration

	LogLevel slog.Level
}

// GitHubEnabled reports whether the OAuth routes should be registered.
func (c Server) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Addr is the listen address.
func (c Server) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadServer reads configuration from environment variables.
func LoadServer() (Server, error) {
	cfg := Server{
		Port:               8080,
		DBPath:             "data/clipboard.db",
		TemplateDir:        "web/templates",
		StaticDir:          "web/static",
		JWTSecret:          env("JWT_SECRET"),
		TokenTTL:           7 * 24 * time.Hour,
		GitHubClientID:     env("GITHUB_CLIENT_ID"),
		GitHubClientSecret: env("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  env("GITHUB_CALLBACK_URL"),
		PurgeInterval:      time.Hour,
		UnconfirmedTTL:     48 * time.Hour,
		LogLevel:           slog.LevelInfo,
	}

	if v := env("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return cfg, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := env("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := env("TEMPLATE_DIR"); v != "" {
		cfg.TemplateDir = v
	}
	if v := env("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", cfg.TokenTTL); err != nil {
		return cfg, err
	}
	if cfg.PurgeInterval, err = durationEnv("PURGE_INTERVAL", cfg.PurgeInterval); err != nil {
		return cfg, err
	}
	if cfg.UnconfirmedTTL, err = durationEnv("UNCONFIRMED_TTL", cfg.UnconfirmedTTL); err != nil {
		return cfg, err
	}

	if v := env("AUTO_CONFIRM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("config: invalid AUTO_CONFIRM %q", v)
		}
		cfg.AutoConfirm = b
	}

	if v := env("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return cfg, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
	}

	cfg.BaseURL = strings.TrimRight(env("BASE_URL"), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = cfg.BaseURL + "/auth/github/callback"
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("config: JWT_SECRET is required")
	}
	if cfg.TokenTTL <= 0 {
		return cfg, fmt.Errorf("config: TOKEN_TTL must be positive")
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// durationEnv accepts Go durations ("90m", "48h").
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return def, fmt.Errorf("config: invalid %s %q", key, raw)
	}
	return d, nil
}
