package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultServerURL is used until the user points the CLI elsewhere.
const DefaultServerURL = "http://localhost:8080"

// Client is the clip CLI's persisted state.
type Client struct {
	// ServerURL is the backend the CLI talks to.
	ServerURL string `json:"server_url"`

	// Token is the session token from the last successful sign-in.
	// Empty means signed out.
	Token string `json:"token,omitempty"`
}

// DefaultClient returns the configuration used when no file exists.
func DefaultClient() *Client {
	return &Client{ServerURL: DefaultServerURL}
}

// DefaultClientDir is ~/.config/global-clipboard (or the platform
// equivalent).
func DefaultClientDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locating user config dir: %w", err)
	}
	return filepath.Join(dir, "global-clipboard"), nil
}

// LoadClient loads baseDir/config.json.
// Returns the default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir().
func LoadClient(baseDir string) (*Client, error) {
	cfg := DefaultClient()

	data, err := os.ReadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading client config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing client config: %w", err)
	}
	cfg.ServerURL = strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	return cfg, nil
}

// SaveClient writes cfg to baseDir/config.json, creating the directory.
// The file holds a bearer token, so it is only readable by the owner.
func SaveClient(baseDir string, cfg *Client) error {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return fmt.Errorf("config: creating %s: %w", baseDir, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encoding client config: %w", err)
	}

	path := filepath.Join(baseDir, "config.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("config: writing client config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("config: replacing client config: %w", err)
	}
	return nil
}
