// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for skiff.
//
// Supports both TOML and JSON formats, with sensible defaults, environment
// variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.skiff/config.toml
//   - ~/.skiff/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/morganforge/skiff/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete skiff configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend configuration
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// BackendConfig describes the chat backend to talk to.
type BackendConfig struct {
	// BaseURL is the backend root, e.g. "http://localhost:8080"
	BaseURL string `toml:"base_url" json:"base_url"`
	// ChatPath is the chat endpoint path appended to BaseURL
	ChatPath string `toml:"chat_path" json:"chat_path"`
	// Model is an optional model hint sent with each request
	Model string `toml:"model" json:"model"`
	// Stream selects streamed responses (the non-streamed path is used
	// when false)
	Stream bool `toml:"stream" json:"stream"`
	// RequestsPerMinute caps outgoing requests (0 = unlimited)
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
	// TimeoutSecs bounds the non-streamed request round trip
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// StorageConfig configures local persistence.
type StorageConfig struct {
	// DatabasePath is the SQLite file (empty = ~/.skiff/skiff.db)
	DatabasePath string `toml:"database_path" json:"database_path"`
	// MaxTranscripts caps archived transcripts (0 = unlimited)
	MaxTranscripts int `toml:"max_transcripts" json:"max_transcripts"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// Theme selects the color theme: "auto", "dark", "light"
	Theme string `toml:"theme" json:"theme"`
	// Markdown renders finalized assistant messages through glamour
	Markdown bool `toml:"markdown" json:"markdown"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			BaseURL:           "http://localhost:8080",
			ChatPath:          "/api/chat",
			Stream:            true,
			RequestsPerMinute: 60,
			TimeoutSecs:       120,
		},
		Storage: StorageConfig{
			MaxTranscripts: 100,
		},
		UI: UIConfig{
			Theme:    "auto",
			Markdown: true,
		},
	}
}

// Dir returns the skiff configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".skiff"), nil
}

// DefaultPath returns the primary (TOML) config file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DatabasePath resolves the storage path, applying the default when unset.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.DatabasePath != "" {
		return c.Storage.DatabasePath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "skiff.db"), nil
}

// ChatURL returns the full chat endpoint URL.
func (c *Config) ChatURL() string {
	return c.Backend.BaseURL + c.Backend.ChatPath
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the default locations, applies environment
// overrides, and validates. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom is Load with an explicit config directory (used in tests).
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()

	tomlPath := filepath.Join(dir, "config.toml")
	jsonPath := filepath.Join(dir, "config.json")

	switch {
	case fileExists(tomlPath):
		if _, err := toml.DecodeFile(tomlPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", tomlPath, err)
		}
	case fileExists(jsonPath):
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", jsonPath, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("SKIFF_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("SKIFF_CHAT_PATH"); v != "" {
		c.Backend.ChatPath = v
	}
	if v := os.Getenv("SKIFF_MODEL"); v != "" {
		c.Backend.Model = v
	}
	if v := os.Getenv("SKIFF_STREAM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Backend.Stream = b
		}
	}
	if v := os.Getenv("SKIFF_DB_PATH"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("SKIFF_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url must not be empty")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not a valid URL", c.Backend.BaseURL)
	}
	if c.Backend.ChatPath == "" || c.Backend.ChatPath[0] != '/' {
		return fmt.Errorf("backend.chat_path %q must start with '/'", c.Backend.ChatPath)
	}
	if c.Backend.RequestsPerMinute < 0 {
		return errors.New("backend.requests_per_minute must not be negative")
	}
	if c.Backend.TimeoutSecs < 0 {
		return errors.New("backend.timeout_secs must not be negative")
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("ui.theme %q must be auto, dark or light", c.UI.Theme)
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration as TOML to the default location.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration as TOML to path, atomically.
func (c *Config) SaveTo(path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
