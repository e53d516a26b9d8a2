// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir()) // no files present
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Backend.BaseURL != "http://localhost:8080" {
		t.Errorf("Unexpected default base URL: %q", cfg.Backend.BaseURL)
	}
	if !cfg.Backend.Stream {
		t.Error("Streaming must default to enabled")
	}
	if cfg.ChatURL() != "http://localhost:8080/api/chat" {
		t.Errorf("Unexpected chat URL: %q", cfg.ChatURL())
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	content := `
version = "1"

[backend]
base_url = "https://chat.example.com"
chat_path = "/v1/chat"
model = "small"
stream = false
requests_per_minute = 10
timeout_secs = 30

[ui]
theme = "dark"
markdown = false
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Backend.BaseURL != "https://chat.example.com" {
		t.Errorf("Unexpected base URL: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Stream {
		t.Error("Expected streaming disabled")
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Unexpected theme: %q", cfg.UI.Theme)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SKIFF_BASE_URL", "http://override:9999")
	t.Setenv("SKIFF_MODEL", "env-model")
	t.Setenv("SKIFF_STREAM", "false")

	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://override:9999" {
		t.Errorf("Env override not applied: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Model != "env-model" {
		t.Errorf("Env model not applied: %q", cfg.Backend.Model)
	}
	if cfg.Backend.Stream {
		t.Error("SKIFF_STREAM=false not applied")
	}
}

func TestValidation(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.Backend.BaseURL = "" },
		func(c *Config) { c.Backend.BaseURL = "not a url" },
		func(c *Config) { c.Backend.ChatPath = "nochat" },
		func(c *Config) { c.Backend.RequestsPerMinute = -1 },
		func(c *Config) { c.UI.Theme = "neon" },
	}

	for i, mutate := range bad {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("Case %d: expected validation error", i)
		}
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Default config must validate, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Backend.Model = "round-trip"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Backend.Model != "round-trip" {
		t.Errorf("Expected 'round-trip', got %q", loaded.Backend.Model)
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	if err := cfg.SaveTo(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(dir, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	cfg.Backend.Model = "hot"
	if err := cfg.SaveTo(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-reloaded:
		if c.Backend.Model != "hot" {
			t.Errorf("Expected reloaded model 'hot', got %q", c.Backend.Model)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for reload")
	}
}
