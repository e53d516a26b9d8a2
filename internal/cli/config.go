// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handler for the skiff CLI.
//
// Usage:
//   skiff config              Show current configuration
//   skiff config KEY VALUE    Set a value and save
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/morganforge/skiff/internal/config"
)

// HandleConfig shows or mutates configuration.
func HandleConfig(args *Args) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(args.Raw) == 0 {
		showConfig(cfg)
		return
	}
	if len(args.Raw) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: skiff config [key value]")
		os.Exit(1)
	}

	key, value := args.Raw[0], args.Raw[1]
	if err := setConfigKey(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}

func showConfig(cfg *config.Config) {
	fmt.Printf("base_url             %s\n", cfg.Backend.BaseURL)
	fmt.Printf("chat_path            %s\n", cfg.Backend.ChatPath)
	fmt.Printf("model                %s\n", valueOr(cfg.Backend.Model, "(default)"))
	fmt.Printf("stream               %t\n", cfg.Backend.Stream)
	fmt.Printf("requests_per_minute  %d\n", cfg.Backend.RequestsPerMinute)
	fmt.Printf("timeout_secs         %d\n", cfg.Backend.TimeoutSecs)
	fmt.Printf("theme                %s\n", cfg.UI.Theme)
	fmt.Printf("markdown             %t\n", cfg.UI.Markdown)
}

func setConfigKey(cfg *config.Config, key, value string) error {
	switch key {
	case "base_url":
		cfg.Backend.BaseURL = value
	case "chat_path":
		cfg.Backend.ChatPath = value
	case "model":
		cfg.Backend.Model = value
	case "stream":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("stream must be true or false")
		}
		cfg.Backend.Stream = b
	case "requests_per_minute":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("requests_per_minute must be a number")
		}
		cfg.Backend.RequestsPerMinute = n
	case "timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeout_secs must be a number")
		}
		cfg.Backend.TimeoutSecs = n
	case "theme":
		cfg.UI.Theme = value
	case "markdown":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("markdown must be true or false")
		}
		cfg.UI.Markdown = b
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
