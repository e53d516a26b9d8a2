// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Backend status command handler for the skiff CLI.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/skiff/internal/client"
	"github.com/morganforge/skiff/internal/ui/styles"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(styles.Emerald).Bold(true)
	downStyle = lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
)

// HandleStatus probes the backend and prints reachability.
func HandleStatus(args *Args) {
	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := client.New(cfg)
	fmt.Printf("Backend:  %s\n", cfg.ChatURL())
	if cfg.Backend.Model != "" {
		fmt.Printf("Model:    %s\n", cfg.Backend.Model)
	}
	if c.StatusOK(ctx) {
		fmt.Printf("Status:   %s\n", okStyle.Render("reachable"))
		return
	}
	fmt.Printf("Status:   %s\n", downStyle.Render("unreachable"))
	os.Exit(1)
}
