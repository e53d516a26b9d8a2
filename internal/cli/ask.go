// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the skiff CLI.
//
// Handles "skiff ask", which sends one question to the backend and streams
// the response to stdout.
//
// Examples:
//   skiff ask "What is the capital of France?"
//   skiff ask --file main.go "Review this code"
//   skiff ask --no-stream "Summarize in one line"
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"

	"github.com/morganforge/skiff/internal/client"
	"github.com/morganforge/skiff/internal/config"
	"github.com/morganforge/skiff/internal/session"
	"github.com/morganforge/skiff/internal/storage"
	"github.com/morganforge/skiff/internal/stream"
)

// MaxFileSize is the largest attachment included with a question (50KB).
const MaxFileSize = 50 * 1024

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders markdown for terminal display, falling back to the
// raw content if rendering fails.
func renderMarkdown(content string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(TerminalWidth(80)),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAsk executes a single question.
func HandleAsk(args *Args) {
	if strings.TrimSpace(args.Query) == "" {
		fmt.Fprintln(os.Stderr, "Error: ask needs a question")
		fmt.Fprintln(os.Stderr, `Usage: skiff ask "your question"`)
		os.Exit(1)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	prompt := args.Query
	if args.File != "" {
		content, err := readAttachment(args.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		prompt = prompt + "\n\n--- " + args.File + " ---\n" + content
	}

	sess, store := openSession(cfg, args)
	if store != nil {
		defer store.Close()
	}

	c := client.New(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streaming := cfg.Backend.Stream && !args.NoStream
	if !streaming {
		res, err := c.Complete(ctx, prompt, sess.Get())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if res.SessionID != "" {
			sess.Set(res.SessionID)
		}
		printResponse(res.Text, cfg)
		return
	}

	var full strings.Builder
	failed := false
	err = c.Stream(ctx, prompt, sess.Get(), func(e stream.Event) {
		switch e.Kind {
		case stream.EventDelta:
			full.WriteString(e.Text)
			if !IsStdoutTTY() || !cfg.UI.Markdown {
				fmt.Print(e.Text)
			}
		case stream.EventSessionID:
			sess.Set(e.Text)
		case stream.EventError:
			failed = true
			fmt.Fprintf(os.Stderr, "\nError: %s\n", e.Text)
		}
	})
	if err != nil && !failed {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}
	if failed || err != nil {
		os.Exit(1)
	}

	if IsStdoutTTY() && cfg.UI.Markdown {
		fmt.Print(renderMarkdown(full.String()))
	} else {
		fmt.Println()
	}
}

// printResponse writes a complete response, with markdown when stdout is a
// terminal so piped output stays clean.
func printResponse(text string, cfg *config.Config) {
	if IsStdoutTTY() && cfg.UI.Markdown {
		fmt.Print(renderMarkdown(text))
		return
	}
	fmt.Println(text)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads configuration and applies command-line overrides.
func loadConfig(args *Args) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if args.BaseURL != "" {
		cfg.Backend.BaseURL = args.BaseURL
	}
	if args.Model != "" {
		cfg.Backend.Model = args.Model
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession wires a session store backed by persistent storage. When the
// database cannot be opened the session simply stays in memory.
func openSession(cfg *config.Config, args *Args) (*session.Store, *storage.Store) {
	sess := session.NewStore()

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return sess, nil
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		if args.Verbose {
			fmt.Fprintf(os.Stderr, "Warning: persistence disabled: %v\n", err)
		}
		return sess, nil
	}
	store.SetMaxTranscripts(cfg.Storage.MaxTranscripts)

	if id, ok, _ := store.GetKV(session.StorageKey); ok {
		sess = session.NewStoreWithID(id)
	}
	sess.SetChangeHook(func(id string) {
		_ = store.PutKV(session.StorageKey, id)
	})
	return sess, store
}

// readAttachment loads a file for inclusion with a question.
func readAttachment(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%s is too large (%d bytes, max %d)", path, info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return string(data), nil
}
