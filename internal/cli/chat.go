// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the skiff CLI.
//
// Handles "skiff chat", a plain-terminal REPL for conversing with the
// backend. The full TUI lives elsewhere; this is the lightweight mode for
// remote shells and scripts.
//
// Interactive commands:
//   /help, /h       Show available commands
//   /clear, /c      Start a new conversation
//   /history        Show the conversation so far
//   /attach FILE    Attach a file to the next message
//   /quit, /q       Exit chat
//   Ctrl+C          Cancel the current response
//   Ctrl+D          Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/morganforge/skiff/internal/client"
	"github.com/morganforge/skiff/internal/config"
	"github.com/morganforge/skiff/internal/session"
	"github.com/morganforge/skiff/internal/stream"
	"github.com/morganforge/skiff/internal/transcript"
	"github.com/morganforge/skiff/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle  = lipgloss.NewStyle().Foreground(styles.Teal).Bold(true)
	welcomeStyle = lipgloss.NewStyle().Foreground(styles.Indigo).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(styles.TextSecondary)
	errorStyle   = lipgloss.NewStyle().Foreground(styles.Rose)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history loaded from the config dir.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		c.line.WriteHistory(f)
		f.Close()
	}
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the interactive REPL.
func HandleChat(args *Args) {
	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sess, store := openSession(cfg, args)
	if store != nil {
		defer store.Close()
	}

	c := client.New(cfg)
	machine := transcript.New()
	repl := NewChatCLI()
	defer repl.Close()

	if !args.Quiet {
		fmt.Println(welcomeStyle.Render("skiff chat"))
		fmt.Println(infoStyle.Render("Type /help for commands, /quit to exit."))
		fmt.Println()
	}

	pendingAttachment := ""

	for {
		input, err := repl.ReadInput(promptStyle.Render("you › "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue // Ctrl+C at the prompt clears the line
			}
			if errors.Is(err, io.EOF) {
				fmt.Println()
			}
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := runChatCommand(input, machine, &pendingAttachment); quit {
				break
			}
			continue
		}

		attachment := pendingAttachment
		pendingAttachment = ""
		if err := machine.Submit(input, attachment); err != nil {
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
			continue
		}

		runTurn(c, machine, sess, input)

		if store != nil {
			_ = store.SaveTranscript(machine.Export())
		}
	}
}

// runTurn streams one response to stdout. Ctrl+C cancels the response
// without leaving the REPL.
func runTurn(c *client.Client, machine *transcript.Machine, sess *session.Store, prompt string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := c.Stream(ctx, prompt, sess.Get(), func(e stream.Event) {
		switch e.Kind {
		case stream.EventDelta:
			machine.ApplyDelta(e.Text)
			fmt.Print(e.Text)
		case stream.EventSessionID:
			sess.Set(e.Text)
		case stream.EventComplete:
			machine.Finalize("")
			fmt.Println()
		case stream.EventError:
			machine.Fail(e.Text)
			fmt.Println(errorStyle.Render("\nError: " + e.Text))
		}
	})
	if err != nil && ctx.Err() != nil {
		machine.Fail("canceled")
		fmt.Println(infoStyle.Render("\n(canceled)"))
	}
	fmt.Println()
}

// runChatCommand executes a slash command. Returns true to exit the REPL.
func runChatCommand(input string, machine *transcript.Machine, pendingAttachment *string) bool {
	parts := strings.Fields(input)
	switch parts[0] {
	case "/quit", "/q":
		return true

	case "/clear", "/c":
		machine.Reset()
		fmt.Println(infoStyle.Render("Started a new conversation."))

	case "/history":
		for _, v := range machine.Snapshot() {
			label := promptStyle.Render(v.Role.DisplayName())
			fmt.Printf("%s  %s\n%s\n\n", label, infoStyle.Render(v.Timestamp.Format("15:04")), v.Content)
		}

	case "/attach", "/a":
		if len(parts) < 2 {
			fmt.Println(infoStyle.Render("Usage: /attach <file>"))
			break
		}
		*pendingAttachment = filepath.Base(parts[1])
		fmt.Println(infoStyle.Render("Will attach: " + *pendingAttachment))

	case "/help", "/h":
		fmt.Println(infoStyle.Render("/clear  /history  /attach <file>  /quit"))

	default:
		fmt.Println(infoStyle.Render("Unknown command: " + parts[0]))
	}
	return false
}
