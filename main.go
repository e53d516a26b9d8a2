// skiff - A terminal chat client for streaming LLM backends.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/skiff/internal/cli"
	"github.com/morganforge/skiff/internal/client"
	"github.com/morganforge/skiff/internal/config"
	"github.com/morganforge/skiff/internal/session"
	"github.com/morganforge/skiff/internal/storage"
	"github.com/morganforge/skiff/internal/transcript"
	"github.com/morganforge/skiff/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdStatus:
		cli.HandleStatus(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdSessions:
		cli.HandleSessions(args)
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		cli.HandleHelp()
		os.Exit(1)
	}
}

// runTUI wires the full stack and hands control to Bubble Tea.
func runTUI(args *cli.Args) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if args.BaseURL != "" {
		cfg.Backend.BaseURL = args.BaseURL
	}
	if args.Model != "" {
		cfg.Backend.Model = args.Model
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Persistence is best-effort: the chat works without a database.
	var store *storage.Store
	sess := session.NewStore()
	if dbPath, err := cfg.DatabasePath(); err == nil {
		if s, err := storage.Open(dbPath); err == nil {
			store = s
			store.SetMaxTranscripts(cfg.Storage.MaxTranscripts)
			defer store.Close()

			if id, ok, _ := store.GetKV(session.StorageKey); ok {
				sess = session.NewStoreWithID(id)
			}
			sess.SetChangeHook(func(id string) {
				_ = store.PutKV(session.StorageKey, id)
			})
		} else if args.Verbose {
			fmt.Fprintf(os.Stderr, "Warning: persistence disabled: %v\n", err)
		}
	}

	machine := transcript.New()
	c := client.New(cfg)
	model := chat.New(cfg, c, machine, sess, store)

	program := tea.NewProgram(model, tea.WithAltScreen())

	// Hot-reload config edits into the running UI.
	if dir, err := config.Dir(); err == nil {
		if w, err := config.NewWatcher(dir, func(fresh *config.Config) {
			program.Send(chat.ConfigReloadedMsg{Config: fresh})
		}); err == nil {
			if err := w.Watch(); err == nil {
				defer w.Close()
			}
		}
	}

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
