// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Saved conversation listing for the skiff CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/morganforge/skiff/internal/storage"
	"github.com/morganforge/skiff/internal/util"
)

// HandleSessions lists saved conversations, newest first.
func HandleSessions(args *Args) {
	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	metas, err := store.ListTranscripts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(metas) == 0 {
		fmt.Println("No saved conversations.")
		return
	}

	for _, m := range metas {
		title := util.TruncateRunes(m.Title, 60)
		fmt.Printf("%s  %s  %s\n", shortID(m.ID), m.UpdatedAt.Format("2006-01-02 15:04"), title)
	}
}

// shortID abbreviates a transcript id for listing. IDs are uuids when
// written by this program, but the database contents are not guaranteed.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
