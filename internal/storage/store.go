// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists transcripts and small key-value state in a local
// SQLite database. From the decode core's point of view this package is an
// external collaborator: the session store hands values over via a hook, the
// core never reads or writes here directly.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/morganforge/skiff/internal/model"
)

// ErrNotFound is returned when a requested transcript does not exist.
var ErrNotFound = errors.New("transcript not found")

// DefaultMaxTranscripts caps stored transcripts; oldest are pruned first.
const DefaultMaxTranscripts = 100

// =============================================================================
// STORE
// =============================================================================

// Store wraps the SQLite database.
type Store struct {
	db             *sql.DB
	maxTranscripts int
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, maxTranscripts: DefaultMaxTranscripts}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// init applies pragmas and creates the schema.
func (s *Store) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS transcripts (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		payload    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_updated
		ON transcripts(updated_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetMaxTranscripts adjusts the prune limit (0 disables pruning).
func (s *Store) SetMaxTranscripts(max int) {
	s.maxTranscripts = max
}

// =============================================================================
// KEY-VALUE STATE
// =============================================================================

// PutKV stores a value under key, replacing any previous value.
func (s *Store) PutKV(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return nil
}

// GetKV returns the value for key and whether it was present.
func (s *Store) GetKV(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, true, nil
}

// DeleteKV removes a key. Missing keys are not an error.
func (s *Store) DeleteKV(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// =============================================================================
// TRANSCRIPT ARCHIVE
// =============================================================================

// TranscriptMeta is the lightweight listing record.
type TranscriptMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SaveTranscript persists a transcript, replacing any previous version, and
// prunes the archive down to the configured maximum.
func (s *Store) SaveTranscript(t *model.Transcript) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO transcripts (id, title, created_at, updated_at, payload)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			payload = excluded.payload`,
		t.ID, t.GetTitle(), t.CreatedAt.UnixMilli(), time.Now().UnixMilli(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	if s.maxTranscripts > 0 {
		s.prune()
	}
	return nil
}

// LoadTranscript retrieves a transcript by id.
func (s *Store) LoadTranscript(id string) (*model.Transcript, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM transcripts WHERE id = ?`, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	var t model.Transcript
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return &t, nil
}

// ListTranscripts returns all archived transcripts, most recent first.
func (s *Store) ListTranscripts() ([]TranscriptMeta, error) {
	rows, err := s.db.Query(
		`SELECT id, title, created_at, updated_at, payload
		 FROM transcripts ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	var metas []TranscriptMeta
	for rows.Next() {
		var (
			meta             TranscriptMeta
			created, updated int64
			payload          string
		)
		if err := rows.Scan(&meta.ID, &meta.Title, &created, &updated, &payload); err != nil {
			return nil, err
		}
		meta.CreatedAt = time.UnixMilli(created)
		meta.UpdatedAt = time.UnixMilli(updated)

		var t model.Transcript
		if err := json.Unmarshal([]byte(payload), &t); err == nil {
			meta.MessageCount = t.Len()
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// DeleteTranscript removes a transcript from the archive.
func (s *Store) DeleteTranscript(id string) error {
	res, err := s.db.Exec(`DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// prune removes the oldest transcripts beyond the configured maximum.
func (s *Store) prune() {
	s.db.Exec(
		`DELETE FROM transcripts WHERE id NOT IN (
			SELECT id FROM transcripts ORDER BY updated_at DESC LIMIT ?
		)`, s.maxTranscripts,
	)
}
