// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/morganforge/skiff/internal/model"
	"github.com/morganforge/skiff/internal/session"
)

// =============================================================================
// STORE TESTS
// =============================================================================

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "skiff.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKVRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, ok, _ := s.GetKV(session.StorageKey); ok {
		t.Fatal("Expected empty store")
	}

	if err := s.PutKV(session.StorageKey, "abc123"); err != nil {
		t.Fatalf("PutKV failed: %v", err)
	}

	got, ok, err := s.GetKV(session.StorageKey)
	if err != nil || !ok || got != "abc123" {
		t.Errorf("GetKV = (%q, %v, %v), want (abc123, true, nil)", got, ok, err)
	}

	// Last write wins.
	s.PutKV(session.StorageKey, "xyz")
	got, _, _ = s.GetKV(session.StorageKey)
	if got != "xyz" {
		t.Errorf("Expected 'xyz', got %q", got)
	}
}

func TestKVDelete(t *testing.T) {
	s := openTestStore(t)
	s.PutKV("k", "v")

	if err := s.DeleteKV("k"); err != nil {
		t.Fatalf("DeleteKV failed: %v", err)
	}
	if _, ok, _ := s.GetKV("k"); ok {
		t.Error("Expected key gone after delete")
	}
	// Deleting a missing key is not an error.
	if err := s.DeleteKV("missing"); err != nil {
		t.Errorf("Deleting missing key failed: %v", err)
	}
}

func TestTranscriptSaveLoad(t *testing.T) {
	s := openTestStore(t)

	tr := model.NewTranscript()
	tr.Append(model.NewUserMessage("hello there"))
	tr.Append(model.NewMessage(model.RoleAssistant, "hi"))

	if err := s.SaveTranscript(tr); err != nil {
		t.Fatalf("SaveTranscript failed: %v", err)
	}

	loaded, err := s.LoadTranscript(tr.ID)
	if err != nil {
		t.Fatalf("LoadTranscript failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Errorf("Expected 2 messages, got %d", loaded.Len())
	}
	if loaded.Messages[0].Content != "hello there" {
		t.Errorf("Unexpected content: %q", loaded.Messages[0].Content)
	}
}

func TestTranscriptNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.LoadTranscript("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTranscript("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on delete, got %v", err)
	}
}

func TestTranscriptListOrderAndPrune(t *testing.T) {
	s := openTestStore(t)
	s.SetMaxTranscripts(3)

	var ids []string
	for i := 0; i < 5; i++ {
		tr := model.NewTranscript()
		tr.Append(model.NewUserMessage("message"))
		if err := s.SaveTranscript(tr); err != nil {
			t.Fatalf("SaveTranscript failed: %v", err)
		}
		ids = append(ids, tr.ID)
	}

	metas, err := s.ListTranscripts()
	if err != nil {
		t.Fatalf("ListTranscripts failed: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("Expected 3 transcripts after pruning, got %d", len(metas))
	}

	// Oldest two were pruned; the survivors are the most recent saves.
	for _, early := range ids[:2] {
		if _, err := s.LoadTranscript(early); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected transcript %s pruned", early)
		}
	}
}

func TestSessionHookPersistence(t *testing.T) {
	s := openTestStore(t)

	// Wiring as done at startup: the session store hands values to storage.
	sess := session.NewStore()
	sess.SetChangeHook(func(id string) {
		s.PutKV(session.StorageKey, id)
	})

	sess.Set("persisted-id")

	got, ok, _ := s.GetKV(session.StorageKey)
	if !ok || got != "persisted-id" {
		t.Errorf("Expected persisted session id, got (%q, %v)", got, ok)
	}
}
