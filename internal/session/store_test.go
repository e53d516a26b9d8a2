// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "testing"

// =============================================================================
// SESSION STORE TESTS
// =============================================================================

func TestSetLastWriteWins(t *testing.T) {
	s := NewStore()

	s.Set("first")
	s.Set("second")

	if got := s.Get(); got != "second" {
		t.Errorf("Expected 'second', got %q", got)
	}
}

func TestSetEmptyIgnored(t *testing.T) {
	s := NewStoreWithID("keep")
	s.Set("")
	if got := s.Get(); got != "keep" {
		t.Errorf("Empty set must be ignored, got %q", got)
	}
}

func TestChangeHookFires(t *testing.T) {
	s := NewStore()

	var seen []string
	s.SetChangeHook(func(id string) {
		seen = append(seen, id)
	})

	s.Set("a")
	s.Set("a") // identical value, no re-fire
	s.Set("b")

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("Expected hook calls [a b], got %v", seen)
	}
}

func TestClear(t *testing.T) {
	s := NewStoreWithID("x")

	fired := false
	s.SetChangeHook(func(string) { fired = true })

	s.Clear()
	if s.Get() != "" {
		t.Error("Expected cleared store")
	}
	if fired {
		t.Error("Clear must not fire the change hook")
	}
}
