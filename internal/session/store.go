// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the process-wide backend session identifier.
package session

import "sync"

// StorageKey is the fixed key under which the persistence collaborator
// stores the session identifier.
const StorageKey = "chat_session_id"

// =============================================================================
// SESSION STORE
// =============================================================================

// Store holds the optional opaque session identifier extracted from stream
// records. Writes are last-write-wins; the store itself never touches
// persistence, it only hands new values to the registered hook.
type Store struct {
	mu       sync.Mutex
	id       string
	onChange func(id string)
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWithID creates a store seeded with a previously persisted value.
func NewStoreWithID(id string) *Store {
	return &Store{id: id}
}

// Get returns the current session id, or "" if none has been seen.
func (s *Store) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Set records a new session id. Empty values are ignored; identical values
// do not re-fire the hook. The hook runs outside the lock.
func (s *Store) Set(id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	if id == s.id {
		s.mu.Unlock()
		return
	}
	s.id = id
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook(id)
	}
}

// Clear drops the session id without firing the hook.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
}

// SetChangeHook registers the persistence collaborator. Only one hook is
// held; later registrations replace earlier ones.
func (s *Store) SetChangeHook(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}
