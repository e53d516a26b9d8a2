// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/morganforge/skiff/internal/client"
	"github.com/morganforge/skiff/internal/config"
	"github.com/morganforge/skiff/internal/session"
	"github.com/morganforge/skiff/internal/transcript"
)

// =============================================================================
// UPDATE LOOP TESTS
// =============================================================================

func newTestModel(cfg *config.Config) (*Model, *transcript.Machine, *session.Store) {
	machine := transcript.New()
	sess := session.NewStore()
	return New(cfg, client.New(cfg), machine, sess, nil), machine, sess
}

func TestCanceledTurnSealsAndUnblocksSubmit(t *testing.T) {
	m, machine, _ := newTestModel(config.Default())

	if err := machine.Submit("hello", ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	machine.ApplyDelta("par")
	m.state = StateStreaming

	// A canceled stream returns without a terminal event; the close
	// handler must seal the turn itself.
	m.Update(StreamClosedMsg{Err: context.Canceled})

	if machine.InFlight() {
		t.Fatal("Turn must reach a terminal phase after cancellation")
	}
	if m.state != StateReady {
		t.Errorf("Expected ready state, got %v", m.state)
	}

	views := machine.Snapshot()
	if !views[1].IsError || !strings.Contains(views[1].Content, "canceled") {
		t.Errorf("Canceled turn should be marked, got %+v", views[1])
	}

	if err := machine.Submit("again", ""); err != nil {
		t.Fatalf("Submit after cancellation failed: %v", err)
	}
}

func TestStreamClosedWithoutErrorLeavesStateAlone(t *testing.T) {
	m, machine, _ := newTestModel(config.Default())

	machine.Submit("hello", "")
	machine.ApplyDelta("all of it")
	machine.Finalize("")
	m.state = StateReady

	m.Update(StreamClosedMsg{})

	if m.state != StateReady {
		t.Errorf("Expected ready state, got %v", m.state)
	}
	if m.statusNote == "canceled" {
		t.Error("A finished turn must not be reported as canceled")
	}
}

func TestNonStreamedTurnFinalizesWholesale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"Done","session_id":"x"}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Backend.BaseURL = srv.URL
	cfg.Backend.Stream = false
	cfg.Backend.RequestsPerMinute = 0

	m, machine, sess := newTestModel(cfg)

	if err := machine.Submit("q", ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	m.state = StateStreaming

	cmd := m.startTurn("q")
	msg := cmd()

	closed, ok := msg.(StreamClosedMsg)
	if !ok {
		t.Fatalf("Expected StreamClosedMsg, got %T", msg)
	}
	if closed.Err != nil {
		t.Fatalf("Unexpected error: %v", closed.Err)
	}
	m.Update(closed)

	views := machine.Snapshot()
	if views[1].Content != "Done" {
		t.Errorf("Expected wholesale content 'Done', got %q", views[1].Content)
	}
	if sess.Get() != "x" {
		t.Errorf("Expected session 'x', got %q", sess.Get())
	}
	if m.state != StateReady {
		t.Errorf("Expected ready state, got %v", m.state)
	}
	if machine.InFlight() {
		t.Error("Turn must be finalized")
	}
}

func TestNonStreamedTurnFailureReflectsIntoTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"backend exploded"}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Backend.BaseURL = srv.URL
	cfg.Backend.Stream = false
	cfg.Backend.RequestsPerMinute = 0

	m, machine, _ := newTestModel(cfg)
	machine.Submit("q", "")
	m.state = StateStreaming

	msg := m.startTurn("q")()
	closed, ok := msg.(StreamClosedMsg)
	if !ok {
		t.Fatalf("Expected StreamClosedMsg, got %T", msg)
	}
	if closed.Err == nil {
		t.Fatal("Expected an error")
	}
	m.Update(closed)

	views := machine.Snapshot()
	if !views[1].IsError || !strings.Contains(views[1].Content, "backend exploded") {
		t.Errorf("Failure should reflect into the transcript, got %+v", views[1])
	}
	if m.state != StateError {
		t.Errorf("Expected error state, got %v", m.state)
	}
}
