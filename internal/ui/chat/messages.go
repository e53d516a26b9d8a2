// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat
// interface. Messages are organized into the following categories:
//   - Streaming: event delivery, turn completion, render ticks
//   - Config: hot-reloaded configuration
//   - UI State: connectivity
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"time"

	"github.com/morganforge/skiff/internal/config"
	"github.com/morganforge/skiff/internal/stream"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamEventMsg delivers one decoded stream event to the UI loop. The
// event has already been applied to the turn machine by the network
// goroutine; the UI only needs to refresh what it shows.
type StreamEventMsg struct {
	Event stream.Event
}

// StreamClosedMsg signals that the network goroutine has returned.
type StreamClosedMsg struct {
	Err error
}

// RenderTickMsg paces viewport refreshes while deltas arrive faster than
// the terminal can usefully repaint.
type RenderTickMsg struct {
	At time.Time
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a freshly reloaded configuration.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// BackendStatusMsg reports backend reachability from a background probe.
type BackendStatusMsg struct {
	Reachable bool
}
