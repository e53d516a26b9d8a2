// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/morganforge/skiff/internal/client"
	"github.com/morganforge/skiff/internal/config"
	"github.com/morganforge/skiff/internal/session"
	"github.com/morganforge/skiff/internal/storage"
	"github.com/morganforge/skiff/internal/stream"
	"github.com/morganforge/skiff/internal/transcript"
	"github.com/morganforge/skiff/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streamed response
	StateError                  // Last turn failed
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
//
// The network goroutine owns the in-flight turn: it applies decoded events
// to the turn machine and session store directly, then nudges the UI loop
// through the events channel. The view only ever renders machine snapshots,
// so a repaint can never observe a half-applied delta.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Wiring
	cfg     *config.Config
	client  *client.Client
	machine *transcript.Machine
	sess    *session.Store
	store   *storage.Store // nil when persistence is disabled

	// Streaming
	buffer *DeltaBuffer
	events chan tea.Msg
	cancel context.CancelFunc

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	// Markdown rendering of finalized messages
	renderer *glamour.TermRenderer

	// Streaming repaint pacing
	tickPending bool

	// Pending attachment for the next submit
	pendingAttachment string

	// Status
	backendOK  bool
	lastError  string
	statusNote string
}

// New creates the chat model. store may be nil to disable persistence.
func New(cfg *config.Config, c *client.Client, m *transcript.Machine, sess *session.Store, store *storage.Store) *Model {
	input := textinput.New()
	input.Placeholder = "Type a message, or /help"
	input.CharLimit = 4096
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	theme := styles.NewTheme(cfg.UI.Theme)
	sp.Style = theme.Spinner

	return &Model{
		state:   StateReady,
		theme:   theme,
		cfg:     cfg,
		client:  c,
		machine: m,
		sess:    sess,
		store:   store,
		buffer:  NewDeltaBuffer(),
		input:   input,
		spinner: sp,
		keyMap:  DefaultKeyMap(),
	}
}

// Init starts the cursor blink and an initial backend probe.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.probeBackend())
}

// =============================================================================
// COMMANDS
// =============================================================================

// startTurn launches the network goroutine for one turn and returns the
// command that waits for its first event. With streaming disabled in
// config the turn goes through the non-streamed request path instead.
func (m *Model) startTurn(prompt string) tea.Cmd {
	if !m.cfg.Backend.Stream {
		return m.completeTurn(prompt)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	events := make(chan tea.Msg, 64)
	m.events = events

	machine, sess, c := m.machine, m.sess, m.client
	go func() {
		err := c.Stream(ctx, prompt, sess.Get(), func(e stream.Event) {
			switch e.Kind {
			case stream.EventDelta:
				machine.ApplyDelta(e.Text)
			case stream.EventSessionID:
				sess.Set(e.Text)
			case stream.EventComplete:
				machine.Finalize("")
			case stream.EventError:
				machine.Fail(e.Text)
			}
			events <- StreamEventMsg{Event: e}
		})
		events <- StreamClosedMsg{Err: err}
		close(events)
	}()

	return waitForEvent(events)
}

// completeTurn performs one non-streamed turn. The single payload applies
// to the machine as a wholesale finalize; the closed message settles the
// UI state exactly as the streamed path does.
func (m *Model) completeTurn(prompt string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	machine, sess, c := m.machine, m.sess, m.client
	return func() tea.Msg {
		res, err := c.Complete(ctx, prompt, sess.Get())
		if err != nil {
			// Cancellation is sealed by the close handler; real
			// failures reflect into the transcript here.
			if ctx.Err() == nil {
				machine.Fail(err.Error())
			}
			return StreamClosedMsg{Err: err}
		}
		if res.SessionID != "" {
			sess.Set(res.SessionID)
		}
		machine.Finalize(res.Text)
		return StreamClosedMsg{}
	}
}

// waitForEvent blocks on the event channel and hands the next message to
// the Bubble Tea loop.
func waitForEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// probeBackend checks reachability in the background.
func (m *Model) probeBackend() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		return BackendStatusMsg{Reachable: c.StatusOK(ctx)}
	}
}

// persistTranscript writes the current conversation to storage, if enabled.
func (m *Model) persistTranscript() {
	if m.store == nil {
		return
	}
	// Persistence failures never interrupt the conversation.
	_ = m.store.SaveTranscript(m.machine.Export())
}

// rebuildRenderer sizes the markdown renderer to the current viewport.
func (m *Model) rebuildRenderer() {
	if !m.cfg.UI.Markdown {
		m.renderer = nil
		return
	}
	wrap := m.width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}
