// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/skiff/internal/stream"
	"github.com/morganforge/skiff/internal/transcript"
	"github.com/morganforge/skiff/internal/ui/styles"
)

const (
	// renderInterval paces viewport repaints during streaming.
	renderInterval = 33 * time.Millisecond

	// probeTimeout bounds the background reachability check.
	probeTimeout = 3 * time.Second
)

// Update is the Bubble Tea update loop for the chat view.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		return m.handleStreamEvent(msg.Event)

	case StreamClosedMsg:
		return m.handleStreamClosed(msg.Err)

	case RenderTickMsg:
		return m.handleRenderTick()

	case BackendStatusMsg:
		m.backendOK = msg.Reachable
		return m, nil

	case ConfigReloadedMsg:
		m.cfg = msg.Config
		m.theme = styles.NewTheme(m.cfg.UI.Theme)
		m.rebuildRenderer()
		m.refreshViewport()
		m.statusNote = "config reloaded"
		return m, nil

	case spinner.TickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateComponents(msg)
}

// =============================================================================
// RESIZE
// =============================================================================

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.Resize(msg.Width, msg.Height)

	headerHeight := 1
	inputHeight := 3
	statusHeight := 1
	vpHeight := msg.Height - headerHeight - inputHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.Width = msg.Width - 6

	m.rebuildRenderer()
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		m.persistTranscript()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.state == StateStreaming && m.cancel != nil {
			m.cancel()
			m.statusNote = "canceled"
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.NewChat):
		if m.state != StateStreaming {
			m.persistTranscript()
			m.machine.Reset()
			m.sess.Clear()
			m.lastError = ""
			m.state = StateReady
			m.refreshViewport()
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, "/") {
		return m.handleCommand(text)
	}
	if m.state == StateStreaming {
		m.statusNote = "still responding, esc to cancel"
		return m, nil
	}

	attachment := m.pendingAttachment
	m.pendingAttachment = ""

	if err := m.machine.Submit(text, attachment); err != nil {
		if errors.Is(err, transcript.ErrTurnInFlight) {
			m.statusNote = "still responding, esc to cancel"
			return m, nil
		}
		m.lastError = err.Error()
		m.state = StateError
		return m, nil
	}

	m.input.Reset()
	m.state = StateStreaming
	m.lastError = ""
	m.statusNote = ""
	m.refreshViewport()

	return m, tea.Batch(m.startTurn(text), m.spinner.Tick)
}

// handleCommand dispatches slash commands typed into the input.
func (m *Model) handleCommand(text string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(text)
	cmd, args := parts[0], parts[1:]
	m.input.Reset()

	switch cmd {
	case "/quit", "/q":
		if m.cancel != nil {
			m.cancel()
		}
		m.persistTranscript()
		return m, tea.Quit

	case "/clear", "/c":
		if m.state != StateStreaming {
			m.persistTranscript()
			m.machine.Reset()
			m.sess.Clear()
			m.lastError = ""
			m.state = StateReady
			m.refreshViewport()
		}
		return m, nil

	case "/attach", "/a":
		if len(args) == 0 {
			m.statusNote = "usage: /attach <file>"
			return m, nil
		}
		m.pendingAttachment = filepath.Base(args[0])
		m.statusNote = "attached: " + m.pendingAttachment
		return m, nil

	case "/help", "/h":
		m.statusNote = "/clear new conversation · /attach <file> · /quit"
		return m, nil

	default:
		m.statusNote = "unknown command: " + cmd
		return m, nil
	}
}

// =============================================================================
// STREAMING
// =============================================================================

func (m *Model) handleStreamEvent(e stream.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForEvent(m.events)}

	switch e.Kind {
	case stream.EventDelta:
		// The machine already holds the delta; buffer it only to pace
		// repaints.
		m.buffer.Write(e.Text)
		if !m.tickPending {
			m.tickPending = true
			cmds = append(cmds, renderTick())
		}

	case stream.EventComplete:
		m.buffer.Drain()
		m.state = StateReady
		m.refreshViewport()
		m.persistTranscript()

	case stream.EventError:
		m.buffer.Drain()
		m.state = StateError
		m.lastError = e.Text
		m.refreshViewport()
		m.persistTranscript()
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleStreamClosed(err error) (tea.Model, tea.Cmd) {
	m.cancel = nil
	m.events = nil
	m.buffer.Drain()

	// Cancellation surfaces here without a terminal event. The turn must
	// still reach a terminal phase or the machine rejects every later
	// submit, so seal it the way the REPL does.
	if m.machine.InFlight() {
		m.machine.Fail("canceled")
		m.statusNote = "canceled"
	}

	if m.state == StateStreaming {
		m.state = StateReady
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		m.state = StateError
		m.lastError = firstLine(err.Error())
	}
	m.refreshViewport()
	m.persistTranscript()
	return m, nil
}

func (m *Model) handleRenderTick() (tea.Model, tea.Cmd) {
	m.tickPending = false

	if _, ok := m.buffer.Flush(); ok {
		m.refreshViewport()
	}
	if m.state == StateStreaming && m.buffer.Pending() {
		m.tickPending = true
		return m, renderTick()
	}
	return m, nil
}

func renderTick() tea.Cmd {
	return tea.Tick(renderInterval, func(t time.Time) tea.Msg {
		return RenderTickMsg{At: t}
	})
}

// =============================================================================
// COMPONENT PASSTHROUGH
// =============================================================================

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}
