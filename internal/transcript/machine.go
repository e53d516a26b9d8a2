// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript owns the message list and the lifecycle of the single
// in-flight assistant message for one conversation turn.
package transcript

import (
	"errors"
	"sync"
	"time"

	"github.com/morganforge/skiff/internal/model"
)

// Errors returned by turn operations.
var (
	// ErrTurnInFlight is returned by Submit while a previous turn has not
	// reached a terminal phase. Concurrent submits are a caller bug; they
	// are rejected loudly rather than silently reordered.
	ErrTurnInFlight = errors.New("a turn is already in flight")

	// ErrNoTurn is returned by operations that need an in-flight message
	// when none exists.
	ErrNoTurn = errors.New("no turn in flight")
)

// =============================================================================
// PHASES
// =============================================================================

// Phase is the turn lifecycle state.
type Phase int

const (
	// PhaseIdle: no turn in flight; Submit is allowed.
	PhaseIdle Phase = iota
	// PhaseAwaiting: user message appended, placeholder created, no delta yet.
	PhaseAwaiting
	// PhaseStreaming: at least one delta has been applied.
	PhaseStreaming
	// PhaseFinalized: the turn completed normally.
	PhaseFinalized
	// PhaseErrored: the turn ended in a transport failure.
	PhaseErrored
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaiting:
		return "awaiting"
	case PhaseStreaming:
		return "streaming"
	case PhaseFinalized:
		return "finalized"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// terminal reports whether the phase permits a new Submit.
func (p Phase) terminal() bool {
	return p == PhaseIdle || p == PhaseFinalized || p == PhaseErrored
}

// =============================================================================
// TURN MACHINE
// =============================================================================

// Machine applies decode-pipeline events to the transcript. It holds the one
// append target directly rather than searching the message list on every
// delta, which also makes the no-concurrent-submit rule trivial to enforce.
//
// Deltas arrive from the network goroutine while the UI reads snapshots from
// the render loop, so all access is serialized with a mutex.
type Machine struct {
	mu         sync.Mutex
	transcript *model.Transcript
	current    *model.Message
	phase      Phase
}

// New creates a machine with a fresh transcript.
func New() *Machine {
	return &Machine{
		transcript: model.NewTranscript(),
		phase:      PhaseIdle,
	}
}

// Submit starts a turn: appends the user message (annotated when an
// attachment name is given) and the empty assistant placeholder, and moves
// to PhaseAwaiting. This is the single point at which an in-flight message
// comes to exist. A Submit while a turn is in flight returns ErrTurnInFlight.
func (m *Machine) Submit(userText, attachmentName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.phase.terminal() {
		return ErrTurnInFlight
	}

	content := userText
	if attachmentName != "" {
		content += "\n\n[attached: " + attachmentName + "]"
	}

	m.transcript.Append(model.NewUserMessage(content))

	placeholder := model.NewAssistantPlaceholder()
	m.transcript.Append(placeholder)
	m.current = placeholder
	m.phase = PhaseAwaiting
	return nil
}

// ApplyDelta appends text to the in-flight assistant message. Appends are
// strictly ordered by arrival; an empty delta is a no-op. Deltas with no
// turn in flight are dropped (late events from an abandoned stream).
func (m *Machine) ApplyDelta(text string) {
	if text == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.phase.terminal() {
		return
	}
	m.current.AppendChunk(text)
	m.phase = PhaseStreaming
}

// Finalize completes the turn. For a non-streamed response (no delta was
// ever applied) a non-empty fullText replaces the placeholder content
// wholesale; after streaming, fullText is ignored and the streamed content
// is sealed as-is.
func (m *Machine) Finalize(fullText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.phase.terminal() {
		return ErrNoTurn
	}

	if m.phase == PhaseAwaiting && fullText != "" {
		m.current.SetContent(fullText)
	} else {
		m.current.SealStream()
	}

	m.current = nil
	m.phase = PhaseFinalized
	return nil
}

// Fail ends the turn by replacing the in-flight message with a user-facing
// error. The message id is preserved. Deltas already applied are discarded
// with the replacement; messages from earlier turns are untouched.
func (m *Machine) Fail(description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.phase.terminal() {
		return ErrNoTurn
	}

	m.current.MarkError(description)
	m.current = nil
	m.phase = PhaseErrored
	return nil
}

// Reset starts a new conversation: a fresh transcript with a new id and no
// messages. A turn still in flight is abandoned with it, so Reset always
// leaves the machine able to accept the next Submit. Callers that want the
// old conversation keep it by exporting before the reset.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transcript = model.NewTranscript()
	m.current = nil
	m.phase = PhaseIdle
}

// =============================================================================
// READ SIDE
// =============================================================================

// Phase returns the current turn phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// InFlight reports whether a turn is currently receiving events.
func (m *Machine) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.phase.terminal()
}

// MessageView is a point-in-time copy of a message for rendering.
type MessageView struct {
	ID        string
	Role      model.Role
	Content   string
	IsError   bool
	Streaming bool
	Timestamp time.Time
}

// Snapshot returns copies of all messages in display order. Copies are taken
// under the lock so a render never observes a half-applied delta.
func (m *Machine) Snapshot() []MessageView {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make([]MessageView, 0, m.transcript.Len())
	for _, msg := range m.transcript.Messages {
		views = append(views, MessageView{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.DisplayContent(),
			IsError:   msg.IsError,
			Streaming: msg.IsStreaming,
			Timestamp: msg.Timestamp,
		})
	}
	return views
}

// Title returns the transcript title.
func (m *Machine) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcript.GetTitle()
}

// TranscriptID returns the transcript identifier.
func (m *Machine) TranscriptID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcript.ID
}

// Export returns a deep copy of the transcript for persistence.
func (m *Machine) Export() *model.Transcript {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := &model.Transcript{
		ID:        m.transcript.ID,
		Title:     m.transcript.Title,
		CreatedAt: m.transcript.CreatedAt,
		UpdatedAt: m.transcript.UpdatedAt,
		Messages:  make([]*model.Message, 0, m.transcript.Len()),
	}
	for _, msg := range m.transcript.Messages {
		cp := model.NewMessage(msg.Role, msg.DisplayContent())
		cp.ID = msg.ID
		cp.Timestamp = msg.Timestamp
		cp.IsError = msg.IsError
		out.Messages = append(out.Messages, cp)
	}
	return out
}
