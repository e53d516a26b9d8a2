// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in the transcript. The ID is immutable
// once created. Content only grows through AppendChunk until the message is
// sealed, or is replaced wholesale (SetContent, MarkError).
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	Content string `json:"content"`

	// IsError tags a message whose content is a user-facing failure
	// description rather than assistant output.
	IsError bool `json:"is_error,omitempty"`

	// Streaming state (not persisted). Appended fragments accumulate in a
	// builder and are merged into Content when the stream is sealed.
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantPlaceholder creates the empty assistant message that will
// receive streamed deltas.
func NewAssistantPlaceholder() *Message {
	return &Message{
		ID:          uuid.New().String(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendChunk appends a text fragment to a streaming message. Fragments are
// applied strictly in call order; empty fragments are a no-op.
func (m *Message) AppendChunk(text string) {
	if m.IsStreaming && text != "" {
		m.streamContent.WriteString(text)
	}
}

// SealStream merges the streamed fragments into Content and ends streaming.
func (m *Message) SealStream() {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// SetContent replaces the content wholesale and ends streaming. Used for
// non-streamed responses where no delta lifecycle is in effect.
func (m *Message) SetContent(content string) {
	m.streamContent.Reset()
	m.IsStreaming = false
	m.Content = content
}

// MarkError replaces the message with a user-facing error. The ID is kept so
// renderers holding it stay valid.
func (m *Message) MarkError(description string) {
	m.streamContent.Reset()
	m.IsStreaming = false
	m.IsError = true
	m.Content = "Error: " + description
}

// DisplayContent returns the content to display (streaming or final).
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// Preview returns a truncated preview of the message content. Rune-based so
// multi-byte characters are never split.
func (m *Message) Preview(maxLen int) string {
	content := m.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}
