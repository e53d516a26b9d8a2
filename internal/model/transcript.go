// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript holds the ordered sequence of messages for one conversation.
// Insertion order is display order. The transcript is owned by the turn
// machine; nothing else mutates it.
type Transcript struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Messages  []*Message `json:"messages"`
}

// NewTranscript creates an empty transcript with a generated ID.
func NewTranscript() *Transcript {
	now := time.Now()
	return &Transcript{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg *Message) {
	t.Messages = append(t.Messages, msg)
	t.UpdatedAt = time.Now()
	t.updateTitle()
}

// Last returns the most recent message, or nil if empty.
func (t *Transcript) Last() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}

// ByID returns the message with the given id, or nil.
func (t *Transcript) ByID(id string) *Message {
	for _, msg := range t.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.Messages)
}

// IsEmpty returns true if there are no messages.
func (t *Transcript) IsEmpty() bool {
	return len(t.Messages) == 0
}

// Preview returns a short preview of the transcript.
func (t *Transcript) Preview() string {
	for _, msg := range t.Messages {
		if msg.Role == RoleUser {
			return msg.Preview(100)
		}
	}
	if len(t.Messages) > 0 {
		return t.Messages[0].Preview(100)
	}
	return "Empty conversation"
}

// updateTitle derives a title from the first user message if unset.
func (t *Transcript) updateTitle() {
	if t.Title != "" {
		return
	}
	for _, msg := range t.Messages {
		if msg.Role == RoleUser {
			t.Title = msg.Preview(50)
			return
		}
	}
}

// GetTitle returns the transcript title or a default.
func (t *Transcript) GetTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return "New Conversation"
}
