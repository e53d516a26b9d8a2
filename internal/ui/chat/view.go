// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/skiff/internal/model"
	"github.com/morganforge/skiff/internal/transcript"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// refreshViewport re-renders the conversation into the viewport and keeps
// the latest content visible.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderConversation())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// SECTIONS
// =============================================================================

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("skiff")
	meta := ""
	if t := m.machine.Title(); t != "" {
		meta = m.theme.HeaderMeta.Render("  " + t)
	}
	return m.theme.Header.Width(m.width).Render(title + meta)
}

func (m *Model) renderConversation() string {
	views := m.machine.Snapshot()
	if len(views) == 0 {
		return m.theme.ThinkingText.Render("Start the conversation below.")
	}

	blocks := make([]string, 0, len(views))
	for _, v := range views {
		blocks = append(blocks, m.renderMessage(v))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(v transcript.MessageView) string {
	var label string
	switch v.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(v.Role.DisplayName())
	case model.RoleAssistant:
		label = m.theme.AssistantLabel.Render(v.Role.DisplayName())
	default:
		label = m.theme.SystemLabel.Render(v.Role.DisplayName())
	}
	stamp := m.theme.Timestamp.Render(v.Timestamp.Format("15:04"))
	header := label + " " + stamp

	body := v.Content
	switch {
	case v.IsError:
		body = m.theme.ErrorBody.Render(body)
	case v.Streaming:
		// Raw text with a block cursor while tokens arrive; markdown waits
		// for the seal.
		if body == "" {
			body = m.spinner.View() + m.theme.ThinkingText.Render(" thinking")
		} else {
			body = m.theme.MessageBody.Render(body + "▌")
		}
	case v.Role == model.RoleAssistant && m.renderer != nil:
		if rendered, err := m.renderer.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		} else {
			body = m.theme.MessageBody.Render(body)
		}
	default:
		body = m.theme.MessageBody.Render(body)
	}

	return header + "\n" + body
}

func (m *Model) renderInput() string {
	prompt := m.theme.InputPrompt.Render("› ")
	return m.theme.InputContainer.Width(m.width - 2).Render(prompt + m.input.View())
}

func (m *Model) renderStatusBar() string {
	var left string
	switch m.state {
	case StateStreaming:
		left = m.theme.StatusBusy.Render("● streaming")
	case StateError:
		left = m.theme.StatusError.Render("● " + firstLine(m.lastError))
	default:
		if m.backendOK {
			left = m.theme.StatusOK.Render("● connected")
		} else {
			left = m.theme.StatusBusy.Render("○ backend unreachable")
		}
	}

	if m.statusNote != "" {
		left += m.theme.ShortcutDesc.Render("  " + m.statusNote)
	}

	right := m.theme.ShortcutKey.Render("enter") + m.theme.ShortcutDesc.Render(" send  ") +
		m.theme.ShortcutKey.Render("esc") + m.theme.ShortcutDesc.Render(" cancel  ") +
		m.theme.ShortcutKey.Render("ctrl+c") + m.theme.ShortcutDesc.Render(" quit")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// firstLine trims an error to something the status bar can hold.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
