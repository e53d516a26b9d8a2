// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects the
// terminal's color capability once at startup and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	MessageBody    lipgloss.Style
	ErrorBody      lipgloss.Style
	Timestamp      lipgloss.Style
	Attachment     lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusOK     lipgloss.Style
	StatusBusy   lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// SPINNER STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
}

// NewTheme creates a theme tuned to the current terminal. The forced mode
// from configuration ("dark", "light") overrides background detection;
// "auto" or empty asks termenv.
func NewTheme(mode string) *Theme {
	output := termenv.DefaultOutput()

	isDark := output.HasDarkBackground()
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: output.Profile,
	}
	t.build()
	return t
}

// build populates every style from the shared palette.
func (t *Theme) build() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)
	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)
	t.SystemLabel = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
	t.MessageBody = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.ErrorBody = lipgloss.NewStyle().
		Foreground(Rose)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.Attachment = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)
	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusOK = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusBusy = lipgloss.NewStyle().Foreground(Amber)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Teal)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().Foreground(Indigo)
	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)
}

// Resize records the current terminal dimensions on the theme.
func (t *Theme) Resize(width, height int) {
	t.Width = width
	t.Height = height
}
