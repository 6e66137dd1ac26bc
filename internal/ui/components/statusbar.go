// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the single-line footer: who is signed in, with which
// roles, how long until the idle deadline, and the key shortcuts for
// the current view.
type StatusBar struct {
	theme *styles.Theme
	width int

	username string
	roles    []string
	deadline time.Time // idle forced-logout instant; zero when not watching

	shortcuts []Shortcut
}

// Shortcut is one key hint shown on the right side of the bar.
type Shortcut struct {
	Key  string
	Desc string
}

// NewStatusBar creates a status bar rendered with theme.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// SetTheme swaps the theme after a settings change.
func (s *StatusBar) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// SetWidth sets the render width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetIdentity sets the signed-in user shown on the left. Empty
// username means signed out.
func (s *StatusBar) SetIdentity(username string, roles []string) {
	s.username = username
	s.roles = append([]string(nil), roles...)
}

// SetDeadline sets the idle forced-logout instant; pass the zero time
// to hide the countdown.
func (s *StatusBar) SetDeadline(deadline time.Time) {
	s.deadline = deadline
}

// SetShortcuts replaces the key hints.
func (s *StatusBar) SetShortcuts(shortcuts []Shortcut) {
	s.shortcuts = shortcuts
}

// Render draws the bar at the configured width.
func (s *StatusBar) Render() string {
	width := s.width
	if width == 0 {
		width = 80
	}

	left := s.renderIdentity()
	right := s.renderShortcuts()

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return s.theme.StatusBar.Width(width).Render(
		left + strings.Repeat(" ", gap) + right,
	)
}

func (s *StatusBar) renderIdentity() string {
	if s.username == "" {
		return s.theme.StatusClock.Render("signed out")
	}

	parts := []string{s.theme.StatusIdent.Render(runewidth.Truncate(s.username, 20, "…"))}
	if len(s.roles) > 0 {
		parts = append(parts, s.theme.StatusRole.Render("["+strings.Join(s.roles, ",")+"]"))
	}
	if !s.deadline.IsZero() {
		remaining := time.Until(s.deadline)
		if remaining > 0 {
			parts = append(parts, s.theme.StatusClock.Render("idle "+FormatCountdown(remaining)))
		}
	}
	return strings.Join(parts, " ")
}

func (s *StatusBar) renderShortcuts() string {
	if len(s.shortcuts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.shortcuts))
	for _, sc := range s.shortcuts {
		parts = append(parts, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	return strings.Join(parts, "  ")
}
