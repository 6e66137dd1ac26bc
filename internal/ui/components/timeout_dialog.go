// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// =============================================================================
// IDLE TIMEOUT DIALOG
// =============================================================================

// TimeoutDialog warns that the session is about to expire for
// inactivity and counts down to the forced logout. Any key press while
// it is visible extends the session.
type TimeoutDialog struct {
	visible  bool
	deadline time.Time
	expired  bool

	width  int
	height int
}

// NewTimeoutDialog creates a hidden dialog.
func NewTimeoutDialog() TimeoutDialog {
	return TimeoutDialog{}
}

// SetSize sets the dialog's centering area.
func (d *TimeoutDialog) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// Show displays the dialog counting down to deadline.
func (d *TimeoutDialog) Show(deadline time.Time) {
	d.visible = true
	d.deadline = deadline
	d.expired = !deadline.After(time.Now())
}

// Hide dismisses the dialog.
func (d *TimeoutDialog) Hide() {
	d.visible = false
	d.expired = false
}

// IsVisible reports whether the dialog is showing.
func (d *TimeoutDialog) IsVisible() bool {
	return d.visible
}

// Remaining returns the time left before forced logout.
func (d *TimeoutDialog) Remaining() time.Duration {
	if !d.visible {
		return 0
	}
	r := time.Until(d.deadline)
	if r < 0 {
		return 0
	}
	return r
}

// =============================================================================
// MESSAGES
// =============================================================================

// CountdownTickMsg drives the dialog's once-per-second redraw.
type CountdownTickMsg struct {
	Time time.Time
}

// SessionExtendedMsg signals the user pressed a key to keep working.
type SessionExtendedMsg struct{}

// CountdownTickCmd schedules the next countdown tick.
func CountdownTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return CountdownTickMsg{Time: t}
	})
}

// Init implements tea.Model conventions (no-op for dialogs).
func (d TimeoutDialog) Init() tea.Cmd {
	return nil
}

// Update handles messages. While visible and not yet expired, any key
// dismisses the dialog and emits SessionExtendedMsg.
func (d TimeoutDialog) Update(msg tea.Msg) (TimeoutDialog, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height

	case tea.KeyMsg:
		if d.visible && !d.expired {
			d.Hide()
			return d, func() tea.Msg { return SessionExtendedMsg{} }
		}

	case CountdownTickMsg:
		if d.visible && !d.deadline.After(msg.Time) {
			d.expired = true
		}
	}
	return d, nil
}

// View renders the dialog, or "" when hidden.
func (d TimeoutDialog) View(theme *styles.Theme) string {
	if !d.visible {
		return ""
	}

	width := d.width
	if width == 0 {
		width = 60
	}
	height := d.height
	if height == 0 {
		height = 24
	}

	maxWidth := width - 8
	if maxWidth < 40 {
		maxWidth = 40
	}
	if maxWidth > 60 {
		maxWidth = 60
	}

	var parts []string
	body := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center)

	if d.expired {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(styles.Rose).Bold(true).Render("Session Expired"),
			"",
			body.Render("You have been signed out due to inactivity."),
			"",
			theme.Muted.Render("Press Enter to return to the sign-in screen"),
		)
	} else {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(styles.Amber).Bold(true).Render("Are you still there?"),
			"",
			body.Render("You will be signed out in "+
				theme.DialogCountdown.Render(FormatCountdown(d.Remaining()))),
			"",
			theme.Muted.Render("Press any key to stay signed in"),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	boxStyle := theme.DialogWarnBox.Width(maxWidth).Align(lipgloss.Center)
	if d.expired {
		boxStyle = boxStyle.BorderForeground(styles.Rose)
	}

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		boxStyle.Render(content),
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

// FormatCountdown formats a duration as M:SS for countdown displays.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}
	totalSecs := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", totalSecs/60, totalSecs%60)
}
