// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksadmin/ksadmin/internal/settings"
	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "0:00", FormatCountdown(-time.Second))
	assert.Equal(t, "0:05", FormatCountdown(5*time.Second))
	assert.Equal(t, "0:30", FormatCountdown(30*time.Second))
	assert.Equal(t, "2:05", FormatCountdown(125*time.Second))
}

func TestTimeoutDialog_ShowHide(t *testing.T) {
	d := NewTimeoutDialog()
	assert.False(t, d.IsVisible())
	assert.Zero(t, d.Remaining())

	d.Show(time.Now().Add(30 * time.Second))
	assert.True(t, d.IsVisible())
	assert.Greater(t, d.Remaining(), 25*time.Second)

	d.Hide()
	assert.False(t, d.IsVisible())
}

func TestTimeoutDialog_AnyKeyExtends(t *testing.T) {
	d := NewTimeoutDialog()
	d.Show(time.Now().Add(30 * time.Second))

	d2, cmd := d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.False(t, d2.IsVisible())
	require.NotNil(t, cmd)
	assert.IsType(t, SessionExtendedMsg{}, cmd())
}

func TestTimeoutDialog_KeyIgnoredWhenHidden(t *testing.T) {
	d := NewTimeoutDialog()
	d2, cmd := d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, d2.IsVisible())
	assert.Nil(t, cmd)
}

func TestTimeoutDialog_TickMarksExpired(t *testing.T) {
	d := NewTimeoutDialog()
	deadline := time.Now().Add(-time.Second)
	d.Show(deadline)

	d2, _ := d.Update(CountdownTickMsg{Time: time.Now()})
	assert.True(t, d2.expired)

	// An expired dialog no longer extends on key press.
	d3, cmd := d2.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.True(t, d3.IsVisible())
	assert.Nil(t, cmd)
}

func TestTimeoutDialog_View(t *testing.T) {
	theme := styles.NewTheme(settings.Default())

	d := NewTimeoutDialog()
	assert.Empty(t, d.View(theme))

	d.SetSize(80, 24)
	d.Show(time.Now().Add(30 * time.Second))
	out := d.View(theme)
	assert.Contains(t, out, "still there")
	assert.Contains(t, out, "stay signed in")

	d.Show(time.Now().Add(-time.Second))
	out = d.View(theme)
	assert.Contains(t, out, "Session Expired")
}

func TestStatusBar(t *testing.T) {
	theme := styles.NewTheme(settings.Default())
	bar := NewStatusBar(theme)
	bar.SetWidth(100)

	out := bar.Render()
	assert.Contains(t, out, "signed out")

	bar.SetIdentity("admin", []string{"ADMIN", "USER"})
	bar.SetDeadline(time.Now().Add(90 * time.Second))
	bar.SetShortcuts([]Shortcut{{Key: "q", Desc: "quit"}, {Key: "?", Desc: "help"}})

	out = bar.Render()
	assert.Contains(t, out, "admin")
	assert.Contains(t, out, "ADMIN,USER")
	assert.Contains(t, out, "idle 1:")
	assert.Contains(t, out, "quit")
}
