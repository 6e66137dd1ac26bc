// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ksadmin/ksadmin/internal/settings"
)

func TestAccent_KnownAndFallback(t *testing.T) {
	assert.Equal(t, Accents["teal"], Accent("teal"))
	assert.Equal(t, Accents["indigo"], Accent("no-such-color"))
}

func TestAccents_CoverSettingsPalette(t *testing.T) {
	for _, name := range settings.Palette {
		_, ok := Accents[name]
		assert.True(t, ok, "palette color %q has no accent mapping", name)
	}
}

func TestNewTheme(t *testing.T) {
	prefs := settings.Default()
	prefs.PrimaryColor = "rose"

	theme := NewTheme(prefs)
	assert.True(t, theme.IsDark)
	assert.Equal(t, "rose", theme.AccentName)
}

func TestLayoutMode(t *testing.T) {
	theme := NewTheme(settings.Default())

	theme.SetSize(60, 24)
	assert.Equal(t, LayoutNarrow, theme.GetLayoutMode())

	theme.SetSize(100, 30)
	assert.Equal(t, LayoutNormal, theme.GetLayoutMode())

	theme.SetSize(160, 40)
	assert.Equal(t, LayoutWide, theme.GetLayoutMode())
}
