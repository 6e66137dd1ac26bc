// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ksadmin/ksadmin/internal/settings"
	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// settings panel rows
const (
	setDarkMode = iota
	setColor
	setFontSize
	setLanguage
	setDateFormat
	setRowCount
)

// settingsView edits display preferences. Changes apply on save and
// restyle the whole console immediately.
type settingsView struct {
	theme *styles.Theme

	draft    settings.Settings
	row      int
	language textinput.Model
	dateFmt  textinput.Model
	errMsg   string
	saved    bool
}

func newSettingsView(theme *styles.Theme, current settings.Settings) settingsView {
	lang := textinput.New()
	lang.CharLimit = 16
	lang.Width = 12

	date := textinput.New()
	date.CharLimit = 24
	date.Width = 16

	v := settingsView{theme: theme, language: lang, dateFmt: date}
	v.reset(current)
	return v
}

// reset reloads the draft from the active settings.
func (v *settingsView) reset(current settings.Settings) {
	v.draft = current
	v.row = 0
	v.errMsg = ""
	v.saved = false
	v.language.SetValue(current.Language)
	v.dateFmt.SetValue(current.DateFormat)
	v.language.Blur()
	v.dateFmt.Blur()
}

func (v *settingsView) setRow(i int) {
	v.row = (i + setRowCount) % setRowCount
	v.language.Blur()
	v.dateFmt.Blur()
	switch v.row {
	case setLanguage:
		v.language.Focus()
	case setDateFormat:
		v.dateFmt.Focus()
	}
}

func paletteIndex(color string) int {
	for i, c := range settings.Palette {
		if c == color {
			return i
		}
	}
	return 0
}

// settingsAction tells the root model what to do after an update.
type settingsAction int

const (
	settingsNone settingsAction = iota
	settingsSave
	settingsReset
)

func (v settingsView) update(msg tea.Msg, keys KeyMap) (settingsView, tea.Cmd, settingsAction) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil, settingsNone
	}
	v.saved = false

	switch {
	case matches(key, keys.NextField):
		v.setRow(v.row + 1)
		return v, nil, settingsNone
	case matches(key, keys.PrevField):
		v.setRow(v.row - 1)
		return v, nil, settingsNone
	case key.String() == "ctrl+n": // restore defaults
		return v, nil, settingsReset
	case matches(key, keys.Submit):
		v.draft.Language = strings.TrimSpace(v.language.Value())
		v.draft.DateFormat = strings.TrimSpace(v.dateFmt.Value())
		if err := v.draft.Validate(); err != nil {
			v.errMsg = err.Error()
			return v, nil, settingsNone
		}
		v.errMsg = ""
		v.saved = true
		return v, nil, settingsSave
	}

	switch v.row {
	case setDarkMode:
		if key.String() == " " || key.String() == "left" || key.String() == "right" {
			v.draft.DarkMode = !v.draft.DarkMode
		}
	case setColor:
		idx := paletteIndex(v.draft.PrimaryColor)
		switch key.String() {
		case "right", " ":
			v.draft.PrimaryColor = settings.Palette[(idx+1)%len(settings.Palette)]
		case "left":
			v.draft.PrimaryColor = settings.Palette[(idx-1+len(settings.Palette))%len(settings.Palette)]
		}
	case setFontSize:
		switch key.String() {
		case "right", "+":
			if v.draft.FontSize < settings.MaxFontSize {
				v.draft.FontSize++
			}
		case "left", "-":
			if v.draft.FontSize > settings.MinFontSize {
				v.draft.FontSize--
			}
		}
	case setLanguage:
		var cmd tea.Cmd
		v.language, cmd = v.language.Update(msg)
		return v, cmd, settingsNone
	case setDateFormat:
		var cmd tea.Cmd
		v.dateFmt, cmd = v.dateFmt.Update(msg)
		return v, cmd, settingsNone
	}
	return v, nil, settingsNone
}

func (v settingsView) view() string {
	var b strings.Builder
	b.WriteString(v.theme.HeaderTitle.Render("Settings"))
	b.WriteString("\n\n")

	mode := "light"
	if v.draft.DarkMode {
		mode = "dark"
	}

	rows := [setRowCount]struct {
		label string
		value string
	}{
		{"Theme", mode + "  (space toggles)"},
		{"Accent color", v.draft.PrimaryColor + "  (←/→ cycles)"},
		{"Font size", fmt.Sprintf("%d  (←/→ adjusts)", v.draft.FontSize)},
		{"Language", v.language.View()},
		{"Date format", v.dateFmt.View()},
	}

	for i, r := range rows {
		label := v.theme.FormLabel.Render(r.label)
		value := r.value
		if i == v.row {
			value = v.theme.FormFieldFocus.Render(value)
		} else {
			value = v.theme.FormField.Render(value)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, label, value))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.errMsg != "":
		b.WriteString(v.theme.FormError.Render(v.errMsg))
	case v.saved:
		b.WriteString(v.theme.FormHint.Render("Saved"))
	default:
		b.WriteString(v.theme.FormHint.Render("enter saves · C-n restores defaults · esc back"))
	}
	return b.String()
}
