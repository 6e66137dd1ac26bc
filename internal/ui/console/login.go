// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// loginView is the sign-in form.
type loginView struct {
	theme *styles.Theme

	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	spinner  spinner.Model
	errMsg   string
}

func newLoginView(theme *styles.Theme) loginView {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 40
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return loginView{theme: theme, email: email, password: password, spinner: sp}
}

// reset clears the form for a fresh sign-in.
func (v *loginView) reset() {
	v.email.SetValue("")
	v.password.SetValue("")
	v.errMsg = ""
	v.busy = false
	v.focus = 0
	v.email.Focus()
	v.password.Blur()
}

func (v *loginView) setFocus(i int) {
	v.focus = i
	if i == 0 {
		v.email.Focus()
		v.password.Blur()
	} else {
		v.email.Blur()
		v.password.Focus()
	}
}

// update handles form input. Returns a submit flag with the entered
// credentials when the user confirms.
func (v loginView) update(msg tea.Msg, keys KeyMap) (loginView, tea.Cmd, bool) {
	if v.busy {
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd, false
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch {
		case matches(key, keys.NextField):
			v.setFocus((v.focus + 1) % 2)
			return v, nil, false
		case matches(key, keys.PrevField):
			v.setFocus((v.focus + 1) % 2)
			return v, nil, false
		case matches(key, keys.Submit):
			if v.focus == 0 {
				v.setFocus(1)
				return v, nil, false
			}
			email := strings.TrimSpace(v.email.Value())
			if email == "" || v.password.Value() == "" {
				v.errMsg = "Email and password are required"
				return v, nil, false
			}
			v.errMsg = ""
			v.busy = true
			return v, v.spinner.Tick, true
		}
	}

	var cmd tea.Cmd
	if v.focus == 0 {
		v.email, cmd = v.email.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd, false
}

func (v loginView) credentials() (string, string) {
	return strings.TrimSpace(v.email.Value()), v.password.Value()
}

func (v loginView) view() string {
	var b strings.Builder
	b.WriteString(v.theme.HeaderTitle.Render("Sign in to ksadmin"))
	b.WriteString("\n\n")

	b.WriteString(v.renderField("Email", v.email, v.focus == 0))
	b.WriteString("\n")
	b.WriteString(v.renderField("Password", v.password, v.focus == 1))
	b.WriteString("\n\n")

	if v.busy {
		b.WriteString(v.spinner.View() + " Signing in…")
	} else if v.errMsg != "" {
		b.WriteString(v.theme.FormError.Render(v.errMsg))
	} else {
		b.WriteString(v.theme.FormHint.Render(
			"enter to sign in · F6 register · F7 forgot password"))
	}
	return b.String()
}

func (v loginView) renderField(label string, input textinput.Model, focused bool) string {
	field := v.theme.FormField
	if focused {
		field = v.theme.FormFieldFocus
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		v.theme.FormLabel.Render(label),
		field.Render(input.View()),
	)
}
