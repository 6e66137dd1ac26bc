// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// forgotStage tracks progress through the three-step reset flow.
type forgotStage int

const (
	forgotEmail forgotStage = iota // collect the account email
	forgotOTP                      // collect the emailed code
	forgotNewPassword              // collect the replacement password
)

// forgotView drives the forgot-password flow: request an OTP, verify
// it, then set a new password.
type forgotView struct {
	theme *styles.Theme

	stage  forgotStage
	email  textinput.Model
	otp    textinput.Model
	pass   textinput.Model
	busy   bool
	errMsg string
}

func newForgotView(theme *styles.Theme) forgotView {
	email := textinput.New()
	email.Placeholder = "account email"
	email.CharLimit = 128
	email.Width = 40

	otp := textinput.New()
	otp.Placeholder = "6-digit code"
	otp.CharLimit = 6
	otp.Width = 12

	pass := textinput.New()
	pass.Placeholder = "new password"
	pass.CharLimit = 128
	pass.Width = 40
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return forgotView{theme: theme, email: email, otp: otp, pass: pass}
}

func (v *forgotView) reset() {
	v.stage = forgotEmail
	v.busy = false
	v.errMsg = ""
	v.email.SetValue("")
	v.otp.SetValue("")
	v.pass.SetValue("")
	v.email.Focus()
	v.otp.Blur()
	v.pass.Blur()
}

// advance moves to the next stage after a successful backend step.
func (v *forgotView) advance() {
	v.busy = false
	v.errMsg = ""
	switch v.stage {
	case forgotEmail:
		v.stage = forgotOTP
		v.email.Blur()
		v.otp.Focus()
	case forgotOTP:
		v.stage = forgotNewPassword
		v.otp.Blur()
		v.pass.Focus()
	}
}

// fail surfaces a step failure and re-enables input.
func (v *forgotView) fail(msg string) {
	v.busy = false
	v.errMsg = msg
}

func (v *forgotView) active() *textinput.Model {
	switch v.stage {
	case forgotEmail:
		return &v.email
	case forgotOTP:
		return &v.otp
	default:
		return &v.pass
	}
}

// update handles input; the bool result means "run this stage's
// backend call".
func (v forgotView) update(msg tea.Msg, keys KeyMap) (forgotView, tea.Cmd, bool) {
	if v.busy {
		return v, nil, false
	}

	if key, ok := msg.(tea.KeyMsg); ok && matches(key, keys.Submit) {
		switch v.stage {
		case forgotEmail:
			if strings.TrimSpace(v.email.Value()) == "" {
				v.errMsg = "Email is required"
				return v, nil, false
			}
		case forgotOTP:
			if len(strings.TrimSpace(v.otp.Value())) != 6 {
				v.errMsg = "Enter the 6-digit code"
				return v, nil, false
			}
		case forgotNewPassword:
			if len(v.pass.Value()) < 8 {
				v.errMsg = "Password must be at least 8 characters"
				return v, nil, false
			}
		}
		v.errMsg = ""
		v.busy = true
		return v, nil, true
	}

	var cmd tea.Cmd
	in := v.active()
	*in, cmd = in.Update(msg)
	return v, cmd, false
}

func (v forgotView) values() (email, otp, password string) {
	return strings.TrimSpace(v.email.Value()),
		strings.TrimSpace(v.otp.Value()),
		v.pass.Value()
}

func (v forgotView) view() string {
	var b strings.Builder
	b.WriteString(v.theme.HeaderTitle.Render("Reset your password"))
	b.WriteString("\n\n")

	steps := []struct {
		label string
		input textinput.Model
		stage forgotStage
	}{
		{"Email", v.email, forgotEmail},
		{"Code", v.otp, forgotOTP},
		{"New password", v.pass, forgotNewPassword},
	}
	for _, s := range steps {
		if v.stage < s.stage {
			continue
		}
		field := v.theme.FormField
		if v.stage == s.stage {
			field = v.theme.FormFieldFocus
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
			v.theme.FormLabel.Render(s.label),
			field.Render(s.input.View()),
		))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.busy:
		b.WriteString(v.theme.FormHint.Render("Working…"))
	case v.errMsg != "":
		b.WriteString(v.theme.FormError.Render(v.errMsg))
	default:
		hints := map[forgotStage]string{
			forgotEmail:       "enter to request a code · esc back to sign-in",
			forgotOTP:         "enter to verify the code",
			forgotNewPassword: "enter to set the new password",
		}
		b.WriteString(v.theme.FormHint.Render(hints[v.stage]))
	}
	return b.String()
}
