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

// verifyView collects the emailed OTP that activates a pending
// account. Reached when a login reports verification-pending or right
// after registration.
type verifyView struct {
	theme *styles.Theme

	email  string
	otp    textinput.Model
	busy   bool
	errMsg string
	notice string
}

func newVerifyView(theme *styles.Theme) verifyView {
	otp := textinput.New()
	otp.Placeholder = "6-digit code"
	otp.CharLimit = 6
	otp.Width = 12
	return verifyView{theme: theme, otp: otp}
}

// begin primes the view for an email and an optional notice line.
func (v *verifyView) begin(email, notice string) {
	v.email = email
	v.notice = notice
	v.errMsg = ""
	v.busy = false
	v.otp.SetValue("")
	v.otp.Focus()
}

// update handles input; the bool result means "verify now".
func (v verifyView) update(msg tea.Msg, keys KeyMap) (verifyView, tea.Cmd, bool) {
	if v.busy {
		return v, nil, false
	}

	if key, ok := msg.(tea.KeyMsg); ok && matches(key, keys.Submit) {
		code := strings.TrimSpace(v.otp.Value())
		if len(code) != 6 {
			v.errMsg = "Enter the 6-digit code from your email"
			return v, nil, false
		}
		v.errMsg = ""
		v.busy = true
		return v, nil, true
	}

	var cmd tea.Cmd
	v.otp, cmd = v.otp.Update(msg)
	return v, cmd, false
}

func (v verifyView) code() string {
	return strings.TrimSpace(v.otp.Value())
}

func (v verifyView) view() string {
	var b strings.Builder
	b.WriteString(v.theme.HeaderTitle.Render("Verify your account"))
	b.WriteString("\n\n")
	if v.notice != "" {
		b.WriteString(v.theme.DialogBody.Render(v.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(v.theme.DialogBody.Render("A one-time code was sent to " + v.email))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
		v.theme.FormLabel.Render("Code"),
		v.theme.FormFieldFocus.Render(v.otp.View()),
	))
	b.WriteString("\n\n")

	switch {
	case v.busy:
		b.WriteString(v.theme.FormHint.Render("Verifying…"))
	case v.errMsg != "":
		b.WriteString(v.theme.FormError.Render(v.errMsg))
	default:
		b.WriteString(v.theme.FormHint.Render("enter to verify · esc back to sign-in"))
	}
	return b.String()
}
