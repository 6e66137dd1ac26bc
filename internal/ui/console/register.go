// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// register form field indices
const (
	regFirstName = iota
	regLastName
	regEmail
	regPassword
	regPhone
	regStreet
	regCity
	regState
	regPincode
	regCountry
	regFieldCount
)

var regLabels = [regFieldCount]string{
	"First name", "Last name", "Email", "Password",
	"Phone", "Street", "City", "State", "Pincode", "Country",
}

// registerView is the account-creation form.
type registerView struct {
	theme *styles.Theme

	inputs [regFieldCount]textinput.Model
	focus  int
	busy   bool
	errMsg string
}

func newRegisterView(theme *styles.Theme) registerView {
	v := registerView{theme: theme}
	for i := range v.inputs {
		in := textinput.New()
		in.Placeholder = strings.ToLower(regLabels[i])
		in.CharLimit = 128
		in.Width = 36
		if i == regPassword {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		v.inputs[i] = in
	}
	v.inputs[0].Focus()
	return v
}

func (v *registerView) reset() {
	for i := range v.inputs {
		v.inputs[i].SetValue("")
		v.inputs[i].Blur()
	}
	v.focus = 0
	v.busy = false
	v.errMsg = ""
	v.inputs[0].Focus()
}

func (v *registerView) setFocus(i int) {
	v.inputs[v.focus].Blur()
	v.focus = (i + regFieldCount) % regFieldCount
	v.inputs[v.focus].Focus()
}

// update handles form input; the bool result means "submit now".
func (v registerView) update(msg tea.Msg, keys KeyMap) (registerView, tea.Cmd, bool) {
	if v.busy {
		return v, nil, false
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch {
		case matches(key, keys.NextField):
			v.setFocus(v.focus + 1)
			return v, nil, false
		case matches(key, keys.PrevField):
			v.setFocus(v.focus - 1)
			return v, nil, false
		case matches(key, keys.Submit):
			if v.focus < regFieldCount-1 {
				v.setFocus(v.focus + 1)
				return v, nil, false
			}
			if err := v.validate(); err != "" {
				v.errMsg = err
				return v, nil, false
			}
			v.errMsg = ""
			v.busy = true
			return v, nil, true
		}
	}

	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return v, cmd, false
}

func (v registerView) validate() string {
	if strings.TrimSpace(v.inputs[regFirstName].Value()) == "" {
		return "First name is required"
	}
	email := strings.TrimSpace(v.inputs[regEmail].Value())
	if email == "" || !strings.Contains(email, "@") {
		return "A valid email is required"
	}
	if len(v.inputs[regPassword].Value()) < 8 {
		return "Password must be at least 8 characters"
	}
	return ""
}

// request builds the registration payload. New accounts always start
// as regular users; roles are granted by an admin afterwards.
func (v registerView) request() api.RegistrationRequest {
	val := func(i int) string { return strings.TrimSpace(v.inputs[i].Value()) }
	return api.RegistrationRequest{
		FirstName:   val(regFirstName),
		LastName:    val(regLastName),
		Email:       val(regEmail),
		Password:    v.inputs[regPassword].Value(),
		PhoneNumber: val(regPhone),
		Address: api.Address{
			Street:  val(regStreet),
			City:    val(regCity),
			State:   val(regState),
			Pincode: val(regPincode),
			Country: val(regCountry),
		},
		City:    val(regCity),
		Pincode: val(regPincode),
		Roles:   []string{"USER"},
	}
}

func (v registerView) view() string {
	var b strings.Builder
	b.WriteString(v.theme.HeaderTitle.Render("Create an account"))
	b.WriteString("\n\n")

	for i := range v.inputs {
		field := v.theme.FormField
		if i == v.focus {
			field = v.theme.FormFieldFocus
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
			v.theme.FormLabel.Render(regLabels[i]),
			field.Render(v.inputs[i].View()),
		))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.busy:
		b.WriteString(v.theme.FormHint.Render("Submitting…"))
	case v.errMsg != "":
		b.WriteString(v.theme.FormError.Render(v.errMsg))
	default:
		b.WriteString(v.theme.FormHint.Render("enter on the last field submits · esc back to sign-in"))
	}
	return b.String()
}
