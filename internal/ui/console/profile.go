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

// profile form field indices
const (
	profFirstName = iota
	profLastName
	profPhone
	profStreet
	profCity
	profState
	profPincode
	profCountry
	profFieldCount
)

var profLabels = [profFieldCount]string{
	"First name", "Last name", "Phone",
	"Street", "City", "State", "Pincode", "Country",
}

// profileView lets the signed-in user edit their own record.
type profileView struct {
	theme *styles.Theme

	user    *api.User
	inputs  [profFieldCount]textinput.Model
	focus   int
	loading bool
	busy    bool
	errMsg  string
}

func newProfileView(theme *styles.Theme) profileView {
	v := profileView{theme: theme, loading: true}
	for i := range v.inputs {
		in := textinput.New()
		in.CharLimit = 128
		in.Width = 36
		v.inputs[i] = in
	}
	return v
}

// setUser fills the form from the loaded record.
func (v *profileView) setUser(u *api.User) {
	v.user = u
	v.loading = false
	v.busy = false
	v.errMsg = ""

	p := u.Profile
	if p == nil {
		p = &api.Profile{}
	}
	values := [profFieldCount]string{
		p.FirstName, p.LastName, p.PhoneNumber,
		p.Address.Street, p.Address.City, p.Address.State,
		p.Address.Pincode, p.Address.Country,
	}
	for i := range v.inputs {
		v.inputs[i].SetValue(values[i])
		v.inputs[i].Blur()
	}
	v.focus = 0
	v.inputs[0].Focus()
}

func (v *profileView) fail(msg string) {
	v.loading = false
	v.busy = false
	v.errMsg = msg
}

func (v *profileView) setFocus(i int) {
	v.inputs[v.focus].Blur()
	v.focus = (i + profFieldCount) % profFieldCount
	v.inputs[v.focus].Focus()
}

// update handles input; the bool result means "save now".
func (v profileView) update(msg tea.Msg, keys KeyMap) (profileView, tea.Cmd, bool) {
	if v.loading || v.busy {
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
			if v.focus < profFieldCount-1 {
				v.setFocus(v.focus + 1)
				return v, nil, false
			}
			v.busy = true
			v.errMsg = ""
			return v, nil, true
		}
	}

	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return v, cmd, false
}

// updated returns the record with the form's edits applied.
func (v profileView) updated() api.User {
	u := *v.user
	p := api.Profile{}
	if u.Profile != nil {
		p = *u.Profile
	}
	val := func(i int) string { return strings.TrimSpace(v.inputs[i].Value()) }
	p.FirstName = val(profFirstName)
	p.LastName = val(profLastName)
	p.PhoneNumber = val(profPhone)
	p.Address = api.Address{
		Street:  val(profStreet),
		City:    val(profCity),
		State:   val(profState),
		Pincode: val(profPincode),
		Country: val(profCountry),
	}
	u.Profile = &p
	return u
}

func (v profileView) view() string {
	var b strings.Builder
	b.WriteString(v.theme.HeaderTitle.Render("My profile"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.theme.Muted.Render("Loading profile…"))
		return b.String()
	case v.user == nil:
		b.WriteString(v.theme.FormError.Render(v.errMsg))
		return b.String()
	}

	b.WriteString(v.theme.Muted.Render(v.user.Email))
	b.WriteString("\n\n")

	for i := range v.inputs {
		field := v.theme.FormField
		if i == v.focus {
			field = v.theme.FormFieldFocus
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
			v.theme.FormLabel.Render(profLabels[i]),
			field.Render(v.inputs[i].View()),
		))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.busy:
		b.WriteString(v.theme.FormHint.Render("Saving…"))
	case v.errMsg != "":
		b.WriteString(v.theme.FormError.Render(v.errMsg))
	default:
		b.WriteString(v.theme.FormHint.Render("enter on the last field saves · esc back"))
	}
	return b.String()
}
