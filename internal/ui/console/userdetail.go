// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/ui/components"
	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// userDetailView shows one user record, with a raw-JSON inspector for
// admins debugging odd records.
type userDetailView struct {
	theme *styles.Theme

	user    *api.User
	loading bool
	errMsg  string
	showRaw bool

	dateFormat string
}

func newUserDetailView(theme *styles.Theme) userDetailView {
	return userDetailView{theme: theme, dateFormat: "2006-01-02"}
}

func (v *userDetailView) begin(u *api.User) {
	v.user = u
	v.loading = u == nil
	v.errMsg = ""
	v.showRaw = false
}

func (v *userDetailView) setUser(u *api.User) {
	v.user = u
	v.loading = false
	v.errMsg = ""
}

func (v *userDetailView) fail(msg string) {
	v.loading = false
	v.errMsg = msg
}

func (v userDetailView) update(msg tea.Msg) (userDetailView, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if key.String() == "j" {
			v.showRaw = !v.showRaw
		}
	}
	return v, nil
}

func (v userDetailView) view() string {
	var b strings.Builder
	b.WriteString(v.theme.HeaderTitle.Render("User detail"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.theme.Muted.Render("Loading…"))
		return b.String()
	case v.errMsg != "":
		b.WriteString(v.theme.FormError.Render(v.errMsg))
		return b.String()
	case v.user == nil:
		b.WriteString(v.theme.Muted.Render("No user selected"))
		return b.String()
	}

	if v.showRaw {
		b.WriteString(components.RenderJSON(v.user, v.theme.IsDark))
		b.WriteString("\n")
		b.WriteString(v.theme.FormHint.Render("j formatted view · esc back"))
		return b.String()
	}

	u := v.user
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			v.theme.FormLabel.Render(label),
			v.theme.DialogBody.Render(value),
		) + "\n"
	}

	b.WriteString(row("Name", u.DisplayName()))
	b.WriteString(row("Email", u.Email))
	b.WriteString(row("Username", u.Username))
	b.WriteString(row("Roles", strings.Join(u.Roles, ", ")))

	status := v.theme.Badge.Render("inactive")
	if u.Active {
		status = v.theme.BadgeActive.Render("active")
	}
	b.WriteString(row("Status", status))

	if !u.CreatedAt.IsZero() {
		b.WriteString(row("Created", u.CreatedAt.Format(v.dateFormat)))
	}
	if u.IsAccountVerificationPending != nil && *u.IsAccountVerificationPending {
		b.WriteString(row("Verification", "pending"))
	}
	if p := u.Profile; p != nil {
		b.WriteString(row("Phone", p.PhoneNumber))
		addr := strings.TrimSpace(strings.Join([]string{
			p.Address.Street, p.Address.City, p.Address.State, p.Address.Pincode, p.Address.Country,
		}, " "))
		b.WriteString(row("Address", addr))
	}

	b.WriteString("\n")
	b.WriteString(v.theme.FormHint.Render("j raw record · esc back to list"))
	return b.String()
}
