// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ksadmin/ksadmin/internal/ui/components"
)

// View renders the frame: header, the routed body, toasts, status bar,
// and the timeout dialog on top of everything when armed.
func (m *Model) View() string {
	if m.timeout.IsVisible() {
		return m.timeout.View(m.theme)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.theme.Container.Render(m.renderBody()))
	b.WriteString("\n")

	if m.toasts.HasToasts() {
		b.WriteString(components.RenderToastStack(m.theme, m.toasts.Active(), m.width))
		b.WriteString("\n")
	}

	m.status.SetShortcuts(m.shortcutsFor(m.route))
	b.WriteString(m.status.Render())

	return m.theme.App.Render(b.String())
}

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("ksadmin")
	crumb := m.theme.HeaderSubtitle.Render(" › " + m.route.String())
	return m.theme.Header.Render(lipgloss.JoinHorizontal(lipgloss.Center, title, crumb))
}

func (m *Model) renderBody() string {
	switch m.route {
	case RouteLogin:
		return m.login.view()
	case RouteRegister:
		return m.register.view()
	case RouteVerifyAccount:
		return m.verify.view()
	case RouteForgotPassword:
		return m.forgot.view()
	case RouteDashboard:
		return m.dashboard.view()
	case RouteUsers:
		return m.users.view()
	case RouteUserDetail:
		return m.detail.view()
	case RouteProfile:
		return m.profile.view()
	case RouteSettings:
		return m.settings.view()
	case RouteHelp:
		return m.help.view()
	case RouteDenied:
		return m.theme.FormError.Render("Access denied.") + "\n" +
			m.theme.Muted.Render("This area requires the ADMIN role. Press esc to go back.")
	default:
		return ""
	}
}

// shortcutsFor picks the status bar hints for a route.
func (m *Model) shortcutsFor(r Route) []components.Shortcut {
	quit := components.Shortcut{Key: "C-c", Desc: "quit"}
	help := components.Shortcut{Key: "F1", Desc: "help"}

	if !m.sess.Active() {
		return []components.Shortcut{help, quit}
	}

	base := []components.Shortcut{
		{Key: "F2", Desc: "dashboard"},
		{Key: "F3", Desc: "users"},
		{Key: "F4", Desc: "profile"},
		{Key: "F5", Desc: "settings"},
		{Key: "C-l", Desc: "logout"},
	}

	switch r {
	case RouteUsers:
		return append([]components.Shortcut{
			{Key: "/", Desc: "search"},
			{Key: "C-e", Desc: "export"},
			{Key: "C-d", Desc: "delete"},
		}, base...)
	case RouteUserDetail:
		return append([]components.Shortcut{
			{Key: "j", Desc: "raw"},
			{Key: "esc", Desc: "back"},
		}, base...)
	default:
		return append(base, quit)
	}
}
