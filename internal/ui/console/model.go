// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console implements the ksadmin terminal console: a routed,
// role-gated set of views over the accounts backend, with session
// lifecycle and idle-timeout handling woven through the event loop.
package console

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/config"
	"github.com/ksadmin/ksadmin/internal/export"
	"github.com/ksadmin/ksadmin/internal/idle"
	"github.com/ksadmin/ksadmin/internal/session"
	"github.com/ksadmin/ksadmin/internal/settings"
	"github.com/ksadmin/ksadmin/internal/ui/components"
	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// Deps are the long-lived collaborators the console renders over.
type Deps struct {
	Config   *config.Config
	Session  *session.Store
	Client   *api.Client
	Watcher  *idle.Watcher
	Settings *settings.Service
	Exporter *export.Exporter
}

// Model is the root Bubble Tea model.
type Model struct {
	keys  KeyMap
	theme *styles.Theme

	cfg     *config.Config
	sess    *session.Store
	client  *api.Client
	watcher *idle.Watcher
	prefs   *settings.Service
	export  *export.Exporter

	route     Route
	prevRoute Route

	width  int
	height int

	// Shared chrome
	status  *components.StatusBar
	toasts  *components.ToastManager
	timeout components.TimeoutDialog

	// Views
	login     loginView
	register  registerView
	verify    verifyView
	forgot    forgotView
	dashboard dashboardView
	users     usersView
	detail    userDetailView
	profile   profileView
	settings  settingsView
	help      helpView
}

// New builds the console over its dependencies. The initial route is
// the dashboard when a restored session exists, else the login form.
func New(deps Deps) *Model {
	prefs := deps.Settings.Current()
	theme := styles.NewTheme(prefs)

	m := &Model{
		keys:    DefaultKeyMap(),
		theme:   theme,
		cfg:     deps.Config,
		sess:    deps.Session,
		client:  deps.Client,
		watcher: deps.Watcher,
		prefs:   deps.Settings,
		export:  deps.Exporter,
		status:  components.NewStatusBar(theme),
		toasts:  components.NewToastManager(),
		timeout: components.NewTimeoutDialog(),
	}

	m.login = newLoginView(theme)
	m.register = newRegisterView(theme)
	m.verify = newVerifyView(theme)
	m.forgot = newForgotView(theme)
	m.dashboard = newDashboardView(theme)
	m.users = newUsersView(theme)
	m.detail = newUserDetailView(theme)
	m.profile = newProfileView(theme)
	m.settings = newSettingsView(theme, prefs)
	m.help = newHelpView(theme)

	if deps.Session.Active() {
		m.route = RouteDashboard
	} else {
		m.route = RouteLogin
	}
	return m
}

// Init starts the recurring ticks and, for a restored session, the
// idle watcher and initial data load.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{components.ToastTickCmd()}
	if m.sess.Active() {
		m.watcher.Start()
		m.syncStatusIdentity()
		cmds = append(cmds, m.loadStatsCmd(), components.CountdownTickCmd())
	}
	return tea.Batch(cmds...)
}

// navigate switches routes, enforcing the local guard. Admin routes
// get their data load gated behind the authoritative server check.
func (m *Model) navigate(target Route) tea.Cmd {
	allowed, redirect := CheckGuard(target, m.sess)
	if !allowed {
		if redirect == RouteDenied {
			m.toasts.Warning("You do not have permission to view " + target.String())
		}
		target = redirect
	}

	m.prevRoute = m.route
	m.route = target

	switch target {
	case RouteDashboard:
		return m.loadStatsCmd()
	case RouteUsers:
		m.users.loading = true
		m.users.authorized = false
		return tea.Batch(m.authorizeCmd(RouteUsers), m.users.spin())
	case RouteProfile:
		m.profile.loading = true
		return m.loadProfileCmd(m.sess.Identity().Email)
	case RouteSettings:
		m.settings.reset(m.prefs.Current())
	case RouteHelp:
		m.help.render(m.width)
	}
	return nil
}

// syncStatusIdentity refreshes the status bar's identity segment.
func (m *Model) syncStatusIdentity() {
	if m.sess.Active() {
		m.status.SetIdentity(m.sess.Identity().Username, m.sess.Roles())
		m.status.SetDeadline(m.watcher.Deadline())
	} else {
		m.status.SetIdentity("", nil)
		m.status.SetDeadline(timeZero)
	}
}

// applyTheme rebuilds every view's styles after a settings change.
func (m *Model) applyTheme(prefs settings.Settings) {
	m.theme = styles.NewTheme(prefs)
	m.theme.SetSize(m.width, m.height)
	m.status.SetTheme(m.theme)

	m.login.theme = m.theme
	m.register.theme = m.theme
	m.verify.theme = m.theme
	m.forgot.theme = m.theme
	m.dashboard.theme = m.theme
	m.users.setTheme(m.theme)
	m.detail.theme = m.theme
	m.profile.theme = m.theme
	m.settings.theme = m.theme
	m.help.theme = m.theme
	m.help.render(m.width)
}
