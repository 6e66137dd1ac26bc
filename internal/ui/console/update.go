// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/session"
	"github.com/ksadmin/ksadmin/internal/ui/components"
)

var timeZero time.Time

// matches reports whether a key event matches a binding.
func matches(msg tea.KeyMsg, b key.Binding) bool {
	return key.Matches(msg, b)
}

// friendlyError turns API failures into messages fit for a toast or a
// form's error line.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "Not authorized"
	case errors.Is(err, api.ErrForbidden):
		return "Permission denied"
	case errors.Is(err, api.ErrNotFound):
		return "Not found"
	case errors.Is(err, api.ErrConflict):
		return "The request was rejected"
	case errors.Is(err, api.ErrRateLimited):
		return "Too many attempts, try again shortly"
	case errors.Is(err, api.ErrUnavailable):
		return "The server is unreachable"
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out"
	default:
		return err.Error()
	}
}

// Update is the root event loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	// -------------------------------------------------------------------------
	// Recurring ticks
	// -------------------------------------------------------------------------

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case components.CountdownTickMsg:
		var cmd tea.Cmd
		m.timeout, cmd = m.timeout.Update(msg)
		if m.sess.Active() {
			m.status.SetDeadline(m.watcher.Deadline())
			return m, tea.Batch(cmd, components.CountdownTickCmd())
		}
		return m, cmd

	// -------------------------------------------------------------------------
	// Session lifecycle
	// -------------------------------------------------------------------------

	case IdleWarningMsg:
		m.timeout.Show(msg.Deadline)
		return m, components.CountdownTickCmd()

	case IdleTimeoutMsg:
		m.toasts.Warning("Signed out after inactivity")
		return m, m.logoutCmd()

	case components.SessionExtendedMsg:
		m.watcher.Activity()
		m.status.SetDeadline(m.watcher.Deadline())
		return m, nil

	case SessionActiveMsg:
		return m, m.handleSessionActive(msg.Active)

	case SettingsChangedMsg:
		m.applyTheme(msg.Settings)
		return m, nil

	case ConfigReloadedMsg:
		m.cfg = msg.Config
		m.toasts.Info("Configuration reloaded")
		return m, nil

	// -------------------------------------------------------------------------
	// Command results
	// -------------------------------------------------------------------------

	case loginResultMsg:
		return m, m.handleLoginResult(msg)

	case verifyResultMsg:
		if msg.err != nil {
			m.verify.busy = false
			m.verify.errMsg = friendlyError(msg.err)
			return m, nil
		}
		m.toasts.Success("Account verified, welcome")
		return m, m.handleSessionActive(true)

	case registerResultMsg:
		if msg.err != nil {
			m.register.busy = false
			m.register.errMsg = friendlyError(msg.err)
			return m, nil
		}
		email := m.register.request().Email
		m.verify.begin(email, "Account created. Verify it with the emailed code.")
		m.prevRoute = m.route
		m.route = RouteVerifyAccount
		return m, nil

	case otpFlowMsg:
		return m, m.handleOTPFlow(msg)

	case usersPageMsg:
		if msg.err != nil {
			m.users.fail(friendlyError(msg.err))
			return m, nil
		}
		m.users.setPage(msg.page, m.prefs.Current().DateFormat)
		return m, nil

	case authorizedMsg:
		return m, m.handleAuthorized(msg)

	case userDetailMsg:
		return m, m.handleUserDetail(msg)

	case userDeletedMsg:
		if msg.err != nil {
			m.toasts.Error("Delete failed: " + friendlyError(msg.err))
			return m, nil
		}
		m.toasts.Success("Deleted " + msg.email)
		m.users.loading = true
		return m, tea.Batch(m.reloadUsersCmd(), m.users.spin())

	case statsMsg:
		if msg.err != nil {
			m.dashboard.fail(friendlyError(msg.err))
		} else {
			m.dashboard.setStats(msg.stats)
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.toasts.Error("Export failed: " + friendlyError(msg.err))
		} else {
			m.toasts.Success("Exported to " + msg.path)
		}
		return m, nil

	case logoutDoneMsg:
		if msg.err != nil {
			m.toasts.Warning("Server sign-out failed; local session cleared")
		}
		return m, nil
	}

	// Everything else (spinner frames and the like) goes to the active
	// view.
	return m.updateRoute(msg)
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.status.SetWidth(msg.Width)
	m.timeout.SetSize(msg.Width, msg.Height)

	m.users.table.SetColumns(userColumns(msg.Width - 4))
	tableHeight := msg.Height - 10
	if tableHeight < 5 {
		tableHeight = 5
	}
	m.users.table.SetHeight(tableHeight)

	m.help.render(msg.Width)
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Every keypress counts as activity for the idle watcher.
	if m.sess.Active() {
		m.watcher.Activity()
		m.status.SetDeadline(m.watcher.Deadline())
	}

	// The timeout dialog captures input while visible: any key extends
	// the session.
	if m.timeout.IsVisible() {
		var cmd tea.Cmd
		m.timeout, cmd = m.timeout.Update(msg)
		return m, cmd
	}

	switch {
	case matches(msg, m.keys.Quit):
		return m, tea.Quit

	case matches(msg, m.keys.Help):
		return m, m.navigate(RouteHelp)

	case matches(msg, m.keys.Dashboard):
		return m, m.navigate(RouteDashboard)

	case matches(msg, m.keys.Users):
		return m, m.navigate(RouteUsers)

	case matches(msg, m.keys.Profile):
		return m, m.navigate(RouteProfile)

	case matches(msg, m.keys.Settings):
		return m, m.navigate(RouteSettings)

	case matches(msg, m.keys.Logout):
		if m.sess.Active() {
			return m, m.logoutCmd()
		}
		return m, nil

	case matches(msg, m.keys.Register):
		if m.route == RouteLogin {
			m.register.reset()
			return m, m.navigate(RouteRegister)
		}

	case matches(msg, m.keys.Forgot):
		if m.route == RouteLogin {
			m.forgot.reset()
			return m, m.navigate(RouteForgotPassword)
		}

	case matches(msg, m.keys.Back) && !m.usersCapturesEsc():
		return m, m.goBack()
	}

	return m.updateRoute(msg)
}

// usersCapturesEsc reports whether the users view needs esc for itself
// (cancelling a search or a delete confirmation).
func (m *Model) usersCapturesEsc() bool {
	return m.route == RouteUsers && (m.users.searching || m.users.confirmDelete != "")
}

// goBack is the esc navigation: detail to list, auth sub-flows to the
// sign-in form, everything else to the dashboard.
func (m *Model) goBack() tea.Cmd {
	switch m.route {
	case RouteLogin, RouteDashboard:
		return nil
	case RouteUserDetail:
		m.prevRoute = m.route
		m.route = RouteUsers
		return nil
	case RouteRegister, RouteVerifyAccount, RouteForgotPassword:
		m.login.reset()
		m.prevRoute = m.route
		m.route = RouteLogin
		return nil
	case RouteHelp:
		target := m.prevRoute
		if target == RouteHelp {
			target = RouteDashboard
		}
		return m.navigate(target)
	default:
		return m.navigate(RouteDashboard)
	}
}

// handleSessionActive reacts to the session store's active signal.
func (m *Model) handleSessionActive(active bool) tea.Cmd {
	if active {
		m.watcher.Start()
		m.syncStatusIdentity()
		m.login.reset()
		var cmd tea.Cmd
		if GuardFor(m.route) == GuardPublic {
			cmd = m.navigate(RouteDashboard)
		}
		return tea.Batch(cmd, components.CountdownTickCmd())
	}

	m.watcher.Stop()
	m.timeout.Hide()
	m.syncStatusIdentity()
	m.login.reset()
	m.prevRoute = m.route
	m.route = RouteLogin
	return nil
}

func (m *Model) handleLoginResult(msg loginResultMsg) tea.Cmd {
	if msg.err != nil {
		m.login.busy = false
		switch {
		case errors.Is(msg.err, session.ErrVerificationPending):
			email, _ := m.login.credentials()
			m.verify.begin(email, "Your account still needs verification.")
			m.prevRoute = m.route
			m.route = RouteVerifyAccount
		case errors.Is(msg.err, session.ErrInvalidCredentials):
			m.login.errMsg = "Invalid email or password"
		default:
			m.login.errMsg = friendlyError(msg.err)
		}
		return nil
	}
	return m.handleSessionActive(true)
}

func (m *Model) handleOTPFlow(msg otpFlowMsg) tea.Cmd {
	if msg.err != nil {
		m.forgot.fail(friendlyError(msg.err))
		return nil
	}
	if msg.resp != nil && !msg.resp.Success {
		m.forgot.fail(msg.resp.Message)
		return nil
	}

	switch msg.step {
	case stepRequestOTP, stepVerifyOTP:
		m.forgot.advance()
	case stepResetPassword:
		m.toasts.Success("Password updated, sign in with the new one")
		m.login.reset()
		m.prevRoute = m.route
		m.route = RouteLogin
	}
	return nil
}

// handleAuthorized applies the server-side role verdict for an admin
// route. Any failure is a denial.
func (m *Model) handleAuthorized(msg authorizedMsg) tea.Cmd {
	if msg.err != nil || !msg.allowed {
		m.users.loading = false
		if msg.err != nil {
			m.toasts.Error("Permission check failed; access denied")
		} else {
			m.toasts.Warning("You do not have permission to view " + msg.target.String())
		}
		m.prevRoute = m.route
		m.route = RouteDenied
		return nil
	}

	m.users.authorized = true
	m.users.loading = true
	return tea.Batch(m.reloadUsersCmd(), m.users.spin())
}

func (m *Model) handleUserDetail(msg userDetailMsg) tea.Cmd {
	if m.route == RouteProfile {
		if msg.err != nil {
			m.profile.fail(friendlyError(msg.err))
			return nil
		}
		m.profile.setUser(msg.user)
		if msg.updated {
			m.toasts.Success("Profile saved")
		}
		return nil
	}

	if msg.err != nil {
		m.detail.fail(friendlyError(msg.err))
		return nil
	}
	m.detail.setUser(msg.user)
	if msg.updated {
		m.toasts.Success("User saved")
	}
	return nil
}

// reloadUsersCmd reloads the listing with the view's current query.
func (m *Model) reloadUsersCmd() tea.Cmd {
	return m.loadUsersCmd(searchFields[m.users.field], m.users.term, m.users.query)
}

// exportCmd downloads the server's CSV dump and saves it locally.
func (m *Model) exportCmd() tea.Cmd {
	q := m.users.query
	return func() tea.Msg {
		var msg exportDoneMsg
		withTimeout(func(ctx context.Context) {
			data, err := m.client.DownloadUsers(ctx, q)
			if err != nil {
				msg.err = err
				return
			}
			msg.path, msg.err = m.export.SaveCSV(data)
		})
		return msg
	}
}

// updateRoute delegates a message to the active view.
func (m *Model) updateRoute(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.route {
	case RouteLogin:
		var submit bool
		m.login, cmd, submit = m.login.update(msg, m.keys)
		if submit {
			email, password := m.login.credentials()
			return m, tea.Batch(cmd, m.loginCmd(email, password))
		}

	case RouteRegister:
		var submit bool
		m.register, cmd, submit = m.register.update(msg, m.keys)
		if submit {
			return m, tea.Batch(cmd, m.registerCmd(m.register.request()))
		}

	case RouteVerifyAccount:
		var verify bool
		m.verify, cmd, verify = m.verify.update(msg, m.keys)
		if verify {
			return m, tea.Batch(cmd, m.verifyAccountCmd(m.verify.email, m.verify.code()))
		}

	case RouteForgotPassword:
		var run bool
		m.forgot, cmd, run = m.forgot.update(msg, m.keys)
		if run {
			email, otp, password := m.forgot.values()
			switch m.forgot.stage {
			case forgotEmail:
				return m, tea.Batch(cmd, m.requestOTPCmd(email))
			case forgotOTP:
				return m, tea.Batch(cmd, m.verifyOTPCmd(email, otp))
			default:
				return m, tea.Batch(cmd, m.resetPasswordCmd(email, password))
			}
		}

	case RouteDashboard:
		if key, ok := msg.(tea.KeyMsg); ok && matches(key, m.keys.Refresh) {
			return m, m.loadStatsCmd()
		}

	case RouteUsers:
		var req usersRequest
		m.users, cmd, req = m.users.update(msg, m.keys)
		switch {
		case req.reload:
			return m, tea.Batch(cmd, m.reloadUsersCmd())
		case req.open != nil:
			m.detail.begin(req.open)
			m.detail.dateFormat = m.prefs.Current().DateFormat
			m.prevRoute = m.route
			m.route = RouteUserDetail
			return m, tea.Batch(cmd, m.loadUserCmd(req.open.ID))
		case req.delete != "":
			return m, tea.Batch(cmd, m.deleteUserCmd(req.delete))
		case req.export:
			m.toasts.Info("Export started")
			return m, tea.Batch(cmd, m.exportCmd())
		}

	case RouteUserDetail:
		m.detail, cmd = m.detail.update(msg)

	case RouteProfile:
		var save bool
		m.profile, cmd, save = m.profile.update(msg, m.keys)
		if save && m.profile.user != nil {
			return m, tea.Batch(cmd, m.updateUserCmd(m.profile.user.ID, m.profile.updated()))
		}

	case RouteSettings:
		var action settingsAction
		m.settings, cmd, action = m.settings.update(msg, m.keys)
		switch action {
		case settingsSave:
			if err := m.prefs.Update(m.settings.draft); err != nil {
				m.settings.errMsg = err.Error()
				m.settings.saved = false
			} else {
				m.applyTheme(m.settings.draft)
			}
		case settingsReset:
			if err := m.prefs.Reset(); err != nil {
				m.settings.errMsg = err.Error()
			} else {
				m.settings.reset(m.prefs.Current())
				m.applyTheme(m.prefs.Current())
				m.toasts.Info("Settings restored to defaults")
			}
		}
	}

	return m, cmd
}
