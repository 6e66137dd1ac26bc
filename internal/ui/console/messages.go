// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/config"
	"github.com/ksadmin/ksadmin/internal/settings"
)

// =============================================================================
// EXTERNAL EVENT MESSAGES
// =============================================================================

// Events originating outside the Bubble Tea loop (idle timers, session
// subscription, config watcher) are forwarded into it via Program.Send.

// IdleWarningMsg signals the quiet period elapsed; the countdown
// dialog must appear.
type IdleWarningMsg struct {
	Deadline time.Time
}

// IdleTimeoutMsg signals the grace window elapsed with no activity.
type IdleTimeoutMsg struct{}

// SessionActiveMsg mirrors the session store's active signal.
type SessionActiveMsg struct {
	Active bool
}

// SettingsChangedMsg carries freshly applied display settings.
type SettingsChangedMsg struct {
	Settings settings.Settings
}

// ConfigReloadedMsg carries a hot-reloaded config file.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// RESULT MESSAGES
// =============================================================================

// loginResultMsg reports a finished login attempt.
type loginResultMsg struct {
	resp *api.LoginResponse
	err  error
}

// verifyResultMsg reports a finished account-verification attempt.
type verifyResultMsg struct {
	resp *api.LoginResponse
	err  error
}

// registerResultMsg reports a finished registration attempt.
type registerResultMsg struct {
	resp *api.RegistrationResponse
	err  error
}

// otpFlowMsg reports one step of the forgot-password flow.
type otpFlowMsg struct {
	step statusStep
	resp *api.StatusResponse
	err  error
}

type statusStep int

const (
	stepRequestOTP statusStep = iota
	stepVerifyOTP
	stepResetPassword
)

// usersPageMsg reports a loaded user listing page.
type usersPageMsg struct {
	page *api.UserPage
	err  error
}

// userDetailMsg reports a loaded or updated single user.
type userDetailMsg struct {
	user    *api.User
	updated bool
	err     error
}

// userDeletedMsg reports a finished deletion.
type userDeletedMsg struct {
	email string
	resp  *api.DeleteResponse
	err   error
}

// statsMsg reports loaded dashboard statistics.
type statsMsg struct {
	stats *api.DashboardStats
	err   error
}

// exportDoneMsg reports a finished user export.
type exportDoneMsg struct {
	path string
	err  error
}

// logoutDoneMsg reports the backend half of a logout. Local state is
// already cleared by the time this arrives.
type logoutDoneMsg struct {
	err error
}

// authorizedMsg reports the server-side role check for a gated route.
type authorizedMsg struct {
	target  Route
	allowed bool
	err     error
}

// =============================================================================
// COMMANDS
// =============================================================================

// requestTimeout bounds every command-driven API call.
const requestTimeout = 15 * time.Second

func withTimeout(fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	fn(ctx)
}

func (m *Model) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		var msg loginResultMsg
		withTimeout(func(ctx context.Context) {
			msg.resp, msg.err = m.sess.Login(ctx, email, password)
		})
		return msg
	}
}

func (m *Model) verifyAccountCmd(email, otp string) tea.Cmd {
	return func() tea.Msg {
		var msg verifyResultMsg
		withTimeout(func(ctx context.Context) {
			msg.resp, msg.err = m.sess.CompleteVerification(ctx, email, otp)
		})
		return msg
	}
}

func (m *Model) registerCmd(req api.RegistrationRequest) tea.Cmd {
	return func() tea.Msg {
		var msg registerResultMsg
		withTimeout(func(ctx context.Context) {
			msg.resp, msg.err = m.client.Register(ctx, req)
		})
		return msg
	}
}

func (m *Model) requestOTPCmd(email string) tea.Cmd {
	return func() tea.Msg {
		msg := otpFlowMsg{step: stepRequestOTP}
		withTimeout(func(ctx context.Context) {
			msg.resp, msg.err = m.client.RequestPasswordOTP(ctx, email)
		})
		return msg
	}
}

func (m *Model) verifyOTPCmd(email, otp string) tea.Cmd {
	return func() tea.Msg {
		msg := otpFlowMsg{step: stepVerifyOTP}
		withTimeout(func(ctx context.Context) {
			msg.resp, msg.err = m.client.VerifyPasswordOTP(ctx, email, otp)
		})
		return msg
	}
}

func (m *Model) resetPasswordCmd(email, newPassword string) tea.Cmd {
	return func() tea.Msg {
		msg := otpFlowMsg{step: stepResetPassword}
		withTimeout(func(ctx context.Context) {
			msg.resp, msg.err = m.client.ResetPassword(ctx, email, newPassword)
		})
		return msg
	}
}

func (m *Model) loadUsersCmd(field api.SearchField, term string, q api.PageQuery) tea.Cmd {
	return func() tea.Msg {
		var msg usersPageMsg
		withTimeout(func(ctx context.Context) {
			if term == "" {
				msg.page, msg.err = m.client.ListUsers(ctx, q)
			} else {
				msg.page, msg.err = m.client.SearchUsers(ctx, field, term, q)
			}
		})
		return msg
	}
}

func (m *Model) loadUserCmd(id string) tea.Cmd {
	return func() tea.Msg {
		var msg userDetailMsg
		withTimeout(func(ctx context.Context) {
			msg.user, msg.err = m.client.GetUser(ctx, id)
		})
		return msg
	}
}

func (m *Model) loadProfileCmd(email string) tea.Cmd {
	return func() tea.Msg {
		var msg userDetailMsg
		withTimeout(func(ctx context.Context) {
			msg.user, msg.err = m.client.GetUserByEmail(ctx, email)
		})
		return msg
	}
}

func (m *Model) updateUserCmd(id string, u api.User) tea.Cmd {
	return func() tea.Msg {
		msg := userDetailMsg{updated: true}
		withTimeout(func(ctx context.Context) {
			msg.user, msg.err = m.client.UpdateUser(ctx, id, u)
		})
		return msg
	}
}

func (m *Model) deleteUserCmd(email string) tea.Cmd {
	return func() tea.Msg {
		msg := userDeletedMsg{email: email}
		withTimeout(func(ctx context.Context) {
			msg.resp, msg.err = m.client.DeleteUser(ctx, email)
		})
		return msg
	}
}

func (m *Model) loadStatsCmd() tea.Cmd {
	return func() tea.Msg {
		var msg statsMsg
		withTimeout(func(ctx context.Context) {
			msg.stats, msg.err = m.client.DashboardStats(ctx)
		})
		return msg
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		var msg logoutDoneMsg
		withTimeout(func(ctx context.Context) {
			msg.err = m.sess.Logout(ctx)
		})
		return msg
	}
}

// authorizeCmd runs the authoritative server-side role check before an
// admin route shows data. Failure denies; it never defaults to allow.
func (m *Model) authorizeCmd(target Route) tea.Cmd {
	return func() tea.Msg {
		msg := authorizedMsg{target: target}
		withTimeout(func(ctx context.Context) {
			msg.allowed, msg.err = m.sess.AuthorizeRoles(ctx, RoleAdmin)
		})
		return msg
	}
}
