// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/settings"
	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// fakeSession is a canned sessionReader for guard tests.
type fakeSession struct {
	active bool
	roles  []string
}

func (f fakeSession) Active() bool { return f.active }

func (f fakeSession) HasRole(candidates ...string) bool {
	if !f.active {
		return false
	}
	for _, c := range candidates {
		for _, r := range f.roles {
			if r == c {
				return true
			}
		}
	}
	return false
}

func TestCheckGuard(t *testing.T) {
	anonymous := fakeSession{}
	user := fakeSession{active: true, roles: []string{"USER"}}
	admin := fakeSession{active: true, roles: []string{"USER", "ADMIN"}}

	tests := []struct {
		name     string
		route    Route
		sess     fakeSession
		allowed  bool
		redirect Route
	}{
		{"login is public", RouteLogin, anonymous, true, 0},
		{"help is public", RouteHelp, anonymous, true, 0},
		{"register is public", RouteRegister, anonymous, true, 0},
		{"dashboard needs a session", RouteDashboard, anonymous, false, RouteLogin},
		{"profile needs a session", RouteProfile, anonymous, false, RouteLogin},
		{"dashboard with session", RouteDashboard, user, true, 0},
		{"users needs admin", RouteUsers, user, false, RouteDenied},
		{"users as admin", RouteUsers, admin, true, 0},
		{"user detail needs admin", RouteUserDetail, user, false, RouteDenied},
		{"users without session goes to login", RouteUsers, anonymous, false, RouteLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, redirect := CheckGuard(tt.route, tt.sess)
			assert.Equal(t, tt.allowed, allowed)
			if !tt.allowed {
				assert.Equal(t, tt.redirect, redirect)
			}
		})
	}
}

func TestGuardFor_UnknownRouteRequiresSession(t *testing.T) {
	assert.Equal(t, GuardAuthenticated, GuardFor(Route(99)))
}

func TestRouteString(t *testing.T) {
	assert.Equal(t, "Dashboard", RouteDashboard.String())
	assert.Equal(t, "Access Denied", RouteDenied.String())
	assert.Equal(t, "Unknown", Route(99).String())
}

func TestFriendlyError(t *testing.T) {
	assert.Equal(t, "Not authorized", friendlyError(api.ErrUnauthorized))
	assert.Equal(t, "Permission denied", friendlyError(api.ErrForbidden))
	assert.Equal(t, "The server is unreachable", friendlyError(api.ErrUnavailable))
	assert.Equal(t, "The request timed out", friendlyError(context.DeadlineExceeded))
	assert.Equal(t, "boom", friendlyError(errors.New("boom")))
}

// -----------------------------------------------------------------------------
// View state machines
// -----------------------------------------------------------------------------

func testTheme() *styles.Theme {
	return styles.NewTheme(settings.Default())
}

func keyEnter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }
func keyRight() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRight} }

func typeRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoginView_RequiresBothFields(t *testing.T) {
	v := newLoginView(testTheme())
	keys := DefaultKeyMap()

	// enter on the email field moves focus; enter on the empty password
	// field must not submit
	v, _, submit := v.update(keyEnter(), keys)
	require.False(t, submit)
	v, _, submit = v.update(keyEnter(), keys)
	assert.False(t, submit)
	assert.NotEmpty(t, v.errMsg)
}

func TestLoginView_Submit(t *testing.T) {
	v := newLoginView(testTheme())
	keys := DefaultKeyMap()

	v.email.SetValue("admin@example.com")
	v.password.SetValue("s3cret-pw")
	v.setFocus(1)

	v, _, submit := v.update(keyEnter(), keys)
	require.True(t, submit)
	assert.True(t, v.busy)

	email, password := v.credentials()
	assert.Equal(t, "admin@example.com", email)
	assert.Equal(t, "s3cret-pw", password)
}

func TestForgotView_StageValidation(t *testing.T) {
	v := newForgotView(testTheme())
	keys := DefaultKeyMap()
	v.reset()

	// empty email rejected
	v, _, run := v.update(keyEnter(), keys)
	require.False(t, run)
	assert.Equal(t, forgotEmail, v.stage)

	v.email.SetValue("alice@example.com")
	v, _, run = v.update(keyEnter(), keys)
	require.True(t, run)

	// backend step succeeded
	v.advance()
	assert.Equal(t, forgotOTP, v.stage)

	// short code rejected
	v.otp.SetValue("12")
	v, _, run = v.update(keyEnter(), keys)
	require.False(t, run)

	v.otp.SetValue("123456")
	v, _, run = v.update(keyEnter(), keys)
	require.True(t, run)
	v.advance()
	assert.Equal(t, forgotNewPassword, v.stage)

	// short password rejected
	v.pass.SetValue("short")
	v, _, run = v.update(keyEnter(), keys)
	require.False(t, run)

	v.pass.SetValue("longenough1")
	v, _, run = v.update(keyEnter(), keys)
	assert.True(t, run)

	email, otp, password := v.values()
	assert.Equal(t, "alice@example.com", email)
	assert.Equal(t, "123456", otp)
	assert.Equal(t, "longenough1", password)
}

func TestForgotView_FailReenablesInput(t *testing.T) {
	v := newForgotView(testTheme())
	v.reset()
	v.busy = true

	v.fail("code rejected")
	assert.False(t, v.busy)
	assert.Equal(t, "code rejected", v.errMsg)
}

func TestRegisterView_Validate(t *testing.T) {
	v := newRegisterView(testTheme())

	assert.Contains(t, v.validate(), "First name")

	v.inputs[regFirstName].SetValue("Alice")
	assert.Contains(t, v.validate(), "email")

	v.inputs[regEmail].SetValue("alice@example.com")
	assert.Contains(t, v.validate(), "Password")

	v.inputs[regPassword].SetValue("longenough1")
	assert.Empty(t, v.validate())

	req := v.request()
	assert.Equal(t, "alice@example.com", req.Email)
	assert.Equal(t, []string{"USER"}, req.Roles)
}

func TestVerifyView_CodeLength(t *testing.T) {
	v := newVerifyView(testTheme())
	keys := DefaultKeyMap()
	v.begin("alice@example.com", "")

	v.otp.SetValue("123")
	v, _, verify := v.update(keyEnter(), keys)
	require.False(t, verify)
	assert.NotEmpty(t, v.errMsg)

	v.otp.SetValue("123456")
	v, _, verify = v.update(keyEnter(), keys)
	assert.True(t, verify)
	assert.Equal(t, "123456", v.code())
}

func TestSettingsView_CycleColor(t *testing.T) {
	v := newSettingsView(testTheme(), settings.Default())
	keys := DefaultKeyMap()
	v.setRow(setColor)

	require.Equal(t, "indigo", v.draft.PrimaryColor)
	v, _, _ = v.update(keyRight(), keys)
	assert.Equal(t, settings.Palette[1], v.draft.PrimaryColor)
}

func TestSettingsView_RejectsInvalidDraft(t *testing.T) {
	v := newSettingsView(testTheme(), settings.Default())
	keys := DefaultKeyMap()

	v.setRow(setDateFormat)
	v.dateFmt.SetValue("")
	v, _, action := v.update(keyEnter(), keys)
	assert.Equal(t, settingsNone, action)
	assert.NotEmpty(t, v.errMsg)
}

func TestSettingsView_Save(t *testing.T) {
	v := newSettingsView(testTheme(), settings.Default())
	keys := DefaultKeyMap()

	v.setRow(setLanguage)
	v.language.SetValue("pt-BR")
	v, _, action := v.update(keyEnter(), keys)
	assert.Equal(t, settingsSave, action)
	assert.Equal(t, "pt-BR", v.draft.Language)
}

func TestUsersView_SearchFieldCycle(t *testing.T) {
	v := newUsersView(testTheme())
	keys := DefaultKeyMap()
	v.loading = false

	require.Equal(t, api.SearchByName, searchFields[v.field])
	v, _, _ = v.update(typeRunes("f"), keys)
	assert.Equal(t, api.SearchByEmail, searchFields[v.field])
}

func TestUsersView_DeleteNeedsConfirmation(t *testing.T) {
	v := newUsersView(testTheme())
	keys := DefaultKeyMap()
	v.loading = false
	v.confirmDelete = "bob@example.com"

	// any key but y cancels
	v, _, req := v.update(typeRunes("n"), keys)
	assert.Empty(t, req.delete)
	assert.Empty(t, v.confirmDelete)

	v.confirmDelete = "bob@example.com"
	v, _, req = v.update(typeRunes("y"), keys)
	assert.Equal(t, "bob@example.com", req.delete)
}
