// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package demo

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksadmin/ksadmin/internal/api"
)

func newTestBackend(t *testing.T) (*Server, *api.Client) {
	t.Helper()
	srv := NewServer()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client := api.NewClient(ts.URL, nil).WithMaxRetries(0)
	return srv, client
}

func adminClient(t *testing.T) (*Server, *api.Client) {
	t.Helper()
	srv := NewServer()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	login := api.NewClient(ts.URL, nil).WithMaxRetries(0)
	resp, err := login.Login(context.Background(), DemoAdminEmail, DemoAdminPassword)
	require.NoError(t, err)
	require.True(t, resp.Success)

	token := resp.AccessToken
	client := api.NewClient(ts.URL, func() string { return token }).WithMaxRetries(0)
	return srv, client
}

func TestLogin_Admin(t *testing.T) {
	_, client := newTestBackend(t)

	resp, err := client.Login(context.Background(), DemoAdminEmail, DemoAdminPassword)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Contains(t, resp.Roles, "ADMIN")
	assert.False(t, resp.AccountVerificationPending)
}

func TestLogin_WrongPassword(t *testing.T) {
	_, client := newTestBackend(t)

	_, err := client.Login(context.Background(), DemoAdminEmail, "nope-nope-nope")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestLogin_RateLimited(t *testing.T) {
	_, client := newTestBackend(t)

	var last error
	for i := 0; i < loginBurst+2; i++ {
		_, last = client.Login(context.Background(), "hammered@example.com", "bad-password")
	}
	assert.ErrorIs(t, last, api.ErrRateLimited)
}

func TestListUsers_RequiresAdmin(t *testing.T) {
	srv, _ := newTestBackend(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	// a verified non-admin fixture
	login := api.NewClient(ts.URL, nil).WithMaxRetries(0)
	resp, err := login.Login(context.Background(), "ana.souza@example.com", "user-demo-ana")
	require.NoError(t, err)
	require.True(t, resp.Success)

	token := resp.AccessToken
	client := api.NewClient(ts.URL, func() string { return token }).WithMaxRetries(0)

	_, err = client.ListUsers(context.Background(), api.DefaultPageQuery())
	assert.ErrorIs(t, err, api.ErrForbidden)
}

func TestListUsers_Pagination(t *testing.T) {
	_, client := adminClient(t)

	q := api.DefaultPageQuery()
	q.Size = 5
	page, err := client.ListUsers(context.Background(), q)
	require.NoError(t, err)

	assert.Len(t, page.Content, 5)
	assert.True(t, page.First)
	assert.False(t, page.Last)
	assert.EqualValues(t, len(seedProfiles)+1, page.TotalElements)

	q.Page = page.TotalPages - 1
	last, err := client.ListUsers(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, last.Last)
}

func TestSearchUsers_ByCountry(t *testing.T) {
	_, client := adminClient(t)

	page, err := client.SearchUsers(context.Background(), api.SearchByCountry, "portugal", api.DefaultPageQuery())
	require.NoError(t, err)
	require.NotEmpty(t, page.Content)
	for _, u := range page.Content {
		assert.Equal(t, "Portugal", u.Profile.Address.Country)
	}
}

func TestRegisterVerifyAndHeldLogin(t *testing.T) {
	srv, client := newTestBackend(t)
	ctx := context.Background()

	reg, err := client.Register(ctx, api.RegistrationRequest{
		FirstName: "Nova",
		Email:     "nova@example.com",
		Password:  "brand-new-pw",
	})
	require.NoError(t, err)
	assert.True(t, reg.Success)

	// duplicate email is a conflict
	_, err = client.Register(ctx, api.RegistrationRequest{
		FirstName: "Nova",
		Email:     "nova@example.com",
		Password:  "brand-new-pw",
	})
	assert.ErrorIs(t, err, api.ErrConflict)

	// login is held back until the account is verified
	pending, err := client.Login(ctx, "nova@example.com", "brand-new-pw")
	require.NoError(t, err)
	assert.False(t, pending.Success)
	assert.True(t, pending.AccountVerificationPending)
	assert.Empty(t, pending.AccessToken)

	// verify with the current code, then collect the parked login
	srv.store.mu.Lock()
	secret := srv.store.get("nova@example.com").otpSecret
	srv.store.mu.Unlock()
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	status, err := client.VerifyAccountOTP(ctx, "nova@example.com", code)
	require.NoError(t, err)
	assert.True(t, status.Success)

	login, err := client.LoginAfterVerification(ctx, "nova@example.com")
	require.NoError(t, err)
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.AccessToken)

	// the held response is single-use
	_, err = client.LoginAfterVerification(ctx, "nova@example.com")
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestPasswordResetFlow(t *testing.T) {
	srv, client := newTestBackend(t)
	ctx := context.Background()
	email := "ana.souza@example.com"

	status, err := client.RequestPasswordOTP(ctx, email)
	require.NoError(t, err)
	assert.True(t, status.Success)

	srv.store.mu.Lock()
	secret := srv.store.get(email).otpSecret
	srv.store.mu.Unlock()
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	status, err = client.VerifyPasswordOTP(ctx, email, code)
	require.NoError(t, err)
	assert.True(t, status.Success)

	_, err = client.ResetPassword(ctx, email, "replacement-pw")
	require.NoError(t, err)

	resp, err := client.Login(ctx, email, "replacement-pw")
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestVerifyPasswordOTP_BadCode(t *testing.T) {
	_, client := newTestBackend(t)

	_, err := client.VerifyPasswordOTP(context.Background(), "ana.souza@example.com", "000000")
	assert.ErrorIs(t, err, api.ErrConflict)
}

func TestDeleteUser(t *testing.T) {
	_, client := adminClient(t)
	ctx := context.Background()

	resp, err := client.DeleteUser(ctx, "bram.visser@example.com")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	_, err = client.GetUserByEmail(ctx, "bram.visser@example.com")
	assert.ErrorIs(t, err, api.ErrNotFound)

	// self-deletion is refused
	_, err = client.DeleteUser(ctx, DemoAdminEmail)
	assert.ErrorIs(t, err, api.ErrConflict)
}

func TestUpdateUser_ProfileOnly(t *testing.T) {
	_, client := adminClient(t)
	ctx := context.Background()

	u, err := client.GetUserByEmail(ctx, "chen.wei@example.com")
	require.NoError(t, err)

	edited := *u
	p := *u.Profile
	p.PhoneNumber = "+65 5550 0110"
	p.Address.City = "Jurong"
	edited.Profile = &p
	edited.Roles = []string{"ADMIN"} // must be ignored

	saved, err := client.UpdateUser(ctx, u.ID, edited)
	require.NoError(t, err)
	assert.Equal(t, "+65 5550 0110", saved.Profile.PhoneNumber)
	assert.Equal(t, "Jurong", saved.Profile.Address.City)
	assert.Equal(t, []string{"USER"}, saved.Roles)
}

func TestDashboardStats(t *testing.T) {
	_, client := adminClient(t)

	stats, err := client.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, len(seedProfiles)+1, stats.TotalUsers)
	assert.Positive(t, stats.ActiveUsers)
	assert.Positive(t, stats.PendingVerifications)
	assert.Positive(t, stats.AdminUsers)
}

func TestDownloadUsers_CSV(t *testing.T) {
	_, client := adminClient(t)

	data, err := client.DownloadUsers(context.Background(), api.DefaultPageQuery())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "id,email,name,roles,active,created", lines[0])
	assert.Len(t, lines, len(seedProfiles)+2)
}

func TestRolesByToken(t *testing.T) {
	_, client := adminClient(t)

	roles, err := client.RolesByToken(context.Background())
	require.NoError(t, err)
	assert.Contains(t, roles, "ADMIN")
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	_, client := newTestBackend(t)

	_, err := client.DashboardStats(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestAppSettingsRoundTrip(t *testing.T) {
	_, client := adminClient(t)
	ctx := context.Background()

	expiry := int64(900)
	require.NoError(t, client.SaveAppSettings(ctx, api.AppSettings{SessionExpirySecs: &expiry}))

	got, err := client.FetchAppSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.SessionExpirySecs)
	assert.EqualValues(t, 900, *got.SessionExpirySecs)
	// untouched fields keep their defaults
	require.NotNil(t, got.ForgotPasswordOTPExpirySecs)
	assert.EqualValues(t, 300, *got.ForgotPasswordOTPExpirySecs)
}
