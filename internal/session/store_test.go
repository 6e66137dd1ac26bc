// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/storage"
)

// fakeBackend scripts backend responses for the store.
type fakeBackend struct {
	loginResp  *api.LoginResponse
	loginErr   error
	logoutErr  error
	roles      []string
	rolesErr   error
	verifyResp *api.StatusResponse
	afterResp  *api.LoginResponse

	logoutCalls atomic.Int32
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeBackend) Logout(ctx context.Context, email string) error {
	f.logoutCalls.Add(1)
	return f.logoutErr
}

func (f *fakeBackend) RolesByToken(ctx context.Context) ([]string, error) {
	return f.roles, f.rolesErr
}

func (f *fakeBackend) VerifyAccountOTP(ctx context.Context, email, otp string) (*api.StatusResponse, error) {
	return f.verifyResp, nil
}

func (f *fakeBackend) LoginAfterVerification(ctx context.Context, email string) (*api.LoginResponse, error) {
	return f.afterResp, nil
}

func adminLogin() *api.LoginResponse {
	return &api.LoginResponse{
		Success:     true,
		AccessToken: "tok-abc",
		Email:       "admin@example.com",
		Username:    "admin",
		FullName:    "Admin User",
		Roles:       []string{"ADMIN"},
	}
}

func TestLogin_Success(t *testing.T) {
	s := NewStore(&fakeBackend{loginResp: adminLogin()}, nil)

	resp, err := s.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	assert.True(t, s.Active())
	assert.True(t, s.HasRole("ADMIN"))
	assert.False(t, s.HasRole("AUDITOR"))
	assert.Equal(t, "tok-abc", s.Token())
	assert.Equal(t, "admin", s.Identity().Username)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := NewStore(&fakeBackend{loginErr: api.ErrUnauthorized}, nil)

	_, err := s.Login(context.Background(), "x@example.com", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, s.Active())
}

func TestLogin_VerificationPending(t *testing.T) {
	s := NewStore(&fakeBackend{loginResp: &api.LoginResponse{
		Success:                    false,
		AccountVerificationPending: true,
		Email:                      "new@example.com",
	}}, nil)

	_, err := s.Login(context.Background(), "new@example.com", "pw")
	assert.ErrorIs(t, err, ErrVerificationPending)
	assert.False(t, s.Active())
}

func TestCompleteVerification(t *testing.T) {
	s := NewStore(&fakeBackend{
		verifyResp: &api.StatusResponse{Success: true},
		afterResp:  adminLogin(),
	}, nil)

	resp, err := s.CompleteVerification(context.Background(), "admin@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, s.Active())
}

func TestLoginRolesLogoutScenario(t *testing.T) {
	s := NewStore(&fakeBackend{loginResp: adminLogin()}, nil)

	_, err := s.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, s.HasRole("ADMIN"))

	require.NoError(t, s.Logout(context.Background()))
	assert.False(t, s.Active())
	assert.False(t, s.HasRole("ADMIN"))
	assert.Equal(t, Identity{}, s.Identity())
}

func TestLogout_ClearsLocallyWhenBackendFails(t *testing.T) {
	backend := &fakeBackend{loginResp: adminLogin(), logoutErr: errors.New("gateway timeout")}
	s := NewStore(backend, nil)

	_, err := s.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)

	err = s.Logout(context.Background())
	assert.Error(t, err) // surfaced as a notice, not a blocker
	assert.False(t, s.Active(), "local state must clear regardless of backend outcome")
	assert.Empty(t, s.Token())
}

func TestLogout_NoopWhenSignedOut(t *testing.T) {
	backend := &fakeBackend{}
	s := NewStore(backend, nil)

	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, int32(0), backend.logoutCalls.Load())
}

func TestHandleUnauthorized_OncePerEpisode(t *testing.T) {
	s := NewStore(&fakeBackend{loginResp: adminLogin()}, nil)
	_, err := s.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)

	var cleanups atomic.Int32
	s.Subscribe(func(active bool) {
		if !active {
			cleanups.Add(1)
		}
	})

	// Simulate many in-flight requests all failing with 401 at once.
	var wg sync.WaitGroup
	ran := atomic.Int32{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.HandleUnauthorized() {
				ran.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ran.Load(), "exactly one goroutine may run the cleanup")
	assert.Equal(t, int32(1), cleanups.Load(), "inactive signal fires once")
	assert.False(t, s.Active())
}

func TestHandleUnauthorized_LatchResetsOnLogin(t *testing.T) {
	s := NewStore(&fakeBackend{loginResp: adminLogin()}, nil)

	_, err := s.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, s.HandleUnauthorized())
	assert.False(t, s.HandleUnauthorized(), "latched")

	_, err = s.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, s.HandleUnauthorized(), "new episode after fresh login")
}

func TestAuthorizeRoles(t *testing.T) {
	backend := &fakeBackend{loginResp: adminLogin(), roles: []string{"ADMIN"}}
	s := NewStore(backend, nil)
	_, err := s.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)

	ok, err := s.AuthorizeRoles(context.Background(), "ADMIN")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AuthorizeRoles(context.Background(), "AUDITOR")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizeRoles_FailureDenies(t *testing.T) {
	backend := &fakeBackend{loginResp: adminLogin(), rolesErr: api.ErrUnavailable}
	s := NewStore(backend, nil)
	_, err := s.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)

	ok, err := s.AuthorizeRoles(context.Background(), "ADMIN")
	assert.Error(t, err)
	assert.False(t, ok, "fetch failure must deny, never allow")
}

func TestAuthorizeRoles_RequiresSession(t *testing.T) {
	s := NewStore(&fakeBackend{}, nil)
	ok, err := s.AuthorizeRoles(context.Background(), "ADMIN")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.False(t, ok)
}

func TestSubscribe_OrderAndUnsubscribe(t *testing.T) {
	s := NewStore(&fakeBackend{loginResp: adminLogin()}, nil)

	var order []string
	s.Subscribe(func(active bool) { order = append(order, "first") })
	unsub := s.Subscribe(func(active bool) { order = append(order, "second") })
	s.Subscribe(func(active bool) { order = append(order, "third") })

	_, err := s.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)

	order = nil
	unsub()
	unsub() // double-unsubscribe is safe
	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestPersistenceRoundTrip(t *testing.T) {
	local, err := storage.Open(filepath.Join(t.TempDir(), storage.DefaultFileName))
	require.NoError(t, err)
	defer local.Close()

	s := NewStore(&fakeBackend{loginResp: adminLogin()}, local)
	_, err = s.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)

	// A second store over the same database restores the session.
	s2 := NewStore(&fakeBackend{}, local)
	require.True(t, s2.Restore())
	assert.True(t, s2.Active())
	assert.Equal(t, "tok-abc", s2.Token())
	assert.True(t, s2.HasRole("ADMIN"))

	// Forced cleanup wipes the stored copy too.
	s2.HandleUnauthorized()
	s3 := NewStore(&fakeBackend{}, local)
	assert.False(t, s3.Restore())
}

func TestTokenExpiry(t *testing.T) {
	s := NewStore(&fakeBackend{}, nil)
	assert.True(t, s.TokenExpiry().IsZero(), "no token")

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": float64(4102444800)})
	signed, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)

	s.backend = &fakeBackend{loginResp: &api.LoginResponse{Success: true, AccessToken: signed, Username: "u"}}
	_, err = s.Login(context.Background(), "u@example.com", "pw")
	require.NoError(t, err)

	exp := s.TokenExpiry()
	assert.Equal(t, int64(4102444800), exp.Unix())
}
