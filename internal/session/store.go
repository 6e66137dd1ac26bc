// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/logging"
	"github.com/ksadmin/ksadmin/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidCredentials indicates the backend rejected the login.
	// Existing sessions are unaffected.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrVerificationPending indicates the account exists but must
	// confirm an emailed OTP before a session is established.
	ErrVerificationPending = errors.New("account verification pending")

	// ErrNotSignedIn indicates an operation that needs a session was
	// called without one.
	ErrNotSignedIn = errors.New("not signed in")
)

// =============================================================================
// TYPES
// =============================================================================

// Identity is the descriptive, non-security-relevant part of a session.
type Identity struct {
	Email    string
	Username string
	FullName string
}

// Backend is the slice of the API client the store depends on. Tests
// substitute a fake; production passes *api.Client.
type Backend interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Logout(ctx context.Context, email string) error
	RolesByToken(ctx context.Context) ([]string, error)
	VerifyAccountOTP(ctx context.Context, email, otp string) (*api.StatusResponse, error)
	LoginAfterVerification(ctx context.Context, email string) (*api.LoginResponse, error)
}

// subscriber pairs a registration ID with its callback so unsubscribe
// can remove one entry without disturbing registration order.
type subscriber struct {
	id int
	fn func(active bool)
}

// =============================================================================
// STORE
// =============================================================================

// Store holds the current session. All reads are served from memory;
// every mutation is mirrored to local storage so the session survives
// restarts and is wiped in full on logout or forced cleanup.
type Store struct {
	backend Backend
	local   *storage.Store

	mu       sync.Mutex
	token    string
	roles    []string
	identity Identity

	// cleaned is the guard latch: once an authorization failure (or
	// idle timeout) has torn the session down, concurrent failures
	// from other in-flight requests must not run the teardown again.
	// Reset by the next successful login.
	cleaned bool

	subs   []subscriber
	nextID int

	log zerolog.Logger
}

// NewStore creates a signed-out store. local may be nil for an
// in-memory-only store (used by tests).
func NewStore(backend Backend, local *storage.Store) *Store {
	return &Store{
		backend: backend,
		local:   local,
		cleaned: true,
		log:     logging.Component("session"),
	}
}

// Restore loads persisted credentials from local storage, if any.
// Validity is not checked here; the first authenticated request will
// surface an expired token through the usual 401 path.
func (s *Store) Restore() bool {
	if s.local == nil {
		return false
	}
	creds, err := s.local.LoadCredentials()
	if err != nil {
		if !errors.Is(err, storage.ErrNoCredentials) {
			s.log.Warn().Err(err).Msg("failed to restore session")
		}
		return false
	}

	s.mu.Lock()
	s.token = creds.Token
	s.roles = append([]string(nil), creds.Roles...)
	s.identity = Identity{Email: creds.Email, Username: creds.Username, FullName: creds.FullName}
	s.cleaned = false
	s.mu.Unlock()

	s.notify(true)
	s.log.Info().Str("user", creds.Username).Msg("session restored")
	return true
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Login authenticates against the backend. On success the session is
// stored, persisted and the active signal flips to true. Failures map
// onto ErrInvalidCredentials or ErrVerificationPending; neither
// touches an existing session.
func (s *Store) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	resp, err := s.backend.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrConflict) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if resp.AccountVerificationPending {
		return resp, fmt.Errorf("%w: %s", ErrVerificationPending, email)
	}
	if !resp.Success || resp.AccessToken == "" {
		return nil, ErrInvalidCredentials
	}

	s.adopt(resp)
	return resp, nil
}

// CompleteVerification confirms the account-verification OTP and then
// collects the session the backend held back.
func (s *Store) CompleteVerification(ctx context.Context, email, otp string) (*api.LoginResponse, error) {
	status, err := s.backend.VerifyAccountOTP(ctx, email, otp)
	if err != nil {
		return nil, err
	}
	if !status.Success {
		return nil, fmt.Errorf("verification failed: %s", status.Message)
	}

	resp, err := s.backend.LoginAfterVerification(ctx, email)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.AccessToken == "" {
		return nil, ErrInvalidCredentials
	}

	s.adopt(resp)
	return resp, nil
}

// adopt installs a successful login response as the current session.
func (s *Store) adopt(resp *api.LoginResponse) {
	s.mu.Lock()
	s.token = resp.AccessToken
	s.roles = append([]string(nil), resp.Roles...)
	s.identity = Identity{Email: resp.Email, Username: resp.Username, FullName: resp.FullName}
	s.cleaned = false
	s.mu.Unlock()

	s.persist()
	s.notify(true)
	s.log.Info().Str("user", resp.Username).Strs("roles", resp.Roles).Msg("signed in")
}

// Logout tells the backend to invalidate the server-side session, then
// clears local state unconditionally. A failing network call delays
// nothing: local cleanup runs via defer regardless of the outcome, and
// the error is returned only so the UI can show a non-blocking notice.
func (s *Store) Logout(ctx context.Context) (err error) {
	s.mu.Lock()
	email := s.identity.Email
	signedIn := s.token != ""
	s.mu.Unlock()

	if !signedIn {
		return nil
	}

	defer func() {
		s.clear()
		s.log.Info().Msg("signed out")
	}()

	if err := s.backend.Logout(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("backend logout failed; clearing locally anyway")
		return err
	}
	return nil
}

// HandleUnauthorized is the unified reaction to an authorization
// failure (401 on any authenticated call, or idle-timeout expiry).
// It clears the session and flips the active signal exactly once per
// expiry episode: concurrent failures from in-flight requests find the
// latch already set and do nothing. Returns whether this call ran the
// cleanup.
func (s *Store) HandleUnauthorized() bool {
	s.mu.Lock()
	if s.cleaned {
		s.mu.Unlock()
		return false
	}
	s.cleaned = true
	s.mu.Unlock()

	s.log.Info().Msg("session invalidated; clearing credentials")
	s.clear()
	return true
}

// clear wipes memory and local storage and signals inactive.
func (s *Store) clear() {
	s.mu.Lock()
	s.token = ""
	s.roles = nil
	s.identity = Identity{}
	s.cleaned = true
	s.mu.Unlock()

	if s.local != nil {
		if err := s.local.ClearCredentials(); err != nil {
			s.log.Warn().Err(err).Msg("failed to clear stored credentials")
		}
	}
	s.notify(false)
}

func (s *Store) persist() {
	if s.local == nil {
		return
	}
	s.mu.Lock()
	creds := storage.Credentials{
		Token:    s.token,
		Email:    s.identity.Email,
		Username: s.identity.Username,
		FullName: s.identity.FullName,
		Roles:    append([]string(nil), s.roles...),
	}
	s.mu.Unlock()

	if err := s.local.SaveCredentials(creds); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist session")
	}
}

// =============================================================================
// READS
// =============================================================================

// Active reports whether a session is locally present. Non-
// authoritative: the server re-validates every request.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Token returns the current bearer token, or "". Passed to the API
// client as its TokenSource so every request reads it fresh.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Roles returns a copy of the cached role set. Meaningless when no
// token is present.
func (s *Store) Roles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.roles...)
}

// Identity returns the cached identity. Meaningless when no token is
// present.
func (s *Store) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return Identity{}
	}
	return s.identity
}

// HasRole reports whether the cached role set intersects candidates.
// Non-authoritative: use AuthorizeRoles before anything sensitive.
func (s *Store) HasRole(candidates ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return false
	}
	for _, have := range s.roles {
		for _, want := range candidates {
			if have == want {
				return true
			}
		}
	}
	return false
}

// AuthorizeRoles performs the authoritative role check against the
// backend. Any failure to fetch roles denies access; it never defaults
// to allow.
func (s *Store) AuthorizeRoles(ctx context.Context, required ...string) (bool, error) {
	if !s.Active() {
		return false, ErrNotSignedIn
	}
	roles, err := s.backend.RolesByToken(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("authoritative role check failed; denying")
		return false, err
	}
	for _, have := range roles {
		for _, want := range required {
			if have == want {
				return true, nil
			}
		}
	}
	return false, nil
}

// TokenExpiry peeks at the token's exp claim without verifying the
// signature (the client has no key; verification is the server's job).
// Returns the zero time when absent or unreadable.
func (s *Store) TokenExpiry() time.Time {
	tok := s.Token()
	if tok == "" {
		return time.Time{}
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to receive every future change of the active
// signal. Callbacks run synchronously in registration order. The
// returned function unregisters; calling it more than once is safe.
func (s *Store) Subscribe(fn func(active bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// notify invokes subscribers outside the lock so a callback may call
// back into the store without deadlocking.
func (s *Store) notify(active bool) {
	s.mu.Lock()
	snapshot := make([]subscriber, len(s.subs))
	copy(snapshot, s.subs)
	s.mu.Unlock()

	for _, sub := range snapshot {
		sub.fn(active)
	}
}
