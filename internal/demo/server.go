// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package demo

import (
	"bytes"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/logging"
)

const (
	// MaxRequestBodySize caps request bodies.
	MaxRequestBodySize = 1 * 1024 * 1024

	// otpSkewPeriods widens TOTP validation so a demo user has a couple
	// of minutes to type the code.
	otpSkewPeriods = 4

	// loginBurst and loginInterval shape the per-account login limiter.
	loginBurst    = 5
	loginInterval = 2 * time.Second
)

// Server is the in-process demo backend.
type Server struct {
	store   *accountStore
	signKey []byte

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	now func() time.Time
	log zerolog.Logger
}

// NewServer builds a demo backend with seeded fixtures and a random
// token signing key.
func NewServer() *Server {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("demo: cannot seed signing key: %v", err))
	}

	return &Server{
		store:    newAccountStore(),
		signKey:  key,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
		log:      logging.Component("demo"),
	}
}

// Handler returns the backend's HTTP surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.authed(s.handleLogout))
	mux.HandleFunc("GET /api/auth/validate-session", s.authed(s.handleValidateSession))
	mux.HandleFunc("GET /api/auth/get-roles-by-token", s.authed(s.handleRolesByToken))
	mux.HandleFunc("POST /api/auth/forgot-password/request-otp", s.handleRequestPasswordOTP)
	mux.HandleFunc("POST /api/auth/forgot-password/verify-otp", s.handleVerifyPasswordOTP)
	mux.HandleFunc("POST /api/auth/forgot-password/reset", s.handleResetPassword)
	mux.HandleFunc("POST /api/auth/account-verification/request-otp", s.handleRequestVerificationOTP)
	mux.HandleFunc("POST /api/auth/account-verification/verify-otp", s.handleVerifyAccountOTP)
	mux.HandleFunc("GET /api/auth/get-login-response-after-otp-verification", s.handleLoginAfterVerification)
	mux.HandleFunc("POST /api/auth/save-app-settings", s.authed(s.handleSaveAppSettings))
	mux.HandleFunc("GET /api/auth/get-app-settings", s.authed(s.handleGetAppSettings))

	mux.HandleFunc("POST /api/users/register", s.handleRegister)
	mux.HandleFunc("GET /api/users", s.admin(s.handleListUsers))
	mux.HandleFunc("GET /api/users/getUserByName", s.admin(s.searchHandler("name")))
	mux.HandleFunc("GET /api/users/getUserByCity", s.admin(s.searchHandler("city")))
	mux.HandleFunc("GET /api/users/getUserByEmail", s.admin(s.searchHandler("email")))
	mux.HandleFunc("GET /api/users/getUserByCountry", s.admin(s.searchHandler("country")))
	mux.HandleFunc("GET /api/users/download", s.admin(s.handleDownload))
	mux.HandleFunc("POST /api/users/delete", s.admin(s.handleDeleteUser))
	mux.HandleFunc("GET /api/users/email/{email}", s.authed(s.handleGetUserByEmail))
	mux.HandleFunc("GET /api/users/{id}", s.authed(s.handleGetUser))
	mux.HandleFunc("PUT /api/users/{id}", s.authed(s.handleUpdateUser))

	mux.HandleFunc("GET /api/dashboard/dashboard-stats", s.admin(s.handleStats))

	return http.MaxBytesHandler(mux, MaxRequestBodySize)
}

// =============================================================================
// AUTH PLUMBING
// =============================================================================

// mintTokenLocked issues a signed session token for an account. Caller
// holds the store lock.
func (s *Server) mintTokenLocked(email string) (string, error) {
	expiry := time.Duration(*s.store.settings.SessionExpirySecs) * time.Second

	claims := jwt.RegisteredClaims{
		Subject:   email,
		Issuer:    "ksadmin-demo",
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(expiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
}

// authenticate resolves the bearer token to an account.
func (s *Server) authenticate(r *http.Request) *account {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil
	}

	claims := token.Claims.(*jwt.RegisteredClaims)
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return s.store.get(claims.Subject)
}

type handlerWithAccount func(w http.ResponseWriter, r *http.Request, acct *account)

// authed rejects requests without a valid session token.
func (s *Server) authed(next handlerWithAccount) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := s.authenticate(r)
		if acct == nil {
			s.writeError(w, http.StatusUnauthorized, "session expired or invalid")
			return
		}
		next(w, r, acct)
	}
}

// admin additionally requires the ADMIN role.
func (s *Server) admin(next handlerWithAccount) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, acct *account) {
		if !hasRole(acct.user.Roles, "ADMIN") {
			s.writeError(w, http.StatusForbidden, "ADMIN role required")
			return
		}
		next(w, r, acct)
	})
}

// loginLimiter returns the per-account limiter, creating it on first
// use.
func (s *Server) loginLimiter(email string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	lim, ok := s.limiters[email]
	if !ok {
		lim = rate.NewLimiter(rate.Every(loginInterval), loginBurst)
		s.limiters[email] = lim
	}
	return lim
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}

	if !s.loginLimiter(strings.ToLower(req.Email)).Allow() {
		s.writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	acct := s.store.get(req.Email)
	if acct == nil || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if acct.user.IsAccountVerificationPending != nil && *acct.user.IsAccountVerificationPending {
		s.logOTP(acct, "account verification")
		s.writeJSON(w, http.StatusOK, api.LoginResponse{
			Success:                    false,
			Message:                    "account verification pending",
			Email:                      acct.user.Email,
			AccountVerificationPending: true,
		})
		return
	}

	resp, err := s.loginResponseLocked(acct)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "token minting failed")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// loginResponseLocked mints a token and assembles the full response.
// Caller holds the store lock.
func (s *Server) loginResponseLocked(acct *account) (*api.LoginResponse, error) {
	token, err := s.mintTokenLocked(acct.user.Email)
	if err != nil {
		return nil, err
	}

	first := acct.user.IsFirstLogin != nil && *acct.user.IsFirstLogin
	if first {
		f := false
		acct.user.IsFirstLogin = &f
	}

	fullName := ""
	if p := acct.user.Profile; p != nil {
		fullName = strings.TrimSpace(p.FirstName + " " + p.LastName)
	}

	return &api.LoginResponse{
		Success:     true,
		AccessToken: token,
		Email:       acct.user.Email,
		Username:    acct.user.Username,
		FullName:    fullName,
		Roles:       acct.user.Roles,
		FirstLogin:  first,
	}, nil
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ *account) {
	// Tokens are stateless; logout succeeds by agreement.
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Success: true, Message: "signed out"})
}

func (s *Server) handleValidateSession(w http.ResponseWriter, r *http.Request, _ *account) {
	s.writeJSON(w, http.StatusOK, true)
}

func (s *Server) handleRolesByToken(w http.ResponseWriter, r *http.Request, acct *account) {
	s.writeJSON(w, http.StatusOK, acct.user.Roles)
}

// logOTP prints the current one-time code; the demo has no mail
// delivery.
func (s *Server) logOTP(acct *account, purpose string) {
	code, err := totp.GenerateCode(acct.otpSecret, s.now())
	if err != nil {
		return
	}
	s.log.Info().
		Str("email", acct.user.Email).
		Str("purpose", purpose).
		Str("code", code).
		Msg("demo one-time code issued")
}

// validOTP checks a submitted code with generous skew.
func (s *Server) validOTP(acct *account, code string) bool {
	for skew := 0; skew <= otpSkewPeriods; skew++ {
		at := s.now().Add(-time.Duration(skew) * 30 * time.Second)
		expect, err := totp.GenerateCode(acct.otpSecret, at)
		if err == nil && expect == code {
			return true
		}
	}
	return false
}

func (s *Server) otpRequestHandler(purpose string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if !s.readJSON(w, r, &req) {
			return
		}

		s.store.mu.Lock()
		defer s.store.mu.Unlock()

		acct := s.store.get(req.Email)
		if acct == nil {
			s.writeError(w, http.StatusNotFound, "no account for that email")
			return
		}
		s.logOTP(acct, purpose)
		s.writeJSON(w, http.StatusOK, api.StatusResponse{Success: true, Message: "code sent"})
	}
}

func (s *Server) handleRequestPasswordOTP(w http.ResponseWriter, r *http.Request) {
	s.otpRequestHandler("password reset")(w, r)
}

func (s *Server) handleRequestVerificationOTP(w http.ResponseWriter, r *http.Request) {
	s.otpRequestHandler("account verification")(w, r)
}

func (s *Server) handleVerifyPasswordOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	acct := s.store.get(req.Email)
	if acct == nil || !s.validOTP(acct, req.OTP) {
		s.writeError(w, http.StatusBadRequest, "invalid or expired code")
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Success: true, Message: "code accepted"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	if len(req.NewPassword) < 8 {
		s.writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	acct := s.store.get(req.Email)
	if acct == nil {
		s.writeError(w, http.StatusNotFound, "no account for that email")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), demoBcryptCost)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "hashing failed")
		return
	}
	acct.passwordHash = hash
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Success: true, Message: "password updated"})
}

func (s *Server) handleVerifyAccountOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	acct := s.store.get(req.Email)
	if acct == nil || !s.validOTP(acct, req.OTP) {
		s.writeError(w, http.StatusBadRequest, "invalid or expired code")
		return
	}

	verified := false
	acct.user.IsAccountVerificationPending = &verified
	acct.user.Active = true

	resp, err := s.loginResponseLocked(acct)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "token minting failed")
		return
	}
	acct.heldLogin = resp
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Success: true, Message: "account verified"})
}

func (s *Server) handleLoginAfterVerification(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	acct := s.store.get(email)
	if acct == nil || acct.heldLogin == nil {
		s.writeError(w, http.StatusNotFound, "no verified login pending for that email")
		return
	}

	resp := acct.heldLogin
	acct.heldLogin = nil
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveAppSettings(w http.ResponseWriter, r *http.Request, acct *account) {
	if !hasRole(acct.user.Roles, "ADMIN") {
		s.writeError(w, http.StatusForbidden, "ADMIN role required")
		return
	}

	var req api.AppSettings
	if !s.readJSON(w, r, &req) {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if req.SessionExpirySecs != nil {
		s.store.settings.SessionExpirySecs = req.SessionExpirySecs
	}
	if req.ForgotPasswordOTPExpirySecs != nil {
		s.store.settings.ForgotPasswordOTPExpirySecs = req.ForgotPasswordOTPExpirySecs
	}
	if req.RegistrationOTPExpirySecs != nil {
		s.store.settings.RegistrationOTPExpirySecs = req.RegistrationOTPExpirySecs
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Success: true, Message: "settings saved"})
}

func (s *Server) handleGetAppSettings(w http.ResponseWriter, r *http.Request, _ *account) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.writeJSON(w, http.StatusOK, s.store.settings)
}

// =============================================================================
// USER HANDLERS
// =============================================================================

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegistrationRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		s.writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		s.writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if s.store.get(req.Email) != nil {
		s.writeError(w, http.StatusConflict, "an account with that email already exists")
		return
	}

	acct := s.store.create(req, s.now())
	s.logOTP(acct, "account verification")
	s.writeJSON(w, http.StatusCreated, api.RegistrationResponse{
		Success: true,
		Message: "account created; verify it with the emailed code",
	})
}

func pageQueryFrom(r *http.Request) api.PageQuery {
	q := api.DefaultPageQuery()
	values := r.URL.Query()
	if v, err := strconv.Atoi(values.Get("page")); err == nil && v >= 0 {
		q.Page = v
	}
	if v, err := strconv.Atoi(values.Get("size")); err == nil && v > 0 {
		q.Size = v
	}
	if v := values.Get("sortBy"); v != "" {
		q.SortBy = v
	}
	if v := values.Get("direction"); v != "" {
		q.Direction = v
	}
	return q
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ *account) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.writeJSON(w, http.StatusOK, s.store.list(pageQueryFrom(r), nil))
}

// searchHandler builds a filtered listing endpoint for one attribute.
func (s *Server) searchHandler(field string) handlerWithAccount {
	return func(w http.ResponseWriter, r *http.Request, _ *account) {
		term := strings.ToLower(r.URL.Query().Get(field))

		filter := func(u api.User) bool {
			if term == "" {
				return true
			}
			switch field {
			case "name":
				return strings.Contains(strings.ToLower(u.DisplayName()), term)
			case "email":
				return strings.Contains(strings.ToLower(u.Email), term)
			case "city":
				return u.Profile != nil && strings.Contains(strings.ToLower(u.Profile.Address.City), term)
			default: // country
				return u.Profile != nil && strings.Contains(strings.ToLower(u.Profile.Address.Country), term)
			}
		}

		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		s.writeJSON(w, http.StatusOK, s.store.list(pageQueryFrom(r), filter))
	}
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, _ *account) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	acct := s.store.getByID(r.PathValue("id"))
	if acct == nil {
		s.writeError(w, http.StatusNotFound, "no such user")
		return
	}
	s.writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleGetUserByEmail(w http.ResponseWriter, r *http.Request, caller *account) {
	email := r.PathValue("email")

	// Non-admins can only read their own record.
	if !hasRole(caller.user.Roles, "ADMIN") && !strings.EqualFold(caller.user.Email, email) {
		s.writeError(w, http.StatusForbidden, "cannot read another user's record")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	acct := s.store.get(email)
	if acct == nil {
		s.writeError(w, http.StatusNotFound, "no such user")
		return
	}
	s.writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, caller *account) {
	var req api.User
	if !s.readJSON(w, r, &req) {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	acct := s.store.getByID(r.PathValue("id"))
	if acct == nil {
		acct = s.store.get(r.PathValue("id"))
	}
	if acct == nil {
		s.writeError(w, http.StatusNotFound, "no such user")
		return
	}
	if !hasRole(caller.user.Roles, "ADMIN") && caller.user.ID != acct.user.ID {
		s.writeError(w, http.StatusForbidden, "cannot edit another user's record")
		return
	}

	// Only profile fields are editable through this endpoint.
	if req.Profile != nil {
		p := acct.user.Profile
		if p == nil {
			p = &api.Profile{Email: acct.user.Email, Username: acct.user.Username}
			acct.user.Profile = p
		}
		p.FirstName = req.Profile.FirstName
		p.LastName = req.Profile.LastName
		p.PhoneNumber = req.Profile.PhoneNumber
		p.Address = req.Profile.Address
	}
	s.writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, caller *account) {
	var req struct {
		Email string `json:"email"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if strings.EqualFold(req.Email, caller.user.Email) {
		s.writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	if !s.store.delete(req.Email) {
		s.writeError(w, http.StatusNotFound, "no such user")
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{Success: true, Message: "user deleted"})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, _ *account) {
	s.store.mu.Lock()
	page := s.store.list(pageQueryFrom(r), nil)
	s.store.mu.Unlock()

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"id", "email", "name", "roles", "active", "created"})
	for _, u := range page.Content {
		_ = cw.Write([]string{
			u.ID,
			u.Email,
			u.DisplayName(),
			strings.Join(u.Roles, ";"),
			strconv.FormatBool(u.Active),
			u.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ *account) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.writeJSON(w, http.StatusOK, s.store.stats())
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("response encoding failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}
