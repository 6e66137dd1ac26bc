// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
)

// Login exchanges credentials for a session. A rejected login never
// fires the unauthorized hook; it is not a session expiry.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		nil, map[string]string{"email": email, "password": password}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the backend to invalidate the server-side session.
func (c *Client) Logout(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout",
		nil, map[string]string{"email": email}, nil, true)
}

// ValidateSession checks whether the current token is still accepted.
func (c *Client) ValidateSession(ctx context.Context) (bool, error) {
	var valid bool
	if err := c.do(ctx, http.MethodGet, "/api/auth/validate-session", nil, nil, &valid, true); err != nil {
		return false, err
	}
	return valid, nil
}

// RolesByToken fetches the authoritative role set for the current
// token. Access checks must treat any failure here as a denial.
func (c *Client) RolesByToken(ctx context.Context) ([]string, error) {
	var roles []string
	if err := c.do(ctx, http.MethodGet, "/api/auth/get-roles-by-token", nil, nil, &roles, true); err != nil {
		return nil, err
	}
	return roles, nil
}

// RequestPasswordOTP sends a one-time code to email for the
// forgot-password flow.
func (c *Client) RequestPasswordOTP(ctx context.Context, email string) (*StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password/request-otp",
		nil, map[string]string{"email": email}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPasswordOTP confirms the forgot-password code.
func (c *Client) VerifyPasswordOTP(ctx context.Context, email, otp string) (*StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password/verify-otp",
		nil, map[string]string{"email": email, "otp": otp}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password after OTP verification.
func (c *Client) ResetPassword(ctx context.Context, email, newPassword string) (*StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password/reset",
		nil, map[string]string{"email": email, "newPassword": newPassword}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestVerificationOTP sends the account-verification code for a
// freshly registered (or pending) account.
func (c *Client) RequestVerificationOTP(ctx context.Context, email string) (*StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/account-verification/request-otp",
		nil, map[string]string{"email": email}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyAccountOTP confirms the account-verification code.
func (c *Client) VerifyAccountOTP(ctx context.Context, email, otp string) (*StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/account-verification/verify-otp",
		nil, map[string]string{"email": email, "otp": otp}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginAfterVerification fetches the session that was held back while
// the account awaited OTP confirmation.
func (c *Client) LoginAfterVerification(ctx context.Context, email string) (*LoginResponse, error) {
	q := url.Values{}
	q.Set("email", email)
	var out LoginResponse
	err := c.do(ctx, http.MethodGet, "/api/auth/get-login-response-after-otp-verification",
		q, nil, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveAppSettings pushes admin-tunable expiry settings to the backend.
func (c *Client) SaveAppSettings(ctx context.Context, settings AppSettings) error {
	return c.do(ctx, http.MethodPost, "/api/auth/save-app-settings", nil, settings, nil, true)
}

// FetchAppSettings retrieves the backend's current expiry settings.
func (c *Client) FetchAppSettings(ctx context.Context) (*AppSettings, error) {
	var out AppSettings
	if err := c.do(ctx, http.MethodGet, "/api/auth/get-app-settings", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
