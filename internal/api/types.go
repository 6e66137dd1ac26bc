// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "time"

// =============================================================================
// AUTH TYPES
// =============================================================================

// LoginResponse is returned by the login and post-verification endpoints.
type LoginResponse struct {
	Success                    bool     `json:"success"`
	Message                    string   `json:"message"`
	AccessToken                string   `json:"accessToken"`
	RefreshToken               string   `json:"refreshToken"`
	Email                      string   `json:"email"`
	Username                   string   `json:"username"`
	FullName                   string   `json:"fullName"`
	Roles                      []string `json:"roles"`
	AccountVerificationPending bool     `json:"accountVerificationPending"`
	FirstLogin                 bool     `json:"firstLogin"`
}

// StatusResponse is the backend's generic success/message envelope,
// used by the OTP and password-reset endpoints.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AppSettings are the server-tunable expiry windows, editable from the
// settings panel by administrators.
type AppSettings struct {
	SessionExpirySecs             *int64 `json:"sessionExpirySeconds"`
	ForgotPasswordOTPExpirySecs   *int64 `json:"forgotPasswordOtpExpirySeconds"`
	RegistrationOTPExpirySecs     *int64 `json:"userRegistrationOtpExpirySeconds"`
}

// =============================================================================
// USER TYPES
// =============================================================================

// Address is a user's postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// Profile holds the descriptive part of a user record.
type Profile struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phoneNumber"`
	Address     Address `json:"address"`
	Username    string  `json:"username"`
}

// User is the backend's user record as exposed to administrators.
type User struct {
	ID                           string    `json:"id"`
	Email                        string    `json:"email"`
	Username                     string    `json:"username"`
	Roles                        []string  `json:"roles"`
	Active                       bool      `json:"active"`
	CreatedAt                    time.Time `json:"createdAt"`
	IsAccountVerificationPending *bool     `json:"isAccountVerificationPending"`
	IsFirstLogin                 *bool     `json:"isFirstLogin"`
	Profile                      *Profile  `json:"profile"`
}

// DisplayName returns the best human-readable name for a user row.
func (u User) DisplayName() string {
	if u.Profile != nil && u.Profile.FirstName != "" {
		if u.Profile.LastName != "" {
			return u.Profile.FirstName + " " + u.Profile.LastName
		}
		return u.Profile.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// RegistrationRequest is the payload for creating an account.
type RegistrationRequest struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	PhoneNumber string   `json:"phoneNumber"`
	Address     Address  `json:"address"`
	City        string   `json:"city"`
	Pincode     string   `json:"pincode"`
	Roles       []string `json:"roles"`
}

// RegistrationResponse reports the outcome of a registration attempt.
type RegistrationResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// DeleteResponse reports the outcome of a user deletion.
type DeleteResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// =============================================================================
// PAGINATION
// =============================================================================

// PageQuery selects a page of a sorted listing.
type PageQuery struct {
	Page      int    // zero-based
	Size      int
	SortBy    string
	Direction string // "asc" or "desc"
}

// DefaultPageQuery mirrors the backend's listing defaults.
func DefaultPageQuery() PageQuery {
	return PageQuery{Page: 0, Size: 50, SortBy: "createdAt", Direction: "asc"}
}

// UserPage is one page of a paginated user listing.
type UserPage struct {
	Content       []User `json:"content"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
	First         bool   `json:"first"`
	Last          bool   `json:"last"`
}

// SearchField selects which user attribute a search term matches.
type SearchField string

const (
	SearchByName    SearchField = "name"
	SearchByCity    SearchField = "city"
	SearchByEmail   SearchField = "email"
	SearchByCountry SearchField = "country"
)

// =============================================================================
// DASHBOARD
// =============================================================================

// DashboardStats is the admin dashboard summary.
type DashboardStats struct {
	TotalUsers           int64 `json:"totalUsers"`
	ActiveUsers          int64 `json:"activeUsers"`
	PendingVerifications int64 `json:"pendingVerifications"`
	FirstTimeLogins      int64 `json:"firstTimeLogins"`
	NewUsersThisMonth    int64 `json:"newUsersThisMonth"`
	AdminUsers           int64 `json:"adminUsers"`
	BothAdminAndUser     int64 `json:"bothAdminAndUser"`
	RegularUsers         int64 `json:"regularUsers"`
}
