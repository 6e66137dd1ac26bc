// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// searchPaths maps a search field onto its listing endpoint.
var searchPaths = map[SearchField]string{
	SearchByName:    "/api/users/getUserByName",
	SearchByCity:    "/api/users/getUserByCity",
	SearchByEmail:   "/api/users/getUserByEmail",
	SearchByCountry: "/api/users/getUserByCountry",
}

// Register creates a new account. The backend rejects duplicate
// emails with ErrConflict.
func (c *Client) Register(ctx context.Context, req RegistrationRequest) (*RegistrationResponse, error) {
	var out RegistrationResponse
	if err := c.do(ctx, http.MethodPost, "/api/users/register", nil, req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns one page of the full user listing. Admin only.
func (c *Client) ListUsers(ctx context.Context, q PageQuery) (*UserPage, error) {
	var out UserPage
	if err := c.do(ctx, http.MethodGet, "/api/users", pageValues(q), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchUsers returns one page of users whose field matches term.
func (c *Client) SearchUsers(ctx context.Context, field SearchField, term string, q PageQuery) (*UserPage, error) {
	path, ok := searchPaths[field]
	if !ok {
		return nil, fmt.Errorf("unknown search field %q", field)
	}

	values := pageValues(q)
	values.Set(string(field), term)

	var out UserPage
	if err := c.do(ctx, http.MethodGet, path, values, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser fetches a single user by record ID.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserByEmail fetches a single user by email address.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/api/users/email/"+url.PathEscape(email), nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser replaces the editable fields of the user addressed by id
// (the backend also accepts the email as the identifier).
func (c *Client) UpdateUser(ctx context.Context, id string, u User) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), nil, u, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes the account with the given email. Admin only.
func (c *Client) DeleteUser(ctx context.Context, email string) (*DeleteResponse, error) {
	var out DeleteResponse
	err := c.do(ctx, http.MethodPost, "/api/users/delete",
		nil, map[string]string{"email": email}, &out, true)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadUsers fetches the backend's export of a user page as a raw
// document (the server decides the format).
func (c *Client) DownloadUsers(ctx context.Context, q PageQuery) ([]byte, error) {
	var raw []byte
	if err := c.do(ctx, http.MethodGet, "/api/users/download", pageValues(q), nil, &raw, true); err != nil {
		return nil, err
	}
	return raw, nil
}

// DashboardStats fetches the admin dashboard summary.
func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/dashboard-stats", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
