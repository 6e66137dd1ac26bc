// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ksadmin/ksadmin/internal/logging"
)

// Configuration constants for the backend client.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for transient errors.
	DefaultMaxRetries = 3

	// MaxResponseSize is the maximum allowed response body size.
	// Response size limit prevents memory exhaustion from a bad server.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// sharedHTTPClient pools connections across all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// ERRORS
// =============================================================================

// Error variables for common backend failures.
var (
	// ErrUnauthorized indicates the session is no longer valid (401).
	ErrUnauthorized = errors.New("session invalid or expired")

	// ErrForbidden indicates the caller lacks the required role (403).
	ErrForbidden = errors.New("access denied")

	// ErrNotFound indicates the requested record does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the request clashed with existing state,
	// e.g. registering an email that is already taken (400/409).
	ErrConflict = errors.New("conflict")

	// ErrRateLimited indicates too many requests were made (429).
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates the backend could not be reached or kept
	// failing after retries.
	ErrUnavailable = errors.New("backend unavailable")
)

// APIError carries the backend's error envelope for failures that do
// not map onto one of the sentinel errors above.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (status %d)", e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

// TokenSource supplies the current bearer token, or "" when signed out.
// The client reads it fresh on every request so a clear triggered by a
// concurrent 401 is visible to the next call immediately.
type TokenSource func() string

// Client talks to the accounts backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	token      TokenSource

	// onUnauthorized fires when an authenticated request gets a 401.
	// Login, registration and the OTP flows are exempt: a rejected
	// login is not a session expiry.
	onUnauthorized func()

	log zerolog.Logger
}

// NewClient creates a client for the backend at baseURL. token may be
// nil for a client that only performs public calls.
func NewClient(baseURL string, token TokenSource) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: sharedHTTPClient,
		maxRetries: DefaultMaxRetries,
		token:      token,
		log:        logging.Component("api"),
	}
}

// WithTimeout sets a custom request timeout. Gives the client its own
// http.Client so the shared pool's timeout is untouched.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	clone := *sharedHTTPClient
	clone.Timeout = timeout
	c.httpClient = &clone
	return c
}

// WithMaxRetries sets the retry budget for transient failures.
func (c *Client) WithMaxRetries(n int) *Client {
	if n > 0 {
		c.maxRetries = n
	}
	return c
}

// WithUnauthorizedHook registers the callback fired when an
// authenticated request is rejected with 401.
func (c *Client) WithUnauthorizedHook(fn func()) *Client {
	c.onUnauthorized = fn
	return c
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do performs one API exchange: marshal body, attach headers, retry
// transient failures, decode into out (if non-nil). authed controls
// both bearer-token attachment and the 401 hook.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, authed)

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleErrorResponse(resp.StatusCode, respBody, authed)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = respBody
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// setHeaders attaches content negotiation and, for authenticated
// calls, the bearer token read fresh from the token source.
func (c *Client) setHeaders(req *http.Request, authed bool) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ksadmin/1.0")

	if authed && c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
}

// doWithRetry retries network errors and 5xx responses with
// exponential backoff. 4xx responses return immediately; they are
// deterministic and retrying them only hammers the backend.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		reqCopy := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", err)
			}
			reqCopy.Body = body
		}

		start := time.Now()
		resp, err := c.httpClient.Do(reqCopy)
		duration := time.Since(start)

		if err == nil && resp.StatusCode < 500 {
			c.logExchange(reqCopy, resp.StatusCode, duration)
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			c.logExchange(reqCopy, resp.StatusCode, duration)
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp.Body.Close()
		} else {
			c.log.Warn().Str("method", req.Method).Str("path", req.URL.Path).Err(err).Msg("request failed")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(1<<attempt) * 500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// logExchange records a request/response pair. Never logs the token or
// the body; emails appear only inside bodies, so paths are safe.
func (c *Client) logExchange(req *http.Request, status int, duration time.Duration) {
	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", status).
		Dur("duration", duration).
		Msg("api exchange")
}

// readResponse reads the body with a hard size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse maps an error status onto the error taxonomy and
// fires the 401 hook for authenticated calls.
func (c *Client) handleErrorResponse(status int, body []byte, authed bool) error {
	if status == http.StatusUnauthorized && authed && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	message := ""
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		message = envelope.Message
		if message == "" {
			message = envelope.Error
		}
	}

	switch status {
	case http.StatusUnauthorized:
		return wrapSentinel(ErrUnauthorized, message)
	case http.StatusForbidden:
		return wrapSentinel(ErrForbidden, message)
	case http.StatusNotFound:
		return wrapSentinel(ErrNotFound, message)
	case http.StatusBadRequest, http.StatusConflict:
		return wrapSentinel(ErrConflict, message)
	case http.StatusTooManyRequests:
		return wrapSentinel(ErrRateLimited, message)
	default:
		return &APIError{Status: status, Message: message}
	}
}

func wrapSentinel(sentinel error, message string) error {
	if message == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}

// pageValues encodes a PageQuery as listing query parameters.
func pageValues(q PageQuery) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.Direction != "" {
		v.Set("direction", q.Direction)
	}
	return v
}
