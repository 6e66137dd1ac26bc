// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the accounts backend.
//
// All authenticated traffic flows through one wrapper that attaches the
// bearer token, retries transient failures, and maps authorization
// failures onto a single error taxonomy. UI code never inspects status
// codes; it matches on the exported error values.
package api
