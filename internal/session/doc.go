// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session is the single source of truth for "is the user
// signed in". It owns the bearer token, role set and identity, mirrors
// them to local storage across restarts, and reacts uniformly to
// authorization failures no matter which request produced them.
package session
