// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package idle detects prolonged user inactivity during an
// authenticated session and drives a two-stage warn-then-logout
// sequence. The watcher is a small state machine; the UI feeds it
// input events and renders the countdown dialog when warned.
package idle
