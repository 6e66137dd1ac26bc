// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists console state between runs: the signed-in
// credentials and the user's display settings. Everything lives in a
// single SQLite database under the config directory so logout can wipe
// the credential row without touching preferences.
package storage
