// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the ksadmin console:
// atomic file writes and width-aware string formatting for table cells
// and status lines.
package util
