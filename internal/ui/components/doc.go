// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides shared UI components for the ksadmin
// console: the idle-timeout warning dialog, transient toast notices,
// and the status bar.
package components
