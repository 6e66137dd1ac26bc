// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package demo runs an in-process accounts backend so the console can
// be tried without a real server. It implements the same HTTP surface
// the client speaks: login, OTP verification, user listing, search,
// export and dashboard statistics, over seeded in-memory fixtures.
package demo
