// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the ksadmin console.
package util

import "github.com/mattn/go-runewidth"

// Truncate shortens s to at most maxWidth display columns, appending "..."
// when truncation occurs. Width is measured in terminal columns, so
// double-width (CJK) characters count as two.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// Pad right-pads s with spaces to exactly width display columns,
// truncating first if the string is too wide.
func Pad(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// RuneLen returns the number of runes in s. Safer than len() for UTF-8.
func RuneLen(s string) int {
	return len([]rune(s))
}

// MaskEmail obscures the local part of an address for display in notices,
// keeping the first character and the full domain: "a***@example.com".
func MaskEmail(email string) string {
	for i, r := range email {
		if r == '@' {
			if i <= 1 {
				return "***" + email[i:]
			}
			return email[:1] + "***" + email[i:]
		}
	}
	return "***"
}
