// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the ksadmin
// console. All colors use Lip Gloss AdaptiveColor so light and dark
// terminals both get readable contrast.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT PALETTE
// =============================================================================

// Accents maps the settings panel's color names onto adaptive colors.
// The keys must stay in sync with the palette the settings service
// accepts.
var Accents = map[string]lipgloss.AdaptiveColor{
	"indigo":  {Light: "#4F46E5", Dark: "#818CF8"},
	"teal":    {Light: "#0D9488", Dark: "#2DD4BF"},
	"rose":    {Light: "#E11D48", Dark: "#FB7185"},
	"amber":   {Light: "#D97706", Dark: "#FBBF24"},
	"emerald": {Light: "#059669", Dark: "#34D399"},
	"slate":   {Light: "#475569", Dark: "#94A3B8"},
}

// Accent returns the adaptive color for a palette name, falling back
// to indigo for anything unknown.
func Accent(name string) lipgloss.AdaptiveColor {
	if c, ok := Accents[name]; ok {
		return c
	}
	return Accents["indigo"]
}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors, destructive actions, the logout countdown
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, the idle-timeout dialog
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Emerald - Success states, active accounts
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Cyan - Informational notices
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Surface - Main background
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim - Header/footer background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// SurfaceBright - Selected rows, focused fields
var SurfaceBright = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#313244"}

// Overlay - Borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, table headers
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps, shortcut legends
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - Text on accent-colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
