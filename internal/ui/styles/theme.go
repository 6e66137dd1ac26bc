// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/ksadmin/ksadmin/internal/settings"
)

// Theme holds the styled components for the console. A new Theme is
// built whenever the settings change; views re-render from it.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile
	AccentName   string

	Width  int
	Height int

	// ==========================================================================
	// CONTAINERS
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// FORMS
	// ==========================================================================

	FormLabel       lipgloss.Style
	FormField       lipgloss.Style
	FormFieldFocus  lipgloss.Style
	FormHint        lipgloss.Style
	FormError       lipgloss.Style
	ButtonPrimary   lipgloss.Style
	ButtonSecondary lipgloss.Style

	// ==========================================================================
	// TABLE
	// ==========================================================================

	TableHeader   lipgloss.Style
	TableRow      lipgloss.Style
	TableSelected lipgloss.Style
	TableBorder   lipgloss.Style
	PageInfo      lipgloss.Style

	// ==========================================================================
	// DIALOGS
	// ==========================================================================

	DialogBox      lipgloss.Style
	DialogTitle    lipgloss.Style
	DialogBody     lipgloss.Style
	DialogWarnBox  lipgloss.Style
	DialogCountdown lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusIdent  lipgloss.Style
	StatusRole   lipgloss.Style
	StatusClock  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// NOTICES
	// ==========================================================================

	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastWarning lipgloss.Style
	ToastError   lipgloss.Style

	// ==========================================================================
	// MISC
	// ==========================================================================

	Badge       lipgloss.Style
	BadgeActive lipgloss.Style
	Spinner     lipgloss.Style
	Muted       lipgloss.Style
}

// NewTheme builds a theme from the current display settings. DarkMode
// overrides terminal background detection; the accent color drives the
// primary styles.
func NewTheme(prefs settings.Settings) *Theme {
	t := &Theme{
		IsDark:       prefs.DarkMode,
		ColorProfile: termenv.ColorProfile(),
		AccentName:   prefs.PrimaryColor,
	}
	lipgloss.SetHasDarkBackground(prefs.DarkMode)
	t.initStyles(Accent(prefs.PrimaryColor))
	return t
}

func (t *Theme) initStyles(accent lipgloss.AdaptiveColor) {
	t.App = lipgloss.NewStyle().Background(Surface)
	t.Container = lipgloss.NewStyle().Padding(1, 2)

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(accent).
		Bold(true)
	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.FormLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Width(16)
	t.FormField = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.FormFieldFocus = t.FormField.
		BorderForeground(accent)
	t.FormHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.FormError = lipgloss.NewStyle().
		Foreground(Rose)
	t.ButtonPrimary = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(accent).
		Padding(0, 2).
		Bold(true)
	t.ButtonSecondary = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceBright).
		Padding(0, 2)

	t.TableHeader = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)
	t.TableRow = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.TableSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(accent).
		Bold(true)
	t.TableBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)
	t.PageInfo = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.DialogBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 3)
	t.DialogTitle = lipgloss.NewStyle().
		Foreground(accent).
		Bold(true)
	t.DialogBody = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.DialogWarnBox = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Amber).
		Padding(1, 3)
	t.DialogCountdown = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusIdent = lipgloss.NewStyle().
		Foreground(accent).
		Bold(true)
	t.StatusRole = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.StatusClock = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(accent).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	toast := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	t.ToastInfo = toast.Foreground(TextInverse).Background(Cyan)
	t.ToastSuccess = toast.Foreground(TextInverse).Background(Emerald)
	t.ToastWarning = toast.Foreground(TextInverse).Background(Amber)
	t.ToastError = toast.Foreground(TextInverse).Background(Rose)

	t.Badge = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceBright).
		Padding(0, 1)
	t.BadgeActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Emerald).
		Padding(0, 1)
	t.Spinner = lipgloss.NewStyle().
		Foreground(accent)
	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize records the terminal dimensions for layout decisions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// LayoutMode describes how much horizontal room the views have.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota
	LayoutNormal
	LayoutWide
)

// GetLayoutMode classifies the current width.
func (t *Theme) GetLayoutMode() LayoutMode {
	switch {
	case t.Width < 80:
		return LayoutNarrow
	case t.Width < 120:
		return LayoutNormal
	default:
		return LayoutWide
	}
}
