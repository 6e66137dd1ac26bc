// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

// ToastKind classifies a toast notice.
type ToastKind int

const (
	// ToastInfo is an informational notice.
	ToastInfo ToastKind = iota
	// ToastSuccess confirms a completed action.
	ToastSuccess
	// ToastWarning flags something worth attention.
	ToastWarning
	// ToastError reports a failure. Shown longer so it can be read.
	ToastError
)

// Auto-dismiss durations per kind.
const (
	InfoToastDuration    = 4 * time.Second
	SuccessToastDuration = 4 * time.Second
	WarningToastDuration = 6 * time.Second
	ErrorToastDuration   = 8 * time.Second
)

// Toast is a transient, dismissible corner notice. Failures in this
// console are never modal; the worst case is a redirect to sign-in.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired reports whether the toast's display window has passed.
func (t *Toast) IsExpired() bool {
	return time.Since(t.CreatedAt) >= t.Duration
}

func durationFor(kind ToastKind) time.Duration {
	switch kind {
	case ToastError:
		return ErrorToastDuration
	case ToastWarning:
		return WarningToastDuration
	case ToastSuccess:
		return SuccessToastDuration
	default:
		return InfoToastDuration
	}
}

// =============================================================================
// MANAGER
// =============================================================================

// MaxVisibleToasts caps the stack so notices never swallow the screen.
const MaxVisibleToasts = 3

// ToastManager owns the active toast stack.
type ToastManager struct {
	mu     sync.Mutex
	toasts []Toast
	nextID int
}

// NewToastManager creates an empty manager.
func NewToastManager() *ToastManager {
	return &ToastManager{}
}

// Add pushes a toast and returns its ID. The oldest toast is dropped
// when the stack is full.
func (m *ToastManager) Add(kind ToastKind, message string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.toasts = append(m.toasts, Toast{
		ID:        m.nextID,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
		Duration:  durationFor(kind),
	})
	if len(m.toasts) > MaxVisibleToasts {
		m.toasts = m.toasts[len(m.toasts)-MaxVisibleToasts:]
	}
	return m.nextID
}

// Info adds an informational toast.
func (m *ToastManager) Info(message string) int { return m.Add(ToastInfo, message) }

// Success adds a success toast.
func (m *ToastManager) Success(message string) int { return m.Add(ToastSuccess, message) }

// Warning adds a warning toast.
func (m *ToastManager) Warning(message string) int { return m.Add(ToastWarning, message) }

// Error adds an error toast.
func (m *ToastManager) Error(message string) int { return m.Add(ToastError, message) }

// Remove dismisses a toast by ID.
func (m *ToastManager) Remove(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// Tick drops expired toasts and returns the surviving stack.
func (m *ToastManager) Tick() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.IsExpired() {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
	return append([]Toast(nil), m.toasts...)
}

// Active returns a copy of the current stack.
func (m *ToastManager) Active() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// HasToasts reports whether anything is showing.
func (m *ToastManager) HasToasts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) > 0
}

// Clear dismisses everything.
func (m *ToastManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}

// ToastTickMsg drives toast expiry.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd schedules the next toast expiry check.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderToastStack renders the active toasts bottom-right aligned
// within the given width.
func RenderToastStack(theme *styles.Theme, toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	maxWidth := width - 4
	if maxWidth < 20 {
		maxWidth = 20
	}
	if maxWidth > 60 {
		maxWidth = 60
	}

	lines := make([]string, 0, len(toasts))
	for _, t := range toasts {
		style := theme.ToastInfo
		switch t.Kind {
		case ToastSuccess:
			style = theme.ToastSuccess
		case ToastWarning:
			style = theme.ToastWarning
		case ToastError:
			style = theme.ToastError
		}
		lines = append(lines, style.Render(truncateToast(t.Message, maxWidth)))
	}

	stack := lipgloss.JoinVertical(lipgloss.Right, lines...)
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Right).Render(stack)
}

func truncateToast(msg string, maxWidth int) string {
	msg = strings.ReplaceAll(msg, "\n", " ")
	if runewidth.StringWidth(msg) <= maxWidth {
		return msg
	}
	return runewidth.Truncate(msg, maxWidth, "…")
}
