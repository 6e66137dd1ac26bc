// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksadmin/ksadmin/internal/settings"
	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

func TestToastDurations(t *testing.T) {
	m := NewToastManager()
	m.Error("boom")
	m.Info("hello")

	toasts := m.Active()
	require.Len(t, toasts, 2)
	assert.Equal(t, ErrorToastDuration, toasts[0].Duration)
	assert.Equal(t, InfoToastDuration, toasts[1].Duration)
}

func TestToastStackCap(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < MaxVisibleToasts+2; i++ {
		m.Info("notice")
	}
	assert.Len(t, m.Active(), MaxVisibleToasts)
}

func TestToastRemove(t *testing.T) {
	m := NewToastManager()
	id := m.Warning("careful")
	m.Success("done")

	m.Remove(id)
	toasts := m.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, ToastSuccess, toasts[0].Kind)

	m.Remove(9999) // unknown IDs are ignored
	assert.Len(t, m.Active(), 1)
}

func TestToastTickExpiry(t *testing.T) {
	m := NewToastManager()
	m.Info("old")

	// Age the toast past its window.
	m.mu.Lock()
	m.toasts[0].CreatedAt = time.Now().Add(-InfoToastDuration - time.Second)
	m.mu.Unlock()

	m.Error("fresh")
	kept := m.Tick()
	require.Len(t, kept, 1)
	assert.Equal(t, "fresh", kept[0].Message)
}

func TestToastClear(t *testing.T) {
	m := NewToastManager()
	m.Info("a")
	m.Error("b")
	assert.True(t, m.HasToasts())

	m.Clear()
	assert.False(t, m.HasToasts())
}

func TestRenderToastStack(t *testing.T) {
	theme := styles.NewTheme(settings.Default())

	assert.Empty(t, RenderToastStack(theme, nil, 80))

	m := NewToastManager()
	m.Error("request failed")
	out := RenderToastStack(theme, m.Active(), 80)
	assert.Contains(t, out, "request failed")
}

func TestTruncateToast(t *testing.T) {
	assert.Equal(t, "short", truncateToast("short", 20))
	long := truncateToast("a very long toast message that keeps going", 10)
	assert.LessOrEqual(t, len([]rune(long)), 11)
	assert.Contains(t, long, "…")
	assert.Equal(t, "one two", truncateToast("one\ntwo", 20))
}
