// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Timings are deliberately coarse so the tests stay reliable on loaded
// CI machines: quiet period 150ms, grace 150ms, total 300ms.
const (
	testTotal = 300 * time.Millisecond
	testLead  = 150 * time.Millisecond
	// long enough for a due signal, short enough to keep tests fast
	wait = 600 * time.Millisecond
	// long enough to prove a signal is NOT coming
	quietWait = 100 * time.Millisecond
)

type signals struct {
	warnings chan struct{}
	timeouts chan struct{}
}

func newTestWatcher() (*Watcher, *signals) {
	sig := &signals{
		warnings: make(chan struct{}, 8),
		timeouts: make(chan struct{}, 8),
	}
	w := New(testTotal, testLead,
		func() { sig.warnings <- struct{}{} },
		func() { sig.timeouts <- struct{}{} },
	)
	return w, sig
}

func expect(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(wait):
		t.Fatalf("expected %s signal, got none", what)
	}
}

func expectNone(t *testing.T, ch chan struct{}, d time.Duration, what string) {
	t.Helper()
	select {
	case <-ch:
		t.Fatalf("unexpected %s signal", what)
	case <-time.After(d):
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "STOPPED", Stopped.String())
	assert.Equal(t, "IDLE", Idle.String())
	assert.Equal(t, "WARNING", WarningShown.String())
	assert.Equal(t, "UNKNOWN", Phase(99).String())
}

func TestInitialState(t *testing.T) {
	w, _ := newTestWatcher()
	assert.Equal(t, Stopped, w.CurrentPhase())
	assert.False(t, w.Watching())
	assert.True(t, w.Deadline().IsZero())
}

func TestWarnThenTimeout(t *testing.T) {
	w, sig := newTestWatcher()
	w.Start()
	defer w.Stop()

	assert.Equal(t, Idle, w.CurrentPhase())
	assert.False(t, w.Deadline().IsZero())

	expect(t, sig.warnings, "warning")
	assert.Equal(t, WarningShown, w.CurrentPhase())

	expect(t, sig.timeouts, "timeout")
	assert.Equal(t, Stopped, w.CurrentPhase())
	assert.True(t, w.Deadline().IsZero())
}

func TestWarningPrecedesTimeout(t *testing.T) {
	w, sig := newTestWatcher()
	w.Start()
	defer w.Stop()

	expect(t, sig.warnings, "warning")
	// The timeout must not arrive until the grace window has run.
	expectNone(t, sig.timeouts, quietWait, "timeout")
	expect(t, sig.timeouts, "timeout")
}

func TestActivityResetsQuietPeriod(t *testing.T) {
	w, sig := newTestWatcher()
	w.Start()
	defer w.Stop()

	// Keep poking before the quiet period can elapse.
	for i := 0; i < 4; i++ {
		time.Sleep(quietWait)
		w.Activity()
	}
	expectNone(t, sig.warnings, quietWait, "warning")
	assert.Equal(t, Idle, w.CurrentPhase())
}

func TestActivityDuringWarningRestartsCycle(t *testing.T) {
	w, sig := newTestWatcher()
	w.Start()
	defer w.Stop()

	expect(t, sig.warnings, "warning")
	w.Activity()

	assert.Equal(t, Idle, w.CurrentPhase())
	// The cancelled cycle's grace timer must never fire.
	expectNone(t, sig.timeouts, quietWait, "timeout")

	// The full cycle restarted: warning fires again, then timeout.
	expect(t, sig.warnings, "warning")
	expect(t, sig.timeouts, "timeout")
}

func TestStopCancelsEverything(t *testing.T) {
	w, sig := newTestWatcher()
	w.Start()
	w.Stop()

	assert.Equal(t, Stopped, w.CurrentPhase())
	expectNone(t, sig.warnings, wait, "warning")

	// Activity while stopped is a no-op.
	w.Activity()
	assert.Equal(t, Stopped, w.CurrentPhase())
	expectNone(t, sig.warnings, quietWait, "warning")
}

func TestStopDuringWarning(t *testing.T) {
	w, sig := newTestWatcher()
	w.Start()

	expect(t, sig.warnings, "warning")
	w.Stop()
	expectNone(t, sig.timeouts, wait, "timeout")
}

func TestStartWhileWatchingIsSingleReset(t *testing.T) {
	var warnCount atomic.Int32
	w := New(testTotal, testLead,
		func() { warnCount.Add(1) },
		nil,
	)
	defer w.Stop()

	w.Start()
	w.Start()
	w.Start()

	// Only one warning may ever fire for the single surviving cycle.
	time.Sleep(testTotal)
	assert.Equal(t, int32(1), warnCount.Load())
}

func TestLeadClampedBelowTotal(t *testing.T) {
	w := New(100*time.Millisecond, 5*time.Second, nil, nil)
	require.Less(t, w.lead, w.total)
}

func TestFullScenario(t *testing.T) {
	// Scaled-down version of the 300s/30s production cycle: activity
	// arriving during the warning restarts the full window.
	w, sig := newTestWatcher()
	w.Start()
	defer w.Stop()

	expect(t, sig.warnings, "warning")
	w.Activity() // user answers the dialog

	start := time.Now()
	expect(t, sig.warnings, "warning")
	expect(t, sig.timeouts, "timeout")

	// The restarted cycle ran its full course from the activity event.
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, testTotal-testLead)
}
