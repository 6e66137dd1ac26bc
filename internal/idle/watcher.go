// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ksadmin/ksadmin/internal/logging"
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is the watcher's current state.
type Phase int

const (
	// Stopped means no timers are armed; the session is inactive.
	Stopped Phase = iota
	// Idle means the quiet-period timer is armed and counting down.
	Idle
	// WarningShown means the warning has fired and the grace timer is
	// armed; without activity the next signal is a forced logout.
	WarningShown
)

// String returns a string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case Stopped:
		return "STOPPED"
	case Idle:
		return "IDLE"
	case WarningShown:
		return "WARNING"
	default:
		return "UNKNOWN"
	}
}

// =============================================================================
// WATCHER
// =============================================================================

// Watcher arms a quiet-period timer while a session is active, emits a
// warning when it elapses, and emits a timeout if no activity arrives
// within the warning lead. Every rearm cancels the previous cycle
// first, so a conceptually cancelled timer can never fire: each cycle
// carries a generation number and stale callbacks check it and bail.
type Watcher struct {
	total time.Duration // last activity to forced logout
	lead  time.Duration // warning appears this long before the deadline

	mu       sync.Mutex
	phase    Phase
	gen      uint64
	timer    *time.Timer
	deadline time.Time // forced-logout instant for the current cycle

	onWarning func()
	onTimeout func()

	log zerolog.Logger
}

// New creates a stopped watcher. total is the full inactivity window;
// lead is how long before its end the warning appears. Callbacks are
// invoked outside the watcher's lock, from timer goroutines.
func New(total, lead time.Duration, onWarning, onTimeout func()) *Watcher {
	if lead >= total {
		lead = total / 2
	}
	return &Watcher{
		total:     total,
		lead:      lead,
		phase:     Stopped,
		onWarning: onWarning,
		onTimeout: onTimeout,
		log:       logging.Component("idle"),
	}
}

// Start begins watching. Idempotent: if already watching it behaves as
// a single activity event (one rearm), never a duplicate timer.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase == Stopped {
		w.log.Debug().Dur("total", w.total).Dur("lead", w.lead).Msg("watching started")
	}
	w.rearmLocked()
}

// Stop cancels any armed timers and returns to Stopped. Called when
// the session becomes inactive.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase == Stopped {
		return
	}
	w.cancelLocked()
	w.phase = Stopped
	w.deadline = time.Time{}
	w.log.Debug().Msg("watching stopped")
}

// Activity records a user input event. No-op when stopped. While
// warned, activity dismisses the warning and restarts the full cycle
// rather than extending the existing grace timer.
func (w *Watcher) Activity() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase == Stopped {
		return
	}
	w.rearmLocked()
}

// Phase returns the current state.
func (w *Watcher) CurrentPhase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Watching reports whether timers are armed.
func (w *Watcher) Watching() bool {
	return w.CurrentPhase() != Stopped
}

// Deadline returns the forced-logout instant of the current cycle, or
// the zero time when stopped. The warning dialog derives its countdown
// from this.
func (w *Watcher) Deadline() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deadline
}

// rearmLocked cancels the current cycle and starts a fresh one in
// phase Idle. Caller holds w.mu.
func (w *Watcher) rearmLocked() {
	w.cancelLocked()
	w.phase = Idle
	w.deadline = time.Now().Add(w.total)

	gen := w.gen
	w.timer = time.AfterFunc(w.total-w.lead, func() { w.quietElapsed(gen) })
}

// cancelLocked stops the armed timer and invalidates in-flight
// callbacks from this cycle. Caller holds w.mu.
func (w *Watcher) cancelLocked() {
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) quietElapsed(gen uint64) {
	w.mu.Lock()
	if gen != w.gen || w.phase != Idle {
		w.mu.Unlock()
		return
	}
	w.phase = WarningShown
	w.timer = time.AfterFunc(w.lead, func() { w.leadElapsed(gen) })
	cb := w.onWarning
	w.mu.Unlock()

	w.log.Info().Dur("grace", w.lead).Msg("inactivity warning")
	if cb != nil {
		cb()
	}
}

func (w *Watcher) leadElapsed(gen uint64) {
	w.mu.Lock()
	if gen != w.gen || w.phase != WarningShown {
		w.mu.Unlock()
		return
	}
	w.cancelLocked()
	w.phase = Stopped
	w.deadline = time.Time{}
	cb := w.onTimeout
	w.mu.Unlock()

	w.log.Info().Msg("inactivity timeout")
	if cb != nil {
		cb()
	}
}
