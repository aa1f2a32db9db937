package guard

import (
	"context"
	"sync"
	"time"
)

// TimerPhase is the idle timer's finite state.
type TimerPhase int

const (
	// PhaseTimerActive means the session has recent activity and no countdown runs.
	PhaseTimerActive TimerPhase = iota
	// PhaseTimerWarning means the user-visible countdown is running.
	PhaseTimerWarning
	// PhaseTimerExpired is terminal; the session terminator has been invoked.
	PhaseTimerExpired
)

func (p TimerPhase) String() string {
	switch p {
	case PhaseTimerActive:
		return "ACTIVE"
	case PhaseTimerWarning:
		return "WARNING"
	case PhaseTimerExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// TimerState is the snapshot delivered to subscribers. SecondsRemaining is
// meaningful only in the warning phase and never goes negative.
type TimerState struct {
	Phase            TimerPhase
	SecondsRemaining int
}

// IdleTimerConfig carries the two windows that shape the countdown.
// The idle threshold is silent; the warning window is the visible,
// acknowledgeable countdown before forced logout.
type IdleTimerConfig struct {
	IdleThreshold time.Duration
	WarningWindow time.Duration
}

// IdleTimer is the tick-driven countdown state machine. Ticks advance it,
// explicit presence confirmation resets it, and expiry invokes the
// termination callback exactly once.
type IdleTimer struct {
	mu               sync.Mutex
	clock            Clock
	activity         *ActivityMonitor
	idleThreshold    time.Duration
	warningWindow    time.Duration
	phase            TimerPhase
	warningStartedAt time.Time
	secondsRemaining int
	expireFired      bool
	onExpire         func()
	listeners        map[int]func(TimerState)
	nextListenerID   int
}

// NewIdleTimer builds a timer in the active phase. onExpire is invoked at
// most once across countdown expiry and explicit logout.
func NewIdleTimer(clock Clock, activity *ActivityMonitor, cfg IdleTimerConfig, onExpire func()) *IdleTimer {
	if clock == nil {
		clock = SystemClock()
	}
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = 5 * time.Minute
	}
	if cfg.WarningWindow <= 0 {
		cfg.WarningWindow = 30 * time.Second
	}
	return &IdleTimer{
		clock:         clock,
		activity:      activity,
		idleThreshold: cfg.IdleThreshold,
		warningWindow: cfg.WarningWindow,
		phase:         PhaseTimerActive,
		onExpire:      onExpire,
		listeners:     make(map[int]func(TimerState)),
	}
}

// State returns the current snapshot.
func (t *IdleTimer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *IdleTimer) stateLocked() TimerState {
	return TimerState{Phase: t.phase, SecondsRemaining: t.secondsRemaining}
}

// Subscribe registers a listener for state snapshots. Listeners are pure
// renderers; they must not drive transitions. The returned function cancels
// the subscription.
func (t *IdleTimer) Subscribe(listener func(TimerState)) func() {
	t.mu.Lock()
	id := t.nextListenerID
	t.nextListenerID++
	t.listeners[id] = listener
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

// Tick advances the state machine one step. Remaining seconds are derived
// from the wall clock rather than tick counts, so a backgrounded client that
// missed ticks converges to the correct value on the next tick.
func (t *IdleTimer) Tick() {
	t.mu.Lock()
	switch t.phase {
	case PhaseTimerExpired:
		t.mu.Unlock()
		return
	case PhaseTimerActive:
		if t.activity.IdleDuration() < t.idleThreshold {
			t.mu.Unlock()
			return
		}
		t.phase = PhaseTimerWarning
		t.warningStartedAt = t.clock.Now()
		t.secondsRemaining = int(t.warningWindow / time.Second)
		t.notifyAndUnlock()
		return
	case PhaseTimerWarning:
		remaining := t.warningWindow - t.clock.Now().Sub(t.warningStartedAt)
		if remaining <= 0 {
			t.expireLocked()
			return
		}
		secs := int((remaining + time.Second - 1) / time.Second)
		if secs > t.secondsRemaining {
			// Clock anomalies must not make the countdown regress upward.
			secs = t.secondsRemaining
		}
		t.secondsRemaining = secs
		t.notifyAndUnlock()
		return
	}
	t.mu.Unlock()
}

// StillHere is the explicit presence confirmation. It resets the countdown
// to active and counts as activity. Processed before an expiry tick it always
// wins; after expiry it is a no-op.
func (t *IdleTimer) StillHere() {
	t.mu.Lock()
	if t.phase == PhaseTimerExpired {
		t.mu.Unlock()
		return
	}
	t.activity.RecordActivity()
	t.phase = PhaseTimerActive
	t.secondsRemaining = 0
	t.notifyAndUnlock()
}

// RequestLogout takes the same terminal transition as countdown expiry.
// The terminator fires at most once across both paths.
func (t *IdleTimer) RequestLogout() {
	t.mu.Lock()
	if t.phase == PhaseTimerExpired {
		t.mu.Unlock()
		return
	}
	t.expireLocked()
}

// Run drives the timer from a periodic ticker until ctx is cancelled.
// The owning session cancels ctx at termination so no ticker leaks.
func (t *IdleTimer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
			if t.State().Phase == PhaseTimerExpired {
				return
			}
		}
	}
}

// expireLocked transitions to the terminal phase and fires onExpire once.
// Callers must hold the mutex; it is released before the callback runs.
func (t *IdleTimer) expireLocked() {
	t.phase = PhaseTimerExpired
	t.secondsRemaining = 0
	fire := !t.expireFired && t.onExpire != nil
	t.expireFired = true
	onExpire := t.onExpire
	t.notifyAndUnlock()
	if fire {
		onExpire()
	}
}

// notifyAndUnlock snapshots listeners and state, releases the mutex, then
// delivers. Listeners never run under the lock.
func (t *IdleTimer) notifyAndUnlock() {
	state := t.stateLocked()
	fns := make([]func(TimerState), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}
