package guard

import (
	"sync"
	"time"
)

// ActivityMonitor tracks the rolling last-active timestamp and the coarse
// foreground flag for one guard session. It is pure bookkeeping: whether an
// activity signal counts as presence confirmation is the idle timer's call.
type ActivityMonitor struct {
	mu           sync.Mutex
	clock        Clock
	lastActiveAt time.Time
	foregrounded bool
}

// NewActivityMonitor starts with lastActiveAt = now and the app foregrounded,
// matching a fresh page load.
func NewActivityMonitor(clock Clock) *ActivityMonitor {
	if clock == nil {
		clock = SystemClock()
	}
	return &ActivityMonitor{
		clock:        clock,
		lastActiveAt: clock.Now(),
		foregrounded: true,
	}
}

// RecordActivity notes a qualifying user-input signal.
func (m *ActivityMonitor) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActiveAt = m.clock.Now()
}

// IdleDuration returns the time elapsed since the last qualifying signal.
func (m *ActivityMonitor) IdleDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.clock.Now().Sub(m.lastActiveAt)
	if d < 0 {
		return 0
	}
	return d
}

// LastActiveAt returns the last recorded activity timestamp.
func (m *ActivityMonitor) LastActiveAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActiveAt
}

// SetForegrounded records the app visibility state.
func (m *ActivityMonitor) SetForegrounded(foregrounded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.foregrounded = foregrounded
}

// Foregrounded reports whether the app is currently visible.
func (m *ActivityMonitor) Foregrounded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.foregrounded
}
