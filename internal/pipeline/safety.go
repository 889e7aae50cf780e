package pipeline

import "sync"

// latchedFlag is a one-way fault latch: once tripped it stays active until an
// explicit Reset. Fail-safe rather than fail-open — no automatic un-latching.
type latchedFlag struct {
	mu     sync.Mutex
	active bool
	reason string
}

// Trip activates the latch. Returns true only on the transition, so callers
// can publish a single event per fault.
func (l *latchedFlag) Trip(reason string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active {
		return false
	}
	l.active = true
	l.reason = reason
	return true
}

// Active reports whether the latch is tripped.
func (l *latchedFlag) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Reason returns what tripped the latch, or "" when inactive.
func (l *latchedFlag) Reason() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return ""
	}
	return l.reason
}

// Reset clears the latch. This is the only transition out of the tripped state.
func (l *latchedFlag) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = false
	l.reason = ""
}
