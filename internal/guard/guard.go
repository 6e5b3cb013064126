// Package guard provides the per-session submission lock.
//
// At most one validate-execute cycle may be in flight per kiosk session.
// The guard is the single source of truth for that: UI-level disabling can
// drift out of sync with reality, a compare-and-set cannot.
package guard

import "sync/atomic"

// Guard is a non-blocking mutual-exclusion lock for one submission cycle.
//
// A caller that fails TryAcquire must discard its attempt (log and no-op),
// never queue it. Release uses compare-and-set so a double release is
// detectable rather than silently corrupting: it returns false and the
// caller treats it as a defect.
type Guard struct {
	held atomic.Bool
}

// New creates an unheld guard.
func New() *Guard {
	return &Guard{}
}

// TryAcquire attempts to take the lock.
// Returns false if a cycle is already in flight.
func (g *Guard) TryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

// Release returns the lock.
// Returns false if the guard was not held - a double release or a release
// without acquire, both defects the caller should log.
func (g *Guard) Release() bool {
	return g.held.CompareAndSwap(true, false)
}

// Held reports whether a cycle currently holds the lock.
func (g *Guard) Held() bool {
	return g.held.Load()
}
