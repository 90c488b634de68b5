package httpapi

import "sync"

type resolveKey struct {
	sessionID string
	turn      int64
}

// resolveLocks serializes resolution per (session, turn). The engine has no
// internal mutual exclusion, so the API layer refuses a second concurrent
// resolve for the same turn instead of queueing it.
type resolveLocks struct {
	mu       sync.Mutex
	inFlight map[resolveKey]bool
}

func newResolveLocks() *resolveLocks {
	return &resolveLocks{inFlight: make(map[resolveKey]bool)}
}

// tryAcquire reports whether the caller obtained the (session, turn) slot.
func (l *resolveLocks) tryAcquire(sessionID string, turn int64) bool {
	key := resolveKey{sessionID: sessionID, turn: turn}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight[key] {
		return false
	}
	l.inFlight[key] = true
	return true
}

func (l *resolveLocks) release(sessionID string, turn int64) {
	key := resolveKey{sessionID: sessionID, turn: turn}
	l.mu.Lock()
	delete(l.inFlight, key)
	l.mu.Unlock()
}
