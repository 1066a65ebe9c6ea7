package live

import "sync"

// broadcasterLocks serializes session lifecycle operations per broadcaster.
// Each broadcaster's session slot has a single logical owner: start, end and
// forceEnd for one broadcaster run in arrival order, while operations on
// different broadcasters proceed in parallel.
type broadcasterLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newBroadcasterLocks() *broadcasterLocks {
	return &broadcasterLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the broadcaster's slot and returns the unlock function.
// Lock entries are kept for the process lifetime; the cardinality is the
// number of broadcasters that ever went live on this instance.
func (l *broadcasterLocks) Acquire(broadcasterID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[broadcasterID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[broadcasterID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
