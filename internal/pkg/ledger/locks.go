package ledger

import "sync"

// pairLocks serializes subscription mutations per viewer/broadcaster pair.
// The pair has a single active-subscription slot: concurrent purchases for
// one pair run in arrival order, while purchases touching different pairs
// proceed in parallel.
type pairLocks struct {
	mu    sync.Mutex
	locks map[pairKey]*sync.Mutex
}

type pairKey struct {
	viewerID      string
	broadcasterID string
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[pairKey]*sync.Mutex)}
}

// Acquire locks the pair's slot and returns the unlock function. Lock
// entries are kept for the process lifetime; the cardinality is the number
// of pairs that ever subscribed on this instance.
func (l *pairLocks) Acquire(viewerID, broadcasterID string) func() {
	key := pairKey{viewerID: viewerID, broadcasterID: broadcasterID}

	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
