package usecase

import "sync"

// draftLocks serialises state changes of one draft inside this process.
// Entries are dropped once no caller holds or waits on them.
type draftLocks struct {
	mu    sync.Mutex
	locks map[string]*draftLock
}

type draftLock struct {
	mu   sync.Mutex
	refs int
}

func newDraftLocks() *draftLocks {
	return &draftLocks{locks: make(map[string]*draftLock)}
}

// lock blocks until the caller owns the draft and returns the release func
func (l *draftLocks) lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &draftLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *draftLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
