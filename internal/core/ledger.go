package core

import "sync"

// accountLocks serializes all ledger mutations for a given user. Locks are
// per user; no global lock is ever taken across accounts.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the user's mutex and returns its unlock function.
func (l *accountLocks) lock(userID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	mu, ok := l.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[userID] = mu
	}
	l.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}
