// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kel

import "sync"

// prefixLocks hands out one mutex per identifier. Entries exist only
// while some goroutine holds or waits for them.
type prefixLocks struct {
	mu    sync.Mutex
	locks map[string]*prefixLock
}

type prefixLock struct {
	sync.Mutex
	waiters int
}

// lock blocks until the caller holds key's mutex and returns the
// function that releases it.
func (l *prefixLocks) lock(key string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*prefixLock)
	}
	entry, ok := l.locks[key]
	if !ok {
		entry = &prefixLock{}
		l.locks[key] = entry
	}
	entry.waiters++
	l.mu.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()
		l.mu.Lock()
		entry.waiters--
		if entry.waiters == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
