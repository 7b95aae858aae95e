package chat

import "sync"

// lockMap hands out one mutex per key. Entries are dropped when the last
// holder releases, so the map only holds keys that are in use.
type lockMap struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockMap() *lockMap {
	return &lockMap{locks: make(map[string]*lockEntry)}
}

// lock blocks until key is free and returns the release func.
func (m *lockMap) lock(key string) func() {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &lockEntry{}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		m.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

func (m *lockMap) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
