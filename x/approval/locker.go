package approval

import "sync"

// keyLock serializes mutation per entity id. Requests are retained
// forever anyway, so lock entries are never reclaimed either; the map
// grows with the number of distinct entities seen.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex owning given key and returns its release
// function. Locks for different keys never contend beyond the map
// lookup.
func (k *keyLock) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
