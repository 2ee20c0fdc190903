package storage

import (
	"sync"
	"time"
)

type memEntry struct {
	value   []byte
	expires time.Time
}

// MemBackend keeps values in process memory.
type MemBackend struct {
	mu  sync.RWMutex
	m   map[string]memEntry
	now func() time.Time
}

func NewMemBackend() *MemBackend {
	return &MemBackend{m: make(map[string]memEntry), now: time.Now}
}

func (b *MemBackend) Get(key string) ([]byte, bool, error) {
	b.mu.RLock()
	e, ok := b.m[key]
	b.mu.RUnlock()

	if !ok || (!e.expires.IsZero() && !b.now().Before(e.expires)) {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (b *MemBackend) Set(key string, value []byte, ttl time.Duration) error {
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = b.now().Add(ttl)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.m[key] = e
	return nil
}

func (b *MemBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.m, key)
	return nil
}

// Has reports whether key is stored, ignoring expiry.
func (b *MemBackend) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.m[key]
	return ok
}
