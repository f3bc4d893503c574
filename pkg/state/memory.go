package state

import (
	"context"
	"path/filepath"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store. Drafts kept here
// live as long as the process.
type MemoryStore struct {
	items     map[string]memoryItem
	mu        sync.RWMutex
	closed    bool
	cleanupCh chan struct{}
	now       func() time.Time
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (it memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// NewMemoryStore creates a new in-memory store whose janitor sweeps
// expired entries every interval (one minute when interval <= 0).
func NewMemoryStore(interval time.Duration) *MemoryStore {
	if interval <= 0 {
		interval = time.Minute
	}
	ms := &MemoryStore{
		items:     make(map[string]memoryItem),
		cleanupCh: make(chan struct{}),
		now:       time.Now,
	}

	go ms.cleanupLoop(interval)

	return ms
}

// Get retrieves a copy of a value.
func (ms *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return nil, ErrStoreClosed
	}

	item, ok := ms.items[key]
	if !ok || item.expired(ms.now()) {
		return nil, ErrKeyNotFound
	}

	return append([]byte(nil), item.value...), nil
}

// Set stores a copy of value.
func (ms *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrStoreClosed
	}

	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = ms.now().Add(ttl)
	}
	ms.items[key] = item
	return nil
}

// Delete removes a key.
func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrStoreClosed
	}

	delete(ms.items, key)
	return nil
}

// Exists checks if a live key exists.
func (ms *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return false, ErrStoreClosed
	}

	item, ok := ms.items[key]
	return ok && !item.expired(ms.now()), nil
}

// Keys returns keys matching a glob pattern; * matches any sequence.
func (ms *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return nil, ErrStoreClosed
	}

	var keys []string
	now := ms.now()
	for key, item := range ms.items {
		if item.expired(now) {
			continue
		}
		if matched, err := filepath.Match(pattern, key); err == nil && matched {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Ping fails once the store is closed.
func (ms *MemoryStore) Ping(ctx context.Context) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if ms.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close stops the janitor. Closing twice is a no-op.
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return nil
	}
	ms.closed = true
	close(ms.cleanupCh)
	return nil
}

// Len returns the number of items in the store, expired ones included.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.items)
}

func (ms *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.cleanup()
		case <-ms.cleanupCh:
			return
		}
	}
}

func (ms *MemoryStore) cleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	for key, item := range ms.items {
		if item.expired(now) {
			delete(ms.items, key)
		}
	}
}
