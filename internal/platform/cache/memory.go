package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache implements Cache in process. Expired entries are dropped on
// read and by a background sweep.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]memoryItem
	now  func() time.Time
	done chan struct{}
	once sync.Once
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	m := newMemoryCache(time.Now)
	go m.sweep(time.Minute)
	return m
}

func newMemoryCache(now func() time.Time) *MemoryCache {
	return &MemoryCache{
		data: make(map[string]memoryItem),
		now:  now,
		done: make(chan struct{}),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	item, ok := m.data[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(item.expiresAt) {
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.data[key] = memoryItem{value: stored, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Ping(context.Context) error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryCache) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, item := range m.data {
		if !now.Before(item.expiresAt) {
			delete(m.data, k)
		}
	}
}

func (m *MemoryCache) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.removeExpired()
		case <-m.done:
			return
		}
	}
}
