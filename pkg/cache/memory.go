package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is the single process Locker used when Redis is not configured.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time), clock: time.Now}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return nil, false, nil
	}

	expires := now.Add(ttl)
	l.held[key] = expires

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if l.held[key].Equal(expires) {
			delete(l.held, key)
		}
	}

	return release, true, nil
}

// MemoryDeduplicator remembers notification ids for ttl within one process.
type MemoryDeduplicator struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	ttl   time.Duration
	clock func() time.Time
}

func NewMemoryDeduplicator(ttl time.Duration) *MemoryDeduplicator {
	return &MemoryDeduplicator{seen: make(map[string]time.Time), ttl: ttl, clock: time.Now}
}

func (d *MemoryDeduplicator) FirstSeen(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()

	for key, expires := range d.seen {
		if !now.Before(expires) {
			delete(d.seen, key)
		}
	}

	if _, ok := d.seen[id]; ok {
		return false, nil
	}

	d.seen[id] = now.Add(d.ttl)

	return true, nil
}
