// Package cache keeps the parsed pricing configuration close to the services
// so that a checkout does not re-read every setting row.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sangkips/bookshop-pos/internal/domain/pricing"
)

// SnapshotCache stores pricing snapshots under a key
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*pricing.Snapshot, bool, error)
	Set(ctx context.Context, key string, value *pricing.Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NoopSnapshotCache never holds anything
type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(_ context.Context, _ string) (*pricing.Snapshot, bool, error) {
	return nil, false, nil
}

func (NoopSnapshotCache) Set(_ context.Context, _ string, _ *pricing.Snapshot, _ time.Duration) error {
	return nil
}

func (NoopSnapshotCache) Delete(_ context.Context, _ string) error { return nil }

type memoryEntry struct {
	value     pricing.Snapshot
	expiresAt time.Time
}

// MemorySnapshotCache is a process local cache used when Redis is not configured
type MemorySnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemorySnapshotCache) Get(_ context.Context, key string) (*pricing.Snapshot, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	snap := entry.value
	snap.Tiers = append([]pricing.Tier(nil), entry.value.Tiers...)
	return &snap, true, nil
}

// Set stores a copy of value. A zero ttl never expires.
func (c *MemorySnapshotCache) Set(_ context.Context, key string, value *pricing.Snapshot, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	entry := memoryEntry{value: *value}
	entry.value.Tiers = append([]pricing.Tier(nil), value.Tiers...)
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemorySnapshotCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
