package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pixshare/imageserve/internal/domain"
)

type memoryEntry struct {
	artifact  domain.CachedArtifact
	expiresAt time.Time
}

// MemoryCache is an in-process artifact cache for development and tests.
// Expired entries are dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemory() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*domain.CachedArtifact, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, domain.ErrCacheMiss
	}

	artifact := entry.artifact
	return &artifact, nil
}

func (c *MemoryCache) Put(ctx context.Context, key string, artifact *domain.CachedArtifact, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{artifact: *artifact, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}
