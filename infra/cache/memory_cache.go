package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/marketledger/pkg/cache"
	"github.com/google/uuid"
)

// MemoryCache implements BalanceCache using in-memory storage.
type MemoryCache struct {
	entries map[uuid.UUID]cacheEntry
	gens    map[uuid.UUID]uint64
	mu      sync.RWMutex
	now     func() time.Time
}

type cacheEntry struct {
	credits   int64
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[uuid.UUID]cacheEntry),
		gens:    make(map[uuid.UUID]uint64),
		now:     time.Now,
	}
}

// Get retrieves a balance from cache. Expired entries are dropped lazily.
func (c *MemoryCache) Get(_ context.Context, userID uuid.UUID) (int64, bool, error) {
	c.mu.RLock()
	entry, exists := c.entries[userID]
	c.mu.RUnlock()
	if !exists {
		return 0, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, userID)
		c.mu.Unlock()
		return 0, false, nil
	}
	return entry.credits, true, nil
}

// Set stores a balance with a TTL.
func (c *MemoryCache) Set(_ context.Context, userID uuid.UUID, credits int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = cacheEntry{credits: credits, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes balances from cache.
func (c *MemoryCache) Delete(_ context.Context, userIDs ...uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		delete(c.entries, id)
		c.gens[id]++
	}
	return nil
}

// Generation returns how many times the user's entry has been invalidated.
func (c *MemoryCache) Generation(_ context.Context, userID uuid.UUID) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[userID], nil
}

// SetIfGeneration stores a balance unless the entry was invalidated after gen.
func (c *MemoryCache) SetIfGeneration(
	_ context.Context,
	userID uuid.UUID,
	gen uint64,
	credits int64,
	ttl time.Duration,
) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen {
		return false, nil
	}
	c.entries[userID] = cacheEntry{credits: credits, expiresAt: c.now().Add(ttl)}
	return true, nil
}

var _ cache.BalanceCache = (*MemoryCache)(nil)
