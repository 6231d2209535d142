package service

import (
	"context"
	"sync"
	"time"
)

// dedupCache collapses provider retry bursts within a short window.
// Purely advisory: the events table's uniqueness constraint is the source
// of truth, the cache only saves a round trip on hot duplicates
type dedupCache struct {
	ttl   time.Duration
	sweep time.Duration

	mu   sync.Mutex
	seen map[string]time.Time

	now func() time.Time
}

func newDedupCache(ttl, sweep time.Duration) *dedupCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if sweep <= 0 {
		sweep = 30 * time.Second
	}
	return &dedupCache{
		ttl:   ttl,
		sweep: sweep,
		seen:  make(map[string]time.Time),
		now:   time.Now,
	}
}

// Register records key and reports whether it was already live in the window
func (c *dedupCache) Register(key string) bool {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.seen[key]
	c.seen[key] = now
	return ok && now.Sub(at) <= c.ttl
}

// Run sweeps expired entries until ctx is done.
// Expiry is swept periodically, not inline per lookup, to bound memory
// without taxing the hot path
func (c *dedupCache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *dedupCache) purge() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	for k, at := range c.seen {
		if at.Before(cutoff) {
			delete(c.seen, k)
		}
	}
	c.mu.Unlock()
}

// Len reports live entries, swept or not
func (c *dedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
