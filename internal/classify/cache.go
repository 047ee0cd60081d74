package classify

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a cached classification stays valid.
const DefaultTTL = 24 * time.Hour

// CacheStore is the persisted cache tier. Implementations store one entry
// per hostname; a nil entry with a nil error means absent.
type CacheStore interface {
	GetCachedClassification(ctx context.Context, hostname string) (*CachedEntry, error)
	PutCachedClassification(ctx context.Context, hostname string, entry CachedEntry) error
	ClearClassificationCache(ctx context.Context) error
}

// Cache memoizes classifications per hostname across two tiers: a volatile
// in-process map and a persisted store. The persisted tier is the source of
// truth on cold start; the volatile tier is a read-through accelerator.
// Expiry is evaluated lazily at read time.
type Cache struct {
	mu    sync.Mutex
	mem   map[string]CachedEntry
	store CacheStore
	ttl   time.Duration
	now   func() time.Time
}

// NewCache builds a Cache over the given persisted tier. A zero ttl means
// DefaultTTL.
func NewCache(store CacheStore, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		mem:   make(map[string]CachedEntry),
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns a fresh classification for hostname, tagged with the tier it
// came from (SourceCache or SourceStorageCache). Stale or missing entries
// report ok=false; stale volatile entries are dropped, and fresh persisted
// entries are promoted into the volatile tier.
func (c *Cache) Get(ctx context.Context, hostname string) (Classification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if entry, ok := c.mem[hostname]; ok {
		if now.Sub(entry.CachedAt) < c.ttl {
			data := entry.Data
			data.Source = SourceCache
			return data, true
		}
		delete(c.mem, hostname)
	}

	entry, err := c.store.GetCachedClassification(ctx, hostname)
	if err != nil || entry == nil {
		return Classification{}, false
	}
	if now.Sub(entry.CachedAt) >= c.ttl {
		return Classification{}, false
	}

	c.mem[hostname] = *entry
	data := entry.Data
	data.Source = SourceStorageCache
	return data, true
}

// Put writes the classification to both tiers, timestamped now. The
// persisted tier is keyed per hostname, so concurrent fills for different
// hostnames cannot clobber each other.
func (c *Cache) Put(ctx context.Context, hostname string, data Classification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := CachedEntry{Data: data, CachedAt: c.now()}
	c.mem[hostname] = entry
	return c.store.PutCachedClassification(ctx, hostname, entry)
}

// Clear empties both tiers. Used by the destructive reset operation.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem = make(map[string]CachedEntry)
	return c.store.ClearClassificationCache(ctx)
}

// SetClock overrides the cache's time source. Tests only.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
