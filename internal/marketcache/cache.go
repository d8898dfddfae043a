package marketcache

import (
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
)

// DefaultTTL applies when Put is called without a positive ttl.
const DefaultTTL = 30 * time.Second

// Entry is a cached snapshot together with the time it was stored and how long it stays fresh.
type Entry struct {
	Snapshot types.MarketSnapshot
	StoredAt time.Time
	TTL      time.Duration
}

// IsExpired reports whether the entry outlived its ttl at now.
func (e Entry) IsExpired(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL
}

// Cache holds the latest snapshot per symbol. It never evicts on its own; staleness is checked
// by the reader through Snapshot or Entry.IsExpired. Concurrent writers are last-writer-wins.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	defaultTTL time.Duration
	now        func() time.Time
}

func NewCache(defaultTTL time.Duration) *Cache {
	return NewCacheWithClock(defaultTTL, time.Now)
}

// NewCacheWithClock creates a cache that stamps entries with the given clock.
func NewCacheWithClock(defaultTTL time.Duration, now func() time.Time) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	if now == nil {
		now = time.Now
	}

	return &Cache{
		entries:    make(map[string]Entry),
		defaultTTL: defaultTTL,
		now:        now,
	}
}

// Put stores the snapshot under symbol. A ttl of zero or less uses the cache default.
func (c *Cache) Put(symbol string, snapshot types.MarketSnapshot, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if snapshot.Symbol == "" {
		snapshot.Symbol = symbol
	}

	storedAt := c.now()
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = storedAt
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[symbol] = Entry{
		Snapshot: snapshot,
		StoredAt: storedAt,
		TTL:      ttl,
	}
}

// Get returns the raw entry for symbol, expired or not.
func (c *Cache) Get(symbol string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]

	return entry, ok
}

// Snapshot returns the cached snapshot for symbol when it is still fresh at now.
// Expired entries are treated as absent.
func (c *Cache) Snapshot(symbol string, now time.Time) optional.Option[types.MarketSnapshot] {
	entry, ok := c.Get(symbol)
	if !ok || entry.IsExpired(now) {
		return optional.None[types.MarketSnapshot]()
	}

	snapshot := entry.Snapshot
	snapshot.Source = types.SnapshotSourceCache

	return optional.Some(snapshot)
}

// Len returns the number of entries including expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Prune removes entries expired at now and returns how many were removed.
func (c *Cache) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0

	for symbol, entry := range c.entries {
		if entry.IsExpired(now) {
			delete(c.entries, symbol)
			removed++
		}
	}

	return removed
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
}
