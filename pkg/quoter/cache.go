package quoter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"dlmmroute/pkg"
)

// DefaultCacheTTL is how long a cached quote stays servable.
const DefaultCacheTTL = 10 * time.Second

type cacheEntry struct {
	quote     *pkg.Quote
	timestamp time.Time
}

// Cache is a TTL-bounded quote cache keyed by (tokenIn, tokenOut,
// amountIn). Entries expire lazily on read; there is no background
// sweep. Safe for concurrent use; each key is replaced atomically
// (last writer wins).
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewCache creates a cache with the given TTL (DefaultCacheTTL when
// non-positive).
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func cacheKey(tokenIn, tokenOut, amountIn string) string {
	return fmt.Sprintf("%s-%s-%s", tokenIn, tokenOut, amountIn)
}

// Get returns the cached quote for the triple, or (nil, false) when
// absent or expired. An expired entry is evicted on the spot.
func (c *Cache) Get(tokenIn, tokenOut, amountIn string) (*pkg.Quote, bool) {
	key := cacheKey(tokenIn, tokenOut, amountIn)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Since(entry.timestamp) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock: a fresh Put may have raced in.
		if cur, ok := c.entries[key]; ok && time.Since(cur.timestamp) >= c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.quote, true
}

// Put stores a quote under the triple, overwriting any existing entry
// with a fresh timestamp.
func (c *Cache) Put(tokenIn, tokenOut, amountIn string, quote *pkg.Quote) {
	key := cacheKey(tokenIn, tokenOut, amountIn)
	c.mu.Lock()
	c.entries[key] = cacheEntry{quote: quote, timestamp: time.Now()}
	c.mu.Unlock()
}

// Invalidate drops every cached amount for a token pair, in both
// directions. Used when a pool backing the pair is known to have
// changed.
func (c *Cache) Invalidate(tokenA, tokenB string) {
	forward := fmt.Sprintf("%s-%s-", tokenA, tokenB)
	reverse := fmt.Sprintf("%s-%s-", tokenB, tokenA)

	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, forward) || strings.HasPrefix(key, reverse) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Clear removes all entries immediately.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
