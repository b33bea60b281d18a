package quoter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache(time.Minute)
	q := validQuote("90", "1", "0.25", 5000)

	c.Put(tokenA, tokenB, "100", q)

	got, ok := c.Get(tokenA, tokenB, "100")
	require.True(t, ok)
	assert.Same(t, q, got)
	assert.Equal(t, 1, c.Len())
}

func TestCacheMissOnDifferentTriple(t *testing.T) {
	c := NewCache(time.Minute)
	c.Put(tokenA, tokenB, "100", validQuote("90", "1", "0", 0))

	_, ok := c.Get(tokenA, tokenB, "200")
	assert.False(t, ok)

	_, ok = c.Get(tokenB, tokenA, "100")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(20 * time.Millisecond)
	c.Put(tokenA, tokenB, "100", validQuote("90", "1", "0", 0))

	_, ok := c.Get(tokenA, tokenB, "100")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)

	_, ok = c.Get(tokenA, tokenB, "100")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry should be evicted on read")
}

func TestCachePutOverwrites(t *testing.T) {
	c := NewCache(time.Minute)
	c.Put(tokenA, tokenB, "100", validQuote("90", "1", "0", 0))

	fresh := validQuote("91", "1", "0", 0)
	c.Put(tokenA, tokenB, "100", fresh)

	got, ok := c.Get(tokenA, tokenB, "100")
	require.True(t, ok)
	assert.Same(t, fresh, got)
	assert.Equal(t, 1, c.Len())
}

func TestCacheInvalidateBothDirections(t *testing.T) {
	c := NewCache(time.Minute)
	c.Put(tokenA, tokenB, "100", validQuote("90", "1", "0", 0))
	c.Put(tokenA, tokenB, "200", validQuote("180", "2", "0", 0))
	c.Put(tokenB, tokenA, "50", validQuote("55", "1", "0", 0))
	c.Put(tokenA, tokenX, "100", validQuote("95", "1", "0", 0))

	c.Invalidate(tokenA, tokenB)

	_, ok := c.Get(tokenA, tokenB, "100")
	assert.False(t, ok)
	_, ok = c.Get(tokenA, tokenB, "200")
	assert.False(t, ok)
	_, ok = c.Get(tokenB, tokenA, "50")
	assert.False(t, ok)

	// Unrelated pair survives.
	_, ok = c.Get(tokenA, tokenX, "100")
	assert.True(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := NewCache(time.Minute)
	c.Put(tokenA, tokenB, "100", validQuote("90", "1", "0", 0))
	c.Put(tokenA, tokenX, "100", validQuote("95", "1", "0", 0))

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCacheDefaultTTL(t *testing.T) {
	c := NewCache(0)
	c.Put(tokenA, tokenB, "100", validQuote("90", "1", "0", 0))

	got, ok := c.Get(tokenA, tokenB, "100")
	require.True(t, ok)
	assert.NotNil(t, got)
}
