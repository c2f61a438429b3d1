package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4") // evicts key1

	_, found := c.Get("key1")
	assert.False(t, found, "key1 should have been evicted")
	for _, k := range []string{"key2", "key3", "key4"} {
		_, found := c.Get(k)
		assert.True(t, found, k)
	}
	assert.Equal(t, 3, c.Size())
}

func TestLRUCacheRecencyProtectsEntry(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3) // evicts b, the least recently used

	_, found := c.Get("b")
	assert.False(t, found)
	v, found := c.Get("a")
	assert.True(t, found)
	assert.Equal(t, 1, v)
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute).WithClock(func() time.Time { return now })
	c.Set("k", "v")
	_, found := c.Get("k")
	assert.True(t, found)

	now = now.Add(time.Minute)
	_, found = c.Get("k")
	assert.False(t, found, "entry expires exactly at its ttl")
	assert.Zero(t, c.Size())

	c.Set("a", "1")
	now = now.Add(30 * time.Second)
	c.Set("b", "2")
	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, c.CleanExpired())
	_, found = c.Get("b")
	assert.True(t, found)
}

func TestLRUCacheZeroTTLDisablesCaching(t *testing.T) {
	c := NewLRUCache[string](10, 0)
	c.Set("k", "v")
	_, found := c.Get("k")
	assert.False(t, found)
}

func TestLRUCacheClearAndDelete(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprint(i), i)
	}
	c.Delete("0")
	assert.Equal(t, 4, c.Size())

	c.Clear()
	assert.Zero(t, c.Size())
	_, found := c.Get("1")
	assert.False(t, found)

	c.Set("again", 1)
	assert.Equal(t, 1, c.Size())
}

func TestLRUCacheSetAtSkipsAfterClear(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)

	gen := c.Generation()
	assert.True(t, c.SetAt(gen, "a", 1))

	stale := c.Generation()
	c.Clear()
	assert.False(t, c.SetAt(stale, "a", 2), "value computed before Clear must not be stored")
	_, found := c.Get("a")
	assert.False(t, found)

	assert.True(t, c.SetAt(c.Generation(), "a", 3))
	v, found := c.Get("a")
	assert.True(t, found)
	assert.Equal(t, 3, v)
}

func TestLRUCacheStats(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.Set("a", 1)
	c.Get("a")
	c.Get("missing")
	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRUCacheConcurrentAccess(t *testing.T) {
	c := NewLRUCache[int](50, time.Hour)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("%d-%d", g, i%20)
				c.Set(k, i)
				c.Get(k)
				if i%50 == 0 {
					c.Clear()
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Size(), 50)
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)
	defer m.Stop()

	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()
}
