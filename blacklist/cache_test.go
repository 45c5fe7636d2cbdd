package blacklist

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_PutContains(t *testing.T) {
	c := New(10, time.Hour)

	assert.False(t, c.Contains("tok-a"))
	c.Put("tok-a")
	assert.True(t, c.Contains("tok-a"))
	assert.False(t, c.Contains("tok-b"))
	assert.Equal(t, 1, c.Len())

	c.Put("")
	assert.Equal(t, 1, c.Len(), "empty token is ignored")
}

// TestCache_CapacityEvictsLeastRecentlyUsed 超出容量淘汰最久未使用
func TestCache_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(3, time.Hour)
	c.Put("a")
	c.Put("b")
	c.Put("c")

	assert.True(t, c.Contains("a")) // a becomes most recent
	c.Put("d")                      // evicts b

	assert.Equal(t, 3, c.Len())
	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
	assert.True(t, c.Contains("d"))
}

func TestCache_TTL(t *testing.T) {
	c := New(10, 100*time.Millisecond)
	c.Put("a")
	assert.True(t, c.Contains("a"))

	assert.Eventually(t, func() bool { return !c.Contains("a") }, 2*time.Second, 20*time.Millisecond)
}

func TestCache_Concurrent(t *testing.T) {
	c := New(1000, time.Hour)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				tok := fmt.Sprintf("g%d-%d", g, i)
				c.Put(tok)
				c.Contains(tok)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 1000, c.Len())
}

func TestCache_Purge(t *testing.T) {
	c := New(10, time.Minute)
	c.Put("a")
	c.Put("b")

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Contains("a"))

	c.Put("a")
	assert.True(t, c.Contains("a"))
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults(DefaultRefreshConfig())
	assert.Equal(t, 5000, cfg.Capacity)
	assert.Equal(t, 7*24*time.Hour, cfg.TTL)
	assert.NoError(t, cfg.Validate())

	access := DefaultAccessConfig()
	assert.Equal(t, 10000, access.Capacity)
	assert.Equal(t, 24*time.Hour, access.TTL)

	bad := Config{Capacity: -1, TTL: time.Hour}
	assert.Error(t, bad.Validate())

	assert.NotNil(t, NewFromConfig(access))
}
