package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopcycle/riscvsim/internal/cache"
)

func basicConfig(policyName string) cache.Config {
	return cache.Config{
		Name:       "L1D",
		SizeBytes:  4 * 64 * 2, // 4 sets, 2 ways, 64-byte lines
		LineSize:   64,
		Ways:       2,
		Policy:     policyName,
		Prefetcher: "none",
	}
}

func TestMissThenHit(t *testing.T) {
	c := cache.New(basicConfig("lru"))

	hit, penalty := c.Access(0, 0x1000, false, 100)
	assert.False(t, hit)
	assert.Equal(t, uint64(100), penalty)

	hit, penalty = c.Access(0, 0x1000, false, 100)
	assert.True(t, hit)
	assert.Equal(t, uint64(0), penalty)
	assert.Equal(t, uint64(1), c.Hits)
	assert.Equal(t, uint64(1), c.Misses)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.New(basicConfig("lru"))

	// Fill both ways of set 0 with two distinct tags that map to the
	// same set: addresses differing by (sets * lineSize) share a set.
	stride := uint64(4 * 64)
	c.Access(0, 0, false, 10)
	c.Access(0, stride, false, 10)
	c.Access(0, 0, false, 10) // touch tag 0 again, making stride's line LRU

	hit, _ := c.Access(0, 2*stride, false, 10)
	assert.False(t, hit)
	// tag 0 should still be resident (it was touched most recently).
	assert.True(t, c.Contains(0))
}

func TestDirtyEvictionChargesWritebackPenalty(t *testing.T) {
	c := cache.New(basicConfig("fifo"))
	stride := uint64(4 * 64)

	c.Access(0, 0, true, 10)          // install dirty
	c.Access(0, stride, false, 10)    // fill second way
	_, penalty := c.Access(0, 2*stride, false, 10) // evict dirty tag 0
	assert.Equal(t, uint64(20), penalty)
}
