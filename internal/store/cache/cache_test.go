package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheUpsert(t *testing.T) {
	t.Run("inserts when absent", func(t *testing.T) {
		c := New[string, string](0)
		c.Upsert("sha1", "fix bug")

		v, ok := c.Get("sha1")
		require.True(t, ok)
		assert.Equal(t, "fix bug", v)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("replaces existing value", func(t *testing.T) {
		c := New[string, string](0)
		c.Upsert("sha1", "fix bug")
		c.Upsert("sha1", "fix bug v2")

		v, ok := c.Get("sha1")
		require.True(t, ok)
		assert.Equal(t, "fix bug v2", v)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("missing key", func(t *testing.T) {
		c := New[string, int](0)
		_, ok := c.Get("nope")
		assert.False(t, ok)
	})

	t.Run("rewrite refreshes the write time", func(t *testing.T) {
		c := New[string, int](0)
		c.Upsert("k", 1)
		first, ok := c.Entry("k")
		require.True(t, ok)
		c.Upsert("k", 2)
		second, ok := c.Entry("k")
		require.True(t, ok)
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
		assert.Greater(t, second.seq, first.seq)
	})
}

func TestCacheEviction(t *testing.T) {
	t.Run("evicts oldest write at capacity", func(t *testing.T) {
		c := New[string, string](2)
		c.Upsert("h1", "a")
		c.Upsert("h2", "b")
		c.Upsert("h3", "c")

		_, ok := c.Get("h1")
		assert.False(t, ok, "h1 should have been evicted")
		_, ok = c.Get("h2")
		assert.True(t, ok)
		_, ok = c.Get("h3")
		assert.True(t, ok)
		assert.Equal(t, 2, c.Len())
		assert.Equal(t, uint64(1), c.Evictions())
	})

	t.Run("rewrite moves entry to newest", func(t *testing.T) {
		c := New[string, int](2)
		c.Upsert("h1", 1)
		c.Upsert("h2", 2)
		c.Upsert("h1", 10)
		c.Upsert("h3", 3)

		_, ok := c.Get("h2")
		assert.False(t, ok, "h2 is now the oldest write")
		v, ok := c.Get("h1")
		require.True(t, ok)
		assert.Equal(t, 10, v)
	})

	t.Run("exactly one eviction per insert", func(t *testing.T) {
		const capacity = 5
		c := New[int, int](capacity)
		for i := 0; i < capacity; i++ {
			c.Upsert(i, i)
		}
		for i := capacity; i < capacity+10; i++ {
			before := c.Evictions()
			c.Upsert(i, i)
			assert.Equal(t, before+1, c.Evictions())
			assert.Equal(t, capacity, c.Len())
			_, ok := c.Get(i - capacity)
			assert.False(t, ok, "key %d should be gone", i-capacity)
		}
	})

	t.Run("updating an existing key never evicts", func(t *testing.T) {
		c := New[string, int](2)
		c.Upsert("a", 1)
		c.Upsert("b", 2)
		c.Upsert("a", 3)
		assert.Equal(t, uint64(0), c.Evictions())
		assert.Equal(t, 2, c.Len())
	})

	t.Run("eviction callback", func(t *testing.T) {
		c := New[string, int](1)
		var evicted []string
		c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })
		c.Upsert("a", 1)
		c.Upsert("b", 2)
		assert.Equal(t, []string{"a"}, evicted)
	})

	t.Run("unbounded", func(t *testing.T) {
		c := New[int, int](0)
		for i := 0; i < 500; i++ {
			c.Upsert(i, i)
		}
		assert.Equal(t, 500, c.Len())
		assert.Equal(t, 0, c.Capacity())
	})
}

func TestCacheCompute(t *testing.T) {
	c := New[string, []int](0)
	for i := 0; i < 3; i++ {
		c.Compute("s", func(old []int, found bool) []int {
			if i == 0 {
				assert.False(t, found)
			}
			return append(append([]int(nil), old...), i)
		})
	}
	v, ok := c.Get("s")
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2}, v)
	assert.Equal(t, 1, c.Len())
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New[string, int](0)
	c.Upsert("a", 1)
	c.Upsert("b", 2)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok)
}

func TestCacheRange(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < 20; i++ {
		c.Upsert(i, i*i)
	}
	seen := map[int]int{}
	c.Range(func(k, v int) bool {
		seen[k] = v
		return true
	})
	assert.Len(t, seen, 20)
	assert.Equal(t, 81, seen[9])

	n := 0
	c.Range(func(int, int) bool {
		n++
		return n < 3
	})
	assert.Equal(t, 3, n)
}

func TestCacheConcurrentAccess(t *testing.T) {
	const workers = 16
	const perWorker = 200
	c := New[string, int](100)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("k%d", (w*perWorker+i)%300)
				c.Upsert(key, i)
				c.Get(key)
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 100)
	count := 0
	c.Range(func(string, int) bool {
		count++
		return true
	})
	assert.Equal(t, c.Len(), count)
}

func TestCacheRacingUpsertsKeepNewestSequence(t *testing.T) {
	c := New[string, int](0)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				c.Upsert("head", w*1000+i)
			}
		}(w)
	}
	wg.Wait()

	e, ok := c.Entry("head")
	require.True(t, ok)
	assert.Equal(t, c.seq.Load(), e.seq, "the stored entry carries the last sequence handed out")
}
