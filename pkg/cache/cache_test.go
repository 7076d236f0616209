package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/protorules/pkg/cache"
)

func TestCache_GetOrCompile(t *testing.T) {
	t.Parallel()

	t.Run("compiles once per key", func(t *testing.T) {
		t.Parallel()
		c := cache.New[string, int](4)
		calls := 0
		compile := func(k string) (int, error) {
			calls++
			return len(k), nil
		}

		v, err := c.GetOrCompile("abc", compile)
		require.NoError(t, err)
		assert.Equal(t, 3, v)

		v, err = c.GetOrCompile("abc", compile)
		require.NoError(t, err)
		assert.Equal(t, 3, v)
		assert.Equal(t, 1, calls)

		st := c.Stats()
		assert.Equal(t, uint64(1), st.Hits)
		assert.Equal(t, uint64(1), st.Misses)
	})

	t.Run("does not store failures", func(t *testing.T) {
		t.Parallel()
		c := cache.New[string, int](4)
		boom := errors.New("boom")

		_, err := c.GetOrCompile("x", func(string) (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, c.Len())

		v, err := c.GetOrCompile("x", func(string) (int, error) { return 7, nil })
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})
}

func TestCache_Eviction(t *testing.T) {
	t.Parallel()

	t.Run("drops least recently used", func(t *testing.T) {
		t.Parallel()
		c := cache.New[string, int](2)
		var evicted []string
		c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

		c.Put("a", 1)
		c.Put("b", 2)
		_, _ = c.Get("a")
		c.Put("c", 3)

		_, ok := c.Get("b")
		assert.False(t, ok)
		_, ok = c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, []string{"b"}, evicted)
		assert.Equal(t, uint64(1), c.Stats().Evictions)
	})

	t.Run("remove and purge", func(t *testing.T) {
		t.Parallel()
		c := cache.New[int, string](3)
		c.Put(1, "one")
		c.Put(2, "two")

		assert.True(t, c.Remove(1))
		assert.False(t, c.Remove(1))
		c.Purge()
		assert.Equal(t, 0, c.Len())
	})

	t.Run("panics on non positive capacity", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { cache.New[int, int](0) })
	})
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()
	c := cache.New[string, string](16)

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%8)
			v, err := c.GetOrCompile(key, func(k string) (string, error) { return k + "!", nil })
			assert.NoError(t, err)
			assert.Equal(t, key+"!", v)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, c.Len())
}
