package cache_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestLRUCache_Basic(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	old, existed := c.Put("a", 10)
	assert.True(t, existed)
	assert.Equal(t, 1, old)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	removed, ok := c.Remove("b")
	assert.True(t, ok)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
}

func TestLRUCache_Eviction(t *testing.T) {
	t.Parallel()

	var evicted []string
	c := cache.NewLRUCache[string, int](2)
	c.SetEvictCallback(func(k string, _ int) { evicted = append(evicted, k) })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, []string{"c", "a"}, c.Keys())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.ElementsMatch(t, []string{"b", "a", "c"}, evicted)
}

func TestLRUCache_TTL(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := cache.NewLRUCache[string, string](10)
	c.SetClock(clock.Now)
	c.SetTTL(time.Minute)

	c.Put("token", "payload")
	clock.Advance(30 * time.Second)
	v, ok := c.Get("token")
	require.True(t, ok)
	assert.Equal(t, "payload", v)

	clock.Advance(31 * time.Second)
	_, ok = c.Get("token")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	c.Put("other", "x")
	clock.Advance(2 * time.Minute)
	assert.Empty(t, c.Keys())
	_, ok = c.Remove("other")
	assert.False(t, ok)
}

func TestLRUCache_PutIfAbsent(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](4)

	actual, stored := c.PutIfAbsent("k", 1)
	assert.True(t, stored)
	assert.Equal(t, 1, actual)

	actual, stored = c.PutIfAbsent("k", 2)
	assert.False(t, stored)
	assert.Equal(t, 1, actual)
}

func TestLRUCache_GetOrCompute(t *testing.T) {
	t.Parallel()

	t.Run("computes once then reuses", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](4)
		calls := 0
		fn := func() (int, error) { calls++; return 42, nil }

		v, err := c.GetOrCompute("k", fn)
		require.NoError(t, err)
		assert.Equal(t, 42, v)

		v, err = c.GetOrCompute("k", fn)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 1, calls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](4)
		boom := errors.New("boom")
		_, err := c.GetOrCompute("k", func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("concurrent callers agree on first value", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](4)

		const workers = 32
		results := make([]int, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := c.GetOrCompute("shared", func() (int, error) { return i, nil })
				assert.NoError(t, err)
				results[i] = v
			}()
		}
		wg.Wait()

		for _, v := range results {
			assert.Equal(t, results[0], v)
		}
	})
}

func TestLRUCache_Update(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2)
	c.Put("a", 1)

	found, err := c.Update("a", func(v int) (int, error) { return v + 1, nil })
	require.NoError(t, err)
	assert.True(t, found)
	v, _ := c.Get("a")
	assert.Equal(t, 2, v)

	boom := errors.New("boom")
	found, err = c.Update("a", func(int) (int, error) { return 100, boom })
	assert.True(t, found)
	assert.ErrorIs(t, err, boom)
	v, _ = c.Get("a")
	assert.Equal(t, 2, v, "failed update leaves the value")

	called := false
	found, err = c.Update("missing", func(v int) (int, error) {
		called = true
		return v, nil
	})
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, called)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCache_InvalidCapacity(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
	assert.Panics(t, func() { cache.NewLRUCache[string, int](-1) })
}
