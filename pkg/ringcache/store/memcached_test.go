package store

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/grafana/gomemcache/memcache"
	"github.com/stretchr/testify/require"
)

// mockMemcache is an in-process stand-in for *memcache.Client,
// grounded on the teacher's own memcached mock (pkg/cache's
// mockMemcache): a mutex-guarded map, no network involved.
type mockMemcache struct {
	mu       sync.Mutex
	contents map[string][]byte
}

func newMockMemcache() *mockMemcache {
	return &mockMemcache{contents: map[string][]byte{}}
}

func (m *mockMemcache) Get(key string, _ ...memcache.Option) (*memcache.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.contents[key]; ok {
		return &memcache.Item{Key: key, Value: v}, nil
	}
	return nil, memcache.ErrCacheMiss
}

func (m *mockMemcache) Set(item *memcache.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents[item.Key] = item.Value
	return nil
}

func (m *mockMemcache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contents[key]; !ok {
		return memcache.ErrCacheMiss
	}
	delete(m.contents, key)
	return nil
}

func (m *mockMemcache) Add(item *memcache.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.contents[item.Key]; exists {
		return memcache.ErrNotStored
	}
	m.contents[item.Key] = item.Value
	return nil
}

func (m *mockMemcache) Increment(key string, delta uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.contents[key]
	if !ok {
		return 0, memcache.ErrCacheMiss
	}
	cur, _ := strconv.ParseUint(string(v), 10, 64)
	n := cur + delta
	m.contents[key] = []byte(strconv.FormatUint(n, 10))
	return n, nil
}

func (m *mockMemcache) Decrement(key string, delta uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.contents[key]
	if !ok {
		return 0, memcache.ErrCacheMiss
	}
	cur, _ := strconv.ParseUint(string(v), 10, 64)
	if delta > cur {
		delta = cur
	}
	n := cur - delta
	m.contents[key] = []byte(strconv.FormatUint(n, 10))
	return n, nil
}

func (m *mockMemcache) FlushAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents = map[string][]byte{}
	return nil
}

func newTestMemcached() *Memcached {
	return &Memcached{client: newMockMemcache()}
}

// raceLossMemcache wraps mockMemcache to deterministically simulate
// Incr losing the first-writer-wins race to initialize a counter: the
// first Increment reports a miss, then Add reports ErrNotStored as if
// a concurrent caller's Add had already landed a value.
type raceLossMemcache struct {
	*mockMemcache
	incrCalls int
}

func (m *raceLossMemcache) Increment(key string, delta uint64) (uint64, error) {
	m.incrCalls++
	if m.incrCalls == 1 {
		return 0, memcache.ErrCacheMiss
	}
	return m.mockMemcache.Increment(key, delta)
}

func (m *raceLossMemcache) Add(item *memcache.Item) error {
	m.mu.Lock()
	m.contents[item.Key] = []byte("10")
	m.mu.Unlock()
	return memcache.ErrNotStored
}

func TestMemcachedGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := newTestMemcached()

	_, exists, err := m.Get(ctx, "ns", "k")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, m.Set(ctx, "ns", "k", "v"))
	v, exists, err := m.Get(ctx, "ns", "k")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "v", v)

	require.NoError(t, m.Delete(ctx, "ns", "k"))
	_, exists, err = m.Get(ctx, "ns", "k")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestMemcachedAddIsFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	m := newTestMemcached()

	won, err := m.Add(ctx, "ns", "lock", "a")
	require.NoError(t, err)
	require.True(t, won)

	won, err = m.Add(ctx, "ns", "lock", "b")
	require.NoError(t, err)
	require.False(t, won)
}

func TestMemcachedIncrCreatesOnFirstUse(t *testing.T) {
	ctx := context.Background()
	m := newTestMemcached()

	n, err := m.Incr(ctx, "ns", "counter", 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	n, err = m.Incr(ctx, "ns", "counter", 2)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
}

func TestMemcachedIncrFoldsDeltaAfterLostAddRace(t *testing.T) {
	ctx := context.Background()
	m := &Memcached{client: &raceLossMemcache{mockMemcache: newMockMemcache()}}

	n, err := m.Incr(ctx, "ns", "counter", 3)
	require.NoError(t, err)
	require.Equal(t, int64(13), n, "must fold this call's delta into the winner's value (10), not assume delta (3) is the post-increment value")
}

func TestMemcachedFlushAll(t *testing.T) {
	ctx := context.Background()
	m := newTestMemcached()

	require.NoError(t, m.Set(ctx, "ns1", "k", "v"))
	require.NoError(t, m.FlushAll(ctx, "ns1"))

	_, exists, err := m.Get(ctx, "ns1", "k")
	require.NoError(t, err)
	require.False(t, exists)
}
