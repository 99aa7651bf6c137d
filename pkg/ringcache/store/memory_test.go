package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

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

func TestMemoryIncr(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	n, err := m.Incr(ctx, "ns", "counter", 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	n, err = m.Incr(ctx, "ns", "counter", -1)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestMemoryAddIsFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	won, err := m.Add(ctx, "ns", "lock", "a")
	require.NoError(t, err)
	require.True(t, won)

	won, err = m.Add(ctx, "ns", "lock", "b")
	require.NoError(t, err)
	require.False(t, won)

	v, _, _ := m.Get(ctx, "ns", "lock")
	require.Equal(t, "a", v)
}

func TestMemoryFlushAllOnlyClearsNamedNamespace(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "ns1", "k", "v"))
	require.NoError(t, m.Set(ctx, "ns2", "k", "v"))

	require.NoError(t, m.FlushAll(ctx, "ns1"))

	_, exists, _ := m.Get(ctx, "ns1", "k")
	require.False(t, exists)
	_, exists, _ = m.Get(ctx, "ns2", "k")
	require.True(t, exists)
}
