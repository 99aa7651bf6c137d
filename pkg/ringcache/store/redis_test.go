package store

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return NewRedis(RedisConfig{
		Endpoint:   srv.Addr(),
		Expiration: time.Minute,
		Timeout:    time.Second,
	})
}

func TestRedisGetSetDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	defer r.Close()

	_, exists, err := r.Get(ctx, "ns", "k")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, r.Set(ctx, "ns", "k", "v"))
	v, exists, err := r.Get(ctx, "ns", "k")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "v", v)

	require.NoError(t, r.Delete(ctx, "ns", "k"))
	_, exists, err = r.Get(ctx, "ns", "k")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestRedisIncr(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	defer r.Close()

	n, err := r.Incr(ctx, "ns", "counter", 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	n, err = r.Incr(ctx, "ns", "counter", 2)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
}

func TestRedisAddIsFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	defer r.Close()

	won, err := r.Add(ctx, "ns", "lock", "a")
	require.NoError(t, err)
	require.True(t, won)

	won, err = r.Add(ctx, "ns", "lock", "b")
	require.NoError(t, err)
	require.False(t, won)
}

func TestRedisFlushAllOnlyClearsNamedNamespace(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	defer r.Close()

	require.NoError(t, r.Set(ctx, "ns1", "k", "v"))
	require.NoError(t, r.Set(ctx, "ns2", "k", "v"))

	require.NoError(t, r.FlushAll(ctx, "ns1"))

	_, exists, _ := r.Get(ctx, "ns1", "k")
	require.False(t, exists)
	_, exists, _ = r.Get(ctx, "ns2", "k")
	require.True(t, exists)
}
