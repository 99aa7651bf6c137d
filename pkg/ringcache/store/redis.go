package store

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig configures Redis, grounded on pkg/cache's RedisConfig
// shape (Expiration/Timeout/Endpoint, comma-separated endpoints
// selecting single vs. cluster mode).
type RedisConfig struct {
	// Endpoint is a comma-separated list of host:port addresses. A
	// single address connects in single-node mode; more than one
	// connects a cluster client.
	Endpoint string
	// Expiration is applied to every key written by Set and Add;
	// counters created by Incr carry no expiration. Zero means
	// no expiration, appropriate for a ring's own bookkeeping keys
	// (the ring, not Redis, owns eviction).
	Expiration time.Duration
	// Timeout bounds every Redis round trip.
	Timeout time.Duration
}

// Redis is a ringcache.Store backed by github.com/go-redis/redis/v8.
// Incr uses INCRBY; Add uses SETNX, giving true cross-process
// first-writer-wins semantics for the controller's evaluation lock and
// the drain gate.
type Redis struct {
	cfg    RedisConfig
	client redis.UniversalClient
}

// NewRedis builds a Redis store. A single endpoint connects a plain
// client; multiple (comma-separated) connect a cluster client —
// mirroring pkg/cache.NewRedisClient's single-vs-cluster dispatch.
func NewRedis(cfg RedisConfig) *Redis {
	addrs := strings.Split(cfg.Endpoint, ",")

	var client redis.UniversalClient
	if len(addrs) > 1 {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        addrs,
			DialTimeout:  cfg.Timeout,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:         addrs[0],
			DialTimeout:  cfg.Timeout,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		})
	}

	return &Redis{cfg: cfg, client: client}
}

func (s *Redis) key(namespace, key string) string {
	return namespace + ":" + key
}

func (s *Redis) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(namespace, key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Redis) Set(ctx context.Context, namespace, key, value string) error {
	return s.client.Set(ctx, s.key(namespace, key), value, s.cfg.Expiration).Err()
}

func (s *Redis) Delete(ctx context.Context, namespace, key string) error {
	return s.client.Del(ctx, s.key(namespace, key)).Err()
}

func (s *Redis) Incr(ctx context.Context, namespace, key string, delta int64) (int64, error) {
	return s.client.IncrBy(ctx, s.key(namespace, key), delta).Result()
}

func (s *Redis) Add(ctx context.Context, namespace, key, value string) (bool, error) {
	return s.client.SetNX(ctx, s.key(namespace, key), value, s.cfg.Expiration).Result()
}

// FlushAll removes every key this store wrote under namespace. Redis
// has no native per-prefix flush, so this scans with SCAN + a
// namespace-prefixed match pattern rather than FLUSHALL/FLUSHDB, which
// would also take out any other namespace sharing the same Redis
// instance.
func (s *Redis) FlushAll(ctx context.Context, namespace string) error {
	prefix := namespace + ":"
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

// Close releases the underlying client's connections.
func (s *Redis) Close() error {
	return s.client.Close()
}
