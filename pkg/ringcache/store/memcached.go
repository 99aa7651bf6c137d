package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/grafana/gomemcache/memcache"
)

// memcacheClient is the subset of *memcache.Client this store depends
// on, narrowed to an interface so tests can swap in an in-process
// mock instead of dialing a real memcached — the same seam the
// teacher's own memcached tests use.
type memcacheClient interface {
	Get(key string, opts ...memcache.Option) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
	Increment(key string, delta uint64) (uint64, error)
	Decrement(key string, delta uint64) (uint64, error)
	Add(item *memcache.Item) error
	FlushAll() error
}

// Memcached is a ringcache.Store backed by
// github.com/grafana/gomemcache. Incr uses the protocol's native
// Increment command; Add uses the protocol's native Add
// (add-if-absent), giving cross-process first-writer-wins semantics
// without a compare-and-swap round trip. A negative delta goes through
// Decrement instead: memcached floors the result at zero, and an
// absent key is returned as memcache.ErrCacheMiss rather than treated
// as zero.
type Memcached struct {
	client memcacheClient
}

// NewMemcached builds a Memcached store over the given server
// addresses (host:port).
func NewMemcached(servers ...string) *Memcached {
	return &Memcached{client: memcache.New(servers...)}
}

func (s *Memcached) key(namespace, key string) string {
	return namespace + ":" + key
}

func (s *Memcached) Get(_ context.Context, namespace, key string) (string, bool, error) {
	item, err := s.client.Get(s.key(namespace, key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(item.Value), true, nil
}

func (s *Memcached) Set(_ context.Context, namespace, key, value string) error {
	return s.client.Set(&memcache.Item{
		Key:   s.key(namespace, key),
		Value: []byte(value),
	})
}

func (s *Memcached) Delete(_ context.Context, namespace, key string) error {
	err := s.client.Delete(s.key(namespace, key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

func (s *Memcached) Incr(_ context.Context, namespace, key string, delta int64) (int64, error) {
	fullKey := s.key(namespace, key)

	if delta >= 0 {
		newVal, err := s.client.Increment(fullKey, uint64(delta))
		if errors.Is(err, memcache.ErrCacheMiss) {
			addErr := s.client.Add(&memcache.Item{Key: fullKey, Value: []byte(strconv.FormatInt(delta, 10))})
			if addErr == nil {
				return delta, nil
			}
			if !errors.Is(addErr, memcache.ErrNotStored) {
				return 0, addErr
			}
			// Lost the race to initialize the counter: another caller's
			// Add already won, so fold this call's delta into the value
			// it wrote instead of assuming delta is the post-increment
			// value.
			newVal, err = s.client.Increment(fullKey, uint64(delta))
			if err != nil {
				return 0, err
			}
			return int64(newVal), nil
		}
		if err != nil {
			return 0, err
		}
		return int64(newVal), nil
	}

	newVal, err := s.client.Decrement(fullKey, uint64(-delta))
	if err != nil {
		return 0, err
	}
	return int64(newVal), nil
}

func (s *Memcached) Add(_ context.Context, namespace, key, value string) (bool, error) {
	err := s.client.Add(&memcache.Item{
		Key:   s.key(namespace, key),
		Value: []byte(value),
	})
	if errors.Is(err, memcache.ErrNotStored) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FlushAll flushes the entire memcached instance. Unlike Redis,
// memcached has no prefix-scoped flush, so — as with the source's own
// flush_all — this takes out every namespace sharing the connection,
// not just the one named; callers that need isolation should point
// each namespace at its own memcached instance.
func (s *Memcached) FlushAll(_ context.Context, _ string) error {
	return s.client.FlushAll()
}
