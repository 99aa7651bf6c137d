package ringcache

import "context"

// Namespaces the ring opens in the shared store.
const (
	NamespaceRing  = "ring"
	NamespaceIndex = "index"
	NamespaceStats = "stats"
)

// Store is the shared-storage backend the ring depends on: a keyed
// namespace store with atomic increment and first-writer-wins add. Its
// implementation is out of scope for the ring core (spec.md §1); only
// this interface is specified. See pkg/ringcache/store for reference
// implementations (in-memory, Redis, Memcached).
type Store interface {
	// Get returns the value stored at key in namespace, and whether it
	// was present.
	Get(ctx context.Context, namespace, key string) (string, bool, error)

	// Set writes value to key in namespace, last-writer-wins.
	Set(ctx context.Context, namespace, key, value string) error

	// Delete removes key from namespace. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, namespace, key string) error

	// Incr atomically adds delta to the integer stored at key (treating
	// an absent key as zero) and returns the post-increment value.
	Incr(ctx context.Context, namespace, key string, delta int64) (int64, error)

	// Add sets key to value only if key is currently absent. Returns
	// true if this call performed the write (first-writer-wins).
	Add(ctx context.Context, namespace, key, value string) (bool, error)

	// FlushAll removes every key in namespace.
	FlushAll(ctx context.Context, namespace string) error
}
