package ringcache

import (
	"context"
	"strconv"

	"github.com/go-kit/log/level"

	ilog "github.com/Forensiq/indexedRingBuffer/pkg/util/log"
)

// Drain empties the ring entirely (spec.md §4.7). It is single-flight:
// of any concurrently-racing callers, exactly one performs the sweep;
// the rest return immediately having done nothing. The source's
// check-then-set on the draining flag is racy (spec.md §9); this
// implementation instead uses the store's Add primitive as an atomic
// compare-and-set, so two Drain calls can never both proceed.
func (r *Ring) Drain(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Ring.Drain")
	defer span.End()

	won, err := r.store.Add(ctx, NamespaceRing, keyDraining, "true")
	if err != nil {
		r.logStoreFailure("acquire drain gate", err)
		return err
	}
	if !won {
		// Another drain is already in flight; this call is a no-op.
		return nil
	}

	size := r.currentSize(ctx)

	batch := make([]EjectTask, 0, r.cfg.DrainParallelItems)
	for p := int64(1); p <= size; p++ {
		_, exists, err := r.store.Get(ctx, NamespaceRing, strconv.FormatInt(p, 10))
		if err != nil {
			r.logStoreFailure("probe slot during drain", err)
			continue
		}
		if !exists {
			continue
		}
		batch = append(batch, EjectTask{Pos: p, Del: false, IsFullDrain: true})
		if len(batch) >= r.cfg.DrainParallelItems {
			r.dispatchBatch(ctx, batch)
			batch = batch[:0]
		}
	}
	r.dispatchBatch(ctx, batch)

	if err := r.store.FlushAll(ctx, NamespaceRing); err != nil {
		r.logStoreFailure("flush ring namespace", err)
	}
	if err := r.store.FlushAll(ctx, NamespaceIndex); err != nil {
		r.logStoreFailure("flush index namespace", err)
	}

	if err := r.store.Set(ctx, NamespaceStats, keyCursor, "0"); err != nil {
		r.logStoreFailure("reset cursor after drain", err)
	}

	// FlushAll on NamespaceRing also removed the draining flag itself;
	// Delete is still issued in case a Store implementation's FlushAll
	// does not wipe every key (e.g. a namespace sharing a keyspace with
	// a TTL-based eviction policy that raced the flush).
	if err := r.store.Delete(ctx, NamespaceRing, keyDraining); err != nil {
		r.logStoreFailure("clear draining flag", err)
	}

	level.Info(ilog.Logger).Log("msg", "ringcache: drain complete", "size", size)
	return nil
}
