package ringcache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-kit/log/level"
	"go.opentelemetry.io/otel/attribute"

	ilog "github.com/Forensiq/indexedRingBuffer/pkg/util/log"
)

// Resize applies newSize as the ring's capacity (spec.md §4.5). Growing
// is cheap: future inserts simply use the wider range. Shrinking drains
// every slot beyond the new boundary.
//
// Resize holds no lock of its own and races with Set by design: Set
// only ever writes slots <= currentSize, and the shrink sweep below
// only touches slots > newSize, so the narrow window where a Set reads
// the old size and writes into (newSize, prevSize] is resolved by the
// shrink sweep evicting that record too (at most one extra eviction,
// per §4.5's own analysis).
//
// Whether Resize is supported while a Drain is in flight is left
// undefined by the source; this implementation does not special-case
// it (see DESIGN.md's Open Question decisions) — the shrink sweep below
// ignores the draining gate entirely, exactly as spec.md §4.5 states.
func (r *Ring) Resize(ctx context.Context, newSize int64) error {
	ctx, span := tracer.Start(ctx, "Ring.Resize")
	defer span.End()
	span.SetAttributes(attribute.Int64("ringcache.new_size", newSize))

	if newSize <= 0 {
		return fmt.Errorf("ringcache: new size must be positive, got %d", newSize)
	}

	prevSize := r.currentSize(ctx)

	if err := r.store.Set(ctx, NamespaceStats, keyCurrentSize, strconv.FormatInt(newSize, 10)); err != nil {
		r.logStoreFailure("write new current size", err)
		return err
	}
	metricCurrentSize.Set(float64(newSize))

	if newSize >= prevSize {
		return nil
	}

	return r.shrink(ctx, prevSize, newSize)
}

// shrink drains every slot beyond newSize, and rewinds the cursor if it
// currently points past the new boundary so the next new-id insert
// wraps correctly (§4.5).
func (r *Ring) shrink(ctx context.Context, prevSize, newSize int64) error {
	posStr, exists, err := r.store.Get(ctx, NamespaceStats, keyCursor)
	if err != nil {
		r.logStoreFailure("read cursor for shrink", err)
	} else if exists {
		if pos, perr := strconv.ParseInt(posStr, 10, 64); perr == nil && pos > newSize {
			if err := r.store.Set(ctx, NamespaceStats, keyCursor, strconv.FormatInt(newSize, 10)); err != nil {
				r.logStoreFailure("rewind cursor for shrink", err)
			}
		}
	}

	batch := make([]EjectTask, 0, prevSize-newSize)
	for p := newSize + 1; p <= prevSize; p++ {
		_, exists, err := r.store.Get(ctx, NamespaceRing, strconv.FormatInt(p, 10))
		if err != nil {
			r.logStoreFailure("probe slot during shrink", err)
			continue
		}
		if !exists {
			continue
		}
		batch = append(batch, EjectTask{Pos: p, Del: true, IsFullDrain: false})
		if len(batch) >= r.cfg.DrainParallelItems {
			r.dispatchBatch(ctx, batch)
			batch = batch[:0]
		}
	}
	r.dispatchBatch(ctx, batch)

	level.Info(ilog.Logger).Log("msg", "ringcache: shrink complete", "prev_size", prevSize, "new_size", newSize)
	return nil
}
