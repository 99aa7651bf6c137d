package ringcache

import (
	"context"
	"strconv"

	"github.com/go-kit/log/level"

	ilog "github.com/Forensiq/indexedRingBuffer/pkg/util/log"
)

// evict invokes the eviction sink for (id, record), recovering from a
// panicking sink so one bad consumer cannot take the ring down with it
// — the spec's "failures logged and swallowed" policy (§4.2, §7)
// extended to the one failure mode a Go callback can produce that a
// Lua one cannot.
func (r *Ring) evict(ctx context.Context, id string, record Record, isFullDrain bool) {
	metricEvictionsTotal.Inc()
	if r.ejectFn == nil {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			metricSinkFailuresTotal.Inc()
			level.Error(ilog.Logger).Log("msg", "ringcache: eviction sink panicked", "id", id, "err", rec)
		}
	}()

	r.ejectFn(ctx, id, r.schema.makeReadable(record), isFullDrain)
}

// ejectItem reads slot pos, decodes it, notifies the sink, and
// optionally deletes the index entry and the slot itself (§4.4).
// isFullDrain distinguishes drain-time eviction from overwrite/shrink.
func (r *Ring) ejectItem(ctx context.Context, pos int64, alsoDelete, isFullDrain bool) {
	slotStr := strconv.FormatInt(pos, 10)

	entryStr, exists, err := r.store.Get(ctx, NamespaceRing, slotStr)
	if err != nil {
		r.logStoreFailure("get slot for eject", err)
		return
	}
	if !exists {
		return
	}
	entry, ok := decodeSlotEntry(entryStr)
	if !ok {
		return
	}

	r.evict(ctx, entry.ID, entry.Record, isFullDrain)

	if alsoDelete {
		if err := r.store.Delete(ctx, NamespaceIndex, entry.ID); err != nil {
			r.logStoreFailure("delete index entry during eject", err)
		}
		if err := r.store.Delete(ctx, NamespaceRing, slotStr); err != nil {
			r.logStoreFailure("delete slot during eject", err)
		}
	}
}

// ejectItemInline is the callback the default in-process pool invokes
// for each task in a batch; it is also what ParallelTransport.Eject is
// expected to end up calling, directly or across a transport boundary.
func (r *Ring) ejectItemInline(ctx context.Context, task EjectTask) {
	r.ejectItem(ctx, task.Pos, task.Del, task.IsFullDrain)
}

// dispatchBatch hands a non-empty batch of slot positions to the
// configured ParallelTransport, whatever its size; there is no inline
// fallback for small batches. A transport error is logged, not
// returned. The choice between
// inline and parallel is a pure performance decision and must not
// change observable semantics beyond timing (§4.4).
func (r *Ring) dispatchBatch(ctx context.Context, batch []EjectTask) {
	if len(batch) == 0 {
		return
	}

	if err := r.transport.Eject(ctx, batch); err != nil {
		level.Error(ilog.Logger).Log("msg", "ringcache: parallel ejection batch failed", "err", err, "size", len(batch))
	}
}
