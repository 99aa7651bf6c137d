// Package ringcache implements an indexed ring-buffer cache: a
// fixed-capacity, FIFO-by-slot-reuse store mapping caller-supplied
// identifiers to structured records, in front of an external eviction
// sink and a shared, atomic key/value store. See spec.md and
// SPEC_FULL.md at the module root for the full design.
package ringcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-kit/log/level"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	ilog "github.com/Forensiq/indexedRingBuffer/pkg/util/log"
)

var tracer = otel.Tracer("github.com/Forensiq/indexedRingBuffer/pkg/ringcache")

// stats namespace keys.
const (
	keyCursor            = "pos"
	keyCurrentSize       = "currentSize"
	keyItemCount         = "itemCount"
	keyPeriodStart       = "periodStart"
	keyTotalReqCount     = "totalReqCount"
	keyTotalItemCount    = "totalItemCount"
	keyServerStart       = "serverStart"
	keyLocked            = "locked"
	keyLastPeriodAvgMins = "lastPeriodAvgMins"
)

// ring namespace control-flag key. Not a valid slot position (slot
// positions are rendered as positive decimal integers), so it cannot
// collide with a slot key.
const keyDraining = "draining"

// Ring is the indexed ring-buffer cache core. Past construction it
// holds no mutable state of its own beyond the shared Store (spec.md
// §5): every field below is fixed for the Ring's lifetime.
type Ring struct {
	schema     *Schema
	store      Store
	cfg        Config
	ejectFn    EjectFunc
	transport  ParallelTransport
	controller *controller
}

// Option configures a Ring at construction time.
type Option func(*Ring)

// WithEjectFunc sets the external eviction sink.
func WithEjectFunc(fn EjectFunc) Option {
	return func(r *Ring) { r.ejectFn = fn }
}

// WithParallelTransport sets the fan-out used for batched ejection
// during shrink and full drain. If unset, a default in-process pool is
// used (see pool.go).
func WithParallelTransport(t ParallelTransport) Option {
	return func(r *Ring) { r.transport = t }
}

// New compiles params into a Schema and constructs a Ring backed by
// store. cfg is copied; mutating it after New has no effect.
func New(cfg Config, params []FieldParam, store Store, opts ...Option) (*Ring, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ringcache: invalid config: %w", err)
	}

	schema, err := NewSchema(params)
	if err != nil {
		return nil, err
	}

	r := &Ring{
		schema: schema,
		store:  store,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ejectFn == nil {
		level.Info(ilog.Logger).Log("msg", "ringcache: no eviction sink configured")
	}
	if r.transport == nil {
		r.transport = newPool(defaultPoolWorkers, defaultPoolQueueDepth, r.ejectItemInline)
	}
	r.controller = newController(&r.cfg, store)
	r.controller.ring = r

	ctx := context.Background()
	if _, exists, _ := store.Get(ctx, NamespaceStats, keyServerStart); !exists {
		_ = store.Set(ctx, NamespaceStats, keyServerStart, strconv.FormatInt(time.Now().Unix(), 10))
	}
	if _, exists, _ := store.Get(ctx, NamespaceStats, keyCurrentSize); !exists {
		_ = store.Set(ctx, NamespaceStats, keyCurrentSize, strconv.FormatInt(cfg.InitialSize, 10))
	}
	if _, exists, _ := store.Get(ctx, NamespaceStats, keyPeriodStart); !exists {
		_ = store.Set(ctx, NamespaceStats, keyPeriodStart, strconv.FormatInt(time.Now().Unix(), 10))
	}
	metricCurrentSize.Set(float64(cfg.InitialSize))

	return r, nil
}

// slotEntry is what's stored at a ring-namespace slot key: the owning
// id plus its encoded record.
type slotEntry struct {
	ID     string `json:"id"`
	Record Record `json:"record"`
}

func (e slotEntry) encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeSlotEntry(s string) (slotEntry, bool) {
	if s == "" {
		return slotEntry{}, false
	}
	var e slotEntry
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return slotEntry{}, false
	}
	return e, true
}

func (r *Ring) currentSize(ctx context.Context) int64 {
	s, exists, err := r.store.Get(ctx, NamespaceStats, keyCurrentSize)
	if err != nil || !exists {
		return r.cfg.InitialSize
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return r.cfg.InitialSize
	}
	return n
}

func (r *Ring) isDraining(ctx context.Context) bool {
	_, exists, _ := r.store.Get(ctx, NamespaceRing, keyDraining)
	return exists
}

// Set inserts or merges fields under id (spec.md §4.2).
func (r *Ring) Set(ctx context.Context, id string, fields map[string]string) error {
	ctx, span := tracer.Start(ctx, "Ring.Set")
	defer span.End()
	span.SetAttributes(attribute.String("ringcache.id", id))

	if r.isDraining(ctx) {
		// Silent drop is deliberate: the ring is being emptied.
		return nil
	}

	if _, err := r.store.Incr(ctx, NamespaceStats, keyTotalReqCount, 1); err != nil {
		r.logStoreFailure("incr totalReqCount", err)
	}
	metricRequestsTotal.Inc()

	slotStr, exists, err := r.store.Get(ctx, NamespaceIndex, id)
	if err != nil {
		r.logStoreFailure("get index entry", err)
	}

	if exists {
		entryStr, slotExists, err := r.store.Get(ctx, NamespaceRing, slotStr)
		if err != nil {
			r.logStoreFailure("get ring slot", err)
		}
		entry, decoded := decodeSlotEntry(entryStr)
		if !slotExists || !decoded || entry.ID != id {
			// Stale index entry (slot gone, or now owned by another id):
			// self-heal and fall through to insert.
			if err := r.store.Delete(ctx, NamespaceIndex, id); err != nil {
				r.logStoreFailure("delete stale index entry", err)
			}
		} else {
			// Existing id path: merge in place, same slot, no cursor/index change.
			merged := r.schema.merge(entry.Record, fields)
			entry.Record = merged
			encoded, err := entry.encode()
			if err != nil {
				return fmt.Errorf("ringcache: encode merged record: %w", err)
			}
			if err := r.store.Set(ctx, NamespaceRing, slotStr, encoded); err != nil {
				r.logStoreFailure("write merged record", err)
				return err
			}
			return nil
		}
	}

	return r.insert(ctx, id, fields)
}

// insert reserves a fresh slot, evicts whatever currently occupies it,
// and writes the new record (§4.2 "New id path").
func (r *Ring) insert(ctx context.Context, id string, fields map[string]string) error {
	size := r.currentSize(ctx)

	pos, err := r.store.Incr(ctx, NamespaceStats, keyCursor, 1)
	if err != nil {
		r.logStoreFailure("incr cursor", err)
		return err
	}
	if pos > size {
		pos = 1
		if err := r.store.Set(ctx, NamespaceStats, keyCursor, "1"); err != nil {
			r.logStoreFailure("reset cursor", err)
		}
	}

	slotStr := strconv.FormatInt(pos, 10)

	existingStr, exists, err := r.store.Get(ctx, NamespaceRing, slotStr)
	if err != nil {
		r.logStoreFailure("get slot for eviction", err)
	}
	if exists {
		if entry, ok := decodeSlotEntry(existingStr); ok {
			r.evict(ctx, entry.ID, entry.Record, false)
			if err := r.store.Delete(ctx, NamespaceIndex, entry.ID); err != nil {
				r.logStoreFailure("delete evicted index entry", err)
			}
			if err := r.store.Delete(ctx, NamespaceRing, slotStr); err != nil {
				r.logStoreFailure("delete evicted slot", err)
			}
		}
	}

	merged := r.schema.merge(r.schema.emptyRecord(), fields)
	entry := slotEntry{ID: id, Record: merged}
	encoded, err := entry.encode()
	if err != nil {
		return fmt.Errorf("ringcache: encode new record: %w", err)
	}

	if err := r.store.Set(ctx, NamespaceIndex, id, slotStr); err != nil {
		r.logStoreFailure("write index entry", err)
	}
	if err := r.store.Set(ctx, NamespaceRing, slotStr, encoded); err != nil {
		r.logStoreFailure("write new slot", err)
		return err
	}

	if _, err := r.store.Incr(ctx, NamespaceStats, keyTotalItemCount, 1); err != nil {
		r.logStoreFailure("incr totalItemCount", err)
	}
	metricItemsTotal.Inc()
	r.controller.onInsert(ctx)

	return nil
}

// Get returns the readable projection of id's record, if present
// (§4.2 "get").
func (r *Ring) Get(ctx context.Context, id string) (map[string]string, bool, error) {
	ctx, span := tracer.Start(ctx, "Ring.Get")
	defer span.End()
	span.SetAttributes(attribute.String("ringcache.id", id))

	slotStr, exists, err := r.store.Get(ctx, NamespaceIndex, id)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	entryStr, slotExists, err := r.store.Get(ctx, NamespaceRing, slotStr)
	if err != nil {
		return nil, false, err
	}
	if !slotExists {
		level.Warn(ilog.Logger).Log("msg", "ringcache: stale index entry on get", "id", id, "slot", slotStr)
		return nil, false, nil
	}

	entry, ok := decodeSlotEntry(entryStr)
	if !ok || entry.ID != id {
		level.Warn(ilog.Logger).Log("msg", "ringcache: stale index entry on get", "id", id, "slot", slotStr)
		return nil, false, nil
	}

	return r.schema.makeReadable(entry.Record), true, nil
}

func (r *Ring) logStoreFailure(op string, err error) {
	metricStoreFailuresTotal.Inc()
	level.Error(ilog.Logger).Log("msg", "ringcache: shared-store operation failed", "op", op, "err", err)
}
