package ringcache

import (
	"context"
	"strconv"
	"time"
)

// Stats returns a snapshot of the ring's counters (spec.md §4.2
// "stats").
func (r *Ring) Stats(ctx context.Context) (Stats, error) {
	ctx, span := tracer.Start(ctx, "Ring.Stats")
	defer span.End()

	var out Stats
	out.CurrentSize = r.currentSize(ctx)
	out.Draining = r.isDraining(ctx)

	serverStart := r.readInt(ctx, NamespaceStats, keyServerStart)
	out.ServerStart = time.Unix(serverStart, 0).UTC().Format(time.RFC3339)

	out.TotalReqCount = r.readInt(ctx, NamespaceStats, keyTotalReqCount)
	out.TotalItemCount = r.readInt(ctx, NamespaceStats, keyTotalItemCount)
	out.LastPeriodAvgMins = r.readFloat(ctx, NamespaceStats, keyLastPeriodAvgMins)

	if serverStart > 0 {
		elapsed := time.Since(time.Unix(serverStart, 0)).Seconds()
		if elapsed > 0 {
			out.RequestsPerSecond = float64(out.TotalReqCount) / elapsed
			out.ItemsPerSecond = float64(out.TotalItemCount) / elapsed
		}
	}

	return out, nil
}

func (r *Ring) readInt(ctx context.Context, namespace, key string) int64 {
	s, exists, err := r.store.Get(ctx, namespace, key)
	if err != nil || !exists {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (r *Ring) readFloat(ctx context.Context, namespace, key string) float64 {
	s, exists, err := r.store.Get(ctx, namespace, key)
	if err != nil || !exists {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
