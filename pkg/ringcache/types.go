package ringcache

import "context"

// EjectFunc is the external eviction sink: notified once per evicted
// record. isFullDrain is true only when the eviction was triggered by
// Drain; it is false for both overwrite and shrink evictions. A sink
// may fail; failures are logged and ignored (spec.md §4.4, §7).
type EjectFunc func(ctx context.Context, id string, record map[string]string, isFullDrain bool)

// EjectTask names one slot to evict, as handed to a ParallelTransport.
type EjectTask struct {
	Pos         int64
	Del         bool
	IsFullDrain bool
}

// ParallelTransport is the optional fan-out used by the dispatcher when
// draining or shrinking many slots at once. Its effect must be
// equivalent to calling ejectItem(pos, del) for every task in the
// batch; the choice between this and the inline path is a pure
// performance decision (spec.md §4.4).
type ParallelTransport interface {
	Eject(ctx context.Context, batch []EjectTask) error
}

// Stats is the snapshot returned by Ring.Stats.
type Stats struct {
	CurrentSize       int64
	TotalReqCount     int64
	TotalItemCount    int64
	RequestsPerSecond float64
	ItemsPerSecond    float64
	LastPeriodAvgMins float64
	Draining          bool
	ServerStart       string // ISO-8601 UTC
}
