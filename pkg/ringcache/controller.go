package ringcache

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/go-kit/log/level"

	ilog "github.com/Forensiq/indexedRingBuffer/pkg/util/log"
)

// controller is the Capacity Controller (spec.md §4.6): it samples
// insert rate over a monitoring window and, on window close, decides
// whether to resize the ring, clamped by asymmetric slew limits and
// absolute bounds.
type controller struct {
	cfg   *Config
	store Store
	ring  *Ring // set once by New, after the owning Ring exists
}

func newController(cfg *Config, store Store) *controller {
	return &controller{cfg: cfg, store: store}
}

// onInsert is called once per new-id insertion (never for updates). It
// is the Collecting-state transition: bump the window sample count,
// then check whether the window has closed.
func (c *controller) onInsert(ctx context.Context) {
	if !c.cfg.AutoResize {
		return
	}

	if _, err := c.store.Incr(ctx, NamespaceStats, keyItemCount, 1); err != nil {
		level.Error(ilog.Logger).Log("msg", "ringcache: controller failed to bump item count", "err", err)
		return
	}

	c.maybeEvaluate(ctx)
}

// StartMonitor runs onInsert's window-close check on a ticker as well
// as on every insert, so a low-traffic ring still reclaims or grows
// capacity promptly (an additive liveness improvement over the
// source, which only checks on insert — see SPEC_FULL.md §4.6). Stops
// when ctx is cancelled.
func (r *Ring) StartMonitor(ctx context.Context, interval time.Duration) {
	if !r.cfg.AutoResize {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.controller.maybeEvaluate(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// maybeEvaluate checks whether the monitoring window has closed and,
// if so, attempts the first-writer-wins transition into the Evaluating
// state. Only the caller whose Add succeeds proceeds to decide;
// everyone else falls through without counting (§4.6).
func (c *controller) maybeEvaluate(ctx context.Context) {
	periodStartStr, exists, err := c.store.Get(ctx, NamespaceStats, keyPeriodStart)
	if err != nil {
		level.Error(ilog.Logger).Log("msg", "ringcache: controller failed to read period start", "err", err)
		return
	}
	if !exists {
		_ = c.store.Set(ctx, NamespaceStats, keyPeriodStart, strconv.FormatInt(time.Now().Unix(), 10))
		return
	}
	periodStart, err := strconv.ParseInt(periodStartStr, 10, 64)
	if err != nil {
		return
	}

	elapsedMins := float64(time.Now().Unix()-periodStart) / 60
	if elapsedMins <= c.cfg.MonitorPeriodMins {
		return
	}

	won, err := c.store.Add(ctx, NamespaceStats, keyLocked, "true")
	if err != nil {
		level.Error(ilog.Logger).Log("msg", "ringcache: controller failed to acquire evaluation lock", "err", err)
		return
	}
	if !won {
		return
	}
	defer c.reinitialize(ctx)

	c.decide(ctx)
}

// decide computes the observed mean residency and, if it has drifted
// far enough from the target, a slew-clamped, bounds-clamped new
// capacity (§4.6).
func (c *controller) decide(ctx context.Context) {
	countStr, exists, err := c.store.Get(ctx, NamespaceStats, keyItemCount)
	if err != nil {
		level.Error(ilog.Logger).Log("msg", "ringcache: controller failed to read item count", "err", err)
		return
	}
	if !exists {
		return
	}
	count, err := strconv.ParseInt(countStr, 10, 64)
	if err != nil || count == 0 {
		return // skipped silently: next period will try again (§7)
	}

	currentSize := c.ring.currentSize(ctx)
	avgEjectMins := (float64(currentSize) / float64(count)) * c.cfg.MonitorPeriodMins

	_ = c.store.Set(ctx, NamespaceStats, keyLastPeriodAvgMins, strconv.FormatFloat(avgEjectMins, 'f', -1, 64))
	metricLastPeriodAvgMins.Set(avgEjectMins)

	deviationPct := math.Abs(1-avgEjectMins/c.cfg.DesiredEjectMins) * 100
	if deviationPct <= c.cfg.TriggerAdjustPercent {
		return
	}

	desiredSize := (float64(count) / c.cfg.MonitorPeriodMins) * c.cfg.DesiredEjectMins
	diffPct := (desiredSize - float64(currentSize)) / float64(currentSize)

	slew := c.cfg.MaxAdjustPercentUp
	if diffPct < 0 {
		slew = c.cfg.MaxAdjustPercentDown
	}

	newSize := desiredSize
	if math.Abs(diffPct)*100 > slew {
		step := math.Floor(float64(currentSize) * slew / 100)
		if diffPct >= 0 {
			newSize = float64(currentSize) + step
		} else {
			newSize = float64(currentSize) - step
		}
	}

	clamped := int64(newSize)
	if clamped < c.cfg.AutoMinSize {
		clamped = c.cfg.AutoMinSize
	}
	if clamped > c.cfg.AutoMaxSize {
		clamped = c.cfg.AutoMaxSize
	}

	metricResizesTotal.Inc()
	if err := c.ring.Resize(ctx, clamped); err != nil {
		level.Error(ilog.Logger).Log("msg", "ringcache: controller-driven resize failed", "err", err, "new_size", clamped)
	}
}

// reinitialize returns the controller to Collecting: reset itemCount
// and periodStart, release the evaluation lock.
func (c *controller) reinitialize(ctx context.Context) {
	_ = c.store.Set(ctx, NamespaceStats, keyItemCount, "0")
	_ = c.store.Set(ctx, NamespaceStats, keyPeriodStart, strconv.FormatInt(time.Now().Unix(), 10))
	if err := c.store.Delete(ctx, NamespaceStats, keyLocked); err != nil {
		level.Error(ilog.Logger).Log("msg", "ringcache: controller failed to release evaluation lock", "err", err)
	}
}
