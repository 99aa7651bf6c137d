package ringcache

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// Default sizing for the in-process parallel ejection pool. Mirrors
// friggdb/pool's worker-count/queue-depth split: a modest worker count
// with a deep queue, since eject tasks are small (one store read, one
// sink call, up to two deletes) compared to the query jobs the teacher
// pool was built for.
const (
	defaultPoolWorkers    = 8
	defaultPoolQueueDepth = 10_000
)

// ejectJob is one unit of work handed to a pool worker.
type ejectJob struct {
	task EjectTask
	wg   *sync.WaitGroup
}

// pool is the default in-process ParallelTransport: a fixed worker
// pool draining a bounded job queue, adapted from friggdb/pool.Pool —
// same bounded-queue-plus-waitgroup shape, retargeted from proto query
// jobs to ring slot ejections.
type pool struct {
	queueDepth int
	workQueue  chan ejectJob
	inFlight   *atomic.Int64
	run        func(ctx context.Context, task EjectTask)
}

func newPool(workers, queueDepth int, run func(ctx context.Context, task EjectTask)) *pool {
	p := &pool{
		queueDepth: queueDepth,
		workQueue:  make(chan ejectJob, queueDepth),
		inFlight:   atomic.NewInt64(0),
		run:        run,
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	for job := range p.workQueue {
		metricDispatchPoolDepth.Set(float64(p.inFlight.Dec()))
		p.run(context.Background(), job.task)
		job.wg.Done()
	}
}

// Eject implements ParallelTransport: enqueues every task in the
// batch, then blocks until all have run. A full queue is reported as
// an error rather than blocking the caller indefinitely — eviction
// sinks are expected to return quickly (spec.md §5), and a caller
// stuck behind a full drain queue would itself become a second,
// unbounded blocking point.
func (p *pool) Eject(ctx context.Context, batch []EjectTask) error {
	if int64(len(batch))+p.inFlight.Load() > int64(p.queueDepth) {
		return fmt.Errorf("ringcache: ejection pool queue has no room for %d tasks", len(batch))
	}

	wg := &sync.WaitGroup{}
	wg.Add(len(batch))
	for _, task := range batch {
		select {
		case p.workQueue <- ejectJob{task: task, wg: wg}:
			metricDispatchPoolDepth.Set(float64(p.inFlight.Inc()))
		case <-ctx.Done():
			wg.Add(-1) // this task will never be picked up
			return ctx.Err()
		}
	}
	wg.Wait()
	return nil
}
