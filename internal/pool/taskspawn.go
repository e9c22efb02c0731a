package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// TaskSpawned spawns one goroutine per submitted item. There is no shared
// queue and no fixed worker count: the sink is told zero worker threads and
// queue time is not reported. Prefer Hybrid above roughly 10k operations per
// second.
type TaskSpawned struct {
	op   Operation
	sink Sink
	ctx  context.Context

	g         errgroup.Group
	done      chan struct{}
	abandoned atomic.Int64
	closeOnce sync.Once
}

// NewTaskSpawned creates a task-spawned pool. Cancelling ctx abandons
// in-flight work.
func NewTaskSpawned(ctx context.Context, op Operation, sink Sink) *TaskSpawned {
	sink.SetWorkerThreads(0)
	return &TaskSpawned{
		op:   op,
		sink: sink,
		ctx:  ctx,
		done: make(chan struct{}),
	}
}

// Submit spawns a task for one item. It never blocks.
func (p *TaskSpawned) Submit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.g.Go(func() error {
		if !execute(p.ctx, p.op, p.sink, time.Time{}, false) {
			p.abandoned.Add(1)
		}
		return nil
	})
	return nil
}

// Close signals that no more items will be submitted and starts the drain
// wait.
func (p *TaskSpawned) Close() {
	p.closeOnce.Do(func() {
		go func() {
			p.g.Wait()
			close(p.done)
		}()
	})
}

// Done completes when all outstanding tasks have finished or been abandoned.
func (p *TaskSpawned) Done() <-chan struct{} {
	return p.done
}

// Abandoned reports how many started items cancellation abandoned.
func (p *TaskSpawned) Abandoned() int64 {
	return p.abandoned.Load()
}

var _ Pool = (*TaskSpawned)(nil)
