package gust

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gustlabs/gust/internal/collector"
	"github.com/gustlabs/gust/internal/pace"
	"github.com/gustlabs/gust/internal/pool"
)

// State is the orchestrator lifecycle state.
type State int32

const (
	// StateIdle means the runner has not started.
	StateIdle State = iota
	// StateRunning means batches are being scheduled.
	StateRunning
	// StateDraining means no new batches are scheduled and in-flight work is
	// finishing under the graceful-stop budget.
	StateDraining
	// StateReporting means the collector is finalizing the result.
	StateReporting
	// StateTerminated means the run is over and resources are released.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateReporting:
		return "reporting"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Runner executes one plan. It is single-use: a second Run errors.
//
// While a run is in progress, State and Snapshot may be called from any
// goroutine to observe it.
type Runner struct {
	plan  Plan
	cfg   WorkerConfig
	runID string
	log   *logrus.Entry

	state   atomic.Int32
	started atomic.Bool
	col     atomic.Pointer[collector.Collector]
}

// NewRunner validates the plan and configuration eagerly and returns a
// runner for one execution.
func NewRunner(plan Plan, cfg WorkerConfig) (*Runner, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		plan:  plan,
		cfg:   cfg,
		runID: uuid.NewString(),
	}
	r.setLogger(logrus.StandardLogger())
	return r, nil
}

// SetLogger replaces the runner's logger. Call before Run.
func (r *Runner) SetLogger(l *logrus.Logger) {
	r.setLogger(l)
}

func (r *Runner) setLogger(l *logrus.Logger) {
	r.log = l.WithFields(logrus.Fields{
		"run_id": r.runID,
		"plan":   r.plan.Name,
	})
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return State(r.state.Load())
}

func (r *Runner) setState(s State) {
	r.state.Store(int32(s))
	r.log.WithField("state", s.String()).Debug("state transition")
}

// Run executes the plan and returns the finalized result.
//
// Run returns normally whenever the run completes, including when every
// user operation failed. An error is returned only for an engine failure
// (wrapping ErrEngine) or when the runner was already used. Cancelling ctx
// stops scheduling, cancels in-flight operations, and still finalizes a
// result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if !r.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("runner has already been used; create a new one per run")
	}

	s := r.plan.Settings
	t0 := time.Now()
	r.setState(StateRunning)
	r.log.WithFields(logrus.Fields{
		"concurrency": s.Concurrency,
		"interval":    s.Interval.String(),
		"duration":    s.Duration.String(),
		"termination": s.Termination.String(),
		"mode":        r.cfg.Mode.String(),
	}).Debug("load run starting")

	col := collector.New(t0, r.cfg.DetailedMetrics)
	r.col.Store(col)
	defer func() {
		r.setState(StateTerminated)
		col.Close()
	}()

	// The single cancellation signal observed by workers and user
	// operations. In strict-duration mode it fires at the duration boundary
	// regardless of scheduler wake-ups.
	var opCtx context.Context
	var cancelOps context.CancelFunc
	if s.Termination == TerminateStrictDuration {
		opCtx, cancelOps = context.WithDeadline(ctx, t0.Add(s.Duration))
	} else {
		opCtx, cancelOps = context.WithCancel(ctx)
	}
	defer cancelOps()

	p, err := r.newPool(opCtx, col)
	if err != nil {
		return nil, err
	}

	ticker := pace.NewTicker(t0, s.Interval, r.log)
	submitted := r.schedule(ctx, t0, ticker, p, col)

	r.setState(StateDraining)
	p.Close()

	ceiling := s.drainCeiling()
	if err := r.drain(ctx, p, cancelOps, s.gracefulStop(), ceiling); err != nil {
		return nil, err
	}

	r.setState(StateReporting)
	rep, err := col.Result(context.Background(), ceiling)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	r.log.WithFields(logrus.Fields{
		"submitted":     submitted,
		"total":         rep.Total,
		"success":       rep.Success,
		"failure":       rep.Failure,
		"rps":           rep.RequestsPerSecond,
		"skipped_ticks": ticker.Skipped(),
	}).Debug("load run complete")

	return newResult(r.plan.Name, rep), nil
}

func (r *Runner) newPool(ctx context.Context, col *collector.Collector) (pool.Pool, error) {
	op := pool.Operation(r.plan.Operation)
	switch r.cfg.Mode {
	case ModeHybrid:
		return pool.NewHybrid(ctx, op, col, pool.HybridConfig{
			Workers:  pool.WorkerCount(r.cfg.MaxWorkers, r.plan.Settings.Concurrency),
			Capacity: r.cfg.ChannelCapacity,
		}), nil
	case ModeTaskSpawned:
		return pool.NewTaskSpawned(ctx, op, col), nil
	default:
		// Unreachable after validation; kept as an engine invariant.
		return nil, fmt.Errorf("%w: unsupported worker mode %v", ErrEngine, r.cfg.Mode)
	}
}

// schedule runs the batch loop and returns the number of items submitted.
func (r *Runner) schedule(ctx context.Context, t0 time.Time, ticker *pace.Ticker, p pool.Pool, col *collector.Collector) int64 {
	s := r.plan.Settings
	if s.Duration == 0 {
		return 0
	}
	deadline := t0.Add(s.Duration)
	cutMidBatch := s.Termination != TerminateCompleteCurrentInterval

	// In Duration and StrictDuration modes the boundary also interrupts the
	// wait for the next tick.
	schedCtx := ctx
	if cutMidBatch {
		var cancel context.CancelFunc
		schedCtx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	var submitted int64
	for {
		k, err := ticker.Wait(schedCtx)
		if err != nil {
			return submitted
		}

		if !cutMidBatch {
			if tickAt := t0.Add(time.Duration(k) * s.Interval); tickAt.After(deadline) {
				return submitted
			}
		}

		batch := int64(s.Concurrency)
		if s.MaxIterations > 0 {
			remaining := s.MaxIterations - submitted
			if remaining <= 0 {
				return submitted
			}
			if remaining < batch {
				batch = remaining
			}
		}

		for i := int64(0); i < batch; i++ {
			if cutMidBatch && !time.Now().Before(deadline) {
				return submitted
			}
			if err := p.Submit(schedCtx); err != nil {
				return submitted
			}
			submitted++
		}
		col.BatchCompleted()

		if s.MaxIterations > 0 && submitted >= s.MaxIterations {
			return submitted
		}
	}
}

// drain waits for the pool to empty under the graceful budget, cancelling
// in-flight work when the budget expires. Exceeding the hard ceiling is an
// engine failure.
func (r *Runner) drain(ctx context.Context, p pool.Pool, cancelOps context.CancelFunc, grace, ceiling time.Duration) error {
	drainStart := time.Now()
	drained := false

	if grace > 0 {
		timer := time.NewTimer(grace)
		select {
		case <-p.Done():
			drained = true
		case <-timer.C:
		case <-ctx.Done():
			// Caller abort: skip straight to cancellation.
		}
		timer.Stop()
	}

	if !drained {
		cancelOps()
		rem := ceiling - time.Since(drainStart)
		if rem < 0 {
			rem = 0
		}
		timer := time.NewTimer(rem)
		defer timer.Stop()
		select {
		case <-p.Done():
		case <-timer.C:
			r.log.WithField("ceiling", ceiling.String()).Error("pool failed to drain within hard ceiling")
			return fmt.Errorf("%w: pool failed to drain within %s", ErrEngine, ceiling)
		}
	}

	if n := p.Abandoned(); n > 0 {
		r.log.WithField("abandoned", n).Warn("cancelled in-flight operations were abandoned")
	}
	return nil
}

// Run executes the plan with the default worker configuration.
func Run(ctx context.Context, plan Plan) (*Result, error) {
	return RunWithConfig(ctx, plan, DefaultWorkerConfig())
}

// RunWithConfig executes the plan with an explicit worker configuration.
func RunWithConfig(ctx context.Context, plan Plan, cfg WorkerConfig) (*Result, error) {
	r, err := NewRunner(plan, cfg)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}
