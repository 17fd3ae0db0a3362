// Package runtime implements the runtime façade from spec §4.G: the
// lifecycle operations (create, add_sample, set_checkpoints, run_sync,
// run_async, cancel, reset) and the snapshot/collection queries
// (completed_count, pending_count, regroup) that sit above the queue,
// pool, registry, and scheduler.
package runtime

import (
	"context"
	"sync"

	"github.com/saxsrs/batchsched/internal/logging"
	"github.com/saxsrs/batchsched/internal/regroup"
	"github.com/saxsrs/batchsched/internal/sample"
	"github.com/saxsrs/batchsched/internal/scheduler"
	"github.com/saxsrs/batchsched/internal/stage"
	"github.com/saxsrs/batchsched/internal/status"
	"github.com/saxsrs/batchsched/internal/workqueue"
)

// Config mirrors spec §6's Config struct.
type Config struct {
	WorkerCount int    // 0 => auto-detect host parallelism
	MaxStages   uint32 // 0 => unlimited
}

// Callbacks mirrors spec §6's on_progress / on_sample callback pair.
// on_complete is the return value of RunSync / the argument to the
// RunAsync completion func, so it is not part of this struct.
type Callbacks = scheduler.Callbacks

type runState int

const (
	stateIdle runState = iota
	stateRunning
)

// Runtime is the façade a caller (or the FFI boundary in internal/cffi)
// drives. It is safe for concurrent use by multiple goroutines for the
// read-only queries; create/add_sample/set_checkpoints/run/cancel/reset
// are serialized through an internal mutex guarding the lifecycle state.
type Runtime struct {
	mu       sync.Mutex
	state    runState
	admitted int

	queue    *workqueue.Queue
	pool     *regroup.Pool
	registry *stage.Registry
	log      *logging.Logger
	obs      scheduler.Observer
	cfg      Config
	sched    *scheduler.Scheduler
	cb       Callbacks
}

// New creates a Runtime (spec's `create`). registry is typically
// stage.NewDefaultRegistry(); obs may be nil (scheduler.NopObserver is
// used); log may be nil (logging.Nop() is used).
func New(cfg Config, registry *stage.Registry, log *logging.Logger, obs scheduler.Observer, cb Callbacks) *Runtime {
	r := &Runtime{
		queue:    workqueue.New(),
		pool:     regroup.New(),
		registry: registry,
		log:      log,
		obs:      obs,
		cfg:      cfg,
		cb:       cb,
	}
	r.rebuildScheduler()
	return r
}

func (r *Runtime) rebuildScheduler() {
	r.sched = scheduler.New(scheduler.Config{WorkerCount: r.cfg.WorkerCount, MaxStages: r.cfg.MaxStages},
		r.queue, r.pool, r.registry, r.log, r.obs, r.cb)
}

// AddSample transfers ownership of s into the batch at stage Background.
// Fails with InvalidArgument if called while a run is in progress.
func (r *Runtime) AddSample(s sample.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateIdle {
		return status.New("Runtime.AddSample", status.InvalidArgument, "cannot add a sample while a run is in progress")
	}
	r.admitted++
	r.pool.SetExpectedCount(r.admitted)
	r.sched.AdmitSample(s, stage.Background)
	return nil
}

// SetCheckpoints replaces the checkpoint set. Allowed only while idle.
func (r *Runtime) SetCheckpoints(stages []uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateIdle {
		return status.New("Runtime.SetCheckpoints", status.InvalidArgument, "cannot change checkpoints while a run is in progress")
	}
	r.pool.SetCheckpoints(stages)
	return nil
}

// RunSync blocks until the batch is quiescent (queue empty, nothing
// in-flight, no checkpoint-held samples awaiting release) or until Cancel
// is called from another goroutine, returning status.Ok or
// status.Cancelled accordingly.
func (r *Runtime) RunSync(ctx context.Context) status.Code {
	if !r.beginRun() {
		return status.InvalidArgument
	}
	defer r.endRun()
	return r.sched.Run(ctx)
}

// RunAsync starts the batch on a background goroutine and returns
// immediately; onComplete is invoked exactly once at quiescence or
// cancellation. Returns InvalidArgument (without starting anything) if the
// runtime is already running.
func (r *Runtime) RunAsync(ctx context.Context, onComplete func(status.Code)) error {
	if !r.beginRun() {
		return status.New("Runtime.RunAsync", status.InvalidArgument, "already running")
	}
	go func() {
		defer r.endRun()
		code := r.sched.Run(ctx)
		if onComplete != nil {
			onComplete(code)
		}
	}()
	return nil
}

func (r *Runtime) beginRun() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateIdle {
		return false
	}
	r.state = stateRunning
	return true
}

func (r *Runtime) endRun() {
	r.mu.Lock()
	r.state = stateIdle
	r.mu.Unlock()
}

// Cancel sets the shutdown flag; a concurrent RunSync/RunAsync observes
// status.Cancelled. Safe to call whether or not a run is in progress.
func (r *Runtime) Cancel() {
	r.sched.Cancel()
}

// CompletedCount returns the number of samples that have reached a
// terminal state (pool or failed) since the last reset.
func (r *Runtime) CompletedCount() int {
	return r.sched.CompletedCount()
}

// PendingCount returns queue length plus in-flight count.
func (r *Runtime) PendingCount() int {
	return r.sched.PendingCount()
}

// Regroup atomically removes and returns all samples currently resting in
// the pool at stage >= minStage. Ownership transfers to the caller.
func (r *Runtime) Regroup(minStage uint32) []sample.Sample {
	return r.pool.Regroup(minStage)
}

// RegroupLimit behaves like Regroup but returns at most max samples,
// leaving any surplus resting in the pool for a later call instead of
// discarding it. total is the number of samples that matched minStage
// before truncation.
func (r *Runtime) RegroupLimit(minStage uint32, max int) (samples []sample.Sample, total int) {
	return r.pool.RegroupLimit(minStage, max)
}

// Reset requires the runtime to be idle; it clears the queue, pool, and
// counters (including the failed count) while keeping the registry and
// configuration (including the checkpoint set, which persists until
// SetCheckpoints is called again).
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateIdle {
		return status.New("Runtime.Reset", status.InvalidArgument, "cannot reset while a run is in progress")
	}
	r.admitted = 0
	r.queue.Clear()
	r.queue.Reopen()
	r.pool.Clear()
	r.pool.SetExpectedCount(0)
	r.sched.Reset()
	return nil
}
