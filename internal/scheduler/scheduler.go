// Package scheduler implements the worker fleet: N workers draining the
// priority work queue, invoking the stage registry, and routing results
// back to the queue or into the regroup pool, per spec §4.F and §5.
package scheduler

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/tklauser/numcpus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/saxsrs/batchsched/internal/logging"
	"github.com/saxsrs/batchsched/internal/regroup"
	"github.com/saxsrs/batchsched/internal/sample"
	"github.com/saxsrs/batchsched/internal/stage"
	"github.com/saxsrs/batchsched/internal/status"
	"github.com/saxsrs/batchsched/internal/workqueue"
)

// Observer receives stage- and sample-level telemetry as the fleet runs.
// Implementations must be safe for concurrent use by multiple workers; New
// substitutes NopObserver when given a nil Observer.
type Observer interface {
	ObserveStageComplete(id stage.ID, dur time.Duration)
	ObserveSampleTerminal(code status.Code)
	SetPending(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveStageComplete(stage.ID, time.Duration) {}
func (nopObserver) ObserveSampleTerminal(status.Code)            {}
func (nopObserver) SetPending(int)                               {}

// NopObserver is a no-op Observer used when the caller configures none.
var NopObserver Observer = nopObserver{}

// Callbacks mirrors the spec §6 on_progress / on_sample pair, minus the
// opaque user_data pass-through (Go closures carry their own context).
// Completion is reported by Run's return value, not by a callback here.
type Callbacks struct {
	OnSample   func(s sample.Sample, code status.Code)
	OnProgress func(id stage.ID, completed, total int)
}

func (c Callbacks) sample(s sample.Sample, code status.Code) {
	if c.OnSample != nil {
		c.OnSample(s, code)
	}
}

func (c Callbacks) progress(id stage.ID, completed, total int) {
	if c.OnProgress != nil {
		c.OnProgress(id, completed, total)
	}
}

// Config configures a Scheduler.
type Config struct {
	WorkerCount int // 0 => auto-detect host parallelism
	MaxStages   uint32
}

// Scheduler is the worker fleet. It holds no samples itself; the queue and
// pool are its only shared mutable state (spec §5).
type Scheduler struct {
	queue    *workqueue.Queue
	pool     *regroup.Pool
	registry *stage.Registry
	log      *logging.Logger
	obs      Observer
	cb       Callbacks
	cfg      Config

	inFlight  int64
	completed int64
	failed    int64
	admitted  int64
	cancelled int32
}

// New builds a Scheduler over the given queue, pool and registry.
func New(cfg Config, q *workqueue.Queue, p *regroup.Pool, r *stage.Registry, log *logging.Logger, obs Observer, cb Callbacks) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	if obs == nil {
		obs = NopObserver
	}
	return &Scheduler{queue: q, pool: p, registry: r, log: log, obs: obs, cb: cb, cfg: cfg}
}

// resolveWorkerCount implements the 0 => auto-detect rule (spec §6's
// Config.worker_count), preferring the host's online CPU count and
// falling back to runtime.NumCPU if that query fails.
func resolveWorkerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	n, err := numcpus.GetOnline()
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// AdmitSample records a sample joining the batch for pending/completed
// accounting and barrier accounting, then pushes it to the queue at its
// initial stage.
func (s *Scheduler) AdmitSample(sm sample.Sample, first stage.ID) {
	atomic.AddInt64(&s.admitted, 1)
	s.pool.AdmitSample(sm.ID())
	s.queue.Push(sm, first)
}

// PendingCount returns queue length plus in-flight count.
func (s *Scheduler) PendingCount() int {
	return s.queue.Len() + int(atomic.LoadInt64(&s.inFlight))
}

// CompletedCount returns the number of samples that have reached a
// terminal state (pool or failed) since the last reset.
func (s *Scheduler) CompletedCount() int {
	return int(atomic.LoadInt64(&s.completed) + atomic.LoadInt64(&s.failed))
}

// Cancel sets the shutdown flag and wakes every blocked worker. Workers
// finish their current stage, then stop taking new items.
func (s *Scheduler) Cancel() {
	atomic.StoreInt32(&s.cancelled, 1)
	s.queue.Shutdown()
}

// Reset clears the fleet's counters. Callers must ensure the fleet is
// idle first (internal/runtime enforces this).
func (s *Scheduler) Reset() {
	atomic.StoreInt64(&s.inFlight, 0)
	atomic.StoreInt64(&s.completed, 0)
	atomic.StoreInt64(&s.failed, 0)
	atomic.StoreInt64(&s.admitted, 0)
	atomic.StoreInt32(&s.cancelled, 0)
}

func (s *Scheduler) isCancelled() bool {
	return atomic.LoadInt32(&s.cancelled) != 0
}

// Run drains the queue with Config.WorkerCount workers (or an
// auto-detected count) until the queue is empty and no worker is
// in-flight, or until Cancel is called. It returns status.Cancelled if
// the run was interrupted, status.Ok otherwise.
func (s *Scheduler) Run(ctx context.Context) status.Code {
	n := resolveWorkerCount(s.cfg.WorkerCount)

	// An empty batch (or one that is already quiescent before any worker
	// has run) must still terminate: nothing will ever decrement inFlight
	// to trigger the post-stage quiescence check below.
	s.maybeShutdown()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			s.workerLoop(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if s.isCancelled() {
		return status.Cancelled
	}
	return status.Ok
}

// maybeShutdown closes the queue once it observes true quiescence:
// nothing in flight and nothing queued. Safe to call repeatedly and
// concurrently — Shutdown is idempotent.
func (s *Scheduler) maybeShutdown() {
	if atomic.LoadInt64(&s.inFlight) == 0 && s.queue.Len() == 0 {
		s.queue.Shutdown()
	}
}

// workerLoop is one worker's loop: pop, execute, route, repeat, per spec
// §4.F steps 1-7. Progress events are coalesced with rate.Sometimes so a
// hot worker does not flood on_progress once per stage completion.
func (s *Scheduler) workerLoop(ctx context.Context) {
	sometimes := &rate.Sometimes{Interval: 50 * time.Millisecond}

	for {
		if ctx.Err() != nil {
			return
		}
		item, ok := s.queue.Pop()
		if !ok {
			return
		}

		atomic.AddInt64(&s.inFlight, 1)
		start := time.Now()
		result, err := s.registry.Run(item.Stage, item.Sample)
		s.obs.ObserveStageComplete(item.Stage, time.Since(start))

		if err != nil {
			s.handleFailure(item, err)
		} else {
			s.handleSuccess(result)
		}
		remaining := atomic.AddInt64(&s.inFlight, -1)
		s.obs.SetPending(s.PendingCount())

		if remaining == 0 && !s.isCancelled() && s.queue.Len() == 0 {
			s.queue.Shutdown()
		}

		sometimes.Do(func() {
			s.cb.progress(item.Stage, s.CompletedCount(), int(atomic.LoadInt64(&s.admitted)))
		})
	}
}

func (s *Scheduler) handleFailure(item workqueue.Item, err error) {
	atomic.AddInt64(&s.failed, 1)
	s.pool.MarkFailed(item.Sample.ID())
	code := status.CodeOf(err)
	s.log.Warn("stage failed", "stage", item.Stage.String(), "sample", item.Sample.ID(), "code", string(code))
	s.obs.ObserveSampleTerminal(code)
	s.cb.sample(item.Sample, code)
}

func (s *Scheduler) handleSuccess(result stage.Result) {
	sm := result.Sample
	requests := result.Requests

	// max_stages finalizes the sample here regardless of what the stage
	// itself requested next (spec §3: "a sample that would exceed it is
	// finalized into the pool at max_stages without further stage
	// invocations").
	if s.cfg.MaxStages > 0 && sm.Stage() >= s.cfg.MaxStages {
		requests = nil
	}

	s.pool.RecordProgress(sm.ID(), sm.Stage())

	if !s.pool.IsCheckpoint(sm.Stage()) && len(requests) > 0 {
		s.enqueueNext(sm, requests)
		return
	}

	// Either the sample has nothing left to do, or it landed on a
	// checkpoint stage and must wait for the barrier regardless of its
	// pending requests — both cases are owned by the pool.
	released := s.pool.Arrive(sm, requests)
	if len(requests) == 0 {
		s.markTerminal(sm)
	}
	for _, e := range released {
		s.enqueueNext(e.Sample, e.Requests)
	}
}

// enqueueNext pushes the first pending request with the sample attached.
// Per spec §4.F step 5, additional entries in a requests list (beyond the
// first) chain via the next stage's own output rather than being enqueued
// simultaneously — the registry in this codebase never returns more than
// one request at a time, so this is the only path exercised.
func (s *Scheduler) enqueueNext(sm sample.Sample, requests []stage.ID) {
	if len(requests) == 0 {
		return
	}
	s.queue.Push(sm, requests[0])
}

func (s *Scheduler) markTerminal(sm sample.Sample) {
	atomic.AddInt64(&s.completed, 1)
	s.obs.ObserveSampleTerminal(status.Ok)
	s.cb.sample(sm, status.Ok)
}
