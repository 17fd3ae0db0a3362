// Package regroup implements the regroup pool: the buckets of samples that
// have exited active processing, the checkpoint barrier set, and the
// reached-or-passed accounting that releases a barrier the instant the
// last admitted sample arrives, per spec §4.E.
package regroup

import (
	"sort"
	"sync"

	"github.com/saxsrs/batchsched/internal/sample"
	"github.com/saxsrs/batchsched/internal/stage"
)

// Entry is a sample resting in the pool together with whatever stage
// requests its last stage invocation produced. A sample with an empty
// Requests list is terminal for its current path; one with a non-empty
// list is only here because it landed on a checkpoint and is waiting for
// the barrier to release it onward.
type Entry struct {
	Sample   sample.Sample
	Requests []stage.ID
}

// Pool is the shared regroup pool. Its mutex is acquired strictly after
// the work queue's, never before (spec §5 lock order).
type Pool struct {
	mu          sync.Mutex
	pools       map[uint32][]Entry
	checkpoints map[uint32]struct{}
	expected    int
	stageOf     map[string]uint32
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{
		pools:       make(map[uint32][]Entry),
		checkpoints: make(map[uint32]struct{}),
		stageOf:     make(map[string]uint32),
	}
}

// SetCheckpoints replaces the checkpoint set wholesale. Callers must only
// do this while the runtime is idle (enforced by internal/runtime).
func (p *Pool) SetCheckpoints(stages []uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkpoints = make(map[uint32]struct{}, len(stages))
	for _, s := range stages {
		p.checkpoints[s] = struct{}{}
	}
}

// IsCheckpoint reports whether stage number s is a checkpoint barrier.
func (p *Pool) IsCheckpoint(s uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.checkpoints[s]
	return ok
}

// SetExpectedCount sets the batch size the barrier accounting counts
// against — the number of samples admitted since the last reset.
func (p *Pool) SetExpectedCount(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expected = n
}

// AdmitSample registers a newly added sample at stage 0 for barrier
// accounting purposes, before it ever reaches the queue.
func (p *Pool) AdmitSample(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stageOf[id] = 0
}

// RecordProgress updates the accounting counter used by "reached or
// passed" barrier checks. Workers call this on every stage completion,
// independent of whether the sample is headed back to the queue or into
// the pool.
func (p *Pool) RecordProgress(id string, newStage uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stageOf[id] = newStage
}

// MarkFailed removes a sample from barrier accounting and shrinks the
// expected count to match: a failed sample will never reach a later
// checkpoint, so it must not hold a barrier open forever. The pool does
// not keep failed samples; they cannot be collected through Regroup.
func (p *Pool) MarkFailed(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.stageOf[id]; ok {
		delete(p.stageOf, id)
		p.expected--
	}
}

func (p *Pool) reachedOrPassedLocked(s uint32) int {
	n := 0
	for _, st := range p.stageOf {
		if st >= s {
			n++
		}
	}
	return n
}

// Arrive deposits a sample at the pool at its current stage, alongside
// whatever requests its last stage produced. If that stage is a
// checkpoint and the barrier is now satisfied (every admitted sample has
// reached or passed it), Arrive returns the entries that carry pending
// requests — these must be re-enqueued by the caller using the first
// (only, in practice — stage.NewDefaultRegistry's transforms return one
// request at a time) request in each entry.
// Entries with no pending requests are terminal and are kept in the pool
// for later collection via Regroup, even once the barrier releases.
func (p *Pool) Arrive(s sample.Sample, requests []stage.ID) (toEnqueue []Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stg := s.Stage()
	entry := Entry{Sample: s, Requests: requests}
	p.pools[stg] = append(p.pools[stg], entry)

	if _, checkpoint := p.checkpoints[stg]; !checkpoint {
		return nil
	}
	if p.reachedOrPassedLocked(stg) < p.expected {
		return nil
	}

	group := p.pools[stg]
	var remain []Entry
	for _, e := range group {
		if len(e.Requests) > 0 {
			toEnqueue = append(toEnqueue, e)
		} else {
			remain = append(remain, e)
		}
	}
	if len(remain) > 0 {
		p.pools[stg] = remain
	} else {
		delete(p.pools, stg)
	}
	return toEnqueue
}

// Regroup atomically removes and returns all samples currently resting in
// pools[k] for k >= minStage, in ascending stage order and FIFO within
// each stage. Ownership transfers to the caller.
func (p *Pool) Regroup(minStage uint32) []sample.Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out, _ := p.regroupLocked(minStage, -1)
	return out
}

// RegroupLimit behaves like Regroup but removes at most limit samples (a
// negative limit means unlimited, matching Regroup); any surplus stays in
// the pool for a later call instead of being discarded. total is the
// number of samples that matched minStage before truncation, so a caller
// with a too-small buffer can tell a partial transfer happened.
func (p *Pool) RegroupLimit(minStage uint32, limit int) (out []sample.Sample, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regroupLocked(minStage, limit)
}

func (p *Pool) regroupLocked(minStage uint32, limit int) (out []sample.Sample, total int) {
	var stages []uint32
	for s := range p.pools {
		if s >= minStage {
			stages = append(stages, s)
			total += len(p.pools[s])
		}
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	for _, s := range stages {
		group := p.pools[s]
		take := len(group)
		if limit >= 0 {
			if remaining := limit - len(out); take > remaining {
				take = remaining
			}
			if take < 0 {
				take = 0
			}
		}
		for _, e := range group[:take] {
			out = append(out, e.Sample)
		}
		switch take {
		case len(group):
			delete(p.pools, s)
		case 0:
			// nothing removed from this stage; leave it untouched.
		default:
			p.pools[s] = group[take:]
		}
	}
	return out, total
}

// Len returns the total number of samples currently held across all
// stage buckets.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, g := range p.pools {
		n += len(g)
	}
	return n
}

// Clear discards all pool contents and accounting state, keeping the
// checkpoint set and expected count (reset per spec §4.G clears counters
// via the runtime, which calls SetExpectedCount(0) separately).
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pools = make(map[uint32][]Entry)
	p.stageOf = make(map[string]uint32)
}
