// Package stage implements the stage registry: the mapping from a stage
// identifier to a pure (sample, metadata) -> StageResult transform, per
// spec §4.C. The registry performs no numeric work itself; it only
// dispatches to transforms and enforces the stage-number-advances
// invariant around them.
package stage

import (
	"fmt"

	"github.com/saxsrs/batchsched/internal/kernel"
	"github.com/saxsrs/batchsched/internal/sample"
	"github.com/saxsrs/batchsched/internal/status"
)

// ID is one of the closed set of stage identifiers from spec §3. The
// enumeration is closed: the registry rejects anything else.
type ID uint8

const (
	Background ID = iota
	Cut
	Filter
	FindPeak
	ProcessPeak
	Phase
)

func (id ID) String() string {
	switch id {
	case Background:
		return "Background"
	case Cut:
		return "Cut"
	case Filter:
		return "Filter"
	case FindPeak:
		return "FindPeak"
	case ProcessPeak:
		return "ProcessPeak"
	case Phase:
		return "Phase"
	default:
		return fmt.Sprintf("ID(%d)", id)
	}
}

// Request is a stage identifier carried in a StageResult. Once the current
// stage completes, the scheduler enqueues the first request of the list;
// later entries in the same list are not enqueued.
type Request = ID

// Result is what a transform hands back to the registry: the sample as
// left by the transform (metadata updates already applied to Sample.Meta)
// and the ordered list of follow-up stages to enqueue. An empty Requests
// list means this path is terminal — the sample goes to the regroup pool.
type Result struct {
	Sample   sample.Sample
	Requests []Request
}

// Transform is a pure stage body: (sample, metadata) -> StageResult. It
// must not mutate the stage number on the returned sample — the registry
// bumps it after a successful call, so the invariant (output stage ==
// input stage + 1) holds regardless of the transform's own bookkeeping.
type Transform func(sample.Sample) (Result, error)

// Registry maps stage identifiers to transforms.
type Registry struct {
	transforms map[ID]Transform
}

// NewRegistry returns an empty registry. Use NewDefaultRegistry for the
// built-in find/process/phase pipeline.
func NewRegistry() *Registry {
	return &Registry{transforms: make(map[ID]Transform)}
}

// Register installs the transform for id, overwriting any previous entry.
func (r *Registry) Register(id ID, t Transform) {
	r.transforms[id] = t
}

// Run invokes the transform registered for id against s, then advances the
// returned sample's stage number by one. Fails with NotFound if id has no
// registered transform; propagates (wrapped) any error the transform
// itself returns.
func (r *Registry) Run(id ID, s sample.Sample) (Result, error) {
	t, ok := r.transforms[id]
	if !ok {
		return Result{}, status.New("Registry.Run", status.NotFound,
			fmt.Sprintf("no transform registered for stage %s", id))
	}
	res, err := t(s)
	if err != nil {
		return Result{}, status.Wrap(fmt.Sprintf("Registry.Run[%s]", id), status.RuntimeError, err)
	}
	res.Sample = res.Sample.WithStage(s.Stage() + 1)
	return res, nil
}

// NewDefaultRegistry builds the registry driving the SAXS analysis
// pipeline described in spec §1: background subtraction, cutting,
// filtering, peak finding, per-peak processing, and phase determination.
// Peak processing is the find -> process -> find loop, expressed purely
// through the requests list (§9): FindPeak populates unprocessed_peaks and
// requests ProcessPeak; ProcessPeak retires one peak at a time and keeps
// requesting itself until none remain, then hands off to Phase.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Background, backgroundStage)
	r.Register(Cut, cutStage)
	r.Register(Filter, filterStage)
	r.Register(FindPeak, findPeakStage)
	r.Register(ProcessPeak, processPeakStage)
	r.Register(Phase, phaseStage)
	return r
}

func backgroundStage(s sample.Sample) (Result, error) {
	return Result{Sample: s, Requests: []Request{Cut}}, nil
}

func cutStage(s sample.Sample) (Result, error) {
	return Result{Sample: s, Requests: []Request{Filter}}, nil
}

func filterStage(s sample.Sample) (Result, error) {
	return Result{Sample: s, Requests: []Request{FindPeak}}, nil
}

// findPeakStage runs the numeric peak finder and stages every discovered
// peak as unprocessed. A sample with no peaks skips straight to Phase.
func findPeakStage(s sample.Sample) (Result, error) {
	peaks, err := kernel.FindPeaks(s.Intensity(), 0, 0)
	if err != nil {
		return Result{}, err
	}
	for _, p := range peaks {
		s.Meta.UnprocessedPeaks[p.Index] = p.Value
	}
	if len(s.Meta.UnprocessedPeaks) == 0 {
		return Result{Sample: s, Requests: []Request{Phase}}, nil
	}
	return Result{Sample: s, Requests: []Request{ProcessPeak}}, nil
}

// processPeakStage retires the lowest-index unprocessed peak into
// processed_peaks, then either loops back to itself (more peaks pending)
// or hands off to Phase.
func processPeakStage(s sample.Sample) (Result, error) {
	idx, val, ok := lowestUnprocessed(s.Meta.UnprocessedPeaks)
	if !ok {
		return Result{Sample: s, Requests: []Request{Phase}}, nil
	}
	delete(s.Meta.UnprocessedPeaks, idx)
	s.Meta.ProcessedPeaks[idx] = val
	s.Meta.CurrentPeak = &idx

	if len(s.Meta.UnprocessedPeaks) > 0 {
		return Result{Sample: s, Requests: []Request{ProcessPeak}}, nil
	}
	return Result{Sample: s, Requests: []Request{Phase}}, nil
}

func lowestUnprocessed(peaks map[int]float64) (index int, value float64, ok bool) {
	first := true
	for k, v := range peaks {
		if first || k < index {
			index, value, ok, first = k, v, true, false
		}
	}
	return index, value, ok
}

// phaseStage is terminal: it records the sample's dominant peak and
// requests nothing further.
func phaseStage(s sample.Sample) (Result, error) {
	if s.Len() > 0 {
		if _, idx, err := kernel.FindMax(s.Intensity()); err == nil {
			s.Meta.CurrentPeak = &idx
		}
	}
	return Result{Sample: s, Requests: nil}, nil
}
