// Package sample defines the Sample and FlowMetadata data carriers — the
// batch's unit of work — per spec §3 and §4.A.
package sample

import (
	"fmt"
	"unicode/utf8"

	"github.com/saxsrs/batchsched/internal/status"
)

// FlowMetadata travels alongside a Sample through the pipeline. Peak
// indices key into the sample's Intensity array.
type FlowMetadata struct {
	SampleID         string
	ProcessedPeaks   map[int]float64
	UnprocessedPeaks map[int]float64
	CurrentPeak      *int
}

// NewFlowMetadata returns an empty FlowMetadata for the given sample id.
func NewFlowMetadata(sampleID string) FlowMetadata {
	return FlowMetadata{
		SampleID:         sampleID,
		ProcessedPeaks:   make(map[int]float64),
		UnprocessedPeaks: make(map[int]float64),
	}
}

// Clone returns a deep copy so a FlowMetadata can be handed to a new owner
// without aliasing the maps of the original.
func (m FlowMetadata) Clone() FlowMetadata {
	out := FlowMetadata{
		SampleID:         m.SampleID,
		ProcessedPeaks:   make(map[int]float64, len(m.ProcessedPeaks)),
		UnprocessedPeaks: make(map[int]float64, len(m.UnprocessedPeaks)),
	}
	for k, v := range m.ProcessedPeaks {
		out.ProcessedPeaks[k] = v
	}
	for k, v := range m.UnprocessedPeaks {
		out.UnprocessedPeaks[k] = v
	}
	if m.CurrentPeak != nil {
		cp := *m.CurrentPeak
		out.CurrentPeak = &cp
	}
	return out
}

// ProcessedCount returns the number of peaks already handled.
func (m FlowMetadata) ProcessedCount() int { return len(m.ProcessedPeaks) }

// UnprocessedCount returns the number of peaks awaiting processing.
func (m FlowMetadata) UnprocessedCount() int { return len(m.UnprocessedPeaks) }

// Sample is a SAXS measurement: aligned q/intensity/error arrays, an
// identifier, a stage number, and its FlowMetadata. Sample values are
// owned by exactly one component at a time (queue, in-flight worker, or
// regroup pool) — see spec §3 invariants — so callers must treat a Sample
// as moved, not shared, once handed to the runtime.
type Sample struct {
	id           string
	q            []float64
	intensity    []float64
	intensityErr []float64
	stage        uint32
	Meta         FlowMetadata
}

// New constructs a Sample from id and the three aligned arrays. Fails with
// InvalidArgument if id is empty, not valid UTF-8, or any array is empty;
// fails with LengthMismatch if the three arrays differ in length.
func New(id string, q, intensity, intensityErr []float64) (Sample, error) {
	if id == "" {
		return Sample{}, status.New("sample.New", status.InvalidArgument, "id must not be empty")
	}
	if !utf8.ValidString(id) {
		return Sample{}, status.New("sample.New", status.InvalidArgument, "id is not valid UTF-8")
	}
	if len(q) == 0 || len(intensity) == 0 || len(intensityErr) == 0 {
		return Sample{}, status.New("sample.New", status.InvalidArgument, "arrays must be non-empty")
	}
	if len(q) != len(intensity) || len(q) != len(intensityErr) {
		return Sample{}, status.New("sample.New", status.LengthMismatch,
			fmt.Sprintf("q=%d intensity=%d intensity_err=%d must be equal", len(q), len(intensity), len(intensityErr)))
	}

	return Sample{
		id:           id,
		q:            append([]float64(nil), q...),
		intensity:    append([]float64(nil), intensity...),
		intensityErr: append([]float64(nil), intensityErr...),
		stage:        0,
		Meta:         NewFlowMetadata(id),
	}, nil
}

// ID returns the sample's immutable identifier.
func (s Sample) ID() string { return s.id }

// Q returns a copy of the q array; callers may not observe or mutate the
// runtime's internal buffer.
func (s Sample) Q() []float64 { return append([]float64(nil), s.q...) }

// Intensity returns a copy of the intensity array.
func (s Sample) Intensity() []float64 { return append([]float64(nil), s.intensity...) }

// IntensityErr returns a copy of the intensity-error array.
func (s Sample) IntensityErr() []float64 { return append([]float64(nil), s.intensityErr...) }

// Len returns the common length of the three arrays.
func (s Sample) Len() int { return len(s.intensity) }

// Stage returns the sample's current stage number.
func (s Sample) Stage() uint32 { return s.stage }

// WithStage returns a copy of s advanced to the given stage number. Stage
// numbers only move forward; a caller passing a lower number is a
// programming error in the stage registry, not a runtime-reachable state,
// so it panics rather than returning a status code.
func (s Sample) WithStage(stage uint32) Sample {
	if stage < s.stage {
		panic(fmt.Sprintf("sample %s: stage number must be non-decreasing (have %d, want %d)", s.id, s.stage, stage))
	}
	out := s
	out.stage = stage
	return out
}

// Clone returns a deep copy of s, safe to hand to a different owner
// concurrently with the original.
func (s Sample) Clone() Sample {
	out := s
	out.q = append([]float64(nil), s.q...)
	out.intensity = append([]float64(nil), s.intensity...)
	out.intensityErr = append([]float64(nil), s.intensityErr...)
	out.Meta = s.Meta.Clone()
	return out
}
