package sample

import (
	"testing"

	"github.com/saxsrs/batchsched/internal/status"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New("s1", []float64{1, 2, 3}, []float64{4, 5, 6}, []float64{0.1, 0.1, 0.1})
	require.NoError(t, err)
	require.Equal(t, "s1", s.ID())
	require.Equal(t, uint32(0), s.Stage())
	require.Equal(t, 3, s.Len())
	require.Equal(t, []float64{1, 2, 3}, s.Q())
	require.Equal(t, 0, s.Meta.ProcessedCount())
	require.Equal(t, 0, s.Meta.UnprocessedCount())
}

func TestNew_EmptyID(t *testing.T) {
	_, err := New("", []float64{1}, []float64{1}, []float64{1})
	require.Error(t, err)
	require.Equal(t, status.InvalidArgument, status.CodeOf(err))
}

func TestNew_InvalidUTF8(t *testing.T) {
	_, err := New(string([]byte{0xff, 0xfe}), []float64{1}, []float64{1}, []float64{1})
	require.Error(t, err)
	require.Equal(t, status.InvalidArgument, status.CodeOf(err))
}

func TestNew_EmptyArrays(t *testing.T) {
	_, err := New("s1", nil, nil, nil)
	require.Error(t, err)
	require.Equal(t, status.InvalidArgument, status.CodeOf(err))
}

func TestNew_LengthMismatch(t *testing.T) {
	_, err := New("s1", []float64{1, 2}, []float64{1}, []float64{1, 2})
	require.Error(t, err)
	require.Equal(t, status.LengthMismatch, status.CodeOf(err))
}

func TestWithStage(t *testing.T) {
	s, err := New("s1", []float64{1}, []float64{1}, []float64{1})
	require.NoError(t, err)

	s1 := s.WithStage(1)
	require.Equal(t, uint32(0), s.Stage(), "original must be unaffected")
	require.Equal(t, uint32(1), s1.Stage())

	s2 := s1.WithStage(4)
	require.Equal(t, uint32(4), s2.Stage())
}

func TestWithStage_PanicsOnDecrease(t *testing.T) {
	s, err := New("s1", []float64{1}, []float64{1}, []float64{1})
	require.NoError(t, err)
	s = s.WithStage(2)

	require.Panics(t, func() {
		s.WithStage(1)
	})
}

func TestClone_Independence(t *testing.T) {
	s, err := New("s1", []float64{1, 2}, []float64{1, 2}, []float64{0, 0})
	require.NoError(t, err)
	s.Meta.UnprocessedPeaks[0] = 1.0

	c := s.Clone()
	c.Meta.UnprocessedPeaks[1] = 2.0

	require.Equal(t, 1, s.Meta.UnprocessedCount())
	require.Equal(t, 2, c.Meta.UnprocessedCount())
}

func TestFlowMetadata_CloneCurrentPeak(t *testing.T) {
	m := NewFlowMetadata("s1")
	idx := 3
	m.CurrentPeak = &idx

	c := m.Clone()
	*c.CurrentPeak = 9

	require.Equal(t, 3, *m.CurrentPeak, "original CurrentPeak must not alias the clone")
	require.Equal(t, 9, *c.CurrentPeak)
}
