package kernel

import (
	"testing"

	"github.com/saxsrs/batchsched/internal/status"
	"github.com/stretchr/testify/require"
)

func TestFindPeaks(t *testing.T) {
	tests := []struct {
		name          string
		data          []float64
		minHeight     float64
		minProminence float64
		wantIdx       []int
		wantVal       []float64
	}{
		{
			name:          "spec scenario 4",
			data:          []float64{0, 1, 0, 2, 1, 3, 0},
			minHeight:     0.5,
			minProminence: 0.5,
			wantIdx:       []int{1, 3, 5},
			wantVal:       []float64{1, 2, 3},
		},
		{
			name:          "min height filters small peak",
			data:          []float64{0, 1, 0, 2, 1, 3, 0},
			minHeight:     1.5,
			minProminence: 0.5,
			wantIdx:       []int{3, 5},
			wantVal:       []float64{2, 3},
		},
		{
			name:          "plateau is not a peak",
			data:          []float64{0, 2, 2, 0},
			minHeight:     0,
			minProminence: 0,
			wantIdx:       nil,
			wantVal:       nil,
		},
		{
			name:          "no peaks below prominence",
			data:          []float64{5, 1, 2, 1, 5},
			minHeight:     0,
			minProminence: 1.5,
			wantIdx:       nil,
			wantVal:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peaks, err := FindPeaks(tt.data, tt.minHeight, tt.minProminence)
			require.NoError(t, err)
			require.Len(t, peaks, len(tt.wantIdx))
			for i, p := range peaks {
				require.Equal(t, tt.wantIdx[i], p.Index)
				require.Equal(t, tt.wantVal[i], p.Value)
				if i > 0 {
					require.Greater(t, p.Index, peaks[i-1].Index, "indices must be strictly increasing")
				}
			}
		})
	}
}

func TestFindPeaks_TooShort(t *testing.T) {
	_, err := FindPeaks([]float64{1, 2}, 0, 0)
	require.Error(t, err)
	require.Equal(t, status.InvalidArgument, status.CodeOf(err))
}

func TestFindMax(t *testing.T) {
	tests := []struct {
		name    string
		data    []float64
		wantVal float64
		wantIdx int
	}{
		{"simple", []float64{1, 5, 3}, 5, 1},
		{"first occurrence tie-break", []float64{2, 5, 5, 1}, 5, 1},
		{"single element", []float64{42}, 42, 0},
		{"descending", []float64{9, 8, 7}, 9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, i, err := FindMax(tt.data)
			require.NoError(t, err)
			require.Equal(t, tt.wantVal, v)
			require.Equal(t, tt.wantIdx, i)
		})
	}
}

func TestFindMax_Empty(t *testing.T) {
	_, _, err := FindMax(nil)
	require.Error(t, err)
	require.Equal(t, status.InvalidArgument, status.CodeOf(err))
}

func TestDiff(t *testing.T) {
	out := make([]float64, 3)
	err := Diff([]float64{1.0, 3.0, 2.0, 5.0}, out)
	require.NoError(t, err)
	require.Equal(t, []float64{2.0, -1.0, 3.0}, out)
}

func TestDiff_LengthMismatch(t *testing.T) {
	out := make([]float64, 2)
	err := Diff([]float64{1.0, 3.0, 2.0, 5.0}, out)
	require.Error(t, err)
	require.Equal(t, status.LengthMismatch, status.CodeOf(err))
}

func TestDiffSlice_RoundTrip(t *testing.T) {
	// prefix-sum(diff(x), x[0]) == x for any non-empty x
	x := []float64{4.0, 4.0, 9.0, 2.0, -1.0, 0.5}
	d, err := DiffSlice(x)
	require.NoError(t, err)

	got := make([]float64, len(x))
	got[0] = x[0]
	for i, dv := range d {
		got[i+1] = got[i] + dv
	}
	require.InDeltaSlice(t, x, got, 1e-9)
}

func TestDiffSlice_TooShort(t *testing.T) {
	_, err := DiffSlice([]float64{1})
	require.Error(t, err)
	require.Equal(t, status.InvalidArgument, status.CodeOf(err))
}
