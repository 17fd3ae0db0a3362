// Package kernel implements the pure numeric helpers used by stage
// implementations: peak finding, array maximum, and consecutive
// differences. These operate only on caller-owned contiguous float64
// slices and retain no pointers past return, per spec §4.B and §5.
package kernel

import (
	"fmt"

	"github.com/saxsrs/batchsched/internal/status"
)

// Peak is a local maximum found by FindPeaks: its index into the source
// array, its value (equal to data[Index]), and its prominence.
type Peak struct {
	Index      int
	Value      float64
	Prominence float64
}

// FindPeaks returns all local maxima i (1 <= i <= len(data)-2) with
// data[i] > data[i-1], data[i] > data[i+1], data[i] >= minHeight, and
// prominence(i) >= minProminence. Peaks are returned in increasing index
// order. Fails with InvalidArgument when len(data) < 3.
func FindPeaks(data []float64, minHeight, minProminence float64) ([]Peak, error) {
	if len(data) < 3 {
		return nil, status.New("FindPeaks", status.InvalidArgument,
			fmt.Sprintf("need at least 3 samples, got %d", len(data)))
	}

	var peaks []Peak
	for i := 1; i < len(data)-1; i++ {
		v := data[i]
		if v <= data[i-1] || v <= data[i+1] {
			continue
		}
		if v < minHeight {
			continue
		}
		prom := prominence(data, i)
		if prom < minProminence {
			continue
		}
		peaks = append(peaks, Peak{Index: i, Value: v, Prominence: prom})
	}
	return peaks, nil
}

// prominence walks outward from i in both directions until it meets a value
// >= data[i] or the array boundary, tracking the lowest value seen on each
// side. The peak's prominence is its value minus the higher of those two
// bounding minima.
func prominence(data []float64, i int) float64 {
	v := data[i]

	leftMin := v
	for j := i - 1; j >= 0; j-- {
		if data[j] >= v {
			break
		}
		if data[j] < leftMin {
			leftMin = data[j]
		}
	}

	rightMin := v
	for j := i + 1; j < len(data); j++ {
		if data[j] >= v {
			break
		}
		if data[j] < rightMin {
			rightMin = data[j]
		}
	}

	bound := leftMin
	if rightMin > bound {
		bound = rightMin
	}
	return v - bound
}

// FindMax returns the maximum value in data and the index of its first
// occurrence. Fails with InvalidArgument on an empty slice.
func FindMax(data []float64) (value float64, index int, err error) {
	if len(data) == 0 {
		return 0, 0, status.New("FindMax", status.InvalidArgument, "empty input")
	}
	value = data[0]
	index = 0
	for i := 1; i < len(data); i++ {
		if data[i] > value {
			value = data[i]
			index = i
		}
	}
	return value, index, nil
}

// Diff writes data[i+1]-data[i] for each adjacent pair into out. out must
// have length len(data)-1; otherwise Diff fails with LengthMismatch.
func Diff(data []float64, out []float64) error {
	want := len(data) - 1
	if len(out) != want {
		return status.New("Diff", status.LengthMismatch,
			fmt.Sprintf("out buffer length %d, want %d", len(out), want))
	}
	for i := 0; i < want; i++ {
		out[i] = data[i+1] - data[i]
	}
	return nil
}

// DiffSlice is a convenience wrapper over Diff that allocates its own
// output buffer. Fails with InvalidArgument when data has fewer than 2
// elements (there is no difference to take).
func DiffSlice(data []float64) ([]float64, error) {
	if len(data) < 2 {
		return nil, status.New("Diff", status.InvalidArgument, "need at least 2 samples")
	}
	out := make([]float64, len(data)-1)
	if err := Diff(data, out); err != nil {
		return nil, err
	}
	return out, nil
}
