package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
worker_count: 2
max_stages: 0
checkpoints: [2]
samples:
  - id: s1
    length: 32
    seed: 7
  - id: s2
    q: [1.0, 2.0, 3.0]
    intensity: [1.0, 2.0, 3.0]
    intensity_err: [0.1, 0.1, 0.1]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.WorkerCount)
	require.Equal(t, []uint32{2}, cfg.Checkpoints)
	require.Len(t, cfg.Samples, 2)

	samples, err := BuildSamples(cfg)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	require.Equal(t, 32, samples[0].Len())
	require.Equal(t, "s2", samples[1].ID())
}

func TestValidate_MissingID(t *testing.T) {
	cfg := BatchConfig{Samples: []SampleSpec{{Length: 10}}}
	err := Validate(cfg)
	require.Error(t, err)
	ve, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Len(t, ve.Errors, 1)
}

func TestValidate_NeedsArraysOrLength(t *testing.T) {
	cfg := BatchConfig{Samples: []SampleSpec{{ID: "s1"}}}
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_LengthMismatch(t *testing.T) {
	cfg := BatchConfig{Samples: []SampleSpec{{
		ID:           "s1",
		Q:            []float64{1, 2},
		Intensity:    []float64{1},
		IntensityErr: []float64{1, 2},
	}}}
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_DuplicateIDIsWarningOnly(t *testing.T) {
	cfg := BatchConfig{Samples: []SampleSpec{
		{ID: "s1", Length: 5},
		{ID: "s1", Length: 5},
	}}
	require.NoError(t, Validate(cfg))
}

func TestSynthesize_Deterministic(t *testing.T) {
	q1, i1, e1 := synthesize(20, 3)
	q2, i2, e2 := synthesize(20, 3)
	require.Equal(t, q1, q2)
	require.Equal(t, i1, i2)
	require.Equal(t, e1, e2)
}
