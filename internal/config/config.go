// Package config implements the demo CLI's BatchConfig: a YAML
// description of a batch to run, parsed and validated the way the
// teacher's scenario/parser + scenario/validator split handles its YAML
// scenarios. This is strictly an outer-surface concern of cmd/saxs-runner
// — the core runtime never reads files or environment variables (spec
// §6).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saxsrs/batchsched/internal/sample"
)

// SampleSpec describes one sample to synthesize or load.
type SampleSpec struct {
	ID     string `yaml:"id"`
	Length int    `yaml:"length"`
	// Seed deterministically shapes the synthetic q/intensity/error
	// arrays when Length > 0 and no explicit arrays are given, so a
	// config file is reproducible without embedding large arrays inline.
	Seed int `yaml:"seed"`

	Q            []float64 `yaml:"q,omitempty"`
	Intensity    []float64 `yaml:"intensity,omitempty"`
	IntensityErr []float64 `yaml:"intensity_err,omitempty"`
}

// BatchConfig is the top-level YAML document cmd/saxs-runner loads.
type BatchConfig struct {
	WorkerCount int          `yaml:"worker_count"`
	MaxStages   uint32       `yaml:"max_stages"`
	Checkpoints []uint32     `yaml:"checkpoints"`
	Samples     []SampleSpec `yaml:"samples"`
}

// Default returns a BatchConfig with auto-detected worker count, no
// stage ceiling, and no samples — mirroring the teacher's
// config.DefaultConfig pattern of a safe, explicit zero value.
func Default() BatchConfig {
	return BatchConfig{
		WorkerCount: 0,
		MaxStages:   0,
	}
}

// Load reads and parses a BatchConfig from path, then validates it.
func Load(path string) (BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BatchConfig{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BatchConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return BatchConfig{}, err
	}
	return cfg, nil
}

// Validate accumulates every structural problem found in cfg rather than
// stopping at the first, following the teacher's Validator pattern of
// distinguishing non-fatal warnings from fatal errors.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid batch config: %d error(s): %v", len(e.Errors), e.Errors)
}

// Validate checks cfg for structural problems. A sample with neither
// explicit arrays nor a positive Length is an error; a sample whose
// explicit arrays differ in length is an error (surfaced again, more
// specifically, by sample.New at admit time). Duplicate sample ids are a
// warning only; the runtime does not check id uniqueness when samples are
// added.
func Validate(cfg BatchConfig) error {
	v := &ValidationError{}
	seen := make(map[string]bool, len(cfg.Samples))

	for i, s := range cfg.Samples {
		if s.ID == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("samples[%d]: id is required", i))
		}
		if seen[s.ID] {
			v.Warnings = append(v.Warnings, fmt.Sprintf("samples[%d]: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true

		hasArrays := len(s.Q) > 0 || len(s.Intensity) > 0 || len(s.IntensityErr) > 0
		if !hasArrays && s.Length <= 0 {
			v.Errors = append(v.Errors, fmt.Sprintf("samples[%d]: need either explicit arrays or a positive length", i))
			continue
		}
		if hasArrays && (len(s.Q) != len(s.Intensity) || len(s.Q) != len(s.IntensityErr)) {
			v.Errors = append(v.Errors, fmt.Sprintf("samples[%d]: q/intensity/intensity_err length mismatch", i))
		}
	}

	if len(v.Errors) > 0 {
		return v
	}
	return nil
}

// BuildSamples materializes cfg.Samples into sample.Sample values,
// synthesizing q/intensity/error arrays for any spec that gave a Length
// instead of explicit arrays.
func BuildSamples(cfg BatchConfig) ([]sample.Sample, error) {
	out := make([]sample.Sample, 0, len(cfg.Samples))
	for _, spec := range cfg.Samples {
		q, intensity, errArr := spec.Q, spec.Intensity, spec.IntensityErr
		if len(q) == 0 && spec.Length > 0 {
			q, intensity, errArr = synthesize(spec.Length, spec.Seed)
		}
		s, err := sample.New(spec.ID, q, intensity, errArr)
		if err != nil {
			return nil, fmt.Errorf("sample %q: %w", spec.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// synthesize deterministically generates a plausible SAXS-shaped curve: a
// decaying intensity with a handful of seeded bumps, so demo batches have
// something for the peak finder to chew on without shipping real data.
func synthesize(length, seed int) (q, intensity, intensityErr []float64) {
	q = make([]float64, length)
	intensity = make([]float64, length)
	intensityErr = make([]float64, length)

	state := uint64(seed + 1)
	next := func() float64 {
		state = state*6364136223846793005 + 1442695040888963407
		return float64(state>>40) / float64(1<<24)
	}

	for i := 0; i < length; i++ {
		q[i] = float64(i) * 0.01
		decay := 10.0 / (1.0 + float64(i)*0.1)
		bump := 0.0
		if i%17 == 8 {
			bump = 3.0 + next()
		}
		intensity[i] = decay + bump
		intensityErr[i] = 0.05 * intensity[i]
	}
	return q, intensity, intensityErr
}
