package pullout

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	apperrors "yarnpull/internal/errors"
)

// samplePrecision is the number of decimals kept after normalization
const samplePrecision = 4

// Recording is a normalized displacement/force series. Its first sample is (0, 0).
// The zero value is an empty recording.
type Recording struct {
	samples []Sample
}

// Normalize zero-references raw samples against the first one and rounds every value
// to 4 decimals. Displacement and force are shifted independently, so a sensor offset
// on the first force reading is removed from the whole series.
func Normalize(raw []Sample) (Recording, error) {
	if len(raw) == 0 {
		return Recording{}, apperrors.NewDataFormatError("recording has no samples", nil)
	}

	origin := raw[0]
	samples := make([]Sample, len(raw))
	for i, s := range raw {
		if !isFinite(s.Displacement) || !isFinite(s.Force) {
			return Recording{}, apperrors.NewDataFormatError(
				fmt.Sprintf("sample %d is not a finite number", i), nil).
				WithContext("sample_index", i)
		}
		samples[i] = Sample{
			Displacement: scalar.RoundEven(s.Displacement-origin.Displacement, samplePrecision),
			Force:        scalar.RoundEven(s.Force-origin.Force, samplePrecision),
		}
	}

	return Recording{samples: samples}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Len returns the number of samples
func (r Recording) Len() int {
	return len(r.samples)
}

// At returns the i-th sample
func (r Recording) At(i int) Sample {
	return r.samples[i]
}

// Samples returns a copy of the samples
func (r Recording) Samples() []Sample {
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Displacements returns the displacement column
func (r Recording) Displacements() []float64 {
	out := make([]float64, len(r.samples))
	for i, s := range r.samples {
		out[i] = s.Displacement
	}
	return out
}

// Forces returns the force column
func (r Recording) Forces() []float64 {
	out := make([]float64, len(r.samples))
	for i, s := range r.samples {
		out[i] = s.Force
	}
	return out
}

// PeakIndex returns the index of the first sample with the maximum force, or -1 for an
// empty recording.
func (r Recording) PeakIndex() int {
	if len(r.samples) == 0 {
		return -1
	}
	return floats.MaxIdx(r.Forces())
}

// Peak returns the first sample with the maximum force.
func (r Recording) Peak() Sample {
	idx := r.PeakIndex()
	if idx < 0 {
		return Sample{}
	}
	return r.samples[idx]
}

// PeakForce returns the maximum force of the recording
func (r Recording) PeakForce() float64 {
	return r.Peak().Force
}
