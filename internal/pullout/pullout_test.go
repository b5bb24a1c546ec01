package pullout

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "yarnpull/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// samples builds raw samples from parallel displacement and force columns.
func samples(disp, force []float64) []Sample {
	out := make([]Sample, len(disp))
	for i := range disp {
		out[i] = Sample{Displacement: disp[i], Force: force[i]}
	}
	return out
}

// recording builds a Recording without normalization, for exercising the algorithms directly.
func recording(disp, force []float64) Recording {
	return Recording{samples: samples(disp, force)}
}

func rampSamples() []Sample {
	return samples([]float64{0, 1, 2, 3}, []float64{0, 2, 7, 10})
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(DefaultConfig(), discardLogger())
	require.NoError(t, err)
	return a
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  []Sample
		want []Sample
	}{
		{
			name: "already zero referenced",
			raw:  rampSamples(),
			want: rampSamples(),
		},
		{
			name: "offset displacement and force",
			raw:  samples([]float64{12.5, 13.5, 14.0}, []float64{0.25, 1.25, 0.75}),
			want: samples([]float64{0, 1, 1.5}, []float64{0, 1, 0.5}),
		},
		{
			name: "rounded to four decimals",
			raw:  samples([]float64{0, 0.123456}, []float64{0, 1.000049}),
			want: samples([]float64{0, 0.1235}, []float64{0, 1.0}),
		},
		{
			name: "single sample",
			raw:  []Sample{{Displacement: 3.2, Force: -0.4}},
			want: []Sample{{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Samples())
			assert.Equal(t, Sample{}, rec.At(0), "first point must be the origin")
		})
	}
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  []Sample
	}{
		{name: "nil input", raw: nil},
		{name: "empty input", raw: []Sample{}},
		{name: "NaN force", raw: []Sample{{0, 0}, {1, math.NaN()}}},
		{name: "infinite displacement", raw: []Sample{{0, 0}, {math.Inf(1), 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(tt.raw)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataFormat))
			assert.Equal(t, 0, rec.Len())
		})
	}
}

func TestRecording_Accessors(t *testing.T) {
	rec, err := Normalize(samples([]float64{1, 2, 3, 4}, []float64{1, 5, 5, 2}))
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1, 2, 3}, rec.Displacements())
	assert.Equal(t, []float64{0, 4, 4, 1}, rec.Forces())
	assert.Equal(t, 1, rec.PeakIndex(), "first occurrence of the maximum")
	assert.Equal(t, 4.0, rec.PeakForce())

	// Samples returns a copy
	s := rec.Samples()
	s[1].Force = 100
	assert.Equal(t, 4.0, rec.At(1).Force)

	var empty Recording
	assert.Equal(t, -1, empty.PeakIndex())
	assert.Equal(t, 0.0, empty.PeakForce())
}

func TestEstimateModulus(t *testing.T) {
	tests := []struct {
		name string
		rec  Recording
		want float64
	}{
		{
			name: "analytic ramp",
			rec:  recording([]float64{0, 1, 2, 3}, []float64{0, 2, 7, 10}),
			want: 5.0,
		},
		{
			name: "repeated maximum uses first occurrence",
			rec:  recording([]float64{0, 1, 2, 3, 4, 5}, []float64{0, 2, 7, 10, 4, 10}),
			want: 5.0,
		},
		{
			name: "dip before global maximum stays in window",
			rec:  recording([]float64{0, 1, 2, 3, 4, 5, 6}, []float64{0, 4, 9, 6, 8, 10, 7}),
			want: 5.0,
		},
		{
			name: "rounded to two decimals",
			rec:  recording([]float64{0, 0.3, 0.6, 0.9}, []float64{0, 2, 7, 10}),
			want: 16.67,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimateModulus(tt.rec, 0.2, 0.7)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimateModulus_Warnings(t *testing.T) {
	tests := []struct {
		name   string
		rec    Recording
		reason Reason
	}{
		{
			name:   "empty recording",
			rec:    Recording{},
			reason: ReasonInsufficientSamples,
		},
		{
			name:   "peak at first sample",
			rec:    recording([]float64{0, 1, 2}, []float64{0, -1, -2}),
			reason: ReasonThresholdNotCrossed,
		},
		{
			name:   "post-peak crossings are ignored",
			rec:    recording([]float64{0, 1, 2, 3, 4}, []float64{0, 1, 10, 2, 7}),
			reason: ReasonThresholdNotCrossed,
		},
		{
			name:   "zero displacement span",
			rec:    recording([]float64{0, 1, 1, 2}, []float64{0, 2, 7, 10}),
			reason: ReasonZeroDisplacementSpan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimateModulus(tt.rec, 0.2, 0.7)
			require.Error(t, err)

			var w *ComputationWarning
			require.True(t, errors.As(err, &w))
			assert.Equal(t, tt.reason, w.Reason)
			assert.Equal(t, 0.0, got)
		})
	}
}

func TestEstimateModulus_SwapsReversedCrossings(t *testing.T) {
	rec := recording([]float64{0, 1, 2, 3}, []float64{0, 2, 7, 10})

	forward, err := EstimateModulus(rec, 0.2, 0.7)
	require.NoError(t, err)
	reversed, err := EstimateModulus(rec, 0.7, 0.2)
	require.NoError(t, err)

	assert.Equal(t, forward, reversed)
}

func TestIntegrateWork(t *testing.T) {
	tests := []struct {
		name  string
		rec   Recording
		limit float64
		want  float64
	}{
		{
			name:  "constant force is exact",
			rec:   recording([]float64{0, 0.5, 1, 1.5, 2}, []float64{3, 3, 3, 3, 3}),
			limit: 2.5,
			want:  6.0,
		},
		{
			name:  "linear ramp",
			rec:   recording([]float64{0, 1, 2}, []float64{0, 1, 2}),
			limit: 2.5,
			want:  2.0,
		},
		{
			name:  "limit is inclusive",
			rec:   recording([]float64{0, 1, 2, 3}, []float64{2, 2, 2, 50}),
			limit: 2,
			want:  4.0,
		},
		{
			name:  "rounded to two decimals",
			rec:   recording([]float64{0, 1}, []float64{0, 0.3334}),
			limit: 2.5,
			want:  0.17,
		},
		{
			name:  "ties round to even",
			rec:   recording([]float64{0, 1}, []float64{0, 0.25}),
			limit: 2.5,
			want:  0.12,
		},
		{
			name:  "step back contributes a negative slice",
			rec:   recording([]float64{0, 2, 1, 2}, []float64{2, 2, 2, 2}),
			limit: 2.5,
			want:  4.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntegrateWork(tt.rec, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntegrateWork_CutoffIgnoresLaterPoints(t *testing.T) {
	base := []Sample{{0, 0}, {0.5, 1}, {1, 2}, {2, 2.5}}
	extended := append(append([]Sample{}, base...), Sample{2.6, 40}, Sample{3, 80}, Sample{5, 1})

	a, err := IntegrateWork(Recording{samples: base}, 2.5)
	require.NoError(t, err)
	b, err := IntegrateWork(Recording{samples: extended}, 2.5)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestIntegrateWork_TrackingJitter(t *testing.T) {
	rec, err := Normalize([]Sample{{0, 0}, {0.1, 0.5}, {0.0999, 0.6}, {0.5, 1.0}, {1.0, 1.5}, {2.0, 2.0}})
	require.NoError(t, err)

	got, err := IntegrateWork(rec, 2.5)
	require.NoError(t, err)
	// 0.025 - 0.000055 + 0.32008 + 0.625 + 1.75
	assert.Equal(t, 2.72, got)

	// dropping the jittered sample takes the sorted path
	smooth, err := Normalize([]Sample{{0, 0}, {0.1, 0.5}, {0.5, 1.0}, {1.0, 1.5}, {2.0, 2.0}})
	require.NoError(t, err)
	sorted, err := IntegrateWork(smooth, 2.5)
	require.NoError(t, err)
	assert.InDelta(t, sorted, got, 0.05)
}

func TestIntegrateWork_Warnings(t *testing.T) {
	tests := []struct {
		name   string
		rec    Recording
		reason Reason
	}{
		{
			name:   "empty window",
			rec:    recording([]float64{3, 4}, []float64{1, 1}),
			reason: ReasonEmptyWorkWindow,
		},
		{
			name:   "single sample window",
			rec:    recording([]float64{0, 3}, []float64{0, 1}),
			reason: ReasonInsufficientSamples,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IntegrateWork(tt.rec, 2.5)
			var w *ComputationWarning
			require.True(t, errors.As(err, &w))
			assert.Equal(t, tt.reason, w.Reason)
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Nil(t, Describe(nil))
	assert.Equal(t, &Stat{Mean: 4.2, StdDev: 0}, Describe([]float64{4.2}))
	assert.Equal(t, &Stat{Mean: 5, StdDev: 2}, Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9}))
	assert.Equal(t, &Stat{Mean: 2, StdDev: 0.82}, Describe([]float64{1, 2, 3}))
	// exact ties round to even
	assert.Equal(t, &Stat{Mean: 0.12, StdDev: 0}, Describe([]float64{0.125}))
	assert.Equal(t, &Stat{Mean: 0.38, StdDev: 0}, Describe([]float64{0.375}))
}

func TestDescribeExtent(t *testing.T) {
	assert.Nil(t, DescribeExtent(nil))
	assert.Equal(t, &Extent{Min: 1, Max: 9, Median: 4}, DescribeExtent([]float64{9, 1, 4}))
	assert.Equal(t, &Extent{Min: 1, Max: 9, Median: 3}, DescribeExtent([]float64{9, 1, 4, 2}))
}

func TestStat_String(t *testing.T) {
	var unset *Stat
	assert.Equal(t, "n/a", unset.String())
	assert.Equal(t, "1.50 ± 0.25", (&Stat{Mean: 1.5, StdDev: 0.25}).String())
}
