package pullout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "yarnpull/internal/errors"
)

type countingObserver struct {
	loaded   int
	rejected int
	warnings map[Reason]int
}

func (c *countingObserver) RecordingLoaded()   { c.loaded++ }
func (c *countingObserver) RecordingRejected() { c.rejected++ }
func (c *countingObserver) ComputationWarning(reason Reason) {
	if c.warnings == nil {
		c.warnings = make(map[Reason]int)
	}
	c.warnings[reason]++
}

func TestNewAnalyzer_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "equal thresholds", mutate: func(c *Config) { c.ForceThresholdLow, c.ForceThresholdHigh = 0.5, 0.5 }},
		{name: "zero distance limit", mutate: func(c *Config) { c.DistanceLimit = 0 }, wantErr: true},
		{name: "negative distance limit", mutate: func(c *Config) { c.DistanceLimit = -1 }, wantErr: true},
		{name: "NaN distance limit", mutate: func(c *Config) { c.DistanceLimit = math.NaN() }, wantErr: true},
		{name: "low above one", mutate: func(c *Config) { c.ForceThresholdLow = 1.2 }, wantErr: true},
		{name: "high below zero", mutate: func(c *Config) { c.ForceThresholdHigh = -0.1 }, wantErr: true},
		{name: "low above high", mutate: func(c *Config) { c.ForceThresholdLow, c.ForceThresholdHigh = 0.8, 0.3 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			a, err := NewAnalyzer(cfg, discardLogger())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				assert.Nil(t, a)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, cfg, a.Config())
		})
	}
}

func TestNewAnalyzer_NilLogger(t *testing.T) {
	a, err := NewAnalyzer(DefaultConfig(), nil)
	require.NoError(t, err)
	assert.NotNil(t, a.logger)
}

func TestAnalyzer_EmptySeries(t *testing.T) {
	a := newTestAnalyzer(t)

	assert.Equal(t, StateEmpty, a.State())
	assert.True(t, a.Statistics().Empty())
	assert.ErrorIs(t, a.ComputeModulus(), ErrEmptySeries)
	assert.ErrorIs(t, a.ComputeWork(), ErrEmptySeries)

	summary := a.ComputeStatistics()
	assert.Nil(t, summary.PeakForce)
	assert.Nil(t, summary.Work)
	assert.Nil(t, summary.Modulus)
	assert.Equal(t, 0, summary.Recordings)
	assert.Equal(t, StateEmpty, a.State())
}

func TestAnalyzer_Lifecycle(t *testing.T) {
	a := newTestAnalyzer(t)

	idx, err := a.LoadNamed("M1", rampSamples())
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, StateLoaded, a.State())

	require.NoError(t, a.ComputeModulus())
	assert.Equal(t, StateLoaded, a.State(), "work still missing")

	require.NoError(t, a.ComputeWork())
	assert.Equal(t, StateDerived, a.State())
	assert.False(t, a.Stale())

	summary := a.ComputeStatistics()
	assert.Equal(t, StateSummarized, a.State())
	assert.False(t, summary.Stale)

	// Loading again invalidates nothing automatically but makes staleness explicit.
	_, err = a.Load(rampSamples())
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, a.State())
	assert.True(t, a.Stale())
	assert.True(t, a.Statistics().Stale)
	assert.Equal(t, 1, a.Statistics().Recordings)

	require.NoError(t, a.ComputeModulus())
	require.NoError(t, a.ComputeWork())
	assert.Equal(t, StateDerived, a.State())
	assert.True(t, a.Stale(), "summary predates the new derivation")

	summary = a.ComputeStatistics()
	assert.False(t, summary.Stale)
	assert.Equal(t, 2, summary.Recordings)
	assert.Equal(t, StateSummarized, a.State())
}

func TestAnalyzer_RampSeries(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.Load(rampSamples())
	require.NoError(t, err)

	require.NoError(t, a.ComputeModulus())
	require.NoError(t, a.ComputeWork())
	summary := a.ComputeStatistics()

	// work up to 2.5 mm: (0+2)/2 + (2+7)/2 = 5.5
	assert.Equal(t, []IndexedValue{{Index: 0, Value: 5}}, a.Moduli())
	assert.Equal(t, []IndexedValue{{Index: 0, Value: 5.5}}, a.Work())
	assert.Equal(t, []float64{10}, a.PeakForces())

	require.NotNil(t, summary.PeakForce)
	require.NotNil(t, summary.Work)
	require.NotNil(t, summary.Modulus)
	assert.Equal(t, Stat{Mean: 10, StdDev: 0}, *summary.PeakForce)
	assert.Equal(t, Stat{Mean: 5.5, StdDev: 0}, *summary.Work)
	assert.Equal(t, Stat{Mean: 5, StdDev: 0}, *summary.Modulus)
}

func TestAnalyzer_RejectedLoadLeavesSeriesUnchanged(t *testing.T) {
	obs := &countingObserver{}
	a, err := NewAnalyzer(DefaultConfig(), discardLogger(), WithObserver(obs))
	require.NoError(t, err)

	_, err = a.Load(rampSamples())
	require.NoError(t, err)
	require.NoError(t, a.ComputeModulus())
	require.NoError(t, a.ComputeWork())
	a.ComputeStatistics()
	before := a.Results()

	idx, err := a.LoadNamed("broken", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataFormat))
	assert.Equal(t, -1, idx)

	assert.Equal(t, before, a.Results())
	assert.Equal(t, StateSummarized, a.State())
	assert.False(t, a.Stale())
	assert.Equal(t, 1, obs.loaded)
	assert.Equal(t, 1, obs.rejected)
}

func TestAnalyzer_FailuresAreIsolated(t *testing.T) {
	obs := &countingObserver{}
	a, err := NewAnalyzer(DefaultConfig(), discardLogger(), WithObserver(obs))
	require.NoError(t, err)

	// 0: good ramp
	_, err = a.LoadNamed("good", rampSamples())
	require.NoError(t, err)
	// 1: peak at the very start, no pre-peak window; second sample already past the cutoff
	_, err = a.LoadNamed("flat", samples([]float64{0, 3, 4}, []float64{0, -1, -2}))
	require.NoError(t, err)
	// 2: another good ramp with offset
	_, err = a.LoadNamed("offset", samples([]float64{1, 2, 3, 4}, []float64{1, 3, 8, 11}))
	require.NoError(t, err)

	require.NoError(t, a.ComputeModulus())
	require.NoError(t, a.ComputeWork())
	summary := a.ComputeStatistics()

	results := a.Results()
	require.Len(t, results, 3)
	assert.True(t, results[0].Modulus.Valid)
	assert.False(t, results[1].Modulus.Valid)
	assert.Equal(t, ReasonThresholdNotCrossed, results[1].Modulus.Reason)
	assert.Equal(t, ReasonInsufficientSamples, results[1].Work.Reason)
	assert.True(t, results[2].Modulus.Valid)

	// The work list is shorter than the recording list and keeps explicit indices.
	assert.Equal(t, []IndexedValue{{Index: 0, Value: 5.5}, {Index: 2, Value: 5.5}}, a.Work())
	assert.Equal(t, []IndexedValue{{Index: 0, Value: 5}, {Index: 2, Value: 5}}, a.Moduli())

	assert.Equal(t, 3, obs.loaded)
	assert.Equal(t, 1, obs.warnings[ReasonThresholdNotCrossed])
	assert.Equal(t, 1, obs.warnings[ReasonInsufficientSamples])

	// Failed moduli are excluded instead of counted as zero.
	require.NotNil(t, summary.Modulus)
	assert.Equal(t, Stat{Mean: 5, StdDev: 0}, *summary.Modulus)
	require.NotNil(t, summary.PeakForce)
	assert.Equal(t, Stat{Mean: 6.67, StdDev: 4.71}, *summary.PeakForce)
}

func TestAnalyzer_ZeroFillFailedModulus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ZeroFillFailedModulus = true
	a, err := NewAnalyzer(cfg, discardLogger())
	require.NoError(t, err)

	_, err = a.Load(rampSamples())
	require.NoError(t, err)
	_, err = a.Load(samples([]float64{0, 1}, []float64{0, -1}))
	require.NoError(t, err)

	require.NoError(t, a.ComputeModulus())
	summary := a.ComputeStatistics()

	require.NotNil(t, summary.Modulus)
	assert.Equal(t, Stat{Mean: 2.5, StdDev: 2.5}, *summary.Modulus)
	assert.Nil(t, summary.Work, "work was never computed")
}

func TestAnalyzer_Idempotent(t *testing.T) {
	a := newTestAnalyzer(t)
	for _, raw := range [][]Sample{
		rampSamples(),
		samples([]float64{0, 0.5, 1, 1.5, 2, 2.5, 3}, []float64{0, 0.4, 1.3, 2.2, 2.9, 2.1, 1.0}),
		samples([]float64{0, 0.2, 0.4, 0.8}, []float64{0.1, 0.3, 0.9, 0.5}),
	} {
		_, err := a.Load(raw)
		require.NoError(t, err)
	}

	require.NoError(t, a.ComputeModulus())
	require.NoError(t, a.ComputeWork())
	first := a.ComputeStatistics()
	firstResults := a.Results()

	require.NoError(t, a.ComputeModulus())
	require.NoError(t, a.ComputeModulus())
	require.NoError(t, a.ComputeWork())
	require.NoError(t, a.ComputeWork())
	second := a.ComputeStatistics()
	third := a.ComputeStatistics()

	assert.Equal(t, firstResults, a.Results())
	assert.Equal(t, first, second)
	assert.Equal(t, second, third)
}

func TestAnalyzer_ResultsAreCopies(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.Load(rampSamples())
	require.NoError(t, err)

	results := a.Results()
	results[0].PeakForce = 99
	assert.Equal(t, 10.0, a.PeakForces()[0])

	recs := a.Recordings()
	require.Len(t, recs, 1)
	assert.Equal(t, 4, recs[0].Len())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "derived", StateDerived.String())
	assert.Equal(t, "summarized", StateSummarized.String())
	assert.Equal(t, "unknown", State(42).String())
}
