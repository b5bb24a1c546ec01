package pullout

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrEmptySeries is returned when a derivation is requested before any recording was loaded.
var ErrEmptySeries = errors.New("series has no recordings")

// Observer receives analyzer events. It is how callers count loads and warnings
// without the engine knowing about metrics backends.
type Observer interface {
	RecordingLoaded()
	RecordingRejected()
	ComputationWarning(reason Reason)
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithObserver attaches an Observer to the analyzer
func WithObserver(o Observer) Option {
	return func(a *Analyzer) {
		a.observer = o
	}
}

// Analyzer owns one measurement series: its recordings in load order and the values
// derived from them. Derivations run on demand and overwrite earlier results.
//
// Loading a recording after derivation does not recompute anything; State drops back to
// StateLoaded and Stale reports true until the derivations are run again.
type Analyzer struct {
	config   Config
	logger   *slog.Logger
	observer Observer

	results []Result
	summary Summary

	// revisions order loads and derivations; zero means never run
	rev        int
	loadRev    int
	modulusRev int
	workRev    int
	summaryRev int
}

// NewAnalyzer creates an analyzer for one series. The configuration is validated eagerly.
func NewAnalyzer(config Config, logger *slog.Logger, opts ...Option) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Analyzer{
		config: config,
		logger: logger.With(slog.String("component", "pullout_analyzer")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the analysis parameters
func (a *Analyzer) Config() Config {
	return a.config
}

// Load normalizes raw samples and appends them as the next recording.
// It returns the index of the new recording.
func (a *Analyzer) Load(raw []Sample) (int, error) {
	return a.LoadNamed("", raw)
}

// LoadNamed is Load with a source name kept alongside the recording.
// On error the series is left unchanged.
func (a *Analyzer) LoadNamed(source string, raw []Sample) (int, error) {
	rec, err := Normalize(raw)
	if err != nil {
		a.logger.Error("rejected recording",
			slog.String("source", source),
			slog.String("error", err.Error()))
		if a.observer != nil {
			a.observer.RecordingRejected()
		}
		return -1, fmt.Errorf("load recording %q: %w", source, err)
	}

	idx := len(a.results)
	a.results = append(a.results, Result{
		Index:     idx,
		Source:    source,
		Recording: rec,
		PeakForce: rec.PeakForce(),
	})
	a.loadRev = a.nextRev()

	a.logger.Info("loaded recording",
		slog.Int("recording_index", idx),
		slog.String("source", source),
		slog.Int("samples", rec.Len()),
		slog.Float64("peak_force", rec.PeakForce()))
	if a.observer != nil {
		a.observer.RecordingLoaded()
	}
	return idx, nil
}

// ComputeModulus estimates the modulus of every recording. Failures are recorded per
// recording and never abort the rest.
func (a *Analyzer) ComputeModulus() error {
	if len(a.results) == 0 {
		return ErrEmptySeries
	}

	for i := range a.results {
		r := &a.results[i]
		modulus, err := EstimateModulus(r.Recording, a.config.ForceThresholdLow, a.config.ForceThresholdHigh)
		if err != nil {
			r.Modulus = failedOutcome(err)
			a.reportFailure(r, "modulus", err)
			continue
		}
		r.Modulus = valueOutcome(modulus)
		a.logger.Debug("modulus computed",
			slog.Int("recording_index", r.Index),
			slog.Float64("modulus", modulus))
	}

	a.modulusRev = a.nextRev()
	return nil
}

// ComputeWork integrates the work of every recording up to the distance limit.
// Recordings without a usable window get no work value.
func (a *Analyzer) ComputeWork() error {
	if len(a.results) == 0 {
		return ErrEmptySeries
	}

	for i := range a.results {
		r := &a.results[i]
		work, err := IntegrateWork(r.Recording, a.config.DistanceLimit)
		if err != nil {
			r.Work = failedOutcome(err)
			a.reportFailure(r, "work", err)
			continue
		}
		r.Work = valueOutcome(work)
		a.logger.Debug("work computed",
			slog.Int("recording_index", r.Index),
			slog.Float64("work", work))
	}

	a.workRev = a.nextRev()
	return nil
}

// ComputeStatistics recomputes the summary from the current results and returns it.
// It may be called in any state; fields without data stay nil.
func (a *Analyzer) ComputeStatistics() Summary {
	a.summary = Summarize(a.results, a.config.ZeroFillFailedModulus)
	a.summaryRev = a.rev
	if a.summary.Empty() {
		a.logger.Warn("no data for statistics", slog.Int("recordings", len(a.results)))
	}
	return a.Statistics()
}

// Statistics returns the last computed summary without recomputing it.
func (a *Analyzer) Statistics() Summary {
	s := a.summary
	s.Stale = a.Stale()
	return s
}

// State reports the lifecycle stage of the series.
func (a *Analyzer) State() State {
	switch {
	case len(a.results) == 0:
		return StateEmpty
	case a.modulusRev < a.loadRev || a.workRev < a.loadRev:
		return StateLoaded
	case a.summaryRev < a.modulusRev || a.summaryRev < a.workRev:
		return StateDerived
	default:
		return StateSummarized
	}
}

// Stale reports whether any derived data predates the latest change it depends on.
func (a *Analyzer) Stale() bool {
	derivedStale := (a.modulusRev > 0 && a.modulusRev < a.loadRev) ||
		(a.workRev > 0 && a.workRev < a.loadRev)
	summaryStale := a.summaryRev > 0 &&
		(a.summaryRev < a.loadRev || a.summaryRev < a.modulusRev || a.summaryRev < a.workRev)
	return derivedStale || summaryStale
}

// Len returns the number of loaded recordings
func (a *Analyzer) Len() int {
	return len(a.results)
}

// Results returns a copy of the per-recording results in load order.
func (a *Analyzer) Results() []Result {
	out := make([]Result, len(a.results))
	copy(out, a.results)
	return out
}

// Recordings returns the normalized recordings in load order.
func (a *Analyzer) Recordings() []Recording {
	out := make([]Recording, len(a.results))
	for i, r := range a.results {
		out[i] = r.Recording
	}
	return out
}

// PeakForces returns the peak force of every recording in load order.
func (a *Analyzer) PeakForces() []float64 {
	out := make([]float64, len(a.results))
	for i, r := range a.results {
		out[i] = r.PeakForce
	}
	return out
}

// Moduli returns the valid moduli paired with their recording index.
func (a *Analyzer) Moduli() []IndexedValue {
	return a.collect(func(r Result) Outcome { return r.Modulus })
}

// Work returns the valid work values paired with their recording index. It may be
// shorter than the recording list.
func (a *Analyzer) Work() []IndexedValue {
	return a.collect(func(r Result) Outcome { return r.Work })
}

func (a *Analyzer) collect(pick func(Result) Outcome) []IndexedValue {
	var out []IndexedValue
	for _, r := range a.results {
		if o := pick(r); o.Valid {
			out = append(out, IndexedValue{Index: r.Index, Value: o.Value})
		}
	}
	return out
}

func (a *Analyzer) reportFailure(r *Result, quantity string, err error) {
	reason := failedOutcome(err).Reason
	a.logger.Warn("computation skipped for recording",
		slog.String("quantity", quantity),
		slog.Int("recording_index", r.Index),
		slog.String("source", r.Source),
		slog.String("reason", string(reason)),
		slog.String("detail", err.Error()))
	if a.observer != nil {
		a.observer.ComputationWarning(reason)
	}
}

func (a *Analyzer) nextRev() int {
	a.rev++
	return a.rev
}
