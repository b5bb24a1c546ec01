// Package pullout implements the analysis engine for yarn pull-out tests.
//
// A pull-out test drags a single yarn out of a fabric while the test rig records the
// displacement of the clamp (mm) and the force needed to pull it (kN). One recording is
// one such test; a batch of recordings taken on the same sample set forms a series.
//
// # Core Components
//
// The engine derives three quantities per recording and summarizes them per series:
//
//  1. Peak force: the maximum force of the normalized recording
//  2. Modulus: the slope between the 20% and 70% peak-force crossings, before the peak
//  3. Work: the trapezoidal integral of force over displacement up to a cutoff
//
// # Architecture
//
//   - types.go: samples, outcomes, per-recording results and summaries
//   - recording.go: normalization of raw samples into an immutable Recording
//   - modulus.go: threshold-crossing slope estimation
//   - work.go: bounded work integration
//   - statistics.go: mean and population standard deviation
//   - analyzer.go: per-series state and orchestration
//
// # Usage Example
//
//	analyzer, err := pullout.NewAnalyzer(pullout.DefaultConfig(), slog.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, samples := range recordings {
//	    if _, err := analyzer.Load(samples); err != nil {
//	        log.Printf("skipping recording: %v", err)
//	    }
//	}
//
//	_ = analyzer.ComputeModulus()
//	_ = analyzer.ComputeWork()
//	summary := analyzer.ComputeStatistics()
//
// # Failure Policy
//
// A malformed recording fails its Load call and leaves the series untouched. Computation
// problems on a single recording (thresholds never crossed, a zero-width modulus window,
// an empty work window) are recorded as an Outcome with a Reason and logged as warnings;
// the remaining recordings are still processed. Summaries with no underlying data are
// left unset rather than zero.
//
// The engine is single-threaded. An Analyzer must not be shared between goroutines.
package pullout
