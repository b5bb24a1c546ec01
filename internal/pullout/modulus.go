package pullout

import (
	"gonum.org/v1/gonum/floats/scalar"
)

// EstimateModulus returns the slope between the first samples that reach low*peak and
// high*peak force, searching only the samples strictly before the first peak sample.
// Later force rises after the peak never enter the window.
//
// The result is rounded to 2 decimals. A *ComputationWarning is returned when a
// threshold is never crossed before the peak or when both crossings share the same
// displacement.
func EstimateModulus(rec Recording, low, high float64) (float64, error) {
	peakIdx := rec.PeakIndex()
	if peakIdx < 0 {
		return 0, warn(ReasonInsufficientSamples, "recording is empty")
	}

	peak := rec.samples[peakIdx].Force
	thresholdLow := peak * low
	thresholdHigh := peak * high

	idxLow, idxHigh := -1, -1
	for i, s := range rec.samples[:peakIdx] {
		if idxLow < 0 && s.Force >= thresholdLow {
			idxLow = i
		}
		if idxHigh < 0 && s.Force >= thresholdHigh {
			idxHigh = i
		}
	}

	if idxLow < 0 || idxHigh < 0 {
		return 0, warn(ReasonThresholdNotCrossed,
			"thresholds %.4f/%.4f not both reached in %d samples before peak", thresholdLow, thresholdHigh, peakIdx)
	}

	// The crossings are used as an unordered pair of window endpoints.
	if idxLow > idxHigh {
		idxLow, idxHigh = idxHigh, idxLow
	}

	from, to := rec.samples[idxLow], rec.samples[idxHigh]
	span := to.Displacement - from.Displacement
	if span == 0 {
		return 0, warn(ReasonZeroDisplacementSpan,
			"crossings at samples %d and %d share displacement %.4f", idxLow, idxHigh, from.Displacement)
	}

	return scalar.RoundEven((to.Force-from.Force)/span, 2), nil
}
