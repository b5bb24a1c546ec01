package pullout

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

// Describe returns the mean and population standard deviation (divisor N) of values,
// rounded to 2 decimals, or nil when values is empty.
func Describe(values []float64) *Stat {
	if len(values) == 0 {
		return nil
	}
	mean := stat.Mean(values, nil)
	std := math.Sqrt(stat.MomentAbout(2, values, mean, nil))
	return &Stat{
		Mean:   scalar.RoundEven(mean, 2),
		StdDev: scalar.RoundEven(std, 2),
	}
}

// Summarize computes the series summary from per-recording results. Only valid
// outcomes contribute to the work and modulus statistics, unless zeroFillModulus is
// set, in which case computed-but-failed moduli count as 0.0.
func Summarize(results []Result, zeroFillModulus bool) Summary {
	peaks := make([]float64, 0, len(results))
	work := make([]float64, 0, len(results))
	moduli := make([]float64, 0, len(results))

	for _, r := range results {
		peaks = append(peaks, r.PeakForce)
		if r.Work.Valid {
			work = append(work, r.Work.Value)
		}
		switch {
		case r.Modulus.Valid:
			moduli = append(moduli, r.Modulus.Value)
		case zeroFillModulus && r.Modulus.Computed():
			moduli = append(moduli, 0)
		}
	}

	return Summary{
		PeakForce:  Describe(peaks),
		Work:       Describe(work),
		Modulus:    Describe(moduli),
		Recordings: len(results),
	}
}

// Extent is the spread of a set of values, used by detailed exports.
type Extent struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// DescribeExtent returns min, max and median of values, or nil when values is empty.
func DescribeExtent(values []float64) *Extent {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	slices.Sort(sorted)

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return &Extent{Min: sorted[0], Max: sorted[n-1], Median: median}
}
