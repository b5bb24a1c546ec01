package pullout

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/integrate"
)

// IntegrateWork integrates force over displacement with the trapezoidal rule, using
// only the samples whose displacement does not exceed limit. Sample order is kept,
// so a step back in displacement contributes a negative slice.
// The result is rounded to 2 decimals.
func IntegrateWork(rec Recording, limit float64) (float64, error) {
	xs := make([]float64, 0, len(rec.samples))
	ys := make([]float64, 0, len(rec.samples))
	for _, s := range rec.samples {
		if s.Displacement <= limit {
			xs = append(xs, s.Displacement)
			ys = append(ys, s.Force)
		}
	}

	switch {
	case len(xs) == 0:
		return 0, warn(ReasonEmptyWorkWindow, "no samples up to %.4f mm", limit)
	case len(xs) == 1:
		return 0, warn(ReasonInsufficientSamples, "only one sample up to %.4f mm", limit)
	}

	var work float64
	if slices.IsSorted(xs) {
		work = integrate.Trapezoidal(xs, ys)
	} else {
		work = signedTrapezoid(xs, ys)
	}
	return scalar.RoundEven(work, 2), nil
}

// signedTrapezoid sums (x[i+1]-x[i]) * (y[i]+y[i+1])/2 in sample order.
// integrate.Trapezoidal panics on unsorted x.
func signedTrapezoid(xs, ys []float64) float64 {
	n := len(xs) - 1
	dx := make([]float64, n)
	floats.SubTo(dx, xs[1:], xs[:n])
	mid := make([]float64, n)
	floats.AddTo(mid, ys[1:], ys[:n])
	floats.Scale(0.5, mid)
	return floats.Dot(dx, mid)
}
