package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// flatTolerance is the relative spread below which a sample counts as constant.
// The mean of n equal values can be off by an ulp.
const flatTolerance = 1e-12

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// StdDev returns the population standard deviation of xs.
// Fewer than two values, or a spread within flatTolerance of the mean, yield 0.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m, sd := stat.PopMeanStdDev(xs, nil)
	if !Finite(sd) || sd <= flatTolerance*math.Max(1, math.Abs(m)) {
		return 0
	}
	return sd
}

// LinearSlope returns the slope of the degree-1 least-squares fit of ys on xs.
// It returns 0 when the fit is undefined (fewer than two points or constant xs).
func LinearSlope(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) || StdDev(xs) == 0 {
		return 0
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if !Finite(beta) {
		return 0
	}
	return beta
}

// CountBelow returns how many values in xs are strictly less than v.
func CountBelow(xs []float64, v float64) int {
	n := 0
	for _, x := range xs {
		if x < v {
			n++
		}
	}
	return n
}

// Clamp bounds v to [lo, hi]. NaN and Inf collapse to 0 before bounding.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Finite reports whether v is neither NaN nor ±Inf.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
