// Package robust provides the outlier-tolerant statistical estimators the
// reduction pipeline leans on: medians, percentiles, and the biweight
// location used for overscan baseline estimation.
//
// All functions copy their input before sorting, so callers may pass slices
// they continue to use.
package robust

import (
	"math"
	"sort"
)

// biweightTuning is the standard tuning constant for the biweight location
// estimator. Samples more than six scaled median absolute deviations from
// the median receive zero weight.
const biweightTuning = 6.0

// Median returns the median of x, ignoring non-finite values.
// It returns NaN when x contains no finite values.
func Median(x []float64) float64 {
	return Percentile(x, 50)
}

// Percentile returns the p-th percentile (0 <= p <= 100) of x using linear
// interpolation between closest ranks, ignoring non-finite values.
// It returns NaN when x contains no finite values.
func Percentile(x []float64, p float64) float64 {
	xs := finite(x)
	if len(xs) == 0 {
		return math.NaN()
	}
	sort.Float64s(xs)
	if p <= 0 {
		return xs[0]
	}
	if p >= 100 {
		return xs[len(xs)-1]
	}
	rank := p / 100 * float64(len(xs)-1)
	lo := int(rank)
	frac := rank - float64(lo)
	if frac == 0 || lo+1 == len(xs) {
		return xs[lo]
	}
	return xs[lo]*(1-frac) + xs[lo+1]*frac
}

// BiweightLocation returns Tukey's biweight location of x, a robust central
// location estimate tolerant of a modest fraction of outliers. When the
// median absolute deviation is zero the plain median is returned.
func BiweightLocation(x []float64) float64 {
	xs := finite(x)
	if len(xs) == 0 {
		return math.NaN()
	}

	m := Median(xs)
	dev := make([]float64, len(xs))
	for i, v := range xs {
		dev[i] = math.Abs(v - m)
	}
	mad := Median(dev)
	if mad == 0 {
		return m
	}

	var num, den float64
	for _, v := range xs {
		u := (v - m) / (biweightTuning * mad)
		if u <= -1 || u >= 1 {
			continue
		}
		w := (1 - u*u) * (1 - u*u)
		num += (v - m) * w
		den += w
	}
	if den == 0 {
		return m
	}
	return m + num/den
}

// finite returns a copy of x with NaN and infinite values dropped.
func finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
