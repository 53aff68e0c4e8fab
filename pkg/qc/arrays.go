// Package qc implements the signal-processing kernels used for airborne
// geophysical survey quality control: chorded-interpolation deviation
// detection, symmetric finite-difference noise filters, and run-length
// out-of-spec segment extraction.
//
// All kernels operate on per-line channel arrays. Missing values are
// represented as NaN throughout; degenerate inputs (all-NaN arrays, zero
// surviving segments) are valid outcomes, not errors.
package qc

import (
	"math"

	"gonum.org/v1/gonum/interp"
)

// Interpolate linearly interpolates across NaN gaps in arr, treating the
// sample sequence as a uniform index axis. Positions before the first
// non-NaN anchor and after the last remain NaN; no extrapolation is
// performed. An array with no anchors yields an all-NaN result of the
// same length.
func Interpolate(arr []float64) []float64 {
	out := make([]float64, len(arr))
	for i := range out {
		out[i] = math.NaN()
	}

	xs := make([]float64, 0, len(arr))
	ys := make([]float64, 0, len(arr))
	for i, v := range arr {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}

	switch len(xs) {
	case 0:
		// No anchors means no information, not an error.
		return out
	case 1:
		out[int(xs[0])] = ys[0]
		return out
	}

	var pl interp.PiecewiseLinear
	// xs is strictly increasing by construction, so Fit cannot fail.
	_ = pl.Fit(xs, ys)

	first := int(xs[0])
	last := int(xs[len(xs)-1])
	for i := first; i <= last; i++ {
		out[i] = pl.Predict(float64(i))
	}
	return out
}

// Lag shifts arr right by k positions, filling the first k positions
// with NaN. The output has the same length as the input.
func Lag(arr []float64, k int) []float64 {
	out := make([]float64, len(arr))
	for i := range out {
		if i < k {
			out[i] = math.NaN()
		} else {
			out[i] = arr[i-k]
		}
	}
	return out
}

// ThresholdMask returns a mask with 1 at every position where |arr[i]| > tol.
// NaN values never exceed the threshold.
func ThresholdMask(arr []float64, tol float64) []int8 {
	mask := make([]int8, len(arr))
	for i, v := range arr {
		if math.Abs(v) > tol {
			mask[i] = 1
		}
	}
	return mask
}

// CountNonzero returns the number of nonzero mask positions.
func CountNonzero(mask []int8) int {
	n := 0
	for _, v := range mask {
		if v != 0 {
			n++
		}
	}
	return n
}

// nanSum sums xs ignoring NaN values. An all-NaN (or empty) slice sums to 0.
func nanSum(xs []float64) float64 {
	var sum float64
	for _, v := range xs {
		if !math.IsNaN(v) {
			sum += v
		}
	}
	return sum
}

// NanSum sums xs ignoring NaN values.
func NanSum(xs []float64) float64 {
	return nanSum(xs)
}

// nanMean averages xs ignoring NaN values; NaN if no values remain.
func nanMean(xs []float64) float64 {
	var sum float64
	var n int
	for _, v := range xs {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// nanMax returns the maximum non-NaN value; NaN if none.
func nanMax(xs []float64) float64 {
	max := math.NaN()
	for _, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}
	return max
}

// nanMin returns the minimum non-NaN value; NaN if none.
func nanMin(xs []float64) float64 {
	min := math.NaN()
	for _, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(min) || v < min {
			min = v
		}
	}
	return min
}
