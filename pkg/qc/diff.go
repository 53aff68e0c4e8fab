package qc

import (
	"math"

	"github.com/aerogeophys/magqc/pkg/errors"
)

// FourthDifference computes the symmetric fourth difference of data at each
// interior index i (2 <= i <= n-3):
//
//	d4[i] = x[i-2] - 4*x[i-1] + 6*x[i] - 4*x[i+1] + x[i+2]
//
// The output has the same length as the input with the two boundary
// positions at each end set to NaN. This is the industry-standard symmetric
// formula used for airborne magnetic noise QC; it annihilates any polynomial
// signal of degree three or lower.
func FourthDifference(data []float64) ([]float64, error) {
	n := len(data)
	if n < 5 {
		return nil, errors.Newf(errors.ErrorTypeInsufficientData,
			"fourth difference requires at least 5 samples, got %d", n)
	}

	out := make([]float64, n)
	out[0], out[1] = math.NaN(), math.NaN()
	out[n-2], out[n-1] = math.NaN(), math.NaN()
	for i := 2; i <= n-3; i++ {
		out[i] = data[i-2] - 4*data[i-1] + 6*data[i] - 4*data[i+1] + data[i+2]
	}
	return out, nil
}

// SecondDifference computes the plain repeated first difference of order two.
// The output is shorter than the input by two positions; it is a diagnostic
// channel only and carries no out-of-spec thresholding.
func SecondDifference(data []float64) ([]float64, error) {
	n := len(data)
	if n < 3 {
		return nil, errors.Newf(errors.ErrorTypeInsufficientData,
			"second difference requires at least 3 samples, got %d", n)
	}

	out := make([]float64, n-2)
	for i := 0; i < n-2; i++ {
		out[i] = data[i+2] - 2*data[i+1] + data[i]
	}
	return out, nil
}
