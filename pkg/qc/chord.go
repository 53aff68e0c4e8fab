package qc

import (
	"math"

	"github.com/aerogeophys/magqc/pkg/errors"
)

// ChordAnchors returns a copy of values where only samples whose timestamp
// is an exact multiple of period survive; every other position is NaN.
//
// A sample at time t qualifies when floor(t/period)*period == floor(t*10)/10,
// i.e. the match is evaluated at one-decimal timestamp precision. Timestamps
// carrying more than one decimal digit will not anchor; this is the defined
// contract inherited from the GSC chord procedure.
func ChordAnchors(times, values []float64, period float64) ([]float64, error) {
	if len(times) != len(values) {
		return nil, errors.Newf(errors.ErrorTypeLengthMismatch,
			"chord anchors: time array length %d does not match value array length %d",
			len(times), len(values))
	}

	anchors := make([]float64, len(values))
	for i, t := range times {
		if math.Floor(t/period)*period == math.Floor(t*10)/10 {
			anchors[i] = values[i]
		} else {
			anchors[i] = math.NaN()
		}
	}
	return anchors, nil
}

// ChordDeviation builds the chord for values against the given period and
// returns both the interpolated chord and the deviation (values - chord).
// Positions where the chord is undefined yield NaN deviation.
func ChordDeviation(times, values []float64, period float64) (chord, deviation []float64, err error) {
	anchors, err := ChordAnchors(times, values, period)
	if err != nil {
		return nil, nil, err
	}

	chord = Interpolate(anchors)
	deviation = make([]float64, len(values))
	for i := range values {
		deviation[i] = values[i] - chord[i]
	}
	return chord, deviation, nil
}
