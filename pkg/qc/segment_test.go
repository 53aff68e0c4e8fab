package qc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerogeophys/magqc/pkg/errors"
)

// segArrays builds co-indexed step-distance, speed, and fiducial arrays for
// a deviation array: 100 m steps at 60 m/s with fiducials from 1000.
func segArrays(n int) (stepDist, speed, fid []float64) {
	stepDist = make([]float64, n)
	speed = make([]float64, n)
	fid = make([]float64, n)
	for i := 0; i < n; i++ {
		stepDist[i] = 100
		speed[i] = 60
		fid[i] = float64(1000 + i)
	}
	stepDist[0] = math.NaN()
	speed[0] = math.NaN()
	return stepDist, speed, fid
}

func TestDetectSegmentsFullLineRun(t *testing.T) {
	n := 20
	dev := make([]float64, n)
	for i := range dev {
		dev[i] = 20
	}
	stepDist, speed, fid := segArrays(n)

	segs, mask, err := DetectSegments(3, 10150, dev, stepDist, speed, fid,
		SegmentOptions{VerticalTol: 15, MinDistance: 800})
	require.NoError(t, err)
	require.Len(t, segs, 1)

	s := segs[0]
	assert.Equal(t, int64(3), s.Flight)
	assert.Equal(t, int64(10150), s.Line)
	assert.Equal(t, 1000.0, s.FidStart)
	assert.Equal(t, 1019.0, s.FidEnd)
	assert.InDelta(t, 1800, s.Length, 1e-9) // 18 non-NaN steps in [0, 19)
	assert.Equal(t, 20.0, s.Extreme)
	assert.InDelta(t, 20, s.MeanDev, 1e-9)
	assert.InDelta(t, 60, s.MeanSpeed, 1e-9)

	for i, v := range mask {
		assert.Equal(t, int8(1), v, "index %d", i)
	}
}

func TestDetectSegmentsShortRunCleared(t *testing.T) {
	n := 20
	dev := make([]float64, n)
	for i := 5; i <= 7; i++ {
		dev[i] = 20
	}
	stepDist, speed, fid := segArrays(n)

	segs, mask, err := DetectSegments(1, 10010, dev, stepDist, speed, fid,
		SegmentOptions{VerticalTol: 15, MinDistance: 800})
	require.NoError(t, err)
	assert.Nil(t, segs)
	for i, v := range mask {
		assert.Equal(t, int8(0), v, "index %d", i)
	}
}

func TestDetectSegmentsMinDistanceBoundary(t *testing.T) {
	n := 30
	dev := make([]float64, n)
	for i := 4; i <= 13; i++ {
		dev[i] = 20
	}
	stepDist, speed, fid := segArrays(n)

	// 10 steps of 100 m = 1000 m survives a 1000 m floor.
	segs, _, err := DetectSegments(1, 10010, dev, stepDist, speed, fid,
		SegmentOptions{VerticalTol: 15, MinDistance: 1000})
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.InDelta(t, 1000, segs[0].Length, 1e-9)

	// The same run is discarded under a 1100 m floor.
	segs, _, err = DetectSegments(1, 10010, dev, stepDist, speed, fid,
		SegmentOptions{VerticalTol: 15, MinDistance: 1100})
	require.NoError(t, err)
	assert.Nil(t, segs)
}

func TestDetectSegmentsNegativeRun(t *testing.T) {
	n := 20
	dev := make([]float64, n)
	for i := 2; i <= 12; i++ {
		dev[i] = -20
	}
	dev[5] = -25
	stepDist, speed, fid := segArrays(n)

	segs, mask, err := DetectSegments(1, 10020, dev, stepDist, speed, fid,
		SegmentOptions{VerticalTol: 15, MinDistance: 800})
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, -25.0, segs[0].Extreme)

	for i, v := range mask {
		if i >= 2 && i <= 12 {
			assert.Equal(t, int8(-1), v, "index %d", i)
		} else {
			assert.Equal(t, int8(0), v, "index %d", i)
		}
	}
}

func TestDetectSegmentsOneSided(t *testing.T) {
	n := 20
	dev := make([]float64, n)
	for i := range dev {
		dev[i] = -50
	}
	stepDist, speed, fid := segArrays(n)

	segs, mask, err := DetectSegments(1, 10030, dev, stepDist, speed, fid,
		SegmentOptions{VerticalTol: 15, MinDistance: 800, OneSided: true})
	require.NoError(t, err)
	assert.Nil(t, segs)
	assert.Equal(t, 0, CountNonzero(mask))
}

func TestDetectSegmentsLengthMismatch(t *testing.T) {
	_, _, err := DetectSegments(1, 1, []float64{1, 2}, []float64{1}, []float64{1, 2}, []float64{1, 2},
		SegmentOptions{VerticalTol: 15, MinDistance: 800})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeLengthMismatch))
}

func TestDetectSegmentsEmptyInput(t *testing.T) {
	segs, mask, err := DetectSegments(1, 1, nil, nil, nil, nil,
		SegmentOptions{VerticalTol: 15, MinDistance: 800})
	require.NoError(t, err)
	assert.Nil(t, segs)
	assert.Empty(t, mask)
}

func TestSplitOverUnder(t *testing.T) {
	segs := []Segment{
		{Length: 1000, MeanDev: 20},
		{Length: 400, MeanDev: -18},
		{Length: 300, MeanDev: 25},
		{Length: 50, MeanDev: 0},
	}
	over, under := SplitOverUnder(segs)
	assert.Equal(t, 1300.0, over)
	assert.Equal(t, 400.0, under)
}
