package qc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerogeophys/magqc/pkg/errors"
)

func TestFourthDifferenceAnnihilatesCubic(t *testing.T) {
	n := 20
	data := make([]float64, n)
	for i := range data {
		x := float64(i)
		data[i] = 2*x*x*x - 5*x*x + 3*x - 7
	}

	d4, err := FourthDifference(data)
	require.NoError(t, err)
	require.Len(t, d4, n)

	assert.True(t, math.IsNaN(d4[0]))
	assert.True(t, math.IsNaN(d4[1]))
	assert.True(t, math.IsNaN(d4[n-2]))
	assert.True(t, math.IsNaN(d4[n-1]))
	for i := 2; i <= n-3; i++ {
		assert.InDelta(t, 0, d4[i], 1e-9, "index %d", i)
	}
}

func TestFourthDifferenceStepResponse(t *testing.T) {
	n := 100
	data := make([]float64, n)
	for i := range data {
		data[i] = 10.0
		if i >= 50 {
			data[i] = 10.2
		}
	}

	d4, err := FourthDifference(data)
	require.NoError(t, err)

	// A level shift excites the stencil at exactly four positions.
	assert.InDelta(t, 0.2, d4[48], 1e-9)
	assert.InDelta(t, -0.6, d4[49], 1e-9)
	assert.InDelta(t, 0.6, d4[50], 1e-9)
	assert.InDelta(t, -0.2, d4[51], 1e-9)
	for i := 2; i <= n-3; i++ {
		if i >= 48 && i <= 51 {
			continue
		}
		assert.InDelta(t, 0, d4[i], 1e-9, "index %d", i)
	}

	mask := ThresholdMask(d4, 0.05)
	assert.Equal(t, 4, CountNonzero(mask))
}

func TestFourthDifferenceInsufficientData(t *testing.T) {
	_, err := FourthDifference([]float64{1, 2, 3, 4})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInsufficientData))
}

func TestSecondDifference(t *testing.T) {
	data := []float64{1, 3, 5, 7, 9}

	d2, err := SecondDifference(data)
	require.NoError(t, err)
	require.Len(t, d2, 3)
	for i, v := range d2 {
		assert.InDelta(t, 0, v, 1e-12, "index %d", i)
	}

	_, err = SecondDifference([]float64{1, 2})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInsufficientData))
}
