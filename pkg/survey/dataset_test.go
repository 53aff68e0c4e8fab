package survey

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerogeophys/magqc/pkg/errors"
)

func twoLineDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := FromKeys(
		[]int64{10010, 10010, 10010, 10020, 10020},
		[]float64{1, 2, 3, 1, 2},
	)
	require.NoError(t, err)
	return ds
}

func TestFromKeysAndLineAccess(t *testing.T) {
	ds := twoLineDataset(t)

	assert.Equal(t, 5, ds.NumRows())
	assert.Equal(t, []int64{10010, 10020}, ds.Lines())

	fids, err := ds.LineFids(10010)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, fids)

	_, err = ds.LineFids(99999)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestFromKeysLengthMismatch(t *testing.T) {
	_, err := FromKeys([]int64{1, 2}, []float64{1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeLengthMismatch))
}

func TestDuplicateKeyRejected(t *testing.T) {
	_, err := FromKeys([]int64{10010, 10010}, []float64{1, 1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSetLineFloatIsolation(t *testing.T) {
	ds := twoLineDataset(t)

	require.NoError(t, ds.SetLineFloat(10010, "alt", []float64{100, 101, 102}))

	got, err := ds.LineFloat(10010, "alt")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 102}, got)

	// The other line's values stay at the NaN fill.
	other, err := ds.LineFloat(10020, "alt")
	require.NoError(t, err)
	for i, v := range other {
		assert.True(t, math.IsNaN(v), "index %d", i)
	}
}

func TestSetLineMaskIsolation(t *testing.T) {
	ds := twoLineDataset(t)

	require.NoError(t, ds.SetLineMask(10020, "flag_mask", []int8{1, -1}))

	got, err := ds.LineMask(10020, "flag_mask")
	require.NoError(t, err)
	assert.Equal(t, []int8{1, -1}, got)

	other, err := ds.LineMask(10010, "flag_mask")
	require.NoError(t, err)
	assert.Equal(t, []int8{0, 0, 0}, other)

	// Kind mismatches are rejected both ways.
	_, err = ds.LineFloat(10010, "flag_mask")
	require.Error(t, err)
	err = ds.SetLineFloat(10010, "flag_mask", []float64{1, 2, 3})
	require.Error(t, err)
}

func TestSetColumn(t *testing.T) {
	ds := twoLineDataset(t)

	require.NoError(t, ds.SetColumn("zero", []float64{0, 0, 0, 0, 0}))
	got, err := ds.LineFloat(10020, "zero")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got)

	err = ds.SetColumn("zero", []float64{0})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeLengthMismatch))
}

func TestMergeMetaRecursive(t *testing.T) {
	dst := map[string]interface{}{
		"survey": map[string]interface{}{
			"name": "west block",
			"year": 2025,
		},
		"operator": "aerogeo",
	}
	src := map[string]interface{}{
		"survey": map[string]interface{}{
			"year": 2026,
			"crs":  "EPSG:3338",
		},
	}

	MergeMeta(dst, src)

	sub := dst["survey"].(map[string]interface{})
	assert.Equal(t, "west block", sub["name"])
	assert.Equal(t, 2026, sub["year"])
	assert.Equal(t, "EPSG:3338", sub["crs"])
	assert.Equal(t, "aerogeo", dst["operator"])
}

func TestMergeMetaLeafReplacesMapping(t *testing.T) {
	dst := map[string]interface{}{"survey": map[string]interface{}{"name": "x"}}
	MergeMeta(dst, map[string]interface{}{"survey": "flattened"})
	assert.Equal(t, "flattened", dst["survey"])
}

func TestAppend(t *testing.T) {
	a := twoLineDataset(t)
	require.NoError(t, a.SetColumn("alt", []float64{1, 2, 3, 4, 5}))
	a.SetMeta("operator", "aerogeo")

	b, err := FromKeys([]int64{10030, 10030}, []float64{1, 2})
	require.NoError(t, err)
	require.NoError(t, b.SetColumn("speed", []float64{60, 61}))
	b.SetMeta("operator", "contractor")
	b.SetMeta("block", "east")

	require.NoError(t, a.Append(b))

	assert.Equal(t, 7, a.NumRows())
	assert.Equal(t, []int64{10010, 10020, 10030}, a.Lines())

	// Channels missing on one side are fill-valued on the other.
	alt, err := a.LineFloat(10030, "alt")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(alt[0]))
	speed, err := a.LineFloat(10010, "speed")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(speed[0]))

	got, err := a.LineFloat(10030, "speed")
	require.NoError(t, err)
	assert.Equal(t, []float64{60, 61}, got)

	// Appended metadata wins on collision.
	assert.Equal(t, "contractor", a.Meta()["operator"])
	assert.Equal(t, "east", a.Meta()["block"])
}

func TestAppendDuplicateKey(t *testing.T) {
	a := twoLineDataset(t)
	b, err := FromKeys([]int64{10010}, []float64{1})
	require.NoError(t, err)

	err = a.Append(b)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSelect(t *testing.T) {
	ds := twoLineDataset(t)
	require.NoError(t, ds.SetColumn("alt", []float64{1, 2, 3, 4, 5}))
	require.NoError(t, ds.SetLineMask(10020, "flag_mask", []int8{1, 0}))
	ds.SetMeta("operator", "aerogeo")

	out := ds.Select(func(line int64) bool { return line == 10020 })

	assert.Equal(t, []int64{10020}, out.Lines())
	assert.Equal(t, 2, out.NumRows())

	alt, err := out.LineFloat(10020, "alt")
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5}, alt)

	mask, err := out.LineMask(10020, "flag_mask")
	require.NoError(t, err)
	assert.Equal(t, []int8{1, 0}, mask)

	assert.Equal(t, "aerogeo", out.Meta()["operator"])

	// The source dataset is untouched.
	assert.Equal(t, 5, ds.NumRows())
}

func TestSampleFrequency(t *testing.T) {
	ds, err := FromKeys(
		[]int64{10010, 10010, 10010, 10010, 10020, 10020},
		[]float64{1, 2, 3, 4, 1, 2},
	)
	require.NoError(t, err)
	// 0.5 s cadence; the step across the line boundary must be excluded.
	require.NoError(t, ds.SetColumn(ChannelTime, []float64{100, 100.5, 101, 101.5, 500, 500.5}))

	freq, err := ds.SampleFrequency()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, freq, 1e-9)

	// The inferred rate is cached in metadata.
	assert.Equal(t, freq, ds.Meta()[MetaSampleFrequency])
}

func TestSampleFrequencyFromMeta(t *testing.T) {
	ds := twoLineDataset(t)
	ds.SetMeta(MetaSampleFrequency, 10)

	freq, err := ds.SampleFrequency()
	require.NoError(t, err)
	assert.Equal(t, 10.0, freq)
}

func TestSampleFrequencyNoTimeChannel(t *testing.T) {
	ds := twoLineDataset(t)
	_, err := ds.SampleFrequency()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}
