package survey

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerogeophys/magqc/pkg/errors"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	ds, err := FromKeys(
		[]int64{10010, 10010, 10020},
		[]float64{1, 2, 1},
	)
	require.NoError(t, err)
	require.NoError(t, ds.SetColumn(ChannelMag, []float64{55000.25, math.NaN(), 55001}))
	require.NoError(t, ds.SetLineMask(10010, "drape_OOS_mask", []int8{1, -1}))
	ds.SetMeta("operator", "aerogeo")
	ds.SetMeta("survey", map[string]interface{}{"block": "west", "year": 2026})

	path := filepath.Join(t.TempDir(), "west"+ArchiveSuffix)
	require.NoError(t, ds.Save(path))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, got.NumRows())
	assert.Equal(t, []int64{10010, 10020}, got.Lines())

	mag, err := got.LineFloat(10010, ChannelMag)
	require.NoError(t, err)
	assert.Equal(t, 55000.25, mag[0])
	assert.True(t, math.IsNaN(mag[1]))

	// The mask naming convention restores the channel as int8.
	kind, ok := got.ChannelKind("drape_OOS_mask")
	require.True(t, ok)
	assert.Equal(t, KindMask, kind)
	mask, err := got.LineMask(10010, "drape_OOS_mask")
	require.NoError(t, err)
	assert.Equal(t, []int8{1, -1}, mask)

	assert.Equal(t, "aerogeo", got.Meta()["operator"])
	sub, ok := got.Meta()["survey"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "west", sub["block"])
	assert.Equal(t, 2026, sub["year"])

	assert.Equal(t, "west"+ArchiveSuffix, got.Meta()["filename"])
}

func TestLoadBareCSV(t *testing.T) {
	csv := "Line,FIDCOUNT,UTCTIME,MAGCOM,noise_mask\n" +
		"10010,1,100,55000.5,0\n" +
		"10010,2,100.5,,1\n" +
		"10020,1,500,55002,0\n"
	path := filepath.Join(t.TempDir(), "survey.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	ds, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, []int64{10010, 10020}, ds.Lines())

	mag, err := ds.LineFloat(10010, ChannelMag)
	require.NoError(t, err)
	assert.Equal(t, 55000.5, mag[0])
	assert.True(t, math.IsNaN(mag[1]), "empty cell loads as NaN")

	mask, err := ds.LineMask(10010, "noise_mask")
	require.NoError(t, err)
	assert.Equal(t, []int8{0, 1}, mask)

	assert.Equal(t, "survey.csv", ds.Meta()["filename"])
}

func TestLoadFloatLineNumbers(t *testing.T) {
	csv := "Line,FIDCOUNT,UTCTIME\n10010.0,1,100\n"
	path := filepath.Join(t.TempDir(), "survey.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{10010}, ds.Lines())
}

func TestLoadMissingKeyColumns(t *testing.T) {
	csv := "UTCTIME,MAGCOM\n100,55000\n"
	path := filepath.Join(t.TempDir(), "survey.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"+ArchiveSuffix))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}
