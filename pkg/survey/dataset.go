// Package survey defines the in-memory dataset model for airborne
// geophysical survey data: a flat sample store keyed by (line, fiducial)
// with named numeric channels, a free-form metadata mapping, and zip/CSV
// persistence.
//
// Channels are either float64 series or small signed integer mask series.
// Writing a channel for one line never disturbs the values other lines
// hold in that channel.
package survey

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/aerogeophys/magqc/pkg/errors"
)

// Standard input channel names following the DGGS survey schema.
const (
	ChannelTime     = "UTCTIME"
	ChannelDiurnal  = "Diurnal"
	ChannelEasting  = "Easting"
	ChannelNorthing = "Northing"
	ChannelSurface  = "Surface"
	ChannelMag      = "MAGCOM"
	ChannelAltitude = "GPSALT"
	ChannelFlight   = "Flight"
)

// Composite key column headers used in persisted sample tables.
const (
	LineColumn = "Line"
	FidColumn  = "FIDCOUNT"
)

// MetaSampleFrequency is the metadata key caching the inferred sample rate.
const MetaSampleFrequency = "sample_frequency"

// Kind is the declared numeric type of a channel.
type Kind uint8

const (
	// KindFloat is a float64 channel; missing values are NaN.
	KindFloat Kind = iota
	// KindMask is an int8 channel used for boolean or tri-state masks.
	KindMask
)

type column struct {
	kind Kind
	f    []float64
	m    []int8
}

func newColumn(kind Kind, n int) *column {
	c := &column{kind: kind}
	c.grow(n)
	return c
}

// grow extends the column by n fill values (NaN for floats, 0 for masks).
func (c *column) grow(n int) {
	if c.kind == KindMask {
		c.m = append(c.m, make([]int8, n)...)
		return
	}
	for i := 0; i < n; i++ {
		c.f = append(c.f, math.NaN())
	}
}

type rowKey struct {
	line int64
	fid  float64
}

// Dataset owns the tabular sample data and a free-form metadata mapping.
// Rows are uniquely identified by the composite key (line, fiducial count);
// the derived index is rebuilt on load and kept consistent by all mutating
// operations.
type Dataset struct {
	meta    map[string]interface{}
	lineIDs []int64
	fids    []float64
	cols    map[string]*column
	order   []string
	index   map[rowKey]int
	lines   []int64
	rows    map[int64][]int
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{
		meta:  make(map[string]interface{}),
		cols:  make(map[string]*column),
		index: make(map[rowKey]int),
		rows:  make(map[int64][]int),
	}
}

// FromKeys builds a dataset skeleton from parallel line and fiducial arrays.
// Channels can then be populated with SetColumn or the per-line setters.
func FromKeys(lineIDs []int64, fids []float64) (*Dataset, error) {
	if len(lineIDs) != len(fids) {
		return nil, errors.Newf(errors.ErrorTypeLengthMismatch,
			"line array length %d does not match fiducial array length %d",
			len(lineIDs), len(fids))
	}
	d := New()
	for i := range lineIDs {
		if err := d.appendKey(lineIDs[i], fids[i]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// appendKey appends one sample row, enforcing (line, fid) uniqueness and
// growing every existing channel with a fill value.
func (d *Dataset) appendKey(line int64, fid float64) error {
	k := rowKey{line: line, fid: fid}
	if _, dup := d.index[k]; dup {
		return errors.Newf(errors.ErrorTypeValidation,
			"duplicate sample key line=%d fid=%v", line, fid)
	}

	row := len(d.lineIDs)
	d.lineIDs = append(d.lineIDs, line)
	d.fids = append(d.fids, fid)
	d.index[k] = row
	if _, seen := d.rows[line]; !seen {
		d.lines = append(d.lines, line)
	}
	d.rows[line] = append(d.rows[line], row)

	for _, c := range d.cols {
		c.grow(1)
	}
	return nil
}

// NumRows returns the total number of samples across all lines.
func (d *Dataset) NumRows() int {
	return len(d.lineIDs)
}

// Lines returns the line numbers in order of first appearance.
func (d *Dataset) Lines() []int64 {
	out := make([]int64, len(d.lines))
	copy(out, d.lines)
	return out
}

// Channels returns the channel names in creation order.
func (d *Dataset) Channels() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// HasChannel reports whether a channel exists.
func (d *Dataset) HasChannel(name string) bool {
	_, ok := d.cols[name]
	return ok
}

// ChannelKind returns the declared kind of a channel.
func (d *Dataset) ChannelKind(name string) (Kind, bool) {
	c, ok := d.cols[name]
	if !ok {
		return KindFloat, false
	}
	return c.kind, true
}

// AddChannel creates a channel of the given kind if it does not already
// exist. New float channels are all-NaN, new mask channels all-zero.
func (d *Dataset) AddChannel(name string, kind Kind) error {
	if c, ok := d.cols[name]; ok {
		if c.kind != kind {
			return errors.Newf(errors.ErrorTypeData,
				"channel %q already exists with a different kind", name)
		}
		return nil
	}
	d.cols[name] = newColumn(kind, d.NumRows())
	d.order = append(d.order, name)
	return nil
}

// SetColumn writes a float channel across the whole dataset, creating the
// channel on first write.
func (d *Dataset) SetColumn(name string, vals []float64) error {
	if len(vals) != d.NumRows() {
		return errors.Newf(errors.ErrorTypeLengthMismatch,
			"column %q: %d values for %d rows", name, len(vals), d.NumRows())
	}
	if err := d.AddChannel(name, KindFloat); err != nil {
		return err
	}
	copy(d.cols[name].f, vals)
	return nil
}

func (d *Dataset) lineRows(line int64) ([]int, error) {
	rows, ok := d.rows[line]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeData, "no such line %d", line)
	}
	return rows, nil
}

// LineFids returns the fiducial markers for one line.
func (d *Dataset) LineFids(line int64) ([]float64, error) {
	rows, err := d.lineRows(line)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = d.fids[r]
	}
	return out, nil
}

// LineFloat extracts one line's values of a float channel as a fresh array.
func (d *Dataset) LineFloat(line int64, name string) ([]float64, error) {
	rows, err := d.lineRows(line)
	if err != nil {
		return nil, err
	}
	c, ok := d.cols[name]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeData, "no such channel %q", name)
	}
	if c.kind != KindFloat {
		return nil, errors.Newf(errors.ErrorTypeData, "channel %q is a mask channel", name)
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = c.f[r]
	}
	return out, nil
}

// LineMask extracts one line's values of a mask channel as a fresh array.
func (d *Dataset) LineMask(line int64, name string) ([]int8, error) {
	rows, err := d.lineRows(line)
	if err != nil {
		return nil, err
	}
	c, ok := d.cols[name]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeData, "no such channel %q", name)
	}
	if c.kind != KindMask {
		return nil, errors.Newf(errors.ErrorTypeData, "channel %q is not a mask channel", name)
	}
	out := make([]int8, len(rows))
	for i, r := range rows {
		out[i] = c.m[r]
	}
	return out, nil
}

// SetLineFloat writes one line's values of a float channel, creating the
// channel on first write. Other lines' values are untouched.
func (d *Dataset) SetLineFloat(line int64, name string, vals []float64) error {
	rows, err := d.lineRows(line)
	if err != nil {
		return err
	}
	if len(vals) != len(rows) {
		return errors.Newf(errors.ErrorTypeLengthMismatch,
			"channel %q line %d: %d values for %d samples", name, line, len(vals), len(rows))
	}
	if err := d.AddChannel(name, KindFloat); err != nil {
		return err
	}
	c := d.cols[name]
	for i, r := range rows {
		c.f[r] = vals[i]
	}
	return nil
}

// SetLineMask writes one line's values of a mask channel, creating the
// channel on first write. Other lines' values are untouched.
func (d *Dataset) SetLineMask(line int64, name string, vals []int8) error {
	rows, err := d.lineRows(line)
	if err != nil {
		return err
	}
	if len(vals) != len(rows) {
		return errors.Newf(errors.ErrorTypeLengthMismatch,
			"channel %q line %d: %d values for %d samples", name, line, len(vals), len(rows))
	}
	if err := d.AddChannel(name, KindMask); err != nil {
		return err
	}
	c := d.cols[name]
	for i, r := range rows {
		c.m[r] = vals[i]
	}
	return nil
}

// Meta returns the dataset's metadata mapping. The map is live; callers may
// mutate it.
func (d *Dataset) Meta() map[string]interface{} {
	return d.meta
}

// SetMeta sets a single metadata key.
func (d *Dataset) SetMeta(key string, value interface{}) {
	d.meta[key] = value
}

// MergeMeta merges src into dst recursively. At each leaf the src value
// wins; when both sides hold nested mappings the merge recurses instead of
// replacing.
func MergeMeta(dst, src map[string]interface{}) {
	for k, v := range src {
		if sub, ok := v.(map[string]interface{}); ok {
			if cur, ok := dst[k].(map[string]interface{}); ok {
				MergeMeta(cur, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// Append concatenates other's samples onto d and merges metadata, with
// other's metadata winning on key collision. Channels missing from either
// side are fill-valued for the rows that lack them. A duplicate
// (line, fid) key is an error.
func (d *Dataset) Append(other *Dataset) error {
	for _, name := range other.order {
		if err := d.AddChannel(name, other.cols[name].kind); err != nil {
			return err
		}
	}

	base := d.NumRows()
	for i := 0; i < other.NumRows(); i++ {
		if err := d.appendKey(other.lineIDs[i], other.fids[i]); err != nil {
			return err
		}
	}

	for name, oc := range other.cols {
		c := d.cols[name]
		if c.kind == KindMask {
			copy(c.m[base:], oc.m)
		} else {
			copy(c.f[base:], oc.f)
		}
	}

	MergeMeta(d.meta, other.meta)
	return nil
}

// Select returns a new dataset holding only the lines for which keep
// returns true. Channels and metadata are copied.
func (d *Dataset) Select(keep func(line int64) bool) *Dataset {
	out := New()
	var kept []int
	for _, line := range d.lines {
		if !keep(line) {
			continue
		}
		for _, r := range d.rows[line] {
			// Keys are unique in d, so appendKey cannot fail here.
			_ = out.appendKey(d.lineIDs[r], d.fids[r])
			kept = append(kept, r)
		}
	}

	for _, name := range d.order {
		src := d.cols[name]
		dst := newColumn(src.kind, 0)
		for _, r := range kept {
			if src.kind == KindMask {
				dst.m = append(dst.m, src.m[r])
			} else {
				dst.f = append(dst.f, src.f[r])
			}
		}
		out.cols[name] = dst
		out.order = append(out.order, name)
	}

	MergeMeta(out.meta, d.meta)
	return out
}

// SampleFrequency infers the sample rate as the reciprocal of the most
// common intra-line time step, caching the result in metadata. Time steps
// spanning a line boundary are excluded.
func (d *Dataset) SampleFrequency() (float64, error) {
	switch v := d.meta[MetaSampleFrequency].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}

	c, ok := d.cols[ChannelTime]
	if !ok || c.kind != KindFloat {
		return 0, errors.Newf(errors.ErrorTypeData, "no %s channel to infer sample frequency from", ChannelTime)
	}

	var diffs []float64
	for i := 1; i < d.NumRows(); i++ {
		if d.lineIDs[i] != d.lineIDs[i-1] {
			continue
		}
		dt := c.f[i] - c.f[i-1]
		if !math.IsNaN(dt) {
			diffs = append(diffs, dt)
		}
	}
	if len(diffs) == 0 {
		return 0, errors.New(errors.ErrorTypeInsufficientData,
			"not enough consecutive samples to infer sample frequency")
	}

	sort.Float64s(diffs)
	mode, _ := stat.Mode(diffs, nil)
	if mode == 0 {
		return 0, errors.New(errors.ErrorTypeData, "degenerate zero time step")
	}

	freq := 1 / mode
	d.meta[MetaSampleFrequency] = freq
	return freq, nil
}
