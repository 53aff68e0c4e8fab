package survey

import (
	"archive/zip"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"
	"gopkg.in/yaml.v3"

	"github.com/aerogeophys/magqc/pkg/errors"
)

// ArchiveSuffix is the canonical dataset archive extension.
const ArchiveSuffix = ".mag.zip"

const (
	archiveDataName = "data.csv"
	archiveMetaName = "meta.yaml"
)

// maskSuffix marks channels persisted (and restored) as int8 mask columns.
// The sample table carries no type metadata, so the naming convention is
// the round-trip contract for mask channels.
const maskSuffix = "_mask"

// Load reads a dataset from path. A .mag.zip archive restores both the
// sample table and the metadata mapping; a bare delimited text file is
// accepted too and yields empty metadata. The composite (line, fiducial)
// index is re-established on load.
func Load(path string) (*Dataset, error) {
	var (
		ds  *Dataset
		err error
	)
	if strings.HasSuffix(path, ArchiveSuffix) {
		ds, err = loadArchive(path)
	} else {
		ds, err = loadBareCSV(path)
	}
	if err != nil {
		return nil, err
	}
	ds.meta["filename"] = filepath.Base(path)
	return ds, nil
}

func loadArchive(path string) (*Dataset, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open dataset archive")
	}
	defer zr.Close()

	var ds *Dataset
	meta := make(map[string]interface{})
	var haveData bool

	for _, f := range zr.File {
		switch f.Name {
		case archiveDataName:
			rc, err := f.Open()
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open sample table")
			}
			ds, err = readCSV(rc)
			rc.Close()
			if err != nil {
				return nil, err
			}
			haveData = true
		case archiveMetaName:
			rc, err := f.Open()
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open metadata")
			}
			raw, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read metadata")
			}
			if err := yaml.Unmarshal(raw, &meta); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "malformed metadata document")
			}
		}
	}

	if !haveData {
		return nil, errors.Newf(errors.ErrorTypeData, "archive is missing %s", archiveDataName)
	}
	ds.meta = meta
	if ds.meta == nil {
		ds.meta = make(map[string]interface{})
	}
	return ds, nil
}

func loadBareCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open dataset file")
	}
	defer f.Close()
	return readCSV(f)
}

// readCSV parses a sample table with a header row naming every channel,
// including the composite key columns.
func readCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read sample table header")
	}

	lineCol, fidCol := -1, -1
	for i, name := range header {
		switch name {
		case LineColumn:
			lineCol = i
		case FidColumn:
			fidCol = i
		}
	}
	if lineCol < 0 || fidCol < 0 {
		return nil, errors.Newf(errors.ErrorTypeData,
			"sample table is missing key columns %s and %s", LineColumn, FidColumn)
	}

	ds := New()
	for _, name := range header {
		if name == LineColumn || name == FidColumn {
			continue
		}
		kind := KindFloat
		if strings.HasSuffix(name, maskSuffix) {
			kind = KindMask
		}
		if err := ds.AddChannel(name, kind); err != nil {
			return nil, err
		}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "malformed sample table row")
		}

		line, err := parseLineID(rec[lineCol])
		if err != nil {
			return nil, err
		}
		fid, err := parseFloatCell(rec[fidCol])
		if err != nil {
			return nil, err
		}
		if err := ds.appendKey(line, fid); err != nil {
			return nil, err
		}

		row := ds.NumRows() - 1
		for i, name := range header {
			if i == lineCol || i == fidCol {
				continue
			}
			c := ds.cols[name]
			if c.kind == KindMask {
				v, err := parseMaskCell(rec[i])
				if err != nil {
					return nil, err
				}
				c.m[row] = v
			} else {
				v, err := parseFloatCell(rec[i])
				if err != nil {
					return nil, err
				}
				c.f[row] = v
			}
		}
	}

	return ds, nil
}

func parseLineID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	// Some exports write line numbers as floats.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Newf(errors.ErrorTypeData, "invalid line number %q", s)
	}
	return int64(f), nil
}

func parseFloatCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Newf(errors.ErrorTypeData, "invalid numeric value %q", s)
	}
	return v, nil
}

func parseMaskCell(s string) (int8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, errors.Newf(errors.ErrorTypeData, "invalid mask value %q", s)
	}
	return int8(v), nil
}

// Save writes the dataset to a .mag.zip archive: the sample table with the
// composite key flattened back into plain columns, plus the metadata
// mapping as a YAML document.
func (d *Dataset) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create dataset archive")
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	dw, err := zw.Create(archiveDataName)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create sample table entry")
	}
	if err := d.writeCSV(dw); err != nil {
		return err
	}

	mw, err := zw.Create(archiveMetaName)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create metadata entry")
	}
	raw, err := yaml.Marshal(d.meta)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode metadata")
	}
	if _, err := mw.Write(raw); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metadata")
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to finalize dataset archive")
	}
	return nil
}

func (d *Dataset) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{LineColumn, FidColumn}, d.order...)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write sample table header")
	}

	rec := make([]string, len(header))
	for row := 0; row < d.NumRows(); row++ {
		rec[0] = strconv.FormatInt(d.lineIDs[row], 10)
		rec[1] = formatFloatCell(d.fids[row])
		for i, name := range d.order {
			c := d.cols[name]
			if c.kind == KindMask {
				rec[2+i] = strconv.FormatInt(int64(c.m[row]), 10)
			} else {
				rec[2+i] = formatFloatCell(c.f[row])
			}
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write sample table row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush sample table")
	}
	return nil
}

// formatFloatCell renders NaN as an empty cell, matching the load side.
func formatFloatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
