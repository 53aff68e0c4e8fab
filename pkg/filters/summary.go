package filters

import (
	"math"

	"github.com/aerogeophys/magqc/pkg/pipeline"
	"github.com/aerogeophys/magqc/pkg/qc"
	"github.com/aerogeophys/magqc/pkg/survey"
)

const summariesKey = "qc_summaries"

// NoiseLine is one line with out-of-spec fourth-difference samples.
type NoiseLine struct {
	Flight      int64
	Line        int64
	Count       int // samples beyond the noise threshold
	DoubleCount int // samples beyond twice the noise threshold
}

// DiurnalLine is one line with out-of-spec diurnal chord samples.
type DiurnalLine struct {
	Flight  int64
	Line    int64
	Count15 int
	Count60 int
}

// DrapeLine aggregates out-of-spec drape lengths for one line.
type DrapeLine struct {
	Flight      int64
	Line        int64
	LineLength  float64 // total along-track length, m
	OverLength  float64 // OOS length above the surface, m
	UnderLength float64 // OOS length below the surface, m
}

// Summaries accumulates QC summary tables across pipeline steps. The QC
// filters append to it; the write_* steps turn it into side files.
type Summaries struct {
	Noise      []*NoiseLine
	Diurnal    []*DiurnalLine
	Segments   []qc.Segment
	DrapeLines []*DrapeLine

	// TotalLineKM is the surveyed along-track distance, km, summed over
	// every line the drape step saw.
	TotalLineKM float64

	noiseByLine   map[int64]*NoiseLine
	diurnalByLine map[int64]*DiurnalLine
}

// SummariesFrom returns the run's summary accumulator, creating it on
// first use.
func SummariesFrom(ctx *pipeline.Context) *Summaries {
	if v, ok := ctx.Value(summariesKey); ok {
		return v.(*Summaries)
	}
	s := &Summaries{
		noiseByLine:   make(map[int64]*NoiseLine),
		diurnalByLine: make(map[int64]*DiurnalLine),
	}
	ctx.SetValue(summariesKey, s)
	return s
}

// noiseRow returns the noise summary row for a line, creating it on first use.
func (s *Summaries) noiseRow(flight, line int64) *NoiseLine {
	if row, ok := s.noiseByLine[line]; ok {
		return row
	}
	row := &NoiseLine{Flight: flight, Line: line}
	s.noiseByLine[line] = row
	s.Noise = append(s.Noise, row)
	return row
}

// diurnalRow returns the diurnal summary row for a line, creating it on
// first use. The 15 s and 60 s chord steps share one row per line.
func (s *Summaries) diurnalRow(flight, line int64) *DiurnalLine {
	if row, ok := s.diurnalByLine[line]; ok {
		return row
	}
	row := &DiurnalLine{Flight: flight, Line: line}
	s.diurnalByLine[line] = row
	s.Diurnal = append(s.Diurnal, row)
	return row
}

// lineFlight reads the flight number a line belongs to, 0 when the dataset
// carries no flight channel.
func lineFlight(ds *survey.Dataset, line int64) int64 {
	vals, err := ds.LineFloat(line, survey.ChannelFlight)
	if err != nil || len(vals) == 0 || math.IsNaN(vals[0]) {
		return 0
	}
	return int64(vals[0])
}
