package filters

import (
	"github.com/aerogeophys/magqc/pkg/pipeline"
	"github.com/aerogeophys/magqc/pkg/qc"
	"github.com/aerogeophys/magqc/pkg/survey"
)

// diurnal15 measures short-term diurnal variability against a 15 second
// chord. Accepts a "threshold" parameter, default 0.5 nT.
func diurnal15(ctx *pipeline.Context, ds *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	return diurnalChordQC(ctx, ds, chordConfig{
		period:    15,
		threshold: args.Float("threshold", DefaultDiurnal15Tol),
		chordChan: ChanChord15,
		diffChan:  ChanDiff15,
		maskChan:  ChanDiurnal15Mask,
		sink:      func(row *DiurnalLine, count int) { row.Count15 = count },
	})
}

// diurnal60 measures diurnal variability against a 60 second chord.
// Accepts a "threshold" parameter, default 3 nT.
func diurnal60(ctx *pipeline.Context, ds *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	return diurnalChordQC(ctx, ds, chordConfig{
		period:    60,
		threshold: args.Float("threshold", DefaultDiurnal60Tol),
		chordChan: ChanChord60,
		diffChan:  ChanDiff60,
		maskChan:  ChanDiurnal60Mask,
		sink:      func(row *DiurnalLine, count int) { row.Count60 = count },
	})
}

type chordConfig struct {
	period    float64
	threshold float64
	chordChan string
	diffChan  string
	maskChan  string
	sink      func(row *DiurnalLine, count int)
}

// diurnalChordQC writes the chord, deviation, and OOS mask channels for
// every line and records per-line OOS counts in the diurnal summary.
func diurnalChordQC(ctx *pipeline.Context, ds *survey.Dataset, cfg chordConfig) (*survey.Dataset, error) {
	sums := SummariesFrom(ctx)

	for _, line := range ds.Lines() {
		times, err := ds.LineFloat(line, survey.ChannelTime)
		if err != nil {
			return nil, err
		}
		diurnal, err := ds.LineFloat(line, survey.ChannelDiurnal)
		if err != nil {
			return nil, err
		}

		chord, dev, err := qc.ChordDeviation(times, diurnal, cfg.period)
		if err != nil {
			return nil, err
		}
		if err := ds.SetLineFloat(line, cfg.chordChan, chord); err != nil {
			return nil, err
		}
		if err := ds.SetLineFloat(line, cfg.diffChan, dev); err != nil {
			return nil, err
		}

		mask := qc.ThresholdMask(dev, cfg.threshold)
		if err := ds.SetLineMask(line, cfg.maskChan, mask); err != nil {
			return nil, err
		}

		if count := qc.CountNonzero(mask); count > 0 {
			cfg.sink(sums.diurnalRow(lineFlight(ds, line), line), count)
		}
	}
	return nil, nil
}
