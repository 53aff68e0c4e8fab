package filters

import (
	"math"

	"github.com/aerogeophys/magqc/pkg/pipeline"
	"github.com/aerogeophys/magqc/pkg/qc"
	"github.com/aerogeophys/magqc/pkg/survey"
)

// noiseQC computes the second- and fourth-difference channels of the
// compensated magnetic reading and flags high-frequency noise. Parameter:
// "threshold" (default 0.05 nT); samples beyond twice the threshold are
// additionally counted as doubly out of spec in the noise summary.
func noiseQC(ctx *pipeline.Context, ds *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	tol := args.Float("threshold", DefaultNoiseThreshold)
	sums := SummariesFrom(ctx)

	for _, line := range ds.Lines() {
		mag, err := ds.LineFloat(line, survey.ChannelMag)
		if err != nil {
			return nil, err
		}

		d4, err := qc.FourthDifference(mag)
		if err != nil {
			return nil, err
		}
		d2, err := qc.SecondDifference(mag)
		if err != nil {
			return nil, err
		}

		// The second difference is two samples shorter; pad the tail so
		// it stores as a full-length diagnostic channel.
		d2full := append(d2, math.NaN(), math.NaN())
		if err := ds.SetLineFloat(line, ChanMag2nd, d2full); err != nil {
			return nil, err
		}
		if err := ds.SetLineFloat(line, ChanMag4th, d4); err != nil {
			return nil, err
		}

		mask := qc.ThresholdMask(d4, tol)
		if err := ds.SetLineMask(line, ChanNoiseMask, mask); err != nil {
			return nil, err
		}

		if count := qc.CountNonzero(mask); count > 0 {
			row := sums.noiseRow(lineFlight(ds, line), line)
			row.Count = count
			row.DoubleCount = qc.CountNonzero(qc.ThresholdMask(d4, 2*tol))
		}
	}
	return nil, nil
}
