package filters

import (
	"math"

	"github.com/aerogeophys/magqc/pkg/pipeline"
	"github.com/aerogeophys/magqc/pkg/qc"
	"github.com/aerogeophys/magqc/pkg/survey"
)

// drapeAndSpeedQC derives the speed, step-distance, and drape-deviation
// channels and extracts out-of-spec drape segments per line. Parameters:
// "ztol" vertical drape tolerance in m (default 15), "dtol" minimum
// along-track segment length in m (default 800).
func drapeAndSpeedQC(ctx *pipeline.Context, ds *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	ztol := args.Float("ztol", DefaultDrapeZTol)
	dtol := args.Float("dtol", DefaultDrapeDTol)
	sums := SummariesFrom(ctx)

	for _, line := range ds.Lines() {
		surface, err := ds.LineFloat(line, survey.ChannelSurface)
		if err != nil {
			return nil, err
		}

		// Drape envelope channels for plotting against flight altitude.
		upper := make([]float64, len(surface))
		lower := make([]float64, len(surface))
		for i, v := range surface {
			upper[i] = v + ztol
			lower[i] = v - ztol
		}
		if err := ds.SetLineFloat(line, ChanDrapeUpper, upper); err != nil {
			return nil, err
		}
		if err := ds.SetLineFloat(line, ChanDrapeLower, lower); err != nil {
			return nil, err
		}

		kin, err := lineKinematics(ds, line)
		if err != nil {
			return nil, err
		}
		if err := kin.store(ds, line); err != nil {
			return nil, err
		}

		sums.TotalLineKM += kin.lineLength / 1000

		segs, mask, err := qc.DetectSegments(kin.flight, line, kin.deviation, kin.stepDist, kin.speed, kin.fid,
			qc.SegmentOptions{VerticalTol: ztol, MinDistance: dtol})
		if err != nil {
			return nil, err
		}
		if err := ds.SetLineMask(line, ChanDrapeMask, mask); err != nil {
			return nil, err
		}

		if len(segs) > 0 {
			sums.Segments = append(sums.Segments, segs...)
			over, under := qc.SplitOverUnder(segs)
			sums.DrapeLines = append(sums.DrapeLines, &DrapeLine{
				Flight:      kin.flight,
				Line:        line,
				LineLength:  kin.lineLength,
				OverLength:  over,
				UnderLength: under,
			})
		}
	}
	return nil, nil
}

// clearanceQC is the one-sided variant used for do-not-exceed clearance
// surfaces: only flight altitude above surface+ztol is out of spec, never
// below. Parameters: "ztol" (default 20), "dtol" (default 1200).
func clearanceQC(ctx *pipeline.Context, ds *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	ztol := args.Float("ztol", DefaultClearanceZTol)
	dtol := args.Float("dtol", DefaultClearanceDTol)
	sums := SummariesFrom(ctx)

	for _, line := range ds.Lines() {
		kin, err := lineKinematics(ds, line)
		if err != nil {
			return nil, err
		}
		if err := kin.store(ds, line); err != nil {
			return nil, err
		}

		segs, mask, err := qc.DetectSegments(kin.flight, line, kin.deviation, kin.stepDist, kin.speed, kin.fid,
			qc.SegmentOptions{VerticalTol: ztol, MinDistance: dtol, OneSided: true})
		if err != nil {
			return nil, err
		}
		if err := ds.SetLineMask(line, ChanClearanceMask, mask); err != nil {
			return nil, err
		}

		if len(segs) > 0 {
			sums.Segments = append(sums.Segments, segs...)
			over, under := qc.SplitOverUnder(segs)
			sums.DrapeLines = append(sums.DrapeLines, &DrapeLine{
				Flight:      kin.flight,
				Line:        line,
				LineLength:  kin.lineLength,
				OverLength:  over,
				UnderLength: under,
			})
		}
	}
	return nil, nil
}

// kinematics bundles the per-line derived arrays shared by the drape and
// clearance checks.
type kinematics struct {
	flight     int64
	fid        []float64
	stepDist   []float64
	speed      []float64
	deviation  []float64
	lineLength float64
}

// lineKinematics computes step distance, speed, and drape deviation for one
// line. Speed comes from coordinates and timestamps rather than a hard-coded
// sampling rate, so data recorded at any frequency works.
func lineKinematics(ds *survey.Dataset, line int64) (*kinematics, error) {
	times, err := ds.LineFloat(line, survey.ChannelTime)
	if err != nil {
		return nil, err
	}
	east, err := ds.LineFloat(line, survey.ChannelEasting)
	if err != nil {
		return nil, err
	}
	north, err := ds.LineFloat(line, survey.ChannelNorthing)
	if err != nil {
		return nil, err
	}
	alt, err := ds.LineFloat(line, survey.ChannelAltitude)
	if err != nil {
		return nil, err
	}
	surface, err := ds.LineFloat(line, survey.ChannelSurface)
	if err != nil {
		return nil, err
	}
	fid, err := ds.LineFids(line)
	if err != nil {
		return nil, err
	}

	lagEast := qc.Lag(east, 1)
	lagNorth := qc.Lag(north, 1)
	lagTime := qc.Lag(times, 1)

	n := len(times)
	step := make([]float64, n)
	speed := make([]float64, n)
	dev := make([]float64, n)
	for i := 0; i < n; i++ {
		dx := lagEast[i] - east[i]
		dy := lagNorth[i] - north[i]
		step[i] = math.Sqrt(dx*dx + dy*dy)
		speed[i] = step[i] / (times[i] - lagTime[i])
		dev[i] = alt[i] - surface[i]
	}

	return &kinematics{
		flight:     lineFlight(ds, line),
		fid:        fid,
		stepDist:   step,
		speed:      speed,
		deviation:  dev,
		lineLength: qc.NanSum(step),
	}, nil
}

// store writes the derived kinematic channels back to the dataset.
func (k *kinematics) store(ds *survey.Dataset, line int64) error {
	if err := ds.SetLineFloat(line, ChanStepDistance, k.stepDist); err != nil {
		return err
	}
	if err := ds.SetLineFloat(line, ChanSpeed, k.speed); err != nil {
		return err
	}
	return ds.SetLineFloat(line, ChanDrapeDeviation, k.deviation)
}
