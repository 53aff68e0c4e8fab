package filters

import (
	"math"

	"github.com/aerogeophys/magqc/pkg/errors"
	"github.com/aerogeophys/magqc/pkg/pipeline"
	"github.com/aerogeophys/magqc/pkg/qc"
	"github.com/aerogeophys/magqc/pkg/survey"
)

// constantChannels are the reference channels plotted alongside the QC
// channels in the standard dbviews.
var constantChannels = []struct {
	name  string
	value float64
}{
	{"p_3", 3},
	{"m_3", -3},
	{"p_0p5", 0.5},
	{"m_0p5", -0.5},
	{"p_0p05", 0.05},
	{"m_0p05", -0.05},
	{"p_0p01", 0.01},
	{"m_0p01", -0.01},
	{"zero", 0},
}

// setConstants writes the constant comparison channels across the dataset.
func setConstants(_ *pipeline.Context, ds *survey.Dataset, _ pipeline.Args) (*survey.Dataset, error) {
	n := ds.NumRows()
	vals := make([]float64, n)
	for _, cc := range constantChannels {
		for i := range vals {
			vals[i] = cc.value
		}
		if err := ds.SetColumn(cc.name, vals); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// setMeta merges the step's keyword parameters into the dataset metadata.
func setMeta(_ *pipeline.Context, ds *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	survey.MergeMeta(ds.Meta(), args)
	return nil, nil
}

// downlineDistance writes the cumulative along-track distance channel,
// restarting at zero for each line.
func downlineDistance(_ *pipeline.Context, ds *survey.Dataset, _ pipeline.Args) (*survey.Dataset, error) {
	for _, line := range ds.Lines() {
		east, err := ds.LineFloat(line, survey.ChannelEasting)
		if err != nil {
			return nil, err
		}
		north, err := ds.LineFloat(line, survey.ChannelNorthing)
		if err != nil {
			return nil, err
		}

		lagEast := qc.Lag(east, 1)
		lagNorth := qc.Lag(north, 1)
		downline := make([]float64, len(east))
		var total float64
		for i := range east {
			dx := lagEast[i] - east[i]
			dy := lagNorth[i] - north[i]
			if step := math.Sqrt(dx*dx + dy*dy); !math.IsNaN(step) {
				total += step
			}
			downline[i] = total
		}
		if err := ds.SetLineFloat(line, ChanDownline, downline); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// selectThroughFlight returns a replacement dataset holding only the lines
// flown on flights 1 through the "flight" parameter.
func selectThroughFlight(_ *pipeline.Context, ds *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	through, err := requiredFlight(args)
	if err != nil {
		return nil, err
	}
	return ds.Select(func(line int64) bool {
		return lineFlight(ds, line) <= through
	}), nil
}

// deselectThroughFlight returns a replacement dataset with lines from
// flights 1 through the "flight" parameter removed.
func deselectThroughFlight(_ *pipeline.Context, ds *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	through, err := requiredFlight(args)
	if err != nil {
		return nil, err
	}
	return ds.Select(func(line int64) bool {
		return lineFlight(ds, line) > through
	}), nil
}

func requiredFlight(args pipeline.Args) (int64, error) {
	v := args.Int("flight", -1)
	if v < 0 {
		return 0, errors.New(errors.ErrorTypeConfig, "line selection requires a flight parameter")
	}
	return int64(v), nil
}
