package qc

import (
	"github.com/aerogeophys/magqc/pkg/errors"
)

// Segment is one surviving out-of-spec run within a single survey line.
type Segment struct {
	Flight    int64   // flight number the line belongs to
	Line      int64   // survey line number
	FidStart  float64 // fiducial marker at the run start
	FidEnd    float64 // fiducial marker at the run end boundary
	Length    float64 // along-track length of the run, m
	Extreme   float64 // signed extremum of the deviation within the run
	MeanDev   float64 // mean deviation over the run
	MeanSpeed float64 // mean speed over the run
}

// SegmentOptions controls out-of-spec segment extraction.
type SegmentOptions struct {
	// VerticalTol is the deviation tolerance; samples beyond it are
	// out of spec.
	VerticalTol float64
	// MinDistance is the minimum along-track run length, m. Shorter runs
	// are discarded and cleared from the mask.
	MinDistance float64
	// OneSided flags only deviation > VerticalTol (a do-not-exceed
	// surface check) instead of exceedances on both sides.
	OneSided bool
}

// DetectSegments extracts contiguous out-of-spec runs from a per-sample
// deviation array and filters them by along-track length.
//
// It returns one Segment per surviving run plus a tri-state per-sample mask:
// +1 for an above-tolerance run, -1 for a below-tolerance run, 0 in spec.
// Runs shorter than opt.MinDistance are cleared from the mask even though
// the raw condition held there. When zero runs survive the segment slice is
// nil; that is a valid outcome, not an error.
//
// A run's sign is classified from its first sample's deviation only. A run
// starting exactly at zero deviation keeps the positive classification; a
// sign flip mid-run is not reclassified. This mirrors the established QC
// procedure and is a documented limitation.
//
// dev, stepDist, speed and fid must all be co-indexed arrays of equal length.
func DetectSegments(flight, line int64, dev, stepDist, speed, fid []float64, opt SegmentOptions) ([]Segment, []int8, error) {
	n := len(dev)
	if len(stepDist) != n || len(speed) != n || len(fid) != n {
		return nil, nil, errors.Newf(errors.ErrorTypeLengthMismatch,
			"channel arrays for segment detection are not all the same length").
			WithDetail("deviation", n).
			WithDetail("step_distance", len(stepDist)).
			WithDetail("speed", len(speed)).
			WithDetail("fiducial", len(fid))
	}

	oos := make([]bool, n)
	mask := make([]int8, n)
	for i, d := range dev {
		if opt.OneSided {
			oos[i] = d > opt.VerticalTol
		} else {
			oos[i] = d > opt.VerticalTol || d < -opt.VerticalTol
		}
		if oos[i] {
			mask[i] = 1
		}
	}
	if n == 0 {
		return nil, mask, nil
	}

	// Run boundaries from the first difference of the bool-as-int array:
	// a +1 transition starts a run, a -1 transition ends one. Runs touching
	// either array boundary get explicit start/end markers.
	var starts, ends []int
	for i := 1; i < n; i++ {
		switch btoi(oos[i]) - btoi(oos[i-1]) {
		case 1:
			starts = append(starts, i)
		case -1:
			ends = append(ends, i)
		}
	}
	if oos[0] {
		starts = append([]int{0}, starts...)
	}
	if oos[n-1] {
		ends = append(ends, n-1)
	}

	pairs := len(starts)
	if len(ends) < pairs {
		pairs = len(ends)
	}

	var segments []Segment
	for p := 0; p < pairs; p++ {
		start, end := starts[p], ends[p]
		if start >= len(fid) || end >= len(fid) {
			return nil, nil, errors.Newf(errors.ErrorTypeIndexRange,
				"segment boundary [%d, %d) is out of bounds for channel arrays of length %d",
				start, end, len(fid))
		}

		length := nanSum(stepDist[start:end])
		if length < opt.MinDistance {
			// Short excursions are not reportable QC events.
			for i := start; i < end; i++ {
				mask[i] = 0
			}
			continue
		}

		extreme := nanMax(dev[start:end])
		if dev[start] < 0 {
			extreme = nanMin(dev[start:end])
			for i := start; i < end; i++ {
				mask[i] = -1
			}
		}

		segments = append(segments, Segment{
			Flight:    flight,
			Line:      line,
			FidStart:  fid[start],
			FidEnd:    fid[end],
			Length:    length,
			Extreme:   extreme,
			MeanDev:   nanMean(dev[start:end]),
			MeanSpeed: nanMean(speed[start:end]),
		})
	}

	return segments, mask, nil
}

// SplitOverUnder sums the lengths of segments with positive and negative
// mean deviation separately. Segments with NaN or exactly-zero mean
// deviation contribute to neither sum.
func SplitOverUnder(segments []Segment) (over, under float64) {
	for _, s := range segments {
		switch {
		case s.MeanDev > 0:
			over += s.Length
		case s.MeanDev < 0:
			under += s.Length
		}
	}
	return over, under
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
