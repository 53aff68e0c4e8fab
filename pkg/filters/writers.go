package filters

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/aerogeophys/magqc/pkg/errors"
	"github.com/aerogeophys/magqc/pkg/pipeline"
	"github.com/aerogeophys/magqc/pkg/survey"
)

// Summary artifact file names.
const (
	NoiseSummaryFile       = "OOS_4th_difference.csv"
	DiurnalSummaryFile     = "OOS_diurnal.csv"
	DrapeSummaryFile       = "OOS_drape.csv"
	DrapeByLineSummaryFile = "OOS_drape_by_line.csv"
	AggregateSummaryFile   = "OOS_summary.txt"
)

// writeNoiseSummary writes the per-line noise summary CSV. The file is only
// written when at least one line was out of spec.
func writeNoiseSummary(ctx *pipeline.Context, _ *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	sums := SummariesFrom(ctx)
	if len(sums.Noise) == 0 {
		ctx.Logger.Info("no lines with out-of-spec noise, skipping summary")
		return nil, nil
	}

	rows := [][]string{{"Flight", "Line", "OOS_Count", "Double_OOS_Count"}}
	for _, r := range sums.Noise {
		rows = append(rows, []string{
			strconv.FormatInt(r.Flight, 10),
			strconv.FormatInt(r.Line, 10),
			strconv.Itoa(r.Count),
			strconv.Itoa(r.DoubleCount),
		})
	}
	return nil, writeSummaryCSV(ctx, outDir(ctx, args), NoiseSummaryFile, rows)
}

// writeDiurnalSummary writes the per-line diurnal summary CSV. The file is
// only written when at least one line was out of spec on either chord.
func writeDiurnalSummary(ctx *pipeline.Context, _ *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	sums := SummariesFrom(ctx)
	if len(sums.Diurnal) == 0 {
		ctx.Logger.Info("no lines with out-of-spec diurnal, skipping summary")
		return nil, nil
	}

	rows := [][]string{{"Flight", "Line", "OOS_Count_15chord", "OOS_Count_60chord"}}
	for _, r := range sums.Diurnal {
		rows = append(rows, []string{
			strconv.FormatInt(r.Flight, 10),
			strconv.FormatInt(r.Line, 10),
			strconv.Itoa(r.Count15),
			strconv.Itoa(r.Count60),
		})
	}
	return nil, writeSummaryCSV(ctx, outDir(ctx, args), DiurnalSummaryFile, rows)
}

// writeDrapeSummary writes the segment and by-line drape summary CSVs when
// any segment was recorded, and always writes the aggregate human-readable
// summary covering drape, diurnal, and noise counts.
func writeDrapeSummary(ctx *pipeline.Context, _ *survey.Dataset, args pipeline.Args) (*survey.Dataset, error) {
	sums := SummariesFrom(ctx)
	dir := outDir(ctx, args)

	if len(sums.Segments) > 0 {
		rows := [][]string{{"Flight", "Line", "Fid_start", "Fid_end", "Length_OOS", "Max_drape_dev", "Avg_drape_dev", "Avg_speed"}}
		for _, s := range sums.Segments {
			rows = append(rows, []string{
				strconv.FormatInt(s.Flight, 10),
				strconv.FormatInt(s.Line, 10),
				fmt.Sprintf("%.0f", s.FidStart),
				fmt.Sprintf("%.0f", s.FidEnd),
				fmt.Sprintf("%.0f", s.Length),
				fmt.Sprintf("%.0f", s.Extreme),
				fmt.Sprintf("%.0f", s.MeanDev),
				fmt.Sprintf("%.0f", s.MeanSpeed),
			})
		}
		if err := writeSummaryCSV(ctx, dir, DrapeSummaryFile, rows); err != nil {
			return nil, err
		}

		byLine := [][]string{{
			"Flight", "Line", "Line_length",
			"OOS_length_overdrape", "OOS_length_underdrape", "OOS_total_length",
			"OOS_length_overdrape_percent", "OOS_length_underdrape_percent", "OOS_total_percent",
		}}
		for _, r := range sums.DrapeLines {
			total := r.OverLength + r.UnderLength
			byLine = append(byLine, []string{
				strconv.FormatInt(r.Flight, 10),
				strconv.FormatInt(r.Line, 10),
				fmt.Sprintf("%.0f", r.LineLength),
				fmt.Sprintf("%.0f", r.OverLength),
				fmt.Sprintf("%.0f", r.UnderLength),
				fmt.Sprintf("%.0f", total),
				fmt.Sprintf("%.0f", r.OverLength/r.LineLength*100),
				fmt.Sprintf("%.0f", r.UnderLength/r.LineLength*100),
				fmt.Sprintf("%.0f", total/r.LineLength*100),
			})
		}
		if err := writeSummaryCSV(ctx, dir, DrapeByLineSummaryFile, byLine); err != nil {
			return nil, err
		}
	} else {
		ctx.Logger.Info("no out-of-spec drape segments, skipping segment summaries")
	}

	text := AggregateText(sums)
	path := filepath.Join(dir, AggregateSummaryFile)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to write aggregate summary")
	}
	ctx.Logger.Info("wrote aggregate summary", zap.String("path", path))
	return nil, nil
}

// AggregateText renders the human-readable QC roll-up: segment and line
// counts, total out-of-spec length, and the percentage of the surveyed
// distance it represents.
func AggregateText(sums *Summaries) string {
	segCount := len(sums.Segments)
	lines := make(map[int64]struct{})
	var meters float64
	for _, s := range sums.Segments {
		lines[s.Line] = struct{}{}
		meters += s.Length
	}

	var pct float64
	if sums.TotalLineKM > 0 {
		pct = meters / (10 * sums.TotalLineKM)
	}

	return fmt.Sprintf(
		"%d lines (%d segments, %.1f line-km total) with drape out of spec. That's %.1f%% of the %.1f total line km for the survey.\n"+
			"%d lines with diurnal out of spec.\n"+
			"%d lines with potential noise problems.",
		len(lines), segCount, meters/1000, pct, sums.TotalLineKM,
		len(sums.Diurnal), len(sums.Noise))
}

// outDir resolves the output directory for a writer step: the step's own
// out_path parameter wins over the pipeline-level one.
func outDir(ctx *pipeline.Context, args pipeline.Args) string {
	return args.String("out_path", ctx.OutPath())
}

func writeSummaryCSV(ctx *pipeline.Context, dir, name string, rows [][]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create summary directory")
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create summary file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write summary rows")
	}

	ctx.Logger.Info("wrote summary", zap.String("path", path), zap.Int("rows", len(rows)-1))
	return nil
}
