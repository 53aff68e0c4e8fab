// Package filters provides the built-in QC filter steps for survey
// pipelines: diurnal chord analysis, drape/clearance segment detection,
// fourth-difference noise detection, summary writers, and dataset
// housekeeping steps.
//
// Importing this package registers every built-in filter in the global
// pipeline registry. Use Register to compose the built-ins into an
// explicitly constructed registry, e.g. together with external extensions.
package filters

import (
	"github.com/aerogeophys/magqc/pkg/pipeline"
)

// Step names. They follow the historical entry-point naming of the QC
// procedure so existing pipeline documents keep working.
const (
	StepSetConstants    = "set_constants"
	StepDiurnal15       = "diurnal_qc_for_15s_chord"
	StepDiurnal60       = "diurnal_qc_for_60s_chord"
	StepDrapeAndSpeed   = "drape_and_speed_qc"
	StepClearance       = "clearance_qc"
	StepNoise           = "noise_qc"
	StepWriteNoise      = "write_noise_summary"
	StepWriteDiurnal    = "write_diurnal_summary"
	StepWriteDrape      = "write_drape_summary"
	StepSetMeta         = "set_meta"
	StepDownlineDist    = "downline_distance"
	StepSelectThrough   = "select_lines_through_flight"
	StepDeselectThrough = "deselect_lines_through_flight"
)

func builtins() map[string]pipeline.Filter {
	return map[string]pipeline.Filter{
		StepSetConstants:    setConstants,
		StepDiurnal15:       diurnal15,
		StepDiurnal60:       diurnal60,
		StepDrapeAndSpeed:   drapeAndSpeedQC,
		StepClearance:       clearanceQC,
		StepNoise:           noiseQC,
		StepWriteNoise:      writeNoiseSummary,
		StepWriteDiurnal:    writeDiurnalSummary,
		StepWriteDrape:      writeDrapeSummary,
		StepSetMeta:         setMeta,
		StepDownlineDist:    downlineDistance,
		StepSelectThrough:   selectThroughFlight,
		StepDeselectThrough: deselectThroughFlight,
	}
}

// Register adds every built-in filter to r.
func Register(r *pipeline.Registry) error {
	for name, f := range builtins() {
		if err := r.Register(name, f); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	_ = Register(pipeline.GetRegistry())
}
