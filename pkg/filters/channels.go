package filters

// Derived channel names written by the built-in filters. The names follow
// the DGGS QC schema so downstream dbviews pick them up unchanged.
const (
	ChanChord15       = "chrd_Lmag15"
	ChanChord60       = "chrd_LmagD60"
	ChanDiff15        = "L_magDIFF15"
	ChanDiff60        = "L_magDIFF60"
	ChanDiurnal15Mask = "diurnal_15chord_OOS_mask"
	ChanDiurnal60Mask = "diurnal_60chord_OOS_mask"

	ChanDrapeUpper     = "drape_p15"
	ChanDrapeLower     = "drape_m15"
	ChanSpeed          = "speed"
	ChanStepDistance   = "step_distance"
	ChanDrapeDeviation = "drape_deviation"
	ChanDrapeMask      = "drape_OOS_mask"
	ChanClearanceMask  = "clearance_OOS_mask"

	ChanMag2nd    = "MAGCOM_2nd"
	ChanMag4th    = "MAGCOM_4th"
	ChanNoiseMask = "mag_4th_diff_OOS_mask"

	ChanDownline = "downline_distance"
)

// Default tolerances from the survey terms of specification: diurnal chord
// limits of 0.5 nT (15 s) and 3 nT (60 s), drape envelope of 15 m held for
// 800 m along track, clearance do-not-exceed of 20 m held for 1200 m, and
// noise of 0.1 nT peak to peak caught as a +/-0.05 nT fourth-difference
// threshold.
const (
	DefaultDiurnal15Tol   = 0.5
	DefaultDiurnal60Tol   = 3.0
	DefaultDrapeZTol      = 15.0
	DefaultDrapeDTol      = 800.0
	DefaultClearanceZTol  = 20.0
	DefaultClearanceDTol  = 1200.0
	DefaultNoiseThreshold = 0.05
)
