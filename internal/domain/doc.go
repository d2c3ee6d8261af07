// Package domain implements the agro-physics computation core: multi-source
// daily time-series fusion and the closed-form water balance, VPD stress,
// and crop growth models.
//
// # Data Sources
//
// Each computation consumes up to eight named daily series for one field
// location. Satellite products arrive on independent revisit schedules
// (optical vegetation index every ~5 days weather permitting, rainfall and
// ET composites daily to 8-daily); ground telemetry is aggregated from
// sub-hourly sensor readings to daily means (sums for irrigation volume).
// Any subset may be empty: the aligner's union-with-default policy absorbs
// gaps so a missing provider degrades completeness, never the computation.
//
// # Units and Conventions
//
// Dates are day resolution, UTC midnight, keyed YYYY-MM-DD. Water terms
// (precipitation, irrigation, ET, runoff, soil storage change, balance) are
// millimeters per day. Temperatures are °C, relative humidity percent,
// vapor pressure deficit kPa. Vegetation index values are conventionally
// within [-1, 1]; soil moisture percent of saturation, converted to mm of
// stored water at a 1 mm per percent root-zone equivalence.
//
// # The Balance Identity
//
// The FAO water balance ET = P + I - R - dS is solved for the residual
// surplus/deficit because ET here is an observed or derived quantity (a
// remote-sensing product scaled by the crop coefficient), not the unknown:
//
//	balance = P + I - (ETc + R) - dS
//
// Runoff is assumed negligible unless a runoff series is supplied or an
// SCS curve number is calibrated; when present it folds into the ET term so
// the four-component identity value = p + i - et - ds holds exactly.
//
// # Formulas
//
// Saturation vapor pressure uses the Tetens approximation with the FAO-56
// constants (0.6108, 17.27, 237.3). Crop coefficient derives linearly from
// NDVI over the calibrated [NDVIMin, NDVIMax] band, clamped to [0, KcMax].
// Growing degree days use the standard mean-extremes form with a calibrated
// base temperature. The LAI proxy is a logistic heat response scaled by the
// day's crop coefficient and capped at LAIMax. The VPD stress banding, the
// water-stress depths, and the yield impact ceiling are calibrated
// operational parameters, not cited physical constants; see Calibration.
//
// # Failure Semantics
//
// Out-of-domain numeric inputs are clamped and counted, never raised.
// Missing samples are default-filled and counted per source. The only
// errors the package surfaces wrap ErrBadCalibration: degenerate
// calibration parameters are a deployment mistake, not bad field data.
package domain
