package domain

import (
	"errors"
	"fmt"
)

// ErrBadCalibration marks fatal configuration errors: degenerate calibration
// parameters that indicate a programming or deployment mistake rather than
// bad field data. These are the only errors the computation surfaces;
// out-of-domain numeric inputs are clamped, never raised.
var ErrBadCalibration = errors.New("bad calibration")

// GrowthStage is one entry of the ordered accumulated-GDD stage table.
// A stage applies while accumulated GDD is below MaxGDD; the final entry
// should carry math.Inf(1) (see DefaultCalibration) so every value maps.
type GrowthStage struct {
	Name   string
	MaxGDD float64
}

// Calibration holds every tunable constant of the physics computation.
// Defaults come from the tobacco calibration of the original field trials;
// none of the stress-band values are hard physical constants, so deployments
// may override them per crop.
type Calibration struct {
	// Crop coefficient (Kc) derivation from NDVI.
	NDVIMin float64
	NDVIMax float64
	KcMax   float64

	// VPD stress banding, kPa. Inside [VPDLow, VPDHigh] is the no-stress band.
	VPDLow  float64
	VPDHigh float64

	// Plausible air temperature bounds, °C. Inputs outside are clamped
	// before the saturation-vapor-pressure exponential.
	TempMin float64
	TempMax float64

	// Growing degree days.
	BaseTemp float64

	// Logistic leaf-area-index proxy.
	GDDMidpoint   float64
	LAIGrowthRate float64
	LAIMax        float64

	// Reference ET estimate used when no remote-sensing ET sample exists
	// for a date: ET0 = ET0PerKPa * VPD, capped at ET0Max (mm/day).
	ET0PerKPa float64
	ET0Max    float64

	// Fallbacks for days with no temperature or humidity sample.
	DefaultTemperature float64
	DefaultHumidity    float64

	// Water stress from the daily balance (mm). Balances below
	// DeficitThreshold scale stress down over DeficitDepth, floored at
	// DeficitFloor; balances above ExcessThreshold likewise over ExcessDepth.
	DeficitThreshold float64
	DeficitDepth     float64
	DeficitFloor     float64
	ExcessThreshold  float64
	ExcessDepth      float64
	ExcessFloor      float64

	// Yield impact ceiling, percent, applied to (1 - combined stress).
	MaxYieldImpactPct float64

	// SCS curve number for runoff estimation from precipitation.
	// Zero disables estimation (runoff assumed negligible).
	CurveNumber float64

	// Ordered growth stage table, ascending MaxGDD.
	Stages []GrowthStage
}

// DefaultCalibration returns the tobacco defaults of the original system.
func DefaultCalibration() Calibration {
	return Calibration{
		NDVIMin: 0.2,
		NDVIMax: 0.8,
		KcMax:   1.2,

		VPDLow:  0.8,
		VPDHigh: 1.2,

		TempMin: -40,
		TempMax: 60,

		BaseTemp: 10,

		GDDMidpoint:   800,
		LAIGrowthRate: 0.02,
		LAIMax:        6,

		ET0PerKPa: 2.0,
		ET0Max:    15,

		DefaultTemperature: 25,
		DefaultHumidity:    60,

		DeficitThreshold: -10,
		DeficitDepth:     50,
		DeficitFloor:     0.5,
		ExcessThreshold:  20,
		ExcessDepth:      100,
		ExcessFloor:      0.7,

		MaxYieldImpactPct: 50,

		CurveNumber: 0,

		Stages: []GrowthStage{
			{Name: "Transplant/Establishment", MaxGDD: 200},
			{Name: "Vegetative Growth", MaxGDD: 500},
			{Name: "Rapid Growth", MaxGDD: 900},
			{Name: "Topping/Flowering", MaxGDD: 1200},
			{Name: "Maturation", MaxGDD: 1500},
			{Name: "Harvest Ready", MaxGDD: inf},
		},
	}
}

// Validate rejects degenerate calibration parameters. A failure here is
// fatal; it is never retried and never absorbed.
func (c Calibration) Validate() error {
	if c.NDVIMax <= c.NDVIMin {
		return fmt.Errorf("%w: ndvi band is degenerate (min %.3f, max %.3f)",
			ErrBadCalibration, c.NDVIMin, c.NDVIMax)
	}
	if c.KcMax <= 0 {
		return fmt.Errorf("%w: kc max must be positive, got %.3f", ErrBadCalibration, c.KcMax)
	}
	if c.VPDHigh <= c.VPDLow || c.VPDLow <= 0 {
		return fmt.Errorf("%w: vpd band is degenerate (low %.3f, high %.3f)",
			ErrBadCalibration, c.VPDLow, c.VPDHigh)
	}
	if c.TempMax <= c.TempMin {
		return fmt.Errorf("%w: temperature clamp bounds are degenerate (min %.1f, max %.1f)",
			ErrBadCalibration, c.TempMin, c.TempMax)
	}
	if c.DeficitDepth <= 0 || c.ExcessDepth <= 0 {
		return fmt.Errorf("%w: stress reference depths must be positive (deficit %.1f, excess %.1f)",
			ErrBadCalibration, c.DeficitDepth, c.ExcessDepth)
	}
	if c.LAIMax <= 0 {
		return fmt.Errorf("%w: lai max must be positive, got %.3f", ErrBadCalibration, c.LAIMax)
	}
	if c.MaxYieldImpactPct < 0 || c.MaxYieldImpactPct > 100 {
		return fmt.Errorf("%w: yield impact ceiling must be within [0, 100], got %.1f",
			ErrBadCalibration, c.MaxYieldImpactPct)
	}
	if c.CurveNumber < 0 || c.CurveNumber > 100 {
		return fmt.Errorf("%w: curve number must be within [0, 100], got %.1f",
			ErrBadCalibration, c.CurveNumber)
	}
	if len(c.Stages) == 0 {
		return fmt.Errorf("%w: growth stage table is empty", ErrBadCalibration)
	}
	prev := -1.0
	for _, s := range c.Stages {
		if s.MaxGDD <= prev {
			return fmt.Errorf("%w: growth stage table is not ascending at %q", ErrBadCalibration, s.Name)
		}
		prev = s.MaxGDD
	}
	return nil
}

// ClampTemperature bounds an air temperature reading to the plausible range.
// The second return reports whether clamping occurred.
func (c Calibration) ClampTemperature(t float64) (float64, bool) {
	switch {
	case t < c.TempMin:
		return c.TempMin, true
	case t > c.TempMax:
		return c.TempMax, true
	default:
		return t, false
	}
}

// ClampHumidity bounds relative humidity to [0, 100] percent.
func ClampHumidity(rh float64) (float64, bool) {
	switch {
	case rh < 0:
		return 0, true
	case rh > 100:
		return 100, true
	default:
		return rh, false
	}
}
