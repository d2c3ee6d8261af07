package domain

import (
	"math"
	"time"
)

// VPDCategory is the qualitative band a VPD value falls into. Categories are
// derived from the same thresholds as the stress factor, so label and factor
// never disagree.
type VPDCategory string

const (
	VPDLow     VPDCategory = "low"
	VPDOptimal VPDCategory = "optimal"
	VPDHigh    VPDCategory = "high"
)

// VPDAssessment pairs a computed deficit with its stress interpretation.
type VPDAssessment struct {
	VPD          float64
	StressFactor float64
	Category     VPDCategory
}

// VpdAnalysisRecord is one day of VPD analysis over the telemetry series.
type VpdAnalysisRecord struct {
	Date         time.Time   `json:"date"`
	VPD          float64     `json:"vpd"`
	StressFactor float64     `json:"stressFactor"`
	Category     VPDCategory `json:"category"`
	Temperature  float64     `json:"temperature"`
	Humidity     float64     `json:"humidity"`
}

// AssessVPD computes the vapor pressure deficit for a day's mean temperature
// (°C) and relative humidity (%) and maps it to a stress factor in [0, 1]
// (1 = no stress). Inputs are clamped to plausible bounds first; the
// returned count reports how many clamps occurred (observability, never an
// error).
//
// Below VPDLow the air is nearly saturated: transpiration stalls and fungal
// risk rises, so stress eases off a 0.9 floor toward 1 at the band edge.
// Inside the band the factor is exactly 1. Above VPDHigh atmospheric demand
// outruns supply and the factor decays exponentially toward a 0.1 floor.
func (c Calibration) AssessVPD(tempC, rhPct float64) (VPDAssessment, int) {
	clamps := 0
	t, clamped := c.ClampTemperature(tempC)
	if clamped {
		clamps++
	}
	rh, clamped := ClampHumidity(rhPct)
	if clamped {
		clamps++
	}

	vpd := VaporPressureDeficit(t, rh)

	var a VPDAssessment
	a.VPD = vpd
	switch {
	case vpd < c.VPDLow:
		a.Category = VPDLow
		a.StressFactor = 0.9 + 0.1*(math.Max(vpd, 0)/c.VPDLow)
	case vpd <= c.VPDHigh:
		a.Category = VPDOptimal
		a.StressFactor = 1.0
	default:
		a.Category = VPDHigh
		a.StressFactor = math.Max(0.1, math.Exp(-0.5*(vpd-c.VPDHigh)))
	}
	return a, clamps
}

// ComposeVPDAnalysis runs the VPD stress model over the union of the
// temperature and humidity date axes. Days where one side is missing use the
// calibrated fallback for that side. Empty inputs yield an empty analysis;
// the second return is the total number of out-of-domain clamps.
func (c Calibration) ComposeVPDAnalysis(temperature, humidity TimeSeries) ([]VpdAnalysisRecord, int) {
	table := Align(math.NaN(), map[string]TimeSeries{
		SourceTemperature: temperature,
		SourceHumidity:    humidity,
	})

	records := make([]VpdAnalysisRecord, 0, table.Len())
	clamps := 0
	for _, d := range table.Dates() {
		t := table.Value(d, SourceTemperature)
		if math.IsNaN(t) {
			t = c.DefaultTemperature
		}
		rh := table.Value(d, SourceHumidity)
		if math.IsNaN(rh) {
			rh = c.DefaultHumidity
		}

		a, n := c.AssessVPD(t, rh)
		clamps += n
		records = append(records, VpdAnalysisRecord{
			Date:         d,
			VPD:          a.VPD,
			StressFactor: a.StressFactor,
			Category:     a.Category,
			Temperature:  clamp(t, c.TempMin, c.TempMax),
			Humidity:     clamp(rh, 0, 100),
		})
	}
	return records, clamps
}
