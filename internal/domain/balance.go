package domain

import (
	"fmt"
	"time"
)

// Canonical source names used on the alignment axis, in telemetry
// aggregation, and in gap diagnostics.
const (
	SourceNDVI          = "ndvi"
	SourcePrecipitation = "precipitation"
	SourceET            = "et"
	SourceSoilMoisture  = "soil_moisture"
	SourceIrrigation    = "irrigation"
	SourceRunoff        = "runoff"
	SourceTemperature   = "temperature"
	SourceTempMax       = "temperature_max"
	SourceTempMin       = "temperature_min"
	SourceHumidity      = "humidity"
	sourceKc            = "kc"
	sourceDeltaS        = "delta_s"
)

// Components breaks the daily balance identity into its terms, all in mm:
// Value = P + I - ET - DS. Runoff is folded into the ET term (see
// WaterBalanceRecord), so the identity holds exactly over these four fields.
type Components struct {
	P  float64 `json:"p"`
	I  float64 `json:"i"`
	ET float64 `json:"et"`
	R  float64 `json:"r"`
	DS float64 `json:"ds"`
}

// WaterBalanceRecord is one day of the residual water balance.
//
// Convention: the FAO identity ET = P + I - R - dS is solved for the
// residual surplus/deficit because ET here is an observed or derived
// quantity, not the unknown. Value = P + I - (ETc + R) - dS; Components.ET
// carries the folded ETc + R term while Etc and Runoff stay separate for
// presentation.
type WaterBalanceRecord struct {
	Date          time.Time  `json:"date"`
	Value         float64    `json:"value"`
	ET0           float64    `json:"et0"`
	ETc           float64    `json:"etc"`
	Precipitation float64    `json:"precipitation"`
	Irrigation    float64    `json:"irrigation"`
	Runoff        float64    `json:"runoff"`
	DeltaS        float64    `json:"deltaS"`
	VPD           float64    `json:"vpd"`
	VPDStress     float64    `json:"vpdStress"`
	Kc            float64    `json:"kc"`
	Components    Components `json:"components"`
}

// Diagnostics surfaces the non-fatal data quality events of one
// computation: per-source counts of default-filled days over the requested
// range, and the number of out-of-domain input clamps.
type Diagnostics struct {
	FilledDays  map[string]int `json:"filledDays,omitempty"`
	ClampEvents int            `json:"clampEvents,omitempty"`
}

func newDiagnostics() Diagnostics {
	return Diagnostics{FilledDays: make(map[string]int)}
}

func (d *Diagnostics) countGap(source string, have bool) {
	if !have {
		d.FilledDays[source]++
	}
}

// WaterBalanceInput carries the raw and derived series for one computation.
// Any series may be empty; the aligner's default fill absorbs the gaps so a
// missing upstream source degrades completeness, never the computation.
type WaterBalanceInput struct {
	Range         DateRange
	NDVI          TimeSeries
	Precipitation TimeSeries
	ET            TimeSeries
	SoilMoisture  TimeSeries
	Irrigation    TimeSeries
	Runoff        TimeSeries
	Temperature   TimeSeries
	Humidity      TimeSeries
}

// WaterBalanceResult is the composed daily balance plus its diagnostics.
type WaterBalanceResult struct {
	Records     []WaterBalanceRecord
	Diagnostics Diagnostics
}

// ComposeWaterBalance computes the residual daily water balance over every
// day of the requested range. Per date: Kc from the NDVI sample, ET0 from
// the remote-sensing ET sample when present (else the VPD-driven estimate),
// ETc = Kc * ET0, dS from consecutive soil moisture samples, runoff from
// the supplied series or the SCS estimate when a curve number is
// calibrated, and Value = P + I - (ETc + R) - dS.
//
// The only error is a degenerate calibration; missing data is default-filled
// and reported through Diagnostics.
func (c Calibration) ComposeWaterBalance(in WaterBalanceInput) (WaterBalanceResult, error) {
	if err := c.Validate(); err != nil {
		return WaterBalanceResult{}, fmt.Errorf("compose water balance: %w", err)
	}

	runoff := in.Runoff
	if runoff.Empty() && c.CurveNumber > 0 {
		runoff = estimateRunoffSeries(in.Precipitation, c.CurveNumber)
	}

	table := Align(0, map[string]TimeSeries{
		SourcePrecipitation: in.Precipitation,
		SourceIrrigation:    in.Irrigation,
		SourceRunoff:        runoff,
		sourceKc:            c.CropCoefficients(in.NDVI),
		sourceDeltaS:        SoilMoistureDeltas(in.SoilMoisture),
	})

	diag := newDiagnostics()
	days := in.Range.Days()
	records := make([]WaterBalanceRecord, 0, len(days))

	for _, d := range days {
		diag.countGap(SourceNDVI, in.NDVI.Has(d))
		diag.countGap(SourcePrecipitation, in.Precipitation.Has(d))
		diag.countGap(SourceET, in.ET.Has(d))
		diag.countGap(SourceSoilMoisture, in.SoilMoisture.Has(d))
		diag.countGap(SourceIrrigation, in.Irrigation.Has(d))

		temp, haveTemp := in.Temperature.At(d)
		if !haveTemp {
			temp = c.DefaultTemperature
		}
		diag.countGap(SourceTemperature, haveTemp)
		rh, haveRH := in.Humidity.At(d)
		if !haveRH {
			rh = c.DefaultHumidity
		}
		diag.countGap(SourceHumidity, haveRH)

		vpd, clamps := c.AssessVPD(temp, rh)
		diag.ClampEvents += clamps

		et0, haveET := in.ET.At(d)
		if !haveET {
			et0 = c.EstimateReferenceET(vpd.VPD)
		}

		kc := table.Value(d, sourceKc)
		etc := kc * et0

		p := table.Value(d, SourcePrecipitation)
		irr := table.Value(d, SourceIrrigation)
		r := table.Value(d, SourceRunoff)
		ds := table.Value(d, sourceDeltaS)

		etTerm := etc + r
		balance := p + irr - etTerm - ds

		records = append(records, WaterBalanceRecord{
			Date:          d,
			Value:         balance,
			ET0:           et0,
			ETc:           etc,
			Precipitation: p,
			Irrigation:    irr,
			Runoff:        r,
			DeltaS:        ds,
			VPD:           vpd.VPD,
			VPDStress:     vpd.StressFactor,
			Kc:            kc,
			Components:    Components{P: p, I: irr, ET: etTerm, R: r, DS: ds},
		})
	}

	return WaterBalanceResult{Records: records, Diagnostics: diag}, nil
}

// estimateRunoffSeries derives a runoff series from precipitation via the
// SCS curve number method, one sample per precipitation sample.
func estimateRunoffSeries(precipitation TimeSeries, curveNumber float64) TimeSeries {
	points := precipitation.Points()
	for i := range points {
		points[i].Value = EstimateRunoff(points[i].Value, curveNumber)
	}
	return NewTimeSeries(points...)
}
