package domain

import "math"

var inf = math.Inf(1)

// SaturationVaporPressure computes es in kPa for an air temperature in °C
// using the Tetens approximation: es = 0.6108 * exp(17.27*T / (T + 237.3)).
// Callers are expected to clamp T to a plausible range first; the constants
// here are the FAO-56 values and not tunable.
func SaturationVaporPressure(tempC float64) float64 {
	return 0.6108 * math.Exp(17.27*tempC/(tempC+237.3))
}

// VaporPressureDeficit computes VPD = es - ea in kPa, with ea = es * RH/100.
func VaporPressureDeficit(tempC, rhPct float64) float64 {
	es := SaturationVaporPressure(tempC)
	ea := es * rhPct / 100.0
	return es - ea
}

// KcFromNDVI maps a vegetation index sample to a crop coefficient:
// Kc = KcMax * (ndvi - NDVIMin) / (NDVIMax - NDVIMin), clamped to [0, KcMax].
// Clamping is mandatory: index values outside the calibration band (bare
// soil, saturated canopy, cloud contamination) must not produce negative or
// implausibly large coefficients.
func (c Calibration) KcFromNDVI(ndvi float64) float64 {
	kc := c.KcMax * (ndvi - c.NDVIMin) / (c.NDVIMax - c.NDVIMin)
	return clamp(kc, 0, c.KcMax)
}

// CropCoefficients derives a Kc series from a vegetation index series,
// sample for sample.
func (c Calibration) CropCoefficients(ndvi TimeSeries) TimeSeries {
	points := ndvi.Points()
	for i := range points {
		points[i].Value = c.KcFromNDVI(points[i].Value)
	}
	return NewTimeSeries(points...)
}

// SoilMoistureDeltas derives the day-over-day change in stored soil water.
// The output has one point per consecutive sample pair, dated at the later
// sample. The first input date is omitted rather than zero-filled: a zero
// would falsely assert "no change" on a day that was never measured against
// a prior one. Series of length <= 1 yield an empty series.
func SoilMoistureDeltas(moisture TimeSeries) TimeSeries {
	points := moisture.Points()
	if len(points) < 2 {
		return TimeSeries{}
	}
	deltas := make([]Point, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		deltas = append(deltas, Point{
			Date:  points[i].Date,
			Value: points[i].Value - points[i-1].Value,
		})
	}
	return NewTimeSeries(deltas...)
}

// GrowingDegreeDays computes daily GDD = max(0, (Tmax+Tmin)/2 - BaseTemp).
func (c Calibration) GrowingDegreeDays(tMax, tMin float64) float64 {
	return math.Max(0, (tMax+tMin)/2-c.BaseTemp)
}

// EstimateReferenceET approximates reference evapotranspiration (mm/day)
// from vapor pressure deficit when no remote-sensing ET sample is available.
// This is an empirical proxy, not Penman-Monteith; the slope is calibrated,
// not physical.
func (c Calibration) EstimateReferenceET(vpd float64) float64 {
	return clamp(c.ET0PerKPa*vpd, 0, c.ET0Max)
}

// EstimateRunoff applies the SCS curve number method to daily precipitation:
// Q = (P - 0.2S)^2 / (P + 0.8S) for P > 0.2S, with S = 25400/CN - 254.
// Returns 0 when precipitation or the curve number is not positive.
func EstimateRunoff(precipitation, curveNumber float64) float64 {
	if precipitation <= 0 || curveNumber <= 0 {
		return 0
	}
	s := 25400/curveNumber - 254
	ia := 0.2 * s
	if precipitation <= ia {
		return 0
	}
	return (precipitation - ia) * (precipitation - ia) / (precipitation + 0.8*s)
}

// LeafAreaIndex derives the bounded LAI proxy from accumulated GDD and the
// day's crop coefficient. The logistic core grows with accumulated heat;
// the Kc scaling keeps sparse canopies (low Kc) below dense ones at the
// same heat sum. Capped at LAIMax so data anomalies cannot produce
// unbounded canopies.
func (c Calibration) LeafAreaIndex(accumulatedGDD, kc float64) float64 {
	base := 1 / (1 + math.Exp(-c.LAIGrowthRate*(accumulatedGDD-c.GDDMidpoint)))
	lai := c.LAIMax * base * (0.5 + 0.5*kc/c.KcMax)
	return clamp(lai, 0, c.LAIMax)
}

// StageForGDD selects the growth stage label for an accumulated GDD value
// from the ordered stage table.
func (c Calibration) StageForGDD(accumulatedGDD float64) string {
	for _, s := range c.Stages {
		if accumulatedGDD < s.MaxGDD {
			return s.Name
		}
	}
	return c.Stages[len(c.Stages)-1].Name
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
