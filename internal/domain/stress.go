package domain

import (
	"fmt"
	"math"
	"time"
)

// YieldStressRecord is one day of the combined stress model.
// CombinedStress multiplies the independent VPD and water factors: either
// factor alone can suppress yield potential, both at once compounds.
type YieldStressRecord struct {
	Date           time.Time `json:"date"`
	VPDStress      float64   `json:"vpdStress"`
	WaterStress    float64   `json:"waterStress"`
	CombinedStress float64   `json:"combinedStress"`
	YieldImpact    float64   `json:"yieldImpact"`
}

// WaterStressFactor maps a daily balance (mm) to a factor in [0, 1].
// Moderate balances are unstressed. Deficits beyond DeficitThreshold scale
// linearly down over DeficitDepth with a floor at DeficitFloor; excess
// beyond ExcessThreshold (waterlogging) scales down over ExcessDepth with a
// floor at ExcessFloor.
func (c Calibration) WaterStressFactor(balance float64) float64 {
	switch {
	case balance < c.DeficitThreshold:
		return math.Max(c.DeficitFloor, 1+balance/c.DeficitDepth)
	case balance > c.ExcessThreshold:
		return math.Max(c.ExcessFloor, 1-(balance-c.ExcessThreshold)/c.ExcessDepth)
	default:
		return 1.0
	}
}

// CombineYieldStress merges the VPD analysis with the water balance into
// per-day combined stress and estimated percentage yield reduction.
// Water balance days with no matching VPD record assume no VPD stress.
func (c Calibration) CombineYieldStress(balance []WaterBalanceRecord, vpd []VpdAnalysisRecord) []YieldStressRecord {
	vpdByDay := make(map[string]VpdAnalysisRecord, len(vpd))
	for _, v := range vpd {
		vpdByDay[DayKey(v.Date)] = v
	}

	records := make([]YieldStressRecord, 0, len(balance))
	for _, wb := range balance {
		vpdStress := 1.0
		if v, ok := vpdByDay[DayKey(wb.Date)]; ok {
			vpdStress = v.StressFactor
		}

		waterStress := c.WaterStressFactor(wb.Value)
		combined := clamp(vpdStress*waterStress, 0, 1)

		records = append(records, YieldStressRecord{
			Date:           wb.Date,
			VPDStress:      vpdStress,
			WaterStress:    waterStress,
			CombinedStress: combined,
			YieldImpact:    (1 - combined) * c.MaxYieldImpactPct,
		})
	}
	return records
}

// Recommendations derives advisory management notes from the summary.
// Threshold-driven notes fire independently and stack; an unremarkable
// season yields the single all-clear note.
func (c Calibration) Recommendations(s Summary) []string {
	var recs []string

	if s.TotalWaterBalance < -20 {
		recs = append(recs, fmt.Sprintf(
			"Significant water deficit detected (%.1fmm). Consider increasing irrigation frequency.",
			s.TotalWaterBalance))
	} else if s.TotalWaterBalance > 30 {
		recs = append(recs, fmt.Sprintf(
			"Water excess detected (%.1fmm). Reduce irrigation to prevent waterlogging and disease.",
			s.TotalWaterBalance))
	}

	if s.AverageVPD > 2.0 {
		recs = append(recs, fmt.Sprintf(
			"High VPD stress (avg %.2f kPa). Consider irrigation during peak heat hours to reduce plant stress.",
			s.AverageVPD))
	} else if s.AverageVPD > 0 && s.AverageVPD < 0.5 {
		recs = append(recs, fmt.Sprintf(
			"Low VPD conditions (avg %.2f kPa). Monitor for fungal diseases and improve ventilation if possible.",
			s.AverageVPD))
	}

	switch s.CurrentGrowthStage {
	case "Rapid Growth":
		recs = append(recs, "Crop is in rapid growth phase. Ensure adequate water and nutrient supply for optimal yield.")
	case "Maturation":
		recs = append(recs, "Crop is maturing. Gradually reduce irrigation to improve leaf quality.")
	}

	if s.WaterDeficitDays > 7 {
		recs = append(recs, fmt.Sprintf(
			"Water deficit detected on %d days. Review irrigation scheduling to prevent yield loss.",
			s.WaterDeficitDays))
	}

	if len(recs) == 0 {
		recs = append(recs, "Water balance appears optimal. Continue current management practices.")
	}
	return recs
}
