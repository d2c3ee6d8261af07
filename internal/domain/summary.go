package domain

import (
	"github.com/montanaflynn/stats"
)

// Summary holds the scalar aggregates of one computation. It has no
// identity of its own: always recomputed from the records, never cached.
type Summary struct {
	TotalWaterBalance   float64 `json:"totalWaterBalance"`
	AverageWaterBalance float64 `json:"averageWaterBalance"`
	TotalPrecipitation  float64 `json:"totalPrecipitation"`
	TotalET             float64 `json:"totalET"`
	AverageVPD          float64 `json:"averageVPD"`
	MaxVPD              float64 `json:"maxVPD"`
	WaterDeficitDays    int     `json:"waterDeficitDays"`
	WaterExcessDays     int     `json:"waterExcessDays"`
	CurrentGrowthStage  string  `json:"currentGrowthStage"`
	AccumulatedGDD      float64 `json:"accumulatedGDD"`
	CurrentLAI          float64 `json:"currentLAI"`
}

// Day-count thresholds, mm. Looser than the stress-model thresholds on
// purpose: the summary flags marginal days the stress model still tolerates.
const (
	deficitDayBelow = -5.0
	excessDayAbove  = 10.0
)

// Summarize reduces one computation's records to the summary aggregates.
// Empty inputs yield a zero summary with stage "Unknown".
func Summarize(balance []WaterBalanceRecord, growth []CropGrowthRecord, vpd []VpdAnalysisRecord) Summary {
	s := Summary{CurrentGrowthStage: "Unknown"}

	if len(balance) > 0 {
		values := make([]float64, 0, len(balance))
		for _, wb := range balance {
			values = append(values, wb.Value)
			s.TotalPrecipitation += wb.Precipitation
			s.TotalET += wb.ETc
			if wb.Value < deficitDayBelow {
				s.WaterDeficitDays++
			}
			if wb.Value > excessDayAbove {
				s.WaterExcessDays++
			}
		}
		s.TotalWaterBalance, _ = stats.Sum(values)
		s.AverageWaterBalance, _ = stats.Mean(values)
	}

	if len(vpd) > 0 {
		values := make([]float64, 0, len(vpd))
		for _, v := range vpd {
			values = append(values, v.VPD)
		}
		s.AverageVPD, _ = stats.Mean(values)
		s.MaxVPD, _ = stats.Max(values)
	}

	if len(growth) > 0 {
		latest := growth[len(growth)-1]
		s.CurrentGrowthStage = latest.GrowthStage
		s.AccumulatedGDD = latest.AccumulatedGDD
		s.CurrentLAI = latest.LAI
	}

	return s
}
