// Command validate performs end-to-end integrity checks on an analysis
// report computed from a telemetry fixture. It loads the fixture through the
// real store, runs the real analyzer with satellite inputs disabled, and
// verifies the physical invariants every report must hold: the water balance
// identity, bounded stress factors, monotone heat accumulation, and summary
// consistency.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -telemetry data/mock/season_telemetry.json \
//	  -field field-7 -start 2024-04-01 -end 2024-07-29
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/field-physics-service/internal/domain"
	"github.com/couchcryptid/field-physics-service/internal/observability"
	"github.com/couchcryptid/field-physics-service/internal/pipeline"
	"github.com/couchcryptid/field-physics-service/internal/store"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	telemetry := flag.String("telemetry", "", "path to the telemetry JSON fixture")
	fieldID := flag.String("field", "field-7", "field identifier to analyze")
	start := flag.String("start", "", "analysis start date (YYYY-MM-DD)")
	end := flag.String("end", "", "analysis end date (YYYY-MM-DD)")
	lat := flag.Float64("lat", 36.1, "field latitude")
	lng := flag.Float64("lng", -78.9, "field longitude")
	flag.Parse()

	if *telemetry == "" || *start == "" || *end == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*telemetry, *fieldID, *start, *end, *lat, *lng); code != 0 {
		os.Exit(code)
	}
}

func run(telemetryPath, fieldID, start, end string, lat, lng float64) int {
	fmt.Println("=== Field Physics Report Validation ===")
	fmt.Println()

	dr, err := parseRange(start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	// Fixed clock so GeneratedAt and the default growth-stage lookup are
	// reproducible across runs.
	domain.SetClock(clockwork.NewFakeClockAt(dr.End.Add(24 * time.Hour)))
	defer domain.SetClock(nil)

	readings, err := loadReadings(telemetryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load telemetry: %v\n", err)
		return 1
	}
	fmt.Printf("Loaded %d readings from %s\n", len(readings), telemetryPath)

	report, err := analyze(readings, fieldID, dr, lat, lng)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: analyze: %v\n", err)
		return 1
	}

	cal := domain.DefaultCalibration()
	phases := []*phase{
		validateAxis(&report, dr),
		validateBalanceIdentity(&report),
		validatePhysicsRanges(&report, cal),
		validateSummary(&report),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d balance, %d growth, %d vpd, %d stress over %d days\n",
		len(report.WaterBalance), len(report.CropGrowth),
		len(report.VPDAnalysis), len(report.YieldStress), dr.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func parseRange(start, end string) (domain.DateRange, error) {
	s, err := domain.ParseDay(start)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("invalid -start: %w", err)
	}
	e, err := domain.ParseDay(end)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("invalid -end: %w", err)
	}
	return domain.NewDateRange(s, e)
}

func loadReadings(path string) ([]domain.SensorReading, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payloads []json.RawMessage
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, err
	}

	readings := make([]domain.SensorReading, 0, len(payloads))
	for i, p := range payloads {
		reading, _, err := domain.ParseRawReading(domain.RawEvent{Value: p})
		if err != nil {
			return nil, fmt.Errorf("payload %d: %w", i, err)
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

// analyze runs the real pipeline with no satellite provider and no alert
// publisher, so the report reflects only the fixture's telemetry.
func analyze(readings []domain.SensorReading, fieldID string, dr domain.DateRange, lat, lng float64) (domain.Report, error) {
	s := store.New()
	if err := s.LoadBatch(context.Background(), readings); err != nil {
		return domain.Report{}, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	analyzer := pipeline.NewAnalyzer(nil, s, nil, domain.DefaultCalibration(), logger, observability.NewMetricsForTesting())

	return analyzer.Analyze(context.Background(), pipeline.AnalysisRequest{
		FieldID: fieldID,
		Geo:     domain.Geo{Lat: lat, Lng: lng},
		Range:   dr,
	})
}

// ── Phase 1: Date Axis ──
// Balance, growth and stress must cover the requested range one record per
// day in ascending order. VPD analysis only covers telemetry-sample days,
// so it is checked as an ascending subset of the range.

func validateAxis(r *domain.Report, dr domain.DateRange) *phase {
	p := &phase{name: "Phase 1: Date Axis"}

	full := map[string][]time.Time{
		"waterBalance": datesOf(len(r.WaterBalance), func(i int) time.Time { return r.WaterBalance[i].Date }),
		"cropGrowth":   datesOf(len(r.CropGrowth), func(i int) time.Time { return r.CropGrowth[i].Date }),
		"yieldStress":  datesOf(len(r.YieldStress), func(i int) time.Time { return r.YieldStress[i].Date }),
	}

	want := dr.Days()
	for name, dates := range full {
		if len(dates) != len(want) {
			p.errorf("%s: %d records, expected %d", name, len(dates), len(want))
			continue
		}
		for i, d := range dates {
			if !d.Equal(want[i]) {
				p.errorf("%s record %d: date %s, expected %s", name, i, domain.DayKey(d), domain.DayKey(want[i]))
			}
		}
	}

	inRange := map[string]bool{}
	for _, d := range want {
		inRange[domain.DayKey(d)] = true
	}
	var prev time.Time
	for i := range r.VPDAnalysis {
		d := r.VPDAnalysis[i].Date
		if !inRange[domain.DayKey(d)] {
			p.errorf("vpdAnalysis record %d: date %s outside requested range", i, domain.DayKey(d))
		}
		if i > 0 && !d.After(prev) {
			p.errorf("vpdAnalysis record %d: date %s not ascending", i, domain.DayKey(d))
		}
		prev = d
	}
	return p
}

func datesOf(n int, at func(int) time.Time) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = at(i)
	}
	return dates
}

// ── Phase 2: Water Balance Identity ──
// Value must equal P + I - ET - DS exactly, with ET = ETc + Runoff, and
// every component must be finite.

func validateBalanceIdentity(r *domain.Report) *phase {
	p := &phase{name: "Phase 2: Water Balance Identity"}

	for i := range r.WaterBalance {
		rec := &r.WaterBalance[i]
		key := domain.DayKey(rec.Date)

		for name, v := range map[string]float64{
			"value": rec.Value, "et0": rec.ET0, "etc": rec.ETc,
			"precipitation": rec.Precipitation, "irrigation": rec.Irrigation,
			"runoff": rec.Runoff, "deltaS": rec.DeltaS, "vpd": rec.VPD,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				p.errorf("%s: %s is not finite (%g)", key, name, v)
			}
		}

		c := rec.Components
		if !floatEq(c.ET, rec.ETc+rec.Runoff) {
			p.errorf("%s: components.et %g != etc %g + runoff %g", key, c.ET, rec.ETc, rec.Runoff)
		}
		if !floatEq(rec.Value, c.P+c.I-c.ET-c.DS) {
			p.errorf("%s: value %g != P %g + I %g - ET %g - DS %g", key, rec.Value, c.P, c.I, c.ET, c.DS)
		}
		if rec.Runoff < 0 {
			p.errorf("%s: negative runoff %g", key, rec.Runoff)
		}
		if rec.Runoff > rec.Precipitation {
			p.errorf("%s: runoff %g exceeds precipitation %g", key, rec.Runoff, rec.Precipitation)
		}
	}
	return p
}

// ── Phase 3: Physics Ranges ──
// Stress factors live in [0, 1], Kc in [0, KcMax], LAI in [0, LAIMax],
// yield impact in [0, MaxYieldImpactPct], accumulated GDD is monotone, and
// combined stress is the product of its factors.

func validatePhysicsRanges(r *domain.Report, cal domain.Calibration) *phase {
	p := &phase{name: "Phase 3: Physics Ranges"}

	for i := range r.VPDAnalysis {
		rec := &r.VPDAnalysis[i]
		key := domain.DayKey(rec.Date)
		if rec.VPD < 0 {
			p.errorf("%s: negative vpd %g", key, rec.VPD)
		}
		if rec.StressFactor < 0 || rec.StressFactor > 1 {
			p.errorf("%s: vpd stress factor %g outside [0, 1]", key, rec.StressFactor)
		}
	}

	prevGDD := 0.0
	for i := range r.CropGrowth {
		rec := &r.CropGrowth[i]
		key := domain.DayKey(rec.Date)
		if rec.GDD < 0 {
			p.errorf("%s: negative gdd %g", key, rec.GDD)
		}
		if rec.AccumulatedGDD < prevGDD {
			p.errorf("%s: accumulated gdd %g dropped below %g", key, rec.AccumulatedGDD, prevGDD)
		}
		prevGDD = rec.AccumulatedGDD
		if rec.LAI < 0 || rec.LAI > cal.LAIMax {
			p.errorf("%s: lai %g outside [0, %g]", key, rec.LAI, cal.LAIMax)
		}
		if rec.Kc < 0 || rec.Kc > cal.KcMax {
			p.errorf("%s: kc %g outside [0, %g]", key, rec.Kc, cal.KcMax)
		}
		if rec.GrowthStage == "" {
			p.errorf("%s: empty growth stage", key)
		}
	}

	for i := range r.YieldStress {
		rec := &r.YieldStress[i]
		key := domain.DayKey(rec.Date)
		for name, v := range map[string]float64{
			"vpdStress": rec.VPDStress, "waterStress": rec.WaterStress, "combinedStress": rec.CombinedStress,
		} {
			if v < 0 || v > 1 {
				p.errorf("%s: %s %g outside [0, 1]", key, name, v)
			}
		}
		if !floatEq(rec.CombinedStress, clampUnit(rec.VPDStress*rec.WaterStress)) {
			p.errorf("%s: combined %g != vpd %g * water %g", key, rec.CombinedStress, rec.VPDStress, rec.WaterStress)
		}
		if rec.YieldImpact < 0 || rec.YieldImpact > cal.MaxYieldImpactPct {
			p.errorf("%s: yield impact %g outside [0, %g]", key, rec.YieldImpact, cal.MaxYieldImpactPct)
		}
	}
	return p
}

// ── Phase 4: Summary Consistency ──
// Summary aggregates must agree with the daily records they summarize.

func validateSummary(r *domain.Report) *phase {
	p := &phase{name: "Phase 4: Summary Consistency"}
	s := r.Summary

	var totalBalance, totalPrecip, totalET float64
	for i := range r.WaterBalance {
		totalBalance += r.WaterBalance[i].Value
		totalPrecip += r.WaterBalance[i].Precipitation
		totalET += r.WaterBalance[i].ETc
	}
	if !floatEqLoose(s.TotalWaterBalance, totalBalance) {
		p.errorf("totalWaterBalance %g != sum of daily values %g", s.TotalWaterBalance, totalBalance)
	}
	if !floatEqLoose(s.TotalPrecipitation, totalPrecip) {
		p.errorf("totalPrecipitation %g != sum of daily values %g", s.TotalPrecipitation, totalPrecip)
	}
	if !floatEqLoose(s.TotalET, totalET) {
		p.errorf("totalET %g != sum of daily values %g", s.TotalET, totalET)
	}

	if n := len(r.WaterBalance); n > 0 {
		if !floatEqLoose(s.AverageWaterBalance, totalBalance/float64(n)) {
			p.errorf("averageWaterBalance %g != total/%d", s.AverageWaterBalance, n)
		}
	}

	if len(r.CropGrowth) > 0 {
		last := r.CropGrowth[len(r.CropGrowth)-1]
		if s.CurrentGrowthStage != last.GrowthStage {
			p.errorf("currentGrowthStage %q != last record stage %q", s.CurrentGrowthStage, last.GrowthStage)
		}
		if !floatEqLoose(s.AccumulatedGDD, last.AccumulatedGDD) {
			p.errorf("accumulatedGDD %g != last record %g", s.AccumulatedGDD, last.AccumulatedGDD)
		}
	}

	if len(r.Recommendations) == 0 {
		p.errorf("no recommendations produced")
	}
	if r.GeneratedAt.IsZero() {
		p.errorf("generatedAt is zero")
	}
	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// floatEqLoose tolerates the rounding drift of summed aggregates.
func floatEqLoose(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
