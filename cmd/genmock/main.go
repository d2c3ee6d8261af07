// Command genmock generates a deterministic season of synthetic field
// telemetry for the ingest and analysis test suites. It runs every payload
// through the actual telemetry parser so the fixture matches real pipeline
// behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/season_telemetry.json \
//	  -field field-7 -start 2024-04-01 -days 120 -seed 42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/field-physics-service/internal/domain"
)

// rawPayload mirrors the wire shape the field gateways publish.
type rawPayload struct {
	SensorID     string   `json:"sensor_id"`
	FieldID      string   `json:"field_id"`
	Timestamp    string   `json:"timestamp"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty"`
	SoilMoisture *float64 `json:"soil_moisture,omitempty"`
	IrrigationMM *float64 `json:"irrigation_mm,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the telemetry JSON fixture")
	fieldID := flag.String("field", "field-7", "field identifier stamped on every reading")
	start := flag.String("start", "2024-04-01", "season start date (YYYY-MM-DD)")
	days := flag.Int("days", 120, "season length in days")
	sensors := flag.Int("sensors", 3, "number of sensors per field")
	seed := flag.Int64("seed", 42, "PRNG seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	startDay, err := domain.ParseDay(*start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	payloads := generateSeason(*fieldID, startDay, *days, *sensors, rand.New(rand.NewSource(*seed)))
	log.Printf("generated %d readings over %d days", len(payloads), *days)

	readings, clamps, err := validate(payloads)
	if err != nil {
		return err
	}

	if err := writeJSON(*out, payloads); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	printStats(readings, clamps)
	return nil
}

// generateSeason produces four readings per sensor per day. Temperature
// follows a seasonal curve plus a diurnal swing, humidity moves opposite
// the diurnal swing, and soil moisture drains between periodic irrigation
// events reported on the midday reading.
func generateSeason(fieldID string, start time.Time, days, sensors int, rng *rand.Rand) []rawPayload {
	var payloads []rawPayload //nolint:prealloc // size depends on flags
	moisture := 35.0

	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		seasonal := 18.0 + 10.0*math.Sin(float64(d)/float64(days)*math.Pi)

		irrigated := d%4 == 3
		if irrigated {
			moisture = math.Min(45, moisture+6)
		}
		moisture = math.Max(12, moisture-(0.8+rng.Float64()*0.6))

		for s := 0; s < sensors; s++ {
			sensorID := fmt.Sprintf("%s-s%02d", fieldID, s+1)
			for _, hour := range []int{0, 6, 12, 18} {
				diurnal := 6.0 * math.Sin((float64(hour)-9.0)/24.0*2*math.Pi)
				temp := seasonal + diurnal + rng.NormFloat64()*0.8
				hum := clampF(65-2.5*diurnal+rng.NormFloat64()*4, 20, 100)
				moist := clampF(moisture+rng.NormFloat64()*1.5, 0, 100)

				p := rawPayload{
					SensorID:     sensorID,
					FieldID:      fieldID,
					Timestamp:    day.Add(time.Duration(hour) * time.Hour).Format(time.RFC3339),
					Temperature:  &temp,
					Humidity:     &hum,
					SoilMoisture: &moist,
				}
				if irrigated && hour == 12 && s == 0 {
					mm := 8.0
					p.IrrigationMM = &mm
				}
				payloads = append(payloads, p)
			}
		}
	}
	return payloads
}

// validate runs every payload through the real parser, matching what the
// ingest loop does with consumed messages.
func validate(payloads []rawPayload) ([]domain.SensorReading, int, error) {
	readings := make([]domain.SensorReading, 0, len(payloads))
	totalClamps := 0
	for i, p := range payloads {
		value, err := json.Marshal(p)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal payload %d: %w", i, err)
		}
		reading, clamps, err := domain.ParseRawReading(domain.RawEvent{Value: value})
		if err != nil {
			return nil, 0, fmt.Errorf("payload %d rejected: %w", i, err)
		}
		readings = append(readings, reading)
		totalClamps += clamps
	}
	return readings, totalClamps, nil
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(readings []domain.SensorReading, clamps int) {
	var tempMin, tempMax = math.Inf(1), math.Inf(-1)
	var irrigationTotal float64
	sensorDays := map[string]struct{}{}

	for i := range readings {
		r := &readings[i]
		if r.Temperature != nil {
			tempMin = math.Min(tempMin, *r.Temperature)
			tempMax = math.Max(tempMax, *r.Temperature)
		}
		if r.IrrigationMM != nil {
			irrigationTotal += *r.IrrigationMM
		}
		sensorDays[r.SensorID+":"+domain.DayKey(r.Time)] = struct{}{}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total readings: %d\n", len(readings))
	fmt.Printf("Clamped measurements: %d\n", clamps)
	fmt.Printf("Sensor-days: %d\n", len(sensorDays))
	fmt.Printf("Temperature range: %.1f to %.1f\n", tempMin, tempMax)
	fmt.Printf("Irrigation total: %.1f mm\n", irrigationTotal)
}
