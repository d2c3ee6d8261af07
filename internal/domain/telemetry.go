package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// rawReadingRecord is the flat JSON shape the field gateways publish.
// Numeric fields arrive as JSON numbers; Timestamp is RFC 3339 or falls
// back to the message timestamp when absent or malformed.
type rawReadingRecord struct {
	SensorID     string   `json:"sensor_id"`
	FieldID      string   `json:"field_id"`
	Timestamp    string   `json:"timestamp"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	SoilMoisture *float64 `json:"soil_moisture"`
	IrrigationMM *float64 `json:"irrigation_mm"`
}

// Telemetry sanity bounds. Readings outside are clamped, not dropped:
// a saturated sensor still carries signal about which bound it hit.
const (
	telemetryTempMin = -60.0
	telemetryTempMax = 70.0
)

// ParseRawReading deserializes a raw telemetry event into a SensorReading.
// A missing or malformed timestamp falls back to the message timestamp.
// Structurally invalid payloads and readings without a sensor id are
// errors (the pipeline skips and counts them); out-of-range measurements
// are clamped, with the clamp count returned for observability.
func ParseRawReading(raw RawEvent) (SensorReading, int, error) {
	var rec rawReadingRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return SensorReading{}, 0, fmt.Errorf("parse raw reading: %w", err)
	}
	if strings.TrimSpace(rec.SensorID) == "" {
		return SensorReading{}, 0, fmt.Errorf("parse raw reading: missing sensor_id")
	}

	ts := raw.Timestamp
	if rec.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, rec.Timestamp); err == nil {
			ts = parsed
		}
	}

	clamps := 0
	reading := SensorReading{
		SensorID:     rec.SensorID,
		FieldID:      rec.FieldID,
		Time:         ts.UTC(),
		Temperature:  clampPtr(rec.Temperature, telemetryTempMin, telemetryTempMax, &clamps),
		Humidity:     clampPtr(rec.Humidity, 0, 100, &clamps),
		SoilMoisture: clampPtr(rec.SoilMoisture, 0, 100, &clamps),
		IrrigationMM: clampPtr(rec.IrrigationMM, 0, inf, &clamps),
	}
	return reading, clamps, nil
}

func clampPtr(v *float64, lo, hi float64, clamps *int) *float64 {
	if v == nil {
		return nil
	}
	c := clamp(*v, lo, hi)
	if c != *v {
		*clamps++
	}
	return &c
}
