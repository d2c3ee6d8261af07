package domain

import (
	"context"
	"time"
)

// Geo is a WGS-84 latitude/longitude coordinate pair for a field location.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RawEvent is an unprocessed telemetry message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SensorReading is one parsed telemetry observation. Optional measurements
// are pointers: a nil field means the sensor did not report it, which is
// distinct from a zero reading.
type SensorReading struct {
	SensorID     string    `json:"sensor_id"`
	FieldID      string    `json:"field_id"`
	Time         time.Time `json:"timestamp"`
	Temperature  *float64  `json:"temperature,omitempty"`
	Humidity     *float64  `json:"humidity,omitempty"`
	SoilMoisture *float64  `json:"soil_moisture,omitempty"`
	IrrigationMM *float64  `json:"irrigation_mm,omitempty"`
}

// StressAlert is published when a day's combined stress crosses the alert
// threshold. Alerts are advisory fan-out, not part of the report contract.
type StressAlert struct {
	FieldID        string    `json:"fieldId,omitempty"`
	Location       Geo       `json:"location"`
	Date           time.Time `json:"date"`
	CombinedStress float64   `json:"combinedStress"`
	YieldImpact    float64   `json:"yieldImpact"`
	GrowthStage    string    `json:"growthStage,omitempty"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// Report is the full response of one analysis invocation: every record
// series keyed to the same unified date axis, plus the summary aggregates,
// advisory recommendations, and data-quality diagnostics. Reports are
// created fresh per invocation and never cached by the core.
type Report struct {
	FieldID         string               `json:"fieldId,omitempty"`
	Location        Geo                  `json:"location"`
	Range           DateRange            `json:"dateRange"`
	WaterBalance    []WaterBalanceRecord `json:"waterBalance"`
	CropGrowth      []CropGrowthRecord   `json:"cropGrowth"`
	VPDAnalysis     []VpdAnalysisRecord  `json:"vpdAnalysis"`
	YieldStress     []YieldStressRecord  `json:"yieldStress"`
	Summary         Summary              `json:"summary"`
	Recommendations []string             `json:"recommendations"`
	Diagnostics     Diagnostics          `json:"diagnostics"`
	GeneratedAt     time.Time            `json:"generatedAt"`
}
