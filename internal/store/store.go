// Package store holds recent telemetry in memory, aggregated to the daily
// resolution the physics computations consume.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/field-physics-service/internal/domain"
)

// dayAggregate accumulates one field-day of sensor readings. Means are kept
// as running sum/count pairs; irrigation is a volume and sums instead.
type dayAggregate struct {
	tempSum   float64
	tempCount int
	tempMax   float64
	tempMin   float64

	humiditySum   float64
	humidityCount int

	moistureSum   float64
	moistureCount int

	irrigation float64
}

// Store is a thread-safe in-memory daily aggregate of sensor readings,
// keyed by field and day. It implements pipeline.ReadingLoader on the write
// side and serves per-source TimeSeries on the read side.
type Store struct {
	mu     sync.RWMutex
	fields map[string]map[string]*dayAggregate // fieldID -> dayKey -> aggregate
}

// New creates an empty telemetry store.
func New() *Store {
	return &Store{fields: make(map[string]map[string]*dayAggregate)}
}

// LoadBatch folds a batch of parsed readings into the daily aggregates.
// Readings without a field id are grouped under the empty key so
// single-field deployments need no field configuration.
func (s *Store) LoadBatch(_ context.Context, readings []domain.SensorReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range readings {
		s.add(r)
	}
	return nil
}

func (s *Store) add(r domain.SensorReading) {
	days, ok := s.fields[r.FieldID]
	if !ok {
		days = make(map[string]*dayAggregate)
		s.fields[r.FieldID] = days
	}

	key := domain.DayKey(r.Time)
	agg, ok := days[key]
	if !ok {
		agg = &dayAggregate{}
		days[key] = agg
	}

	if r.Temperature != nil {
		t := *r.Temperature
		if agg.tempCount == 0 || t > agg.tempMax {
			agg.tempMax = t
		}
		if agg.tempCount == 0 || t < agg.tempMin {
			agg.tempMin = t
		}
		agg.tempSum += t
		agg.tempCount++
	}
	if r.Humidity != nil {
		agg.humiditySum += *r.Humidity
		agg.humidityCount++
	}
	if r.SoilMoisture != nil {
		agg.moistureSum += *r.SoilMoisture
		agg.moistureCount++
	}
	if r.IrrigationMM != nil {
		agg.irrigation += *r.IrrigationMM
	}
}

// Series materializes the daily series for one field and source. Days
// without any contributing reading for the source are absent, not zero.
// Unknown sources yield an empty series.
func (s *Store) Series(fieldID, source string) domain.TimeSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()

	days, ok := s.fields[fieldID]
	if !ok {
		return domain.TimeSeries{}
	}

	points := make([]domain.Point, 0, len(days))
	for key, agg := range days {
		date, err := domain.ParseDay(key)
		if err != nil {
			continue
		}

		v, ok := aggregateValue(agg, source)
		if !ok {
			continue
		}
		points = append(points, domain.Point{Date: date, Value: v})
	}
	return domain.NewTimeSeries(points...)
}

func aggregateValue(agg *dayAggregate, source string) (float64, bool) {
	switch source {
	case domain.SourceTemperature:
		if agg.tempCount == 0 {
			return 0, false
		}
		return agg.tempSum / float64(agg.tempCount), true
	case domain.SourceTempMax:
		if agg.tempCount == 0 {
			return 0, false
		}
		return agg.tempMax, true
	case domain.SourceTempMin:
		if agg.tempCount == 0 {
			return 0, false
		}
		return agg.tempMin, true
	case domain.SourceHumidity:
		if agg.humidityCount == 0 {
			return 0, false
		}
		return agg.humiditySum / float64(agg.humidityCount), true
	case domain.SourceSoilMoisture:
		if agg.moistureCount == 0 {
			return 0, false
		}
		return agg.moistureSum / float64(agg.moistureCount), true
	case domain.SourceIrrigation:
		if agg.irrigation == 0 {
			return 0, false
		}
		return agg.irrigation, true
	default:
		return 0, false
	}
}

// Fields lists the field ids currently holding data.
func (s *Store) Fields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.fields))
	for id := range s.fields {
		out = append(out, id)
	}
	return out
}

// Prune drops field-days older than the cutoff and returns how many were
// removed. Intended to run periodically against the retention window.
func (s *Store) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := domain.Day(cutoff)
	removed := 0
	for fieldID, days := range s.fields {
		for key := range days {
			date, err := domain.ParseDay(key)
			if err != nil || date.Before(limit) {
				delete(days, key)
				removed++
			}
		}
		if len(days) == 0 {
			delete(s.fields, fieldID)
		}
	}
	return removed
}
