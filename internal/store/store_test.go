package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/field-physics-service/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func reading(fieldID string, t time.Time, temp, humidity, moisture, irrigation *float64) domain.SensorReading {
	return domain.SensorReading{
		SensorID:     "st-1",
		FieldID:      fieldID,
		Time:         t,
		Temperature:  temp,
		Humidity:     humidity,
		SoilMoisture: moisture,
		IrrigationMM: irrigation,
	}
}

func TestStoreAggregation(t *testing.T) {
	ctx := context.Background()
	morning := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	noon := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

	t.Run("temperature mean and extremes per day", func(t *testing.T) {
		s := New()
		require.NoError(t, s.LoadBatch(ctx, []domain.SensorReading{
			reading("f1", morning, ptr(18), nil, nil, nil),
			reading("f1", noon, ptr(30), nil, nil, nil),
			reading("f1", evening, ptr(24), nil, nil, nil),
		}))

		mean := s.Series("f1", domain.SourceTemperature)
		v, ok := mean.At(morning)
		require.True(t, ok)
		assert.InDelta(t, 24, v, 1e-9)

		v, ok = s.Series("f1", domain.SourceTempMax).At(morning)
		require.True(t, ok)
		assert.Equal(t, 30.0, v)

		v, ok = s.Series("f1", domain.SourceTempMin).At(morning)
		require.True(t, ok)
		assert.Equal(t, 18.0, v)
	})

	t.Run("irrigation sums, means average", func(t *testing.T) {
		s := New()
		require.NoError(t, s.LoadBatch(ctx, []domain.SensorReading{
			reading("f1", morning, nil, ptr(70), ptr(30), ptr(3)),
			reading("f1", noon, nil, ptr(50), ptr(34), ptr(5)),
		}))

		v, ok := s.Series("f1", domain.SourceIrrigation).At(morning)
		require.True(t, ok)
		assert.Equal(t, 8.0, v)

		v, ok = s.Series("f1", domain.SourceHumidity).At(morning)
		require.True(t, ok)
		assert.InDelta(t, 60, v, 1e-9)

		v, ok = s.Series("f1", domain.SourceSoilMoisture).At(morning)
		require.True(t, ok)
		assert.InDelta(t, 32, v, 1e-9)
	})

	t.Run("fields are isolated", func(t *testing.T) {
		s := New()
		require.NoError(t, s.LoadBatch(ctx, []domain.SensorReading{
			reading("f1", morning, ptr(20), nil, nil, nil),
			reading("f2", morning, ptr(30), nil, nil, nil),
		}))

		v, ok := s.Series("f1", domain.SourceTemperature).At(morning)
		require.True(t, ok)
		assert.Equal(t, 20.0, v)

		v, ok = s.Series("f2", domain.SourceTemperature).At(morning)
		require.True(t, ok)
		assert.Equal(t, 30.0, v)

		assert.ElementsMatch(t, []string{"f1", "f2"}, s.Fields())
	})

	t.Run("absent measurements leave gaps, not zeros", func(t *testing.T) {
		s := New()
		require.NoError(t, s.LoadBatch(ctx, []domain.SensorReading{
			reading("f1", morning, ptr(20), nil, nil, nil),
		}))

		assert.True(t, s.Series("f1", domain.SourceHumidity).Empty())
		assert.True(t, s.Series("f1", domain.SourceSoilMoisture).Empty())
	})

	t.Run("unknown field or source yields empty series", func(t *testing.T) {
		s := New()
		assert.True(t, s.Series("nope", domain.SourceTemperature).Empty())

		require.NoError(t, s.LoadBatch(ctx, []domain.SensorReading{
			reading("f1", morning, ptr(20), nil, nil, nil),
		}))
		assert.True(t, s.Series("f1", "wind_speed").Empty())
	})

	t.Run("readings span multiple days", func(t *testing.T) {
		s := New()
		nextDay := morning.AddDate(0, 0, 1)
		require.NoError(t, s.LoadBatch(ctx, []domain.SensorReading{
			reading("f1", morning, ptr(20), nil, nil, nil),
			reading("f1", nextDay, ptr(26), nil, nil, nil),
		}))

		series := s.Series("f1", domain.SourceTemperature)
		assert.Equal(t, 2, series.Len())
	})
}

func TestStorePrune(t *testing.T) {
	ctx := context.Background()
	s := New()

	old := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.LoadBatch(ctx, []domain.SensorReading{
		reading("f1", old, ptr(20), nil, nil, nil),
		reading("f1", recent, ptr(24), nil, nil, nil),
		reading("f2", old, ptr(22), nil, nil, nil),
	}))

	removed := s.Prune(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, removed)

	assert.False(t, s.Series("f1", domain.SourceTemperature).Has(old))
	assert.True(t, s.Series("f1", domain.SourceTemperature).Has(recent))

	// f2 lost its only day and is dropped entirely.
	assert.ElementsMatch(t, []string{"f1"}, s.Fields())
}
