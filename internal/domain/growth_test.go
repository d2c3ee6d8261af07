package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeCropGrowth(t *testing.T) {
	c := DefaultCalibration()

	t.Run("gdd accumulates from daily extremes", func(t *testing.T) {
		r, err := NewDateRange(day(2024, 6, 1), day(2024, 6, 10))
		require.NoError(t, err)

		var maxPoints, minPoints []Point
		for _, d := range r.Days() {
			maxPoints = append(maxPoints, Point{Date: d, Value: 30})
			minPoints = append(minPoints, Point{Date: d, Value: 20})
		}

		records, err := c.ComposeCropGrowth(CropGrowthInput{
			Range:   r,
			TempMax: NewTimeSeries(maxPoints...),
			TempMin: NewTimeSeries(minPoints...),
		})
		require.NoError(t, err)
		require.Len(t, records, 10)

		// Base temp 10, mean 25: 15 GDD per day.
		for i, rec := range records {
			assert.InDelta(t, 15, rec.GDD, 1e-9)
			assert.InDelta(t, 15*float64(i+1), rec.AccumulatedGDD, 1e-9)
		}
		assert.InDelta(t, 150, records[9].AccumulatedGDD, 1e-9)
	})

	t.Run("accumulation is monotone and stages advance in order", func(t *testing.T) {
		r, err := NewDateRange(day(2024, 5, 1), day(2024, 8, 31))
		require.NoError(t, err)

		var temps []Point
		for _, d := range r.Days() {
			temps = append(temps, Point{Date: d, Value: 26})
		}

		records, err := c.ComposeCropGrowth(CropGrowthInput{
			Range:       r,
			Temperature: NewTimeSeries(temps...),
		})
		require.NoError(t, err)
		require.NotEmpty(t, records)

		stageIndex := func(name string) int {
			for i, s := range c.Stages {
				if s.Name == name {
					return i
				}
			}
			return -1
		}

		prevGDD := 0.0
		prevStage := 0
		for _, rec := range records {
			assert.GreaterOrEqual(t, rec.AccumulatedGDD, prevGDD)
			prevGDD = rec.AccumulatedGDD

			idx := stageIndex(rec.GrowthStage)
			require.GreaterOrEqual(t, idx, 0, "unknown stage %q", rec.GrowthStage)
			assert.GreaterOrEqual(t, idx, prevStage)
			prevStage = idx
		}

		assert.Equal(t, "Transplant/Establishment", records[0].GrowthStage)
		// 16 GDD/day over 123 days reaches the late-season stages.
		assert.Equal(t, "Harvest Ready", records[len(records)-1].GrowthStage)
	})

	t.Run("lai stays bounded and non-decreasing under steady heat", func(t *testing.T) {
		r, err := NewDateRange(day(2024, 5, 1), day(2024, 9, 30))
		require.NoError(t, err)

		var temps []Point
		for _, d := range r.Days() {
			temps = append(temps, Point{Date: d, Value: 28})
		}

		records, err := c.ComposeCropGrowth(CropGrowthInput{
			Range:       r,
			Temperature: NewTimeSeries(temps...),
		})
		require.NoError(t, err)

		prev := 0.0
		for _, rec := range records {
			assert.GreaterOrEqual(t, rec.LAI, 0.0)
			assert.LessOrEqual(t, rec.LAI, c.LAIMax)
			assert.GreaterOrEqual(t, rec.LAI, prev)
			prev = rec.LAI
		}
	})

	t.Run("ndvi sample overrides the canopy estimate", func(t *testing.T) {
		r, err := NewDateRange(day(2024, 6, 1), day(2024, 6, 2))
		require.NoError(t, err)

		records, err := c.ComposeCropGrowth(CropGrowthInput{
			Range: r,
			NDVI:  NewTimeSeries(Point{Date: day(2024, 6, 1), Value: 0.5}),
		})
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.InDelta(t, 0.6, records[0].Kc, 1e-9)
		// Day two has no sample: the heat-response estimate applies.
		assert.GreaterOrEqual(t, records[1].Kc, 0.3)
		assert.LessOrEqual(t, records[1].Kc, 1.0)
	})

	t.Run("mean temperature fallback spreads extremes", func(t *testing.T) {
		r, err := NewDateRange(day(2024, 6, 1), day(2024, 6, 1))
		require.NoError(t, err)

		records, err := c.ComposeCropGrowth(CropGrowthInput{
			Range:       r,
			Temperature: NewTimeSeries(Point{Date: day(2024, 6, 1), Value: 22}),
		})
		require.NoError(t, err)
		require.Len(t, records, 1)

		// Extremes 27/17, mean 22, base 10.
		assert.InDelta(t, 12, records[0].GDD, 1e-9)
	})

	t.Run("no temperature at all uses the calibrated default", func(t *testing.T) {
		r, err := NewDateRange(day(2024, 6, 1), day(2024, 6, 1))
		require.NoError(t, err)

		records, err := c.ComposeCropGrowth(CropGrowthInput{Range: r})
		require.NoError(t, err)
		require.Len(t, records, 1)

		// Default mean 25, base 10.
		assert.InDelta(t, 15, records[0].GDD, 1e-9)
	})

	t.Run("degenerate calibration is fatal", func(t *testing.T) {
		bad := c
		bad.Stages = nil

		r, err := NewDateRange(day(2024, 6, 1), day(2024, 6, 1))
		require.NoError(t, err)

		_, err = bad.ComposeCropGrowth(CropGrowthInput{Range: r})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadCalibration)
	})
}

func TestDailyExtremesPreferTelemetry(t *testing.T) {
	c := DefaultCalibration()
	d := day(2024, 6, 1)

	in := CropGrowthInput{
		Temperature: NewTimeSeries(Point{Date: d, Value: 10}),
		TempMax:     NewTimeSeries(Point{Date: d, Value: 31}),
		TempMin:     NewTimeSeries(Point{Date: d, Value: 19}),
	}

	tMax, tMin := c.dailyExtremes(in, d)
	assert.Equal(t, 31.0, tMax)
	assert.Equal(t, 19.0, tMin)

	// One missing extreme falls back to the mean spread entirely.
	in.TempMin = TimeSeries{}
	tMax, tMin = c.dailyExtremes(in, d)
	assert.Equal(t, 15.0, tMax)
	assert.Equal(t, 5.0, tMin)
}
