package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaturationVaporPressure(t *testing.T) {
	tests := []struct {
		name  string
		tempC float64
		want  float64
	}{
		{"freezing", 0, 0.6108},
		{"reference 25C", 25, 3.167},
		{"hot 35C", 35, 5.622},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SaturationVaporPressure(tt.tempC), 0.01)
		})
	}
}

func TestVaporPressureDeficit(t *testing.T) {
	t.Run("reference 25C at 60 percent", func(t *testing.T) {
		vpd := VaporPressureDeficit(25, 60)
		assert.InDelta(t, 1.267, vpd, 0.01)
	})

	t.Run("saturated air has zero deficit", func(t *testing.T) {
		assert.InDelta(t, 0, VaporPressureDeficit(25, 100), 1e-9)
	})

	t.Run("deficit grows as humidity drops", func(t *testing.T) {
		assert.Greater(t, VaporPressureDeficit(25, 30), VaporPressureDeficit(25, 60))
	})
}

func TestKcFromNDVI(t *testing.T) {
	c := DefaultCalibration()

	tests := []struct {
		name string
		ndvi float64
		want float64
	}{
		{"bare soil at band floor", 0.2, 0},
		{"below band clamps to zero", -0.5, 0},
		{"mid band", 0.5, 0.6},
		{"band ceiling", 0.8, 1.2},
		{"above band clamps to kc max", 0.95, 1.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.KcFromNDVI(tt.ndvi), 1e-9)
		})
	}

	t.Run("always within bounds", func(t *testing.T) {
		for ndvi := -1.0; ndvi <= 1.0; ndvi += 0.05 {
			kc := c.KcFromNDVI(ndvi)
			assert.GreaterOrEqual(t, kc, 0.0)
			assert.LessOrEqual(t, kc, c.KcMax)
		}
	})
}

func TestSoilMoistureDeltas(t *testing.T) {
	t.Run("one point per consecutive pair, first date omitted", func(t *testing.T) {
		deltas := SoilMoistureDeltas(NewTimeSeries(
			Point{Date: day(2024, 6, 1), Value: 30},
			Point{Date: day(2024, 6, 2), Value: 32},
			Point{Date: day(2024, 6, 3), Value: 29},
		))

		require.Equal(t, 2, deltas.Len())
		assert.False(t, deltas.Has(day(2024, 6, 1)))

		v, ok := deltas.At(day(2024, 6, 2))
		require.True(t, ok)
		assert.InDelta(t, 2, v, 1e-9)

		v, ok = deltas.At(day(2024, 6, 3))
		require.True(t, ok)
		assert.InDelta(t, -3, v, 1e-9)
	})

	t.Run("short series yields empty", func(t *testing.T) {
		assert.True(t, SoilMoistureDeltas(TimeSeries{}).Empty())
		assert.True(t, SoilMoistureDeltas(NewTimeSeries(Point{Date: day(2024, 6, 1), Value: 30})).Empty())
	})
}

func TestGrowingDegreeDays(t *testing.T) {
	c := DefaultCalibration()

	tests := []struct {
		name       string
		tMax, tMin float64
		want       float64
	}{
		{"warm day", 30, 20, 15},
		{"mean at base temp", 12, 8, 0},
		{"cold day floors at zero", 8, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.GrowingDegreeDays(tt.tMax, tt.tMin), 1e-9)
		})
	}
}

func TestEstimateReferenceET(t *testing.T) {
	c := DefaultCalibration()

	assert.InDelta(t, 2.4, c.EstimateReferenceET(1.2), 1e-9)
	assert.Equal(t, 0.0, c.EstimateReferenceET(-1))
	assert.Equal(t, c.ET0Max, c.EstimateReferenceET(100))
}

func TestEstimateRunoff(t *testing.T) {
	t.Run("no rain no runoff", func(t *testing.T) {
		assert.Equal(t, 0.0, EstimateRunoff(0, 75))
	})

	t.Run("curve number zero disables the estimate", func(t *testing.T) {
		assert.Equal(t, 0.0, EstimateRunoff(50, 0))
	})

	t.Run("light rain below initial abstraction", func(t *testing.T) {
		// CN 75: S = 84.67mm, Ia = 16.93mm.
		assert.Equal(t, 0.0, EstimateRunoff(10, 75))
	})

	t.Run("heavy rain produces runoff below total", func(t *testing.T) {
		q := EstimateRunoff(80, 75)
		assert.Greater(t, q, 0.0)
		assert.Less(t, q, 80.0)
	})

	t.Run("runoff grows with curve number", func(t *testing.T) {
		assert.Greater(t, EstimateRunoff(80, 90), EstimateRunoff(80, 75))
	})
}

func TestLeafAreaIndex(t *testing.T) {
	c := DefaultCalibration()

	t.Run("bounded by lai max", func(t *testing.T) {
		for _, gdd := range []float64{0, 400, 800, 1600, 5000} {
			for _, kc := range []float64{0, 0.6, c.KcMax} {
				lai := c.LeafAreaIndex(gdd, kc)
				assert.GreaterOrEqual(t, lai, 0.0)
				assert.LessOrEqual(t, lai, c.LAIMax)
			}
		}
	})

	t.Run("monotone in accumulated heat", func(t *testing.T) {
		prev := -1.0
		for gdd := 0.0; gdd <= 2000; gdd += 100 {
			lai := c.LeafAreaIndex(gdd, 0.8)
			assert.GreaterOrEqual(t, lai, prev)
			prev = lai
		}
	})

	t.Run("denser canopy at same heat", func(t *testing.T) {
		assert.Greater(t, c.LeafAreaIndex(800, 1.0), c.LeafAreaIndex(800, 0.4))
	})
}

func TestStageForGDD(t *testing.T) {
	c := DefaultCalibration()

	tests := []struct {
		gdd  float64
		want string
	}{
		{0, "Transplant/Establishment"},
		{199, "Transplant/Establishment"},
		{200, "Vegetative Growth"},
		{500, "Rapid Growth"},
		{900, "Topping/Flowering"},
		{1200, "Maturation"},
		{1500, "Harvest Ready"},
		{9999, "Harvest Ready"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, c.StageForGDD(tt.gdd))
		})
	}
}
