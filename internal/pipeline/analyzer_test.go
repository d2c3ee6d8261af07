package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/field-physics-service/internal/domain"
	"github.com/couchcryptid/field-physics-service/internal/pipeline"
)

// --- mocks ---

type fakeProvider struct {
	series map[string]domain.TimeSeries
	errs   map[string]error
	calls  []string
}

func (f *fakeProvider) FetchSeries(_ context.Context, dataset string, _ domain.Geo, _ domain.DateRange) (domain.TimeSeries, error) {
	f.calls = append(f.calls, dataset)
	if err := f.errs[dataset]; err != nil {
		return domain.TimeSeries{}, err
	}
	return f.series[dataset], nil
}

type fakeReadings struct {
	series map[string]domain.TimeSeries
}

func (f *fakeReadings) Series(_, source string) domain.TimeSeries {
	return f.series[source]
}

type capturePublisher struct {
	alerts []domain.StressAlert
	err    error
}

func (c *capturePublisher) PublishAlerts(_ context.Context, alerts []domain.StressAlert) error {
	if c.err != nil {
		return c.err
	}
	c.alerts = append(c.alerts, alerts...)
	return nil
}

// --- helpers ---

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekRange(t *testing.T) domain.DateRange {
	t.Helper()
	r, err := domain.NewDateRange(day(2024, 6, 1), day(2024, 6, 7))
	require.NoError(t, err)
	return r
}

func constantSeries(r domain.DateRange, value float64) domain.TimeSeries {
	days := r.Days()
	points := make([]domain.Point, len(days))
	for i, d := range days {
		points[i] = domain.Point{Date: d, Value: value}
	}
	return domain.NewTimeSeries(points...)
}

func newAnalyzer(provider domain.SeriesProvider, readings pipeline.ReadingSource, publisher pipeline.AlertPublisher) *pipeline.Analyzer {
	return pipeline.NewAnalyzer(provider, readings, publisher,
		domain.DefaultCalibration(), slog.Default(), newTestMetrics())
}

// --- tests ---

func TestAnalyzer_Analyze_FullReport(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	r := weekRange(t)
	provider := &fakeProvider{series: map[string]domain.TimeSeries{
		domain.DatasetNDVI:     constantSeries(r, 0.55),
		domain.DatasetRainfall: constantSeries(r, 6),
		domain.DatasetET:       constantSeries(r, 4),
	}}
	readings := &fakeReadings{series: map[string]domain.TimeSeries{
		domain.SourceTemperature:  constantSeries(r, 25),
		domain.SourceHumidity:     constantSeries(r, 65),
		domain.SourceSoilMoisture: constantSeries(r, 32),
		domain.SourceIrrigation:   constantSeries(r, 2),
	}}

	a := newAnalyzer(provider, readings, nil)
	report, err := a.Analyze(context.Background(), pipeline.AnalysisRequest{
		FieldID: "field-7",
		Geo:     domain.Geo{Lat: 36.1, Lng: -78.9},
		Range:   r,
	})
	require.NoError(t, err)

	assert.Equal(t, "field-7", report.FieldID)
	assert.Equal(t, r, report.Range)
	assert.Equal(t, fakeClock.Now(), report.GeneratedAt)

	require.Len(t, report.WaterBalance, 7)
	require.Len(t, report.CropGrowth, 7)
	require.Len(t, report.VPDAnalysis, 7)
	require.Len(t, report.YieldStress, 7)
	assert.NotEmpty(t, report.Recommendations)

	// All series share the unified date axis.
	for i := range report.WaterBalance {
		assert.Equal(t, report.WaterBalance[i].Date, report.CropGrowth[i].Date)
		assert.Equal(t, report.WaterBalance[i].Date, report.YieldStress[i].Date)
	}

	// The balance identity holds on every record.
	for _, wb := range report.WaterBalance {
		comp := wb.Components
		assert.InDelta(t, wb.Value, comp.P+comp.I-comp.ET-comp.DS, 1e-9)
	}

	// Observed ET present: ET0 comes from the satellite sample.
	assert.Equal(t, 4.0, report.WaterBalance[0].ET0)
	assert.NotEqual(t, "Unknown", report.Summary.CurrentGrowthStage)
}

func TestAnalyzer_Analyze_ProviderFailureDegrades(t *testing.T) {
	r := weekRange(t)
	provider := &fakeProvider{
		series: map[string]domain.TimeSeries{
			domain.DatasetRainfall: constantSeries(r, 5),
		},
		errs: map[string]error{
			domain.DatasetNDVI: errors.New("upstream 503"),
		},
	}
	readings := &fakeReadings{series: map[string]domain.TimeSeries{}}

	a := newAnalyzer(provider, readings, nil)
	report, err := a.Analyze(context.Background(), pipeline.AnalysisRequest{Range: r})
	require.NoError(t, err, "provider failure must not fail the analysis")

	require.Len(t, report.WaterBalance, 7)
	// Missing NDVI means no crop coefficient, so no crop ET.
	for _, wb := range report.WaterBalance {
		assert.Equal(t, 0.0, wb.Kc)
		assert.Equal(t, 0.0, wb.ETc)
		assert.Equal(t, 5.0, wb.Precipitation)
	}
	assert.Equal(t, 7, report.Diagnostics.FilledDays[domain.SourceNDVI])
}

func TestAnalyzer_Analyze_NilProvider(t *testing.T) {
	r := weekRange(t)
	readings := &fakeReadings{series: map[string]domain.TimeSeries{
		domain.SourceTemperature: constantSeries(r, 24),
		domain.SourceHumidity:    constantSeries(r, 70),
	}}

	a := newAnalyzer(nil, readings, nil)
	report, err := a.Analyze(context.Background(), pipeline.AnalysisRequest{Range: r})
	require.NoError(t, err)

	require.Len(t, report.WaterBalance, 7)
	require.Len(t, report.VPDAnalysis, 7)
}

func TestAnalyzer_Analyze_GroundProbesWinOverSatellite(t *testing.T) {
	r := weekRange(t)
	provider := &fakeProvider{series: map[string]domain.TimeSeries{
		domain.DatasetSoilMoisture: constantSeries(r, 50),
	}}
	readings := &fakeReadings{series: map[string]domain.TimeSeries{
		domain.SourceSoilMoisture: domain.NewTimeSeries(
			domain.Point{Date: day(2024, 6, 1), Value: 30},
			domain.Point{Date: day(2024, 6, 2), Value: 34},
		),
	}}

	a := newAnalyzer(provider, readings, nil)
	report, err := a.Analyze(context.Background(), pipeline.AnalysisRequest{Range: r})
	require.NoError(t, err)

	// Probe deltas, not the flat satellite series (which would give zero).
	assert.InDelta(t, 4, report.WaterBalance[1].DeltaS, 1e-9)
}

func TestAnalyzer_Analyze_TelemetryClippedToRange(t *testing.T) {
	r := weekRange(t)
	readings := &fakeReadings{series: map[string]domain.TimeSeries{
		domain.SourceIrrigation: domain.NewTimeSeries(
			domain.Point{Date: day(2024, 5, 1), Value: 99},
			domain.Point{Date: day(2024, 6, 3), Value: 8},
		),
	}}

	a := newAnalyzer(nil, readings, nil)
	report, err := a.Analyze(context.Background(), pipeline.AnalysisRequest{Range: r})
	require.NoError(t, err)

	total := 0.0
	for _, wb := range report.WaterBalance {
		total += wb.Irrigation
	}
	assert.InDelta(t, 8, total, 1e-9, "out-of-range telemetry must not leak in")
}

func TestAnalyzer_Analyze_PublishesStressAlerts(t *testing.T) {
	r := weekRange(t)
	// Hot, dry, no water inputs: high VPD stress and deep deficit.
	readings := &fakeReadings{series: map[string]domain.TimeSeries{
		domain.SourceTemperature: constantSeries(r, 38),
		domain.SourceHumidity:    constantSeries(r, 20),
	}}
	provider := &fakeProvider{series: map[string]domain.TimeSeries{
		domain.DatasetNDVI: constantSeries(r, 0.7),
	}}

	publisher := &capturePublisher{}
	a := newAnalyzer(provider, readings, publisher)

	report, err := a.Analyze(context.Background(), pipeline.AnalysisRequest{FieldID: "field-7", Range: r})
	require.NoError(t, err)

	require.NotEmpty(t, publisher.alerts)
	for _, alert := range publisher.alerts {
		assert.Equal(t, "field-7", alert.FieldID)
		assert.Less(t, alert.CombinedStress, 0.7)
		assert.Greater(t, alert.YieldImpact, 0.0)
	}
	assert.NotEmpty(t, report.YieldStress)
}

func TestAnalyzer_Analyze_PublishFailureNotFatal(t *testing.T) {
	r := weekRange(t)
	readings := &fakeReadings{series: map[string]domain.TimeSeries{
		domain.SourceTemperature: constantSeries(r, 38),
		domain.SourceHumidity:    constantSeries(r, 20),
	}}
	provider := &fakeProvider{series: map[string]domain.TimeSeries{
		domain.DatasetNDVI: constantSeries(r, 0.7),
	}}

	publisher := &capturePublisher{err: errors.New("alert topic unavailable")}
	a := newAnalyzer(provider, readings, publisher)

	_, err := a.Analyze(context.Background(), pipeline.AnalysisRequest{Range: r})
	require.NoError(t, err)
}

func TestAnalyzer_Analyze_BadCalibration(t *testing.T) {
	bad := domain.DefaultCalibration()
	bad.NDVIMax = bad.NDVIMin

	a := pipeline.NewAnalyzer(nil, &fakeReadings{series: map[string]domain.TimeSeries{}}, nil,
		bad, slog.Default(), newTestMetrics())

	_, err := a.Analyze(context.Background(), pipeline.AnalysisRequest{Range: weekRange(t)})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadCalibration)
}
