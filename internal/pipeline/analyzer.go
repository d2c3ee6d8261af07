package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/field-physics-service/internal/domain"
	"github.com/couchcryptid/field-physics-service/internal/observability"
)

// alertCombinedStressBelow is the combined-stress level at which a day is
// worth an alert. 0.7 corresponds to a projected yield impact of at least
// 15% at the default yield ceiling.
const alertCombinedStressBelow = 0.7

// ReadingSource serves daily telemetry series aggregated per field.
type ReadingSource interface {
	Series(fieldID, source string) domain.TimeSeries
}

// AlertPublisher fans out stress alerts to downstream consumers.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, alerts []domain.StressAlert) error
}

// AnalysisRequest identifies one analysis invocation: a field location and
// an inclusive date range. FieldID may be empty for single-field
// deployments; it selects the telemetry partition and labels the report.
type AnalysisRequest struct {
	FieldID string
	Geo     domain.Geo
	Range   domain.DateRange
}

// Analyzer runs the full analysis for a request: satellite series from the
// provider, ground telemetry from the store, the physics compositions, and
// the summary. The provider and publisher are optional; a nil provider
// means satellite inputs are absent and the computation degrades to
// telemetry and defaults.
type Analyzer struct {
	provider    domain.SeriesProvider
	readings    ReadingSource
	publisher   AlertPublisher
	calibration domain.Calibration
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewAnalyzer creates an Analyzer. provider and publisher may be nil.
func NewAnalyzer(
	provider domain.SeriesProvider,
	readings ReadingSource,
	publisher AlertPublisher,
	calibration domain.Calibration,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Analyzer {
	return &Analyzer{
		provider:    provider,
		readings:    readings,
		publisher:   publisher,
		calibration: calibration,
		logger:      logger,
		metrics:     metrics,
	}
}

// Analyze produces the full report for a request. Satellite fetch failures
// degrade to empty series and are logged, never fatal: a report from
// partial inputs beats no report during an upstream outage. The only error
// is a degenerate calibration.
func (a *Analyzer) Analyze(ctx context.Context, req AnalysisRequest) (domain.Report, error) {
	start := time.Now()
	a.metrics.AnalysisRequests.Inc()

	sat := a.fetchSatellite(ctx, req)
	tel := a.fetchTelemetry(req)

	balance, err := a.calibration.ComposeWaterBalance(domain.WaterBalanceInput{
		Range:         req.Range,
		NDVI:          sat[domain.DatasetNDVI],
		Precipitation: sat[domain.DatasetRainfall],
		ET:            sat[domain.DatasetET],
		SoilMoisture:  a.soilMoisture(sat, tel),
		Irrigation:    tel[domain.SourceIrrigation],
		Temperature:   tel[domain.SourceTemperature],
		Humidity:      tel[domain.SourceHumidity],
	})
	if err != nil {
		a.metrics.AnalysisErrors.Inc()
		return domain.Report{}, fmt.Errorf("analyze: %w", err)
	}

	growth, err := a.calibration.ComposeCropGrowth(domain.CropGrowthInput{
		Range:       req.Range,
		NDVI:        sat[domain.DatasetNDVI],
		Temperature: tel[domain.SourceTemperature],
		TempMax:     tel[domain.SourceTempMax],
		TempMin:     tel[domain.SourceTempMin],
	})
	if err != nil {
		a.metrics.AnalysisErrors.Inc()
		return domain.Report{}, fmt.Errorf("analyze: %w", err)
	}

	vpd, clamps := a.calibration.ComposeVPDAnalysis(
		tel[domain.SourceTemperature], tel[domain.SourceHumidity])

	stress := a.calibration.CombineYieldStress(balance.Records, vpd)
	summary := domain.Summarize(balance.Records, growth, vpd)

	diag := balance.Diagnostics
	diag.ClampEvents += clamps
	a.observeDiagnostics(diag)

	report := domain.Report{
		FieldID:         req.FieldID,
		Location:        req.Geo,
		Range:           req.Range,
		WaterBalance:    balance.Records,
		CropGrowth:      growth,
		VPDAnalysis:     vpd,
		YieldStress:     stress,
		Summary:         summary,
		Recommendations: a.calibration.Recommendations(summary),
		Diagnostics:     diag,
		GeneratedAt:     domain.Now(),
	}

	a.publishAlerts(ctx, report)
	a.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	return report, nil
}

// fetchSatellite pulls every satellite dataset for the request, degrading
// failed fetches to empty series.
func (a *Analyzer) fetchSatellite(ctx context.Context, req AnalysisRequest) map[string]domain.TimeSeries {
	out := make(map[string]domain.TimeSeries, len(domain.Datasets))
	if a.provider == nil {
		return out
	}
	for _, dataset := range domain.Datasets {
		series, err := a.provider.FetchSeries(ctx, dataset, req.Geo, req.Range)
		if err != nil {
			a.logger.Warn("satellite fetch failed, continuing without",
				"dataset", dataset, "error", err)
			continue
		}
		out[dataset] = series
	}
	return out
}

// fetchTelemetry reads the field's ground series clipped to the request
// range, so stale readings outside the season never influence the report.
func (a *Analyzer) fetchTelemetry(req AnalysisRequest) map[string]domain.TimeSeries {
	sources := []string{
		domain.SourceTemperature,
		domain.SourceTempMax,
		domain.SourceTempMin,
		domain.SourceHumidity,
		domain.SourceSoilMoisture,
		domain.SourceIrrigation,
	}
	out := make(map[string]domain.TimeSeries, len(sources))
	for _, source := range sources {
		out[source] = a.readings.Series(req.FieldID, source).Slice(req.Range)
	}
	return out
}

// soilMoisture prefers ground probes over the satellite product: probes
// sample the actual root zone at the actual field.
func (a *Analyzer) soilMoisture(sat, tel map[string]domain.TimeSeries) domain.TimeSeries {
	if probes := tel[domain.SourceSoilMoisture]; !probes.Empty() {
		return probes
	}
	return sat[domain.DatasetSoilMoisture]
}

func (a *Analyzer) observeDiagnostics(diag domain.Diagnostics) {
	for source, days := range diag.FilledDays {
		a.metrics.GapFilledDays.WithLabelValues(source).Add(float64(days))
	}
	a.metrics.ClampEvents.Add(float64(diag.ClampEvents))
}

// publishAlerts fans out one alert per day whose combined stress crossed
// the alert threshold. Publish failures are logged, not surfaced: the
// report is already complete and alerting is best-effort.
func (a *Analyzer) publishAlerts(ctx context.Context, report domain.Report) {
	if a.publisher == nil {
		return
	}

	var alerts []domain.StressAlert
	for _, s := range report.YieldStress {
		if s.CombinedStress >= alertCombinedStressBelow {
			continue
		}
		alerts = append(alerts, domain.StressAlert{
			FieldID:        report.FieldID,
			Location:       report.Location,
			Date:           s.Date,
			CombinedStress: s.CombinedStress,
			YieldImpact:    s.YieldImpact,
			GrowthStage:    report.Summary.CurrentGrowthStage,
			GeneratedAt:    report.GeneratedAt,
		})
	}
	if len(alerts) == 0 {
		return
	}

	if err := a.publisher.PublishAlerts(ctx, alerts); err != nil {
		a.logger.Warn("alert publish failed", "error", err, "alerts", len(alerts))
		return
	}
	a.metrics.AlertsPublished.Add(float64(len(alerts)))
	a.logger.Info("stress alerts published", "alerts", len(alerts), "field_id", report.FieldID)
}
