// Package earthdata fetches satellite-derived daily series (vegetation
// index, rainfall, ET, soil moisture) from a remote-sensing time series API.
package earthdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/field-physics-service/internal/domain"
	"github.com/couchcryptid/field-physics-service/internal/observability"
)

// Client implements domain.SeriesProvider against the point time series
// endpoint of the data service.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a satellite data client.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchSeries retrieves the named dataset for a point location over an
// inclusive date range. Samples the upstream could not produce (cloud cover,
// revisit gaps) are simply absent from the result; an empty series with a
// nil error means the upstream had no data, which callers treat as a
// degraded input rather than a failure.
func (c *Client) FetchSeries(ctx context.Context, dataset string, geo domain.Geo, r domain.DateRange) (domain.TimeSeries, error) {
	u := fmt.Sprintf("%s/timeseries/%s", c.baseURL, url.PathEscape(dataset))
	params := url.Values{
		"lat":   {fmt.Sprintf("%.6f", geo.Lat)},
		"lng":   {fmt.Sprintf("%.6f", geo.Lng)},
		"start": {domain.DayKey(r.Start)},
		"end":   {domain.DayKey(r.End)},
	}

	start := time.Now()
	series, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.ProviderAPIDuration.WithLabelValues(dataset).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.ProviderRequests.WithLabelValues(dataset, "error").Inc()
		return domain.TimeSeries{}, fmt.Errorf("fetch %s series: %w", dataset, err)
	case series.Empty():
		c.metrics.ProviderRequests.WithLabelValues(dataset, "empty").Inc()
	default:
		c.metrics.ProviderRequests.WithLabelValues(dataset, "success").Inc()
	}
	return series, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.TimeSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.TimeSeries{}, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.TimeSeries{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.TimeSeries{}, fmt.Errorf("data API error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.TimeSeries{}, fmt.Errorf("decode response: %w", err)
	}

	points := make([]domain.Point, 0, len(payload.Points))
	for _, s := range payload.Points {
		date, err := domain.ParseDay(s.Date)
		if err != nil {
			c.logger.Warn("skipping sample with malformed date", "date", s.Date)
			continue
		}
		points = append(points, domain.Point{Date: date, Value: s.Value})
	}
	return domain.NewTimeSeries(points...), nil
}

// Data API response types.

type response struct {
	Points []sample `json:"points"`
}

type sample struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Value float64 `json:"value"`
}
