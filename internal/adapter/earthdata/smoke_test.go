//go:build earthdata

package earthdata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/field-physics-service/internal/domain"
	"github.com/couchcryptid/field-physics-service/internal/observability"
)

// These tests hit the real data API and require valid PROVIDER_BASE_URL and
// PROVIDER_TOKEN env vars.
// Run with: go test -tags=earthdata ./internal/adapter/earthdata/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	baseURL := os.Getenv("PROVIDER_BASE_URL")
	token := os.Getenv("PROVIDER_TOKEN")
	if baseURL == "" || token == "" {
		t.Fatal("PROVIDER_BASE_URL and PROVIDER_TOKEN must be set to run smoke tests")
	}
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func smokeRange(t *testing.T) domain.DateRange {
	t.Helper()
	end := time.Now().AddDate(0, 0, -7)
	r, err := domain.NewDateRange(end.AddDate(0, -1, 0), end)
	require.NoError(t, err)
	return r
}

func TestSmoke_FetchNDVI(t *testing.T) {
	c := smokeClient(t)

	// Research farm near Durham, NC.
	series, err := c.FetchSeries(context.Background(), domain.DatasetNDVI, domain.Geo{Lat: 36.0, Lng: -78.9}, smokeRange(t))
	require.NoError(t, err)

	for _, p := range series.Points() {
		assert.GreaterOrEqual(t, p.Value, -1.0)
		assert.LessOrEqual(t, p.Value, 1.0)
	}
}

func TestSmoke_AllDatasets(t *testing.T) {
	c := smokeClient(t)
	geo := domain.Geo{Lat: 36.0, Lng: -78.9}

	// Each dataset should respond without error; emptiness is acceptable
	// (revisit gaps, processing latency).
	for _, dataset := range domain.Datasets {
		_, err := c.FetchSeries(context.Background(), dataset, geo, smokeRange(t))
		require.NoError(t, err, "dataset %s", dataset)
	}
}

func TestSmoke_CachedProvider(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedProvider(c, 10, observability.NewMetricsForTesting())
	geo := domain.Geo{Lat: 36.0, Lng: -78.9}

	// First call: cache miss, real API call.
	s1, err := cached.FetchSeries(context.Background(), domain.DatasetRainfall, geo, smokeRange(t))
	require.NoError(t, err)

	// Second call: cache hit when the first returned data.
	s2, err := cached.FetchSeries(context.Background(), domain.DatasetRainfall, geo, smokeRange(t))
	require.NoError(t, err)
	assert.Equal(t, s1.Points(), s2.Points())
}
