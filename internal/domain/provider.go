package domain

import "context"

// Satellite dataset identifiers understood by series providers.
const (
	DatasetNDVI         = "ndvi"
	DatasetRainfall     = "rainfall"
	DatasetET           = "et"
	DatasetSoilMoisture = "soil_moisture"
)

// Datasets lists every satellite dataset the analyzer fetches.
var Datasets = []string{DatasetNDVI, DatasetRainfall, DatasetET, DatasetSoilMoisture}

// SeriesProvider fetches one satellite-derived daily series for a field
// location and date range. The core never performs I/O itself; providers
// are external collaborators and a failed fetch degrades to an empty
// series upstream of the computation.
type SeriesProvider interface {
	FetchSeries(ctx context.Context, dataset string, geo Geo, r DateRange) (TimeSeries, error)
}
