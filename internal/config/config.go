// Package config reads service settings from environment variables,
// applying defaults where unset and rejecting values that would misconfigure
// the service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/field-physics-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaAlertTopic  string
	KafkaGroupID     string
	IngestEnabled    bool
	AlertsEnabled    bool
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize     int
	RetentionDays int

	// Satellite data provider configuration.
	ProviderBaseURL   string
	ProviderToken     string
	ProviderEnabled   bool
	ProviderTimeout   time.Duration
	ProviderCacheSize int

	// Crop calibration overrides. Nil means "keep the crop default".
	NDVIMin           *float64
	NDVIMax           *float64
	BaseTemp          *float64
	VPDLow            *float64
	VPDHigh           *float64
	MaxYieldImpactPct *float64
	CurveNumber       *float64
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBoundedInt("BATCH_SIZE", 50, 1, 1000)
	if err != nil {
		return nil, err
	}

	retentionDays, err := parseBoundedInt("RETENTION_DAYS", 365, 1, 3650)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseBoundedInt("PROVIDER_CACHE_SIZE", 256, 1, 100000)
	if err != nil {
		return nil, err
	}

	providerToken := os.Getenv("PROVIDER_TOKEN")
	providerEnabled := providerToken != ""
	if v := os.Getenv("PROVIDER_ENABLED"); v != "" {
		providerEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "field-telemetry"),
		KafkaAlertTopic:  envOrDefault("KAFKA_ALERT_TOPIC", "field-stress-alerts"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "field-physics"),
		IngestEnabled:    envOrDefault("INGEST_ENABLED", "true") == "true",
		AlertsEnabled:    os.Getenv("ALERTS_ENABLED") == "true",
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		BatchSize:        batchSize,
		RetentionDays:    retentionDays,

		ProviderBaseURL:   envOrDefault("PROVIDER_BASE_URL", "https://appeears.earthdatacloud.nasa.gov/api"),
		ProviderToken:     providerToken,
		ProviderEnabled:   providerEnabled,
		ProviderTimeout:   providerTimeout,
		ProviderCacheSize: cacheSize,
	}

	for _, o := range []struct {
		name string
		dst  **float64
	}{
		{"NDVI_MIN", &cfg.NDVIMin},
		{"NDVI_MAX", &cfg.NDVIMax},
		{"BASE_TEMP", &cfg.BaseTemp},
		{"VPD_LOW", &cfg.VPDLow},
		{"VPD_HIGH", &cfg.VPDHigh},
		{"MAX_YIELD_IMPACT_PCT", &cfg.MaxYieldImpactPct},
		{"CURVE_NUMBER", &cfg.CurveNumber},
	} {
		v, err := parseOptionalFloat(o.name)
		if err != nil {
			return nil, err
		}
		*o.dst = v
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.IngestEnabled && cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required when ingest is enabled")
	}
	if cfg.AlertsEnabled && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when alerts are enabled")
	}
	if cfg.ProviderEnabled && cfg.ProviderToken == "" {
		return nil, errors.New("PROVIDER_ENABLED is true but PROVIDER_TOKEN is not set")
	}

	return cfg, nil
}

// Calibration applies the configured overrides on top of the crop defaults.
// The result is validated so a bad override fails startup, not the first
// analysis.
func (c *Config) Calibration() (domain.Calibration, error) {
	cal := domain.DefaultCalibration()

	for _, o := range []struct {
		src *float64
		dst *float64
	}{
		{c.NDVIMin, &cal.NDVIMin},
		{c.NDVIMax, &cal.NDVIMax},
		{c.BaseTemp, &cal.BaseTemp},
		{c.VPDLow, &cal.VPDLow},
		{c.VPDHigh, &cal.VPDHigh},
		{c.MaxYieldImpactPct, &cal.MaxYieldImpactPct},
		{c.CurveNumber, &cal.CurveNumber},
	} {
		if o.src != nil {
			*o.dst = *o.src
		}
	}

	if err := cal.Validate(); err != nil {
		return domain.Calibration{}, fmt.Errorf("calibration overrides: %w", err)
	}
	return cal, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseBoundedInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, lo, hi)
	}
	return n, nil
}

func parseOptionalFloat(key string) (*float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: must be a number", key)
	}
	return &f, nil
}
