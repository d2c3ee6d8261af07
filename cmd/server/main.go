package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/field-physics-service/internal/adapter/earthdata"
	httpadapter "github.com/couchcryptid/field-physics-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/field-physics-service/internal/adapter/kafka"
	"github.com/couchcryptid/field-physics-service/internal/config"
	"github.com/couchcryptid/field-physics-service/internal/domain"
	"github.com/couchcryptid/field-physics-service/internal/observability"
	"github.com/couchcryptid/field-physics-service/internal/pipeline"
	"github.com/couchcryptid/field-physics-service/internal/store"
)

const pruneInterval = time.Hour

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	calibration, err := cfg.Calibration()
	if err != nil {
		logger.Error("invalid calibration overrides", "error", err)
		os.Exit(1)
	}

	readings := store.New()

	// Satellite provider (feature-flagged via PROVIDER_ENABLED / PROVIDER_TOKEN).
	var provider domain.SeriesProvider
	if cfg.ProviderEnabled {
		client := earthdata.NewClient(cfg.ProviderBaseURL, cfg.ProviderToken, cfg.ProviderTimeout, metrics, logger)
		provider = earthdata.NewCachedProvider(client, cfg.ProviderCacheSize, metrics)
		metrics.ProviderEnabled.Set(1)
		logger.Info("satellite provider enabled", "cache_size", cfg.ProviderCacheSize, "timeout", cfg.ProviderTimeout)
	} else {
		logger.Info("satellite provider disabled")
	}

	var publisher pipeline.AlertPublisher
	var writer *kafkaadapter.Writer
	if cfg.AlertsEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("stress alert publishing enabled", "topic", cfg.KafkaAlertTopic)
	}

	analyzer := pipeline.NewAnalyzer(provider, readings, publisher, calibration, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry ingestion. When disabled the service serves analysis from
	// satellite data alone and reports ready immediately.
	ready := httpadapter.ReadinessChecker(httpadapter.ReadyFunc(func(context.Context) error { return nil }))
	var reader *kafkaadapter.Reader
	if cfg.IngestEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		ingest := pipeline.NewIngest(reader, readings, logger, metrics, cfg.BatchSize)
		ready = ingest

		go func() {
			if err := ingest.Run(ctx); err != nil {
				logger.Error("ingest error", "error", err)
			}
		}()
	} else {
		logger.Info("telemetry ingestion disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, analyzer, ready, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go pruneLoop(ctx, readings, cfg.RetentionDays, logger)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// pruneLoop drops telemetry aggregates older than the retention window.
func pruneLoop(ctx context.Context, readings *store.Store, retentionDays int, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := domain.Day(domain.Now()).AddDate(0, 0, -retentionDays)
			if removed := readings.Prune(cutoff); removed > 0 {
				logger.Info("pruned telemetry aggregates", "removed_days", removed, "cutoff", domain.DayKey(cutoff))
			}
		}
	}
}
