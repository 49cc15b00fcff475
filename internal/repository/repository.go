// Package repository selects the reading store backend from configuration.
package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/config"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/repository/influxdb"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/repository/memory"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/repository/postgres"
)

// Store reads and writes per-minute readings.
type Store interface {
	FetchReadings(ctx context.Context, sensorID string, from, to time.Time) ([]models.Reading, error)
	StoreReadings(ctx context.Context, readings []models.Reading) (int, error)
}

// Open connects to the configured backend. The returned func releases it.
func Open(ctx context.Context, cfg config.StorageConfig, sensors []models.Sensor, logger *zap.Logger) (Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory reading store; readings are lost on restart")
		return memory.NewRepository(), func() {}, nil

	case config.DriverInfluxDB:
		repo, err := influxdb.NewRepository(ctx, cfg.InfluxDB.URL, cfg.InfluxDB.Token, cfg.InfluxDB.Org, cfg.InfluxDB.Bucket, cfg.InfluxDB.Measurement)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to InfluxDB",
			zap.String("url", cfg.InfluxDB.URL),
			zap.String("bucket", cfg.InfluxDB.Bucket))
		return repo, repo.Close, nil

	case config.DriverPostgres:
		db, err := postgres.Open(cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewRepository(db, cfg.Postgres.Table, sensors, logger)
		if err := repo.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Postgres.Table, err)
		}
		logger.Info("Connected to Postgres", zap.String("table", cfg.Postgres.Table))

		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repo, closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}
