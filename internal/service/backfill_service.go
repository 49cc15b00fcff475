package service

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/health"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// DayFetcher pulls one sensor's readings for one date from upstream.
type DayFetcher interface {
	FetchDay(ctx context.Context, sensorID string, date civil.Date) ([]models.Reading, error)
}

// ReadingWriter persists readings, upserting on sensor and timestamp.
type ReadingWriter interface {
	StoreReadings(ctx context.Context, readings []models.Reading) (int, error)
}

// BackfillStats summarises a backfill run
type BackfillStats struct {
	DaysProcessed int
	// DaysWithData counts days the API returned any rows for, null rows included
	DaysWithData int
	RowsFetched  int
	RowsStored   int
	// Oldest is the earliest date that was processed
	Oldest civil.Date
}

type BackfillService struct {
	fetcher         DayFetcher
	writer          ReadingWriter
	sensors         []models.Sensor
	emptyDaysToStop int
	pause           time.Duration
	logger          *zap.Logger
}

// NewBackfillService creates a backfill job. It stops after emptyDaysToStop
// consecutive days for which the API returned no rows.
func NewBackfillService(fetcher DayFetcher, writer ReadingWriter, sensors []models.Sensor, emptyDaysToStop int, logger *zap.Logger) *BackfillService {
	return &BackfillService{
		fetcher:         fetcher,
		writer:          writer,
		sensors:         sensors,
		emptyDaysToStop: max(1, emptyDaysToStop),
		pause:           50 * time.Millisecond,
		logger:          logger,
	}
}

// Run walks backwards one day at a time from to until from.
func (b *BackfillService) Run(ctx context.Context, from, to civil.Date) (BackfillStats, error) {
	var stats BackfillStats
	if err := health.ValidateRange(from, to); err != nil {
		return stats, err
	}

	b.logger.Info("Backfill starting",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int("sensors", len(b.sensors)),
		zap.Int("empty_days_to_stop", b.emptyDaysToStop))

	emptyStreak := 0
	for day := to; !day.Before(from); day = day.AddDays(-1) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.DaysProcessed++
		stats.Oldest = day

		rows := b.collectDay(ctx, day)

		stored, err := b.writer.StoreReadings(ctx, rows)
		if err != nil {
			b.logger.Error("Failed to store readings",
				zap.String("date", day.String()),
				zap.Int("rows", len(rows)),
				zap.Error(err))
			continue
		}

		stats.RowsFetched += len(rows)
		stats.RowsStored += stored
		if len(rows) == 0 {
			emptyStreak++
			b.logger.Warn("No data for day",
				zap.String("date", day.String()),
				zap.Int("empty_streak", emptyStreak))
		} else {
			emptyStreak = 0
			stats.DaysWithData++
			b.logger.Info("Stored readings",
				zap.String("date", day.String()),
				zap.Int("fetched", len(rows)),
				zap.Int("stored", stored))
		}

		if emptyStreak >= b.emptyDaysToStop {
			b.logger.Warn("Stopping backfill after consecutive empty days",
				zap.Int("empty_days", emptyStreak))
			break
		}

		if stats.DaysProcessed%10 == 0 {
			b.logger.Info("Backfill progress",
				zap.Int("days_processed", stats.DaysProcessed),
				zap.Int("days_with_data", stats.DaysWithData),
				zap.Int("rows_stored", stats.RowsStored))
		}
	}

	b.logger.Info("Backfill complete",
		zap.Int("days_processed", stats.DaysProcessed),
		zap.Int("days_with_data", stats.DaysWithData),
		zap.Int("rows_fetched", stats.RowsFetched),
		zap.Int("rows_stored", stats.RowsStored),
		zap.String("oldest", stats.Oldest.String()))

	return stats, nil
}

func (b *BackfillService) collectDay(ctx context.Context, day civil.Date) []models.Reading {
	var rows []models.Reading
	for i, sensor := range b.sensors {
		if i > 0 && b.pause > 0 {
			select {
			case <-ctx.Done():
				return rows
			case <-time.After(b.pause):
			}
		}

		readings, err := b.fetcher.FetchDay(ctx, sensor.ID, day)
		if err != nil {
			b.logger.Error("Failed to fetch sensor day",
				zap.String("sensor_id", sensor.ID),
				zap.String("label", sensor.Label),
				zap.String("date", day.String()),
				zap.Error(err))
			continue
		}

		b.logger.Debug("Fetched sensor day",
			zap.String("sensor_id", sensor.ID),
			zap.String("date", day.String()),
			zap.Int("readings", len(readings)))
		rows = append(rows, readings...)
	}
	return rows
}

func (s BackfillStats) String() string {
	return fmt.Sprintf("%d days processed, %d with data, %d rows fetched, %d stored, oldest %s",
		s.DaysProcessed, s.DaysWithData, s.RowsFetched, s.RowsStored, s.Oldest)
}
