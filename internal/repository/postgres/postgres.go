package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// upsertChunk bounds the rows sent per INSERT statement
const upsertChunk = 1000

// MeterReading is one row of the meter readings table.
type MeterReading struct {
	LocationID      string    `gorm:"column:location_id;not null;uniqueIndex:idx_location_datetime"`
	LocationName    string    `gorm:"column:location_name"`
	ReadingValue    *float64  `gorm:"column:reading_value"`
	ReadingDatetime time.Time `gorm:"column:reading_datetime;not null;uniqueIndex:idx_location_datetime"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

type Repository struct {
	db     *gorm.DB
	table  string
	labels map[string]string
	logger *zap.Logger
}

// Open connects to Postgres with the given DSN
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// NewRepository stores readings in table, labelling rows with the sensor catalog
func NewRepository(db *gorm.DB, table string, sensors []models.Sensor, logger *zap.Logger) *Repository {
	labels := make(map[string]string, len(sensors))
	for _, s := range sensors {
		labels[s.ID] = s.Label
	}
	return &Repository{db: db, table: table, labels: labels, logger: logger}
}

// Migrate creates the readings table and its unique key if missing
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).Table(r.table).AutoMigrate(&MeterReading{})
}

// StoreReadings upserts readings on (location_id, reading_datetime) in chunks.
//
// Each chunk is its own statement outside any transaction. A failed chunk is
// logged and skipped; an error is returned only when no chunk was stored.
func (r *Repository) StoreReadings(ctx context.Context, readings []models.Reading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([]MeterReading, 0, len(readings))
	for _, reading := range readings {
		rows = append(rows, MeterReading{
			LocationID:      reading.SensorID,
			LocationName:    r.labels[reading.SensorID],
			ReadingValue:    reading.Value,
			ReadingDatetime: reading.Timestamp.UTC(),
			CreatedAt:       now,
		})
	}

	stored, failed := 0, 0
	var lastErr error
	for chunk := range slices.Chunk(rows, upsertChunk) {
		if err := r.upsert(ctx, chunk).Error; err != nil {
			failed++
			lastErr = err
			r.logger.Error("Failed to upsert chunk",
				zap.String("table", r.table),
				zap.Int("rows", len(chunk)),
				zap.Time("first", chunk[0].ReadingDatetime),
				zap.Error(err))
			continue
		}
		stored += len(chunk)
	}

	if stored == 0 && failed > 0 {
		return 0, fmt.Errorf("upsert failed for all %d chunks: %w", failed, lastErr)
	}
	return stored, nil
}

func (r *Repository) upsert(ctx context.Context, rows []MeterReading) *gorm.DB {
	return r.db.Session(&gorm.Session{Context: ctx, SkipDefaultTransaction: true}).
		Table(r.table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_id"}, {Name: "reading_datetime"}},
			DoUpdates: clause.AssignmentColumns([]string{"reading_value", "location_name"}),
		}).
		Create(&rows)
}

// FetchReadings returns the sensor's readings in [from, to), ordered by time
func (r *Repository) FetchReadings(ctx context.Context, sensorID string, from, to time.Time) ([]models.Reading, error) {
	var rows []MeterReading
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("location_id = ? AND reading_datetime >= ? AND reading_datetime < ?", sensorID, from.UTC(), to.UTC()).
		Order("reading_datetime").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	readings := make([]models.Reading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, models.Reading{
			SensorID:  row.LocationID,
			Timestamp: row.ReadingDatetime,
			Value:     row.ReadingValue,
		})
	}
	return readings, nil
}
