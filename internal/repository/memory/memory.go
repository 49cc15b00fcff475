package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// Repository keeps readings in process, keyed by sensor and timestamp.
type Repository struct {
	mu       sync.RWMutex
	readings map[string]map[int64]models.Reading
}

// NewRepository creates an empty in-memory store
func NewRepository() *Repository {
	return &Repository{readings: make(map[string]map[int64]models.Reading)}
}

// StoreReadings upserts readings on (sensor_id, timestamp).
func (r *Repository) StoreReadings(ctx context.Context, readings []models.Reading) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reading := range readings {
		bySensor, ok := r.readings[reading.SensorID]
		if !ok {
			bySensor = make(map[int64]models.Reading)
			r.readings[reading.SensorID] = bySensor
		}
		bySensor[reading.Timestamp.UnixNano()] = reading
	}
	return len(readings), nil
}

// FetchReadings returns the sensor's readings in [from, to), ordered by time.
func (r *Repository) FetchReadings(ctx context.Context, sensorID string, from, to time.Time) ([]models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Reading
	for _, reading := range r.readings[sensorID] {
		if reading.Timestamp.Before(from) || !reading.Timestamp.Before(to) {
			continue
		}
		out = append(out, reading)
	}
	slices.SortFunc(out, func(a, b models.Reading) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}
