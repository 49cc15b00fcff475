// Package health classifies sensor availability from per-minute readings.
//
// Everything in this package is a pure function of its inputs: readings are
// supplied by the caller and no I/O or logging happens here.
package health

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// Engine applies a fixed set of Thresholds.
type Engine struct {
	thresholds Thresholds
}

// NewEngine validates t and returns an Engine that classifies with it.
func NewEngine(t Thresholds) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Engine{thresholds: t}, nil
}

// Thresholds returns the parameters the engine classifies with
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Daily computes the completeness of one sensor on one date.
//
// A minute counts as present when at least one reading in that minute carries a
// value. The present count is capped at the expected count, so duplicates never
// push the ratio above 1. An empty slice is valid and yields OFFLINE.
func (e *Engine) Daily(sensorID string, date civil.Date, readings []models.Reading) models.DailyHealth {
	expected := e.thresholds.ReadingsPerDay
	present := countPresentMinutes(readings)
	if present > expected {
		present = expected
	}

	ratio := float64(present) / float64(expected)

	return models.DailyHealth{
		SensorID:          sensorID,
		Date:              date,
		PresentCount:      present,
		ExpectedCount:     expected,
		CompletenessRatio: ratio,
		Status:            e.DayStatus(ratio),
	}
}

// DayStatus maps a completeness ratio to a day-level status.
func (e *Engine) DayStatus(ratio float64) models.Status {
	switch {
	case ratio >= e.thresholds.DegradedThreshold:
		return models.StatusOnline
	case ratio >= e.thresholds.OfflineThreshold:
		return models.StatusDegraded
	default:
		return models.StatusOffline
	}
}

func countPresentMinutes(readings []models.Reading) int {
	minutes := make(map[int64]struct{}, len(readings))
	for _, r := range readings {
		if !r.Present() {
			continue
		}
		minutes[r.Timestamp.Truncate(time.Minute).Unix()] = struct{}{}
	}
	return len(minutes)
}
