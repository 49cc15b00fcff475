package health

import (
	"cloud.google.com/go/civil"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// DayReadings returns the readings of one sensor for one calendar date.
// Dates without data return nil.
type DayReadings func(date civil.Date) []models.Reading

// FromGrouped adapts a date-keyed map to DayReadings
func FromGrouped(byDate map[civil.Date][]models.Reading) DayReadings {
	return func(date civil.Date) []models.Reading {
		return byDate[date]
	}
}

// Range classifies one sensor over every date in [start, end].
//
// Each date is evaluated exactly once, in ascending order, including dates with
// no readings. It fails only with ErrInvalidRange.
func (e *Engine) Range(sensorID string, start, end civil.Date, readings DayReadings) (models.RangeHealth, error) {
	if err := ValidateRange(start, end); err != nil {
		return models.RangeHealth{}, err
	}

	rh := models.RangeHealth{
		SensorID:      sensorID,
		StartDate:     start,
		EndDate:       end,
		OfflineDates:  []civil.Date{},
		DegradedDates: []civil.Date{},
	}

	for d := start; !d.After(end); d = d.AddDays(1) {
		day := e.Daily(sensorID, d, readings(d))
		rh.Add(day)
	}

	rh.UptimeRatio = float64(rh.OnlineDays) / float64(rh.TotalDays)
	rh.Status = e.RangeStatus(rh.UptimeRatio)
	return rh, nil
}

// RangeStatus maps an uptime ratio to a range-level status.
func (e *Engine) RangeStatus(uptime float64) models.Status {
	switch {
	case uptime >= e.thresholds.RangeOnlineThreshold:
		return models.StatusOnline
	case uptime >= e.thresholds.RangeOfflineThreshold:
		return models.StatusDegraded
	default:
		return models.StatusOffline
	}
}
