package health

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// Window returns the half-open instant range [from, to) covering the
// calendar dates start through end in loc.
func Window(start, end civil.Date, loc *time.Location) (from, to time.Time) {
	return start.In(loc), end.AddDays(1).In(loc)
}

// GroupByDate buckets readings by the calendar date of their timestamp in loc.
func GroupByDate(readings []models.Reading, loc *time.Location) map[civil.Date][]models.Reading {
	byDate := make(map[civil.Date][]models.Reading)
	for _, r := range readings {
		d := civil.DateOf(r.Timestamp.In(loc))
		byDate[d] = append(byDate[d], r)
	}
	return byDate
}

// ValidateRange returns ErrInvalidRange when start is after end.
func ValidateRange(start, end civil.Date) error {
	if !start.IsValid() || !end.IsValid() {
		return fmt.Errorf("%w: %s to %s is not a calendar range", ErrInvalidRange, start, end)
	}
	if start.After(end) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	return nil
}

// ValidateSpan is ValidateRange plus a limit on the number of dates covered.
// A maxDays of zero or less disables the limit.
func ValidateSpan(start, end civil.Date, maxDays int) error {
	if err := ValidateRange(start, end); err != nil {
		return err
	}
	if days := end.DaysSince(start) + 1; maxDays > 0 && days > maxDays {
		return fmt.Errorf("%w: %s to %s spans %d days, limit is %d", ErrInvalidRange, start, end, days, maxDays)
	}
	return nil
}
