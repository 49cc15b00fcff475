package health

import (
	"errors"
	"fmt"
)

// Default classification parameters.
const (
	DefaultReadingsPerDay        = 1440
	DefaultOfflineThreshold      = 0.10
	DefaultDegradedThreshold     = 0.90
	DefaultRangeOfflineThreshold = 0.50
	DefaultRangeOnlineThreshold  = 0.90

	// DefaultMaxRangeDays bounds the dates a single range request may cover
	DefaultMaxRangeDays = 366
)

var (
	// ErrInvalidRange is returned when a range starts after it ends.
	ErrInvalidRange = errors.New("invalid date range: start date is after end date")
	// ErrInvalidThresholds is returned by Thresholds.Validate.
	ErrInvalidThresholds = errors.New("invalid health thresholds")
)

// Thresholds holds the parameters used to classify days and ranges.
//
// A day is ONLINE when its completeness ratio is at least DegradedThreshold,
// OFFLINE when it is below OfflineThreshold, and DEGRADED otherwise. A range is
// ONLINE when its uptime ratio is at least RangeOnlineThreshold, OFFLINE when it
// is below RangeOfflineThreshold, and DEGRADED otherwise.
type Thresholds struct {
	ReadingsPerDay        int     `mapstructure:"readings_per_day"`
	OfflineThreshold      float64 `mapstructure:"offline_threshold"`
	DegradedThreshold     float64 `mapstructure:"degraded_threshold"`
	RangeOfflineThreshold float64 `mapstructure:"range_offline_threshold"`
	RangeOnlineThreshold  float64 `mapstructure:"range_online_threshold"`
}

// DefaultThresholds returns the standard one-reading-per-minute parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ReadingsPerDay:        DefaultReadingsPerDay,
		OfflineThreshold:      DefaultOfflineThreshold,
		DegradedThreshold:     DefaultDegradedThreshold,
		RangeOfflineThreshold: DefaultRangeOfflineThreshold,
		RangeOnlineThreshold:  DefaultRangeOnlineThreshold,
	}
}

// Validate checks that the thresholds describe ordered ratios.
func (t Thresholds) Validate() error {
	if t.ReadingsPerDay < 1 {
		return fmt.Errorf("%w: readings per day must be at least 1, got %d", ErrInvalidThresholds, t.ReadingsPerDay)
	}
	if !ordered(t.OfflineThreshold, t.DegradedThreshold) {
		return fmt.Errorf("%w: need 0 <= offline (%v) <= degraded (%v) <= 1",
			ErrInvalidThresholds, t.OfflineThreshold, t.DegradedThreshold)
	}
	if !ordered(t.RangeOfflineThreshold, t.RangeOnlineThreshold) {
		return fmt.Errorf("%w: need 0 <= range offline (%v) <= range online (%v) <= 1",
			ErrInvalidThresholds, t.RangeOfflineThreshold, t.RangeOnlineThreshold)
	}
	return nil
}

func ordered(low, high float64) bool {
	return low >= 0 && low <= high && high <= 1
}
