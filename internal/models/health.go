package models

import (
	"cloud.google.com/go/civil"
)

// Status is the health classification of a sensor for a day or a range
type Status string

const (
	StatusOnline   Status = "ONLINE"
	StatusDegraded Status = "DEGRADED"
	StatusOffline  Status = "OFFLINE"
)

// SeverityCritical is the label shown for a range-level OFFLINE status
const SeverityCritical = "CRITICAL"

// Rank orders statuses by severity, most severe first.
func (s Status) Rank() int {
	switch s {
	case StatusOffline:
		return 0
	case StatusDegraded:
		return 1
	case StatusOnline:
		return 2
	default:
		return 3
	}
}

// DailyHealth is the completeness of one sensor on one calendar date.
type DailyHealth struct {
	SensorID          string     `json:"sensor_id"`
	Date              civil.Date `json:"date"`
	PresentCount      int        `json:"present_count"`
	ExpectedCount     int        `json:"expected_count"`
	CompletenessRatio float64    `json:"completeness_ratio"`
	Status            Status     `json:"status"`
}

// RangeHealth aggregates DailyHealth records over [StartDate, EndDate].
type RangeHealth struct {
	SensorID      string       `json:"sensor_id"`
	StartDate     civil.Date   `json:"start_date"`
	EndDate       civil.Date   `json:"end_date"`
	TotalDays     int          `json:"total_days"`
	OnlineDays    int          `json:"online_days"`
	DegradedDays  int          `json:"degraded_days"`
	OfflineDays   int          `json:"offline_days"`
	TotalPresent  int          `json:"total_present"`
	TotalExpected int          `json:"total_expected"`
	UptimeRatio   float64      `json:"uptime_ratio"`
	Status        Status       `json:"status"`
	OfflineDates  []civil.Date `json:"offline_dates"`
	DegradedDates []civil.Date `json:"degraded_dates"`
}

// Severity is the presentation label for the range status.
// OFFLINE ranges are surfaced as CRITICAL.
func (r RangeHealth) Severity() string {
	if r.Status == StatusOffline {
		return SeverityCritical
	}
	return string(r.Status)
}

// CompletenessRatio is the share of expected readings present across the range
func (r RangeHealth) CompletenessRatio() float64 {
	if r.TotalExpected == 0 {
		return 0
	}
	return float64(r.TotalPresent) / float64(r.TotalExpected)
}

// Add folds one day into the range totals.
func (r *RangeHealth) Add(day DailyHealth) {
	r.TotalDays++
	r.TotalPresent += day.PresentCount
	r.TotalExpected += day.ExpectedCount

	switch day.Status {
	case StatusOnline:
		r.OnlineDays++
	case StatusDegraded:
		r.DegradedDays++
		r.DegradedDates = append(r.DegradedDates, day.Date)
	default:
		r.OfflineDays++
		r.OfflineDates = append(r.OfflineDates, day.Date)
	}
}
