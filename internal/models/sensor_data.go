package models

import (
	"time"
)

// Reading is one per-minute sample reported by a sensor.
// A nil Value means the minute was recorded without a measurement.
type Reading struct {
	SensorID  string    `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     *float64  `json:"value"`
}

// Present reports whether the reading carries a measurement
func (r Reading) Present() bool {
	return r.Value != nil
}

// Float returns a pointer to v, for building readings inline
func Float(v float64) *float64 {
	return &v
}

// Sensor identifies a device. Label is only used for display.
type Sensor struct {
	ID    string `json:"id" mapstructure:"id"`
	Label string `json:"label" mapstructure:"label"`
}

// QueryParams describes a raw readings lookup against a store
type QueryParams struct {
	SensorID  string    `json:"sensor_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
