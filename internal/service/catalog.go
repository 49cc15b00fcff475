package service

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/health"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

var (
	// ErrUnknownSensor is returned when a requested sensor id is not in the catalog.
	ErrUnknownSensor = errors.New("unknown sensor")
	// ErrInvalidFilter is returned when a reading query's value bounds are inverted.
	ErrInvalidFilter = errors.New("invalid reading filter")
)

// Catalog is the set of known sensors plus the calendar rules requests are
// interpreted with.
type Catalog struct {
	sensors      []models.Sensor
	byID         map[string]models.Sensor
	location     *time.Location
	maxRangeDays int
}

// NewCatalog creates a catalog. Dates are interpreted in loc and a request may
// cover at most maxRangeDays dates; zero or less means unbounded.
func NewCatalog(sensors []models.Sensor, loc *time.Location, maxRangeDays int) *Catalog {
	byID := make(map[string]models.Sensor, len(sensors))
	for _, s := range sensors {
		byID[s.ID] = s
	}
	return &Catalog{
		sensors:      slices.Clone(sensors),
		byID:         byID,
		location:     loc,
		maxRangeDays: maxRangeDays,
	}
}

// Sensors returns a copy of the sensor list
func (c *Catalog) Sensors() []models.Sensor {
	return slices.Clone(c.sensors)
}

// Location returns the zone calendar dates are evaluated in
func (c *Catalog) Location() *time.Location {
	return c.location
}

// Window validates [start, end] and returns its half-open instant range.
func (c *Catalog) Window(start, end civil.Date) (from, to time.Time, err error) {
	if err := health.ValidateSpan(start, end, c.maxRangeDays); err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, to = health.Window(start, end, c.location)
	return from, to, nil
}

// Resolve maps ids to sensors in request order, dropping duplicates.
// No ids means every sensor.
func (c *Catalog) Resolve(ids []string) ([]models.Sensor, error) {
	if len(ids) == 0 {
		return slices.Clone(c.sensors), nil
	}

	seen := make(map[string]bool, len(ids))
	sensors := make([]models.Sensor, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		sensor, ok := c.byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSensor, id)
		}
		sensors = append(sensors, sensor)
	}
	return sensors, nil
}
