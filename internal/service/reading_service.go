package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// Paging limits for raw reading queries.
const (
	DefaultPageSize = 200
	MaxPageSize     = 1000
)

// ReadingQuery selects raw readings over calendar dates [Start, End].
// Readings without a value always pass the Min and Max filters.
type ReadingQuery struct {
	SensorIDs []string
	Start     civil.Date
	End       civil.Date
	Min       *float64
	Max       *float64
	// Page is zero-based
	Page     int
	PageSize int
}

// ReadingPage is one page of a reading query, ordered by time then sensor.
type ReadingPage struct {
	Readings []models.Reading
	Page     int
	PageSize int
	Total    int
}

// ReadingStats summarises the readings matched by a query.
// Average, Min and Max cover readings with a value only and are zero when
// there are none.
type ReadingStats struct {
	Records int     `json:"records"`
	Values  int     `json:"values"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

type ReadingService struct {
	store   ReadingStore
	catalog *Catalog
	logger  *zap.Logger
}

// NewReadingService creates a service for browsing raw readings
func NewReadingService(store ReadingStore, catalog *Catalog, logger *zap.Logger) *ReadingService {
	return &ReadingService{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}

// QueryReadings returns one page of the readings matching q.
func (s *ReadingService) QueryReadings(ctx context.Context, q ReadingQuery) (ReadingPage, error) {
	readings, err := s.collect(ctx, q)
	if err != nil {
		return ReadingPage{}, err
	}

	page := ReadingPage{
		Page:     max(0, q.Page),
		PageSize: pageSize(q.PageSize),
		Total:    len(readings),
	}

	offset := min(page.Page*page.PageSize, len(readings))
	end := min(offset+page.PageSize, len(readings))
	page.Readings = readings[offset:end]
	return page, nil
}

// Stats summarises every reading matching q. Paging fields are ignored.
func (s *ReadingService) Stats(ctx context.Context, q ReadingQuery) (ReadingStats, error) {
	readings, err := s.collect(ctx, q)
	if err != nil {
		return ReadingStats{}, err
	}
	return summarize(readings), nil
}

func (s *ReadingService) collect(ctx context.Context, q ReadingQuery) ([]models.Reading, error) {
	if q.Min != nil && q.Max != nil && *q.Min > *q.Max {
		return nil, fmt.Errorf("%w: min %v is above max %v", ErrInvalidFilter, *q.Min, *q.Max)
	}

	from, to, err := s.catalog.Window(q.Start, q.End)
	if err != nil {
		return nil, err
	}
	sensors, err := s.catalog.Resolve(q.SensorIDs)
	if err != nil {
		return nil, err
	}

	perSensor, err := iter.MapErr(sensors, func(sensor *models.Sensor) ([]models.Reading, error) {
		readings, err := s.store.FetchReadings(ctx, sensor.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetch readings for %s: %w", sensor.ID, err)
		}
		return readings, nil
	})
	if err != nil {
		s.logger.Warn("Failed to query readings",
			zap.String("start", q.Start.String()),
			zap.String("end", q.End.String()),
			zap.Error(err))
		return nil, err
	}

	var out []models.Reading
	for _, readings := range perSensor {
		for _, r := range readings {
			if inBounds(r, q.Min, q.Max) {
				out = append(out, r)
			}
		}
	}

	slices.SortFunc(out, func(a, b models.Reading) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.SensorID, b.SensorID)
	})

	s.logger.Debug("Queried readings",
		zap.Int("sensors", len(sensors)),
		zap.Int("matched", len(out)))

	return out, nil
}

func inBounds(r models.Reading, vmin, vmax *float64) bool {
	if !r.Present() {
		return true
	}
	if vmin != nil && *r.Value < *vmin {
		return false
	}
	if vmax != nil && *r.Value > *vmax {
		return false
	}
	return true
}

func pageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	return min(n, MaxPageSize)
}

func summarize(readings []models.Reading) ReadingStats {
	stats := ReadingStats{Records: len(readings)}

	var sum float64
	for _, r := range readings {
		if !r.Present() {
			continue
		}
		v := *r.Value
		if stats.Values == 0 || v < stats.Min {
			stats.Min = v
		}
		if stats.Values == 0 || v > stats.Max {
			stats.Max = v
		}
		sum += v
		stats.Values++
	}

	if stats.Values > 0 {
		stats.Average = sum / float64(stats.Values)
	}
	return stats
}
