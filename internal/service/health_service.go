package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/health"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// ReadingStore supplies raw readings for one sensor in [from, to).
type ReadingStore interface {
	FetchReadings(ctx context.Context, sensorID string, from, to time.Time) ([]models.Reading, error)
}

// DailyResult is the outcome for one sensor on one date.
// Exactly one of Health and Err is set.
type DailyResult struct {
	Sensor models.Sensor
	Health *models.DailyHealth
	Err    error
}

// RangeResult is the outcome for one sensor over a date range.
// Exactly one of Health and Err is set.
type RangeResult struct {
	Sensor            models.Sensor
	Health            *models.RangeHealth
	OfflineIntervals  []health.Interval
	DegradedIntervals []health.Interval
	Err               error
}

// OfflineSummary renders the offline dates, e.g. "Dec 1-2, 4-11"
func (r RangeResult) OfflineSummary() string {
	return health.FormatIntervals(r.OfflineIntervals)
}

// DegradedSummary renders the degraded dates
func (r RangeResult) DegradedSummary() string {
	return health.FormatIntervals(r.DegradedIntervals)
}

type HealthService struct {
	store   ReadingStore
	engine  *health.Engine
	catalog *Catalog
	logger  *zap.Logger

	evaluations     *prometheus.CounterVec
	adapterFailures *prometheus.CounterVec
}

// NewHealthService creates a service classifying the sensors of catalog.
func NewHealthService(store ReadingStore, engine *health.Engine, catalog *Catalog, logger *zap.Logger, reg prometheus.Registerer) *HealthService {
	const namespace = "health_service"

	return &HealthService{
		store:   store,
		engine:  engine,
		catalog: catalog,
		logger:  logger,
		evaluations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sensor_evaluations_total",
				Help:      "Sensor classifications by mode and resulting status",
			},
			[]string{"mode", "status"},
		),
		adapterFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "adapter_failures_total",
				Help:      "Reading store failures by sensor",
			},
			[]string{"sensor_id"},
		),
	}
}

// Sensors returns the sensor catalog
func (s *HealthService) Sensors() []models.Sensor {
	return s.catalog.Sensors()
}

// Thresholds returns the classification parameters in use
func (s *HealthService) Thresholds() health.Thresholds {
	return s.engine.Thresholds()
}

// EvaluateDate classifies each sensor on a single date, worst first.
// An empty sensorIDs means every sensor in the catalog.
func (s *HealthService) EvaluateDate(ctx context.Context, date civil.Date, sensorIDs []string) ([]DailyResult, error) {
	from, to, err := s.catalog.Window(date, date)
	if err != nil {
		return nil, err
	}
	sensors, err := s.catalog.Resolve(sensorIDs)
	if err != nil {
		return nil, err
	}

	results := iter.Map(sensors, func(sensor *models.Sensor) DailyResult {
		readings, err := s.fetch(ctx, sensor.ID, from, to)
		if err != nil {
			return DailyResult{Sensor: *sensor, Err: err}
		}

		day := s.engine.Daily(sensor.ID, date, readings)
		s.evaluations.WithLabelValues("daily", string(day.Status)).Inc()
		return DailyResult{Sensor: *sensor, Health: &day}
	})

	slices.SortStableFunc(results, func(a, b DailyResult) int {
		return compareResults(a.Sensor.ID, a.Health, b.Sensor.ID, b.Health, health.DailyKey)
	})

	s.logger.Debug("Evaluated daily health",
		zap.String("date", date.String()),
		zap.Int("sensors", len(results)))

	return results, nil
}

// EvaluateRange classifies each sensor over [start, end], worst first.
//
// The range is validated before any reading is fetched, so an inverted or
// over-long range computes nothing. A store failure for one sensor is reported in that
// sensor's result and does not affect the others.
func (s *HealthService) EvaluateRange(ctx context.Context, start, end civil.Date, sensorIDs []string) ([]RangeResult, error) {
	from, to, err := s.catalog.Window(start, end)
	if err != nil {
		return nil, err
	}
	sensors, err := s.catalog.Resolve(sensorIDs)
	if err != nil {
		return nil, err
	}

	results := iter.Map(sensors, func(sensor *models.Sensor) RangeResult {
		readings, err := s.fetch(ctx, sensor.ID, from, to)
		if err != nil {
			return RangeResult{Sensor: *sensor, Err: err}
		}

		byDate := health.GroupByDate(readings, s.catalog.Location())
		rh, err := s.engine.Range(sensor.ID, start, end, health.FromGrouped(byDate))
		if err != nil {
			return RangeResult{Sensor: *sensor, Err: err}
		}

		s.evaluations.WithLabelValues("range", string(rh.Status)).Inc()
		return RangeResult{
			Sensor:            *sensor,
			Health:            &rh,
			OfflineIntervals:  health.CompressDates(rh.OfflineDates),
			DegradedIntervals: health.CompressDates(rh.DegradedDates),
		}
	})

	slices.SortStableFunc(results, func(a, b RangeResult) int {
		return compareResults(a.Sensor.ID, a.Health, b.Sensor.ID, b.Health, health.RangeKey)
	})

	s.logger.Debug("Evaluated range health",
		zap.String("start", start.String()),
		zap.String("end", end.String()),
		zap.Int("sensors", len(results)))

	return results, nil
}

func (s *HealthService) fetch(ctx context.Context, sensorID string, from, to time.Time) ([]models.Reading, error) {
	readings, err := s.store.FetchReadings(ctx, sensorID, from, to)
	if err != nil {
		s.adapterFailures.WithLabelValues(sensorID).Inc()
		s.logger.Warn("Failed to fetch readings",
			zap.String("sensor_id", sensorID),
			zap.Time("from", from),
			zap.Time("to", to),
			zap.Error(err))
		return nil, fmt.Errorf("fetch readings for %s: %w", sensorID, err)
	}
	return readings, nil
}

// compareResults ranks classified results worst first and puts failed
// sensors last, ordered by id.
func compareResults[T any](aID string, a *T, bID string, b *T, key func(T) health.RankKey) int {
	switch {
	case a != nil && b != nil:
		return key(*a).Compare(key(*b))
	case a != nil:
		return -1
	case b != nil:
		return 1
	default:
		return cmp.Compare(aID, bID)
	}
}
