package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/health"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/repository/memory"
)

type fakeFetcher struct {
	days  map[civil.Date]int
	fail  map[string]error
	calls []civil.Date
}

func (f *fakeFetcher) FetchDay(ctx context.Context, sensorID string, date civil.Date) ([]models.Reading, error) {
	f.calls = append(f.calls, date)
	if err := f.fail[sensorID]; err != nil {
		return nil, err
	}

	n := f.days[date]
	start := date.In(sgt)
	out := make([]models.Reading, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Reading{
			SensorID:  sensorID,
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Value:     models.Float(50),
		})
	}
	return out, nil
}

func newTestBackfill(fetcher DayFetcher, writer ReadingWriter, emptyDays int) *BackfillService {
	b := NewBackfillService(fetcher, writer, testSensors[:2], emptyDays, zap.NewNop())
	b.pause = 0
	return b
}

func TestBackfillStopsAfterEmptyStreak(t *testing.T) {
	fetcher := &fakeFetcher{days: map[civil.Date]int{dec(8): 10, dec(9): 10, dec(10): 10}}
	repo := memory.NewRepository()

	stats, err := newTestBackfill(fetcher, repo, 2).Run(context.Background(), dec(1), dec(10))
	require.NoError(t, err)

	assert.Equal(t, 5, stats.DaysProcessed)
	assert.Equal(t, 3, stats.DaysWithData)
	assert.Equal(t, 60, stats.RowsStored)
	assert.Equal(t, dec(6), stats.Oldest)

	// walked backwards
	assert.Equal(t, dec(10), fetcher.calls[0])

	stored, err := repo.FetchReadings(context.Background(), "15490", dec(8).In(sgt), dec(11).In(sgt))
	require.NoError(t, err)
	assert.Len(t, stored, 30)
}

func TestBackfillReachesFromDate(t *testing.T) {
	fetcher := &fakeFetcher{days: map[civil.Date]int{dec(1): 1, dec(2): 1, dec(3): 1}}

	stats, err := newTestBackfill(fetcher, memory.NewRepository(), 7).Run(context.Background(), dec(1), dec(3))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.DaysProcessed)
	assert.Equal(t, 3, stats.DaysWithData)
	assert.Equal(t, dec(1), stats.Oldest)
}

func TestBackfillSkipsFailingSensor(t *testing.T) {
	fetcher := &fakeFetcher{
		days: map[civil.Date]int{dec(1): 5},
		fail: map[string]error{"16034": errors.New("timeout")},
	}
	repo := memory.NewRepository()

	stats, err := newTestBackfill(fetcher, repo, 7).Run(context.Background(), dec(1), dec(1))
	require.NoError(t, err)
	assert.Equal(t, 5, stats.RowsStored)

	stored, err := repo.FetchReadings(context.Background(), "15490", dec(1).In(sgt), dec(2).In(sgt))
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestBackfillRejectsInvertedRange(t *testing.T) {
	fetcher := &fakeFetcher{}
	_, err := newTestBackfill(fetcher, memory.NewRepository(), 7).Run(context.Background(), dec(5), dec(1))
	require.ErrorIs(t, err, health.ErrInvalidRange)
	assert.Empty(t, fetcher.calls)
}

func TestBackfillCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBackfill(&fakeFetcher{}, memory.NewRepository(), 7).Run(ctx, dec(1), dec(3))
	require.ErrorIs(t, err, context.Canceled)
}

type nullFetcher struct{}

func (nullFetcher) FetchDay(ctx context.Context, sensorID string, date civil.Date) ([]models.Reading, error) {
	return []models.Reading{{SensorID: sensorID, Timestamp: date.In(sgt)}}, nil
}

// presentOnlyWriter drops readings without a value, as the InfluxDB store does.
type presentOnlyWriter struct{}

func (presentOnlyWriter) StoreReadings(ctx context.Context, readings []models.Reading) (int, error) {
	n := 0
	for _, r := range readings {
		if r.Present() {
			n++
		}
	}
	return n, nil
}

func TestBackfillNullRowsCountAsData(t *testing.T) {
	stats, err := newTestBackfill(nullFetcher{}, presentOnlyWriter{}, 2).Run(context.Background(), dec(1), dec(5))
	require.NoError(t, err)

	assert.Equal(t, 5, stats.DaysProcessed)
	assert.Equal(t, 5, stats.DaysWithData)
	assert.Equal(t, 10, stats.RowsFetched)
	assert.Zero(t, stats.RowsStored)
	assert.Equal(t, dec(1), stats.Oldest)
}
