package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

func TestStoreAndFetch(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	base := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	n, err := repo.StoreReadings(ctx, []models.Reading{
		{SensorID: "15490", Timestamp: base.Add(2 * time.Minute), Value: models.Float(60)},
		{SensorID: "15490", Timestamp: base, Value: models.Float(58)},
		{SensorID: "15490", Timestamp: base.Add(24 * time.Hour), Value: models.Float(61)},
		{SensorID: "16034", Timestamp: base, Value: nil},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := repo.FetchReadings(ctx, "15490", base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, base, got[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Minute), got[1].Timestamp)

	got, err = repo.FetchReadings(ctx, "16034", base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Present())

	got, err = repo.FetchReadings(ctx, "unknown", base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreUpsertsSameMinute(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	ts := time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)

	_, err := repo.StoreReadings(ctx, []models.Reading{{SensorID: "a", Timestamp: ts, Value: nil}})
	require.NoError(t, err)
	_, err = repo.StoreReadings(ctx, []models.Reading{{SensorID: "a", Timestamp: ts, Value: models.Float(42)}})
	require.NoError(t, err)

	got, err := repo.FetchReadings(ctx, "a", ts, ts.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 42.0, *got[0].Value)
}

func TestFetchHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRepository().FetchReadings(ctx, "a", time.Now(), time.Now())
	require.ErrorIs(t, err, context.Canceled)
}
