package health

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

var sgt = time.FixedZone("SGT", 8*60*60)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultThresholds())
	require.NoError(t, err)
	return e
}

// minuteReadings returns n readings with values on consecutive minutes of date.
func minuteReadings(sensorID string, date civil.Date, n int) []models.Reading {
	start := date.In(sgt)
	out := make([]models.Reading, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Reading{
			SensorID:  sensorID,
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Value:     models.Float(55.5),
		})
	}
	return out
}

func TestDailyThresholdBoundaries(t *testing.T) {
	e := newTestEngine(t)
	date := civil.Date{Year: 2024, Month: time.December, Day: 1}

	tests := []struct {
		name    string
		present int
		want    models.Status
	}{
		{"no readings", 0, models.StatusOffline},
		{"just under offline threshold", 143, models.StatusOffline},
		{"exactly offline threshold", 144, models.StatusDegraded},
		{"mid range", 720, models.StatusDegraded},
		{"just under online threshold", 1295, models.StatusDegraded},
		{"exactly online threshold", 1296, models.StatusOnline},
		{"complete day", 1440, models.StatusOnline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Daily("15490", date, minuteReadings("15490", date, tt.present))
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.present, got.PresentCount)
			assert.Equal(t, 1440, got.ExpectedCount)
			assert.InDelta(t, float64(tt.present)/1440, got.CompletenessRatio, 1e-12)
			assert.Equal(t, "15490", got.SensorID)
			assert.Equal(t, date, got.Date)
		})
	}
}

func TestDailyStatusIsFunctionOfRatio(t *testing.T) {
	e := newTestEngine(t)
	for present := 0; present <= 1440; present++ {
		ratio := float64(present) / 1440
		var want models.Status
		switch {
		case ratio >= 0.90:
			want = models.StatusOnline
		case ratio >= 0.10:
			want = models.StatusDegraded
		default:
			want = models.StatusOffline
		}
		require.Equal(t, want, e.DayStatus(ratio), "present=%d", present)
	}
}

func TestDailyNullValuesAreAbsent(t *testing.T) {
	e := newTestEngine(t)
	date := civil.Date{Year: 2024, Month: time.December, Day: 2}

	readings := minuteReadings("16034", date, 200)
	for i := range readings[:100] {
		readings[i].Value = nil
	}

	got := e.Daily("16034", date, readings)
	assert.Equal(t, 100, got.PresentCount)
	assert.Equal(t, models.StatusOffline, got.Status)
}

func TestDailyDuplicateMinutesCountOnce(t *testing.T) {
	e := newTestEngine(t)
	date := civil.Date{Year: 2024, Month: time.December, Day: 3}

	readings := minuteReadings("16041", date, 144)
	dup := make([]models.Reading, 0, len(readings)*2)
	for _, r := range readings {
		second := r
		second.Timestamp = r.Timestamp.Add(30 * time.Second)
		dup = append(dup, r, second)
	}

	got := e.Daily("16041", date, dup)
	assert.Equal(t, 144, got.PresentCount)
	assert.Equal(t, models.StatusDegraded, got.Status)
}

func TestDailyPresentCountIsCapped(t *testing.T) {
	e := newTestEngine(t)
	date := civil.Date{Year: 2024, Month: time.December, Day: 4}

	got := e.Daily("14542", date, minuteReadings("14542", date, 1500))
	assert.Equal(t, 1440, got.PresentCount)
	assert.Equal(t, 1.0, got.CompletenessRatio)
	assert.Equal(t, models.StatusOnline, got.Status)
}

func TestDailyCustomThresholds(t *testing.T) {
	e, err := NewEngine(Thresholds{
		ReadingsPerDay:        24,
		OfflineThreshold:      0.25,
		DegradedThreshold:     0.75,
		RangeOfflineThreshold: 0.5,
		RangeOnlineThreshold:  0.9,
	})
	require.NoError(t, err)

	date := civil.Date{Year: 2025, Month: time.May, Day: 1}
	start := date.In(sgt)
	var readings []models.Reading
	for h := 0; h < 18; h++ {
		readings = append(readings, models.Reading{Timestamp: start.Add(time.Duration(h) * time.Hour), Value: models.Float(1)})
	}

	got := e.Daily("x", date, readings)
	assert.Equal(t, 24, got.ExpectedCount)
	assert.Equal(t, 18, got.PresentCount)
	assert.Equal(t, models.StatusOnline, got.Status)
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Thresholds)
		wantErr bool
	}{
		{"defaults", func(*Thresholds) {}, false},
		{"zero readings per day", func(th *Thresholds) { th.ReadingsPerDay = 0 }, true},
		{"offline above degraded", func(th *Thresholds) { th.OfflineThreshold = 0.95 }, true},
		{"negative offline", func(th *Thresholds) { th.OfflineThreshold = -0.1 }, true},
		{"range online above one", func(th *Thresholds) { th.RangeOnlineThreshold = 1.5 }, true},
		{"range offline above online", func(th *Thresholds) { th.RangeOfflineThreshold = 0.95 }, true},
		{"equal thresholds", func(th *Thresholds) { th.OfflineThreshold = th.DegradedThreshold }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			err := th.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidThresholds)
				_, engineErr := NewEngine(th)
				require.ErrorIs(t, engineErr, ErrInvalidThresholds)
				return
			}
			require.NoError(t, err)
		})
	}
}
