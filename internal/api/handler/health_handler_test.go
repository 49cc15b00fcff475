package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/health"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/repository/memory"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/service"
)

var sgt = time.FixedZone("SGT", 8*60*60)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	repo := memory.NewRepository()
	start := civil.Date{Year: 2024, Month: time.December, Day: 3}.In(sgt)
	var readings []models.Reading
	for i := 0; i < 1440; i++ {
		readings = append(readings, models.Reading{
			SensorID:  "15490",
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Value:     models.Float(60),
		})
	}
	_, err := repo.StoreReadings(context.Background(), readings)
	require.NoError(t, err)

	engine, err := health.NewEngine(health.DefaultThresholds())
	require.NoError(t, err)

	sensors := []models.Sensor{
		{ID: "15490", Label: "Singapore Sports School"},
		{ID: "16034", Label: "BLK 120 Serangoon North Ave 1"},
	}
	catalog := service.NewCatalog(sensors, sgt, health.DefaultMaxRangeDays)
	svc := service.NewHealthService(repo, engine, catalog, zap.NewNop(), prometheus.NewRegistry())

	router := mux.NewRouter()
	apiV1 := router.PathPrefix("/api/v1").Subrouter()
	NewHealthHandler(svc, zap.NewNop()).RegisterRoutes(apiV1)
	NewReadingsHandler(service.NewReadingService(repo, catalog, zap.NewNop()), zap.NewNop()).RegisterRoutes(apiV1)
	return router
}

func get(t *testing.T, router http.Handler, url string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestListSensors(t *testing.T) {
	rec, body := get(t, newTestRouter(t), "/api/v1/sensors")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, 2.0, body["count"])
}

func TestRangeHealthEndpoint(t *testing.T) {
	rec, body := get(t, newTestRouter(t), "/api/v1/health/range?start=2024-12-01&end=2024-12-15")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-12-01", body["start"])

	results := body["results"].([]interface{})
	require.Len(t, results, 2)

	worst := results[0].(map[string]interface{})
	assert.Equal(t, "16034", worst["sensor_id"])
	assert.Equal(t, "OFFLINE", worst["status"])
	assert.Equal(t, "CRITICAL", worst["severity"])
	assert.Equal(t, "Dec 1-15", worst["offline_summary"])
	assert.Equal(t, NoIssues, worst["degraded_summary"])

	next := results[1].(map[string]interface{})
	assert.Equal(t, "15490", next["sensor_id"])
	assert.Equal(t, 1.0, next["online_days"])
	assert.Equal(t, "Dec 1-2, 4-15", next["offline_summary"])
	assert.Equal(t, 15.0, next["total_days"])
}

func TestDailyHealthEndpoint(t *testing.T) {
	rec, body := get(t, newTestRouter(t), "/api/v1/health/daily?date=2024-12-03&sensor_id=15490")
	require.Equal(t, http.StatusOK, rec.Code)

	results := body["results"].([]interface{})
	require.Len(t, results, 1)
	res := results[0].(map[string]interface{})
	assert.Equal(t, "ONLINE", res["status"])
	assert.Equal(t, 1440.0, res["present_count"])
	assert.Equal(t, "2024-12-03", res["date"])
}

func TestHealthEndpointErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"missing date", "/api/v1/health/daily", http.StatusBadRequest},
		{"malformed date", "/api/v1/health/daily?date=12/03/2024", http.StatusBadRequest},
		{"missing end", "/api/v1/health/range?start=2024-12-01", http.StatusBadRequest},
		{"inverted range", "/api/v1/health/range?start=2024-12-05&end=2024-12-01", http.StatusBadRequest},
		{"range too long", "/api/v1/health/range?start=0001-01-01&end=2999-12-31", http.StatusBadRequest},
		{"range one day over limit", "/api/v1/health/range?start=2024-01-01&end=2025-01-01", http.StatusBadRequest},
		{"unknown sensor", "/api/v1/health/range?start=2024-12-01&end=2024-12-02&sensor_id=nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, router, tt.url)
			assert.Equal(t, tt.code, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSensorIDs(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?sensor_id=a,b&sensor_id=c&sensor_id=", nil)
	assert.Equal(t, []string{"a", "b", "c"}, sensorIDs(r))
}
