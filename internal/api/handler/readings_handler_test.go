package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryReadingsEndpoint(t *testing.T) {
	rec, body := get(t, newTestRouter(t), "/api/v1/readings?start=2024-12-03&end=2024-12-03&sensor_id=15490&page=1&page_size=100")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1440.0, body["total"])
	assert.Equal(t, 1.0, body["page"])
	assert.Equal(t, 100.0, body["page_size"])
	assert.Equal(t, 100.0, body["count"])

	data := body["data"].([]interface{})
	first := data[0].(map[string]interface{})
	assert.Equal(t, "15490", first["sensor_id"])
	assert.Equal(t, 60.0, first["value"])
	// page 1 starts at the 101st minute of the day
	assert.Equal(t, "2024-12-03T01:40:00+08:00", first["timestamp"])
}

func TestQueryReadingsPageSizeClamped(t *testing.T) {
	rec, body := get(t, newTestRouter(t), "/api/v1/readings?start=2024-12-03&end=2024-12-03&page_size=999999")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1000.0, body["page_size"])
	assert.Equal(t, 1000.0, body["count"])
}

func TestQueryReadingsValueFilter(t *testing.T) {
	rec, body := get(t, newTestRouter(t), "/api/v1/readings?start=2024-12-03&end=2024-12-03&min=61")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, body["total"])
	assert.Empty(t, body["data"])
}

func TestReadingStatsEndpoint(t *testing.T) {
	rec, body := get(t, newTestRouter(t), "/api/v1/readings/stats?start=2024-12-01&end=2024-12-15")
	require.Equal(t, http.StatusOK, rec.Code)

	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, 1440.0, stats["records"])
	assert.Equal(t, 1440.0, stats["values"])
	assert.Equal(t, 60.0, stats["average"])
	assert.Equal(t, 60.0, stats["min"])
	assert.Equal(t, 60.0, stats["max"])
}

func TestReadingEndpointErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"missing start", "/api/v1/readings?end=2024-12-03", http.StatusBadRequest},
		{"bad min", "/api/v1/readings?start=2024-12-03&end=2024-12-03&min=loud", http.StatusBadRequest},
		{"nan max", "/api/v1/readings/stats?start=2024-12-03&end=2024-12-03&max=NaN", http.StatusBadRequest},
		{"inverted bounds", "/api/v1/readings?start=2024-12-03&end=2024-12-03&min=80&max=40", http.StatusBadRequest},
		{"range too long", "/api/v1/readings/stats?start=0001-01-01&end=2999-12-31", http.StatusBadRequest},
		{"unknown sensor", "/api/v1/readings?start=2024-12-03&end=2024-12-03&sensor_id=nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, router, tt.url)
			assert.Equal(t, tt.code, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"5", 5, false},
		{"-3", 0, false},
		{"5000", 1000, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseInt(tt.in, 0, 1000)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
