package handlers

import (
	"context"
	"net/http"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/health"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/service"
)

// NoIssues is shown in place of an empty date summary
const NoIssues = "no issues"

// Evaluator is the part of the health service the handler needs
type Evaluator interface {
	Sensors() []models.Sensor
	EvaluateDate(ctx context.Context, date civil.Date, sensorIDs []string) ([]service.DailyResult, error)
	EvaluateRange(ctx context.Context, start, end civil.Date, sensorIDs []string) ([]service.RangeResult, error)
}

type HealthHandler struct {
	service Evaluator
	logger  *zap.Logger
}

// NewHealthHandler creates a handler over svc
func NewHealthHandler(svc Evaluator, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		service: svc,
		logger:  logger,
	}
}

// RegisterRoutes registers the sensor health routes
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sensors", h.ListSensors).Methods(http.MethodGet)
	router.HandleFunc("/health/daily", h.DailyHealth).Methods(http.MethodGet)
	router.HandleFunc("/health/range", h.RangeHealth).Methods(http.MethodGet)

	h.logger.Info("Sensor health routes registered")
}

type dailyResponse struct {
	SensorID          string        `json:"sensor_id"`
	Label             string        `json:"label"`
	Date              *civil.Date   `json:"date,omitempty"`
	PresentCount      int           `json:"present_count"`
	ExpectedCount     int           `json:"expected_count"`
	CompletenessRatio float64       `json:"completeness_ratio"`
	Status            models.Status `json:"status,omitempty"`
	Error             string        `json:"error,omitempty"`
}

type rangeResponse struct {
	SensorID          string            `json:"sensor_id"`
	Label             string            `json:"label"`
	Status            models.Status     `json:"status,omitempty"`
	Severity          string            `json:"severity,omitempty"`
	TotalDays         int               `json:"total_days"`
	OnlineDays        int               `json:"online_days"`
	DegradedDays      int               `json:"degraded_days"`
	OfflineDays       int               `json:"offline_days"`
	UptimeRatio       float64           `json:"uptime_ratio"`
	TotalPresent      int               `json:"total_present"`
	TotalExpected     int               `json:"total_expected"`
	OfflineSummary    string            `json:"offline_summary,omitempty"`
	DegradedSummary   string            `json:"degraded_summary,omitempty"`
	OfflineIntervals  []health.Interval `json:"offline_intervals,omitempty"`
	DegradedIntervals []health.Interval `json:"degraded_intervals,omitempty"`
	Error             string            `json:"error,omitempty"`
}

// ListSensors handles GET /sensors
func (h *HealthHandler) ListSensors(w http.ResponseWriter, r *http.Request) {
	sensors := h.service.Sensors()
	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"count":   len(sensors),
		"sensors": sensors,
	})
}

// DailyHealth handles GET /health/daily?date=YYYY-MM-DD
func (h *HealthHandler) DailyHealth(w http.ResponseWriter, r *http.Request) {
	date, err := civil.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	results, err := h.service.EvaluateDate(r.Context(), date, sensorIDs(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]dailyResponse, 0, len(results))
	for _, res := range results {
		resp := dailyResponse{SensorID: res.Sensor.ID, Label: res.Sensor.Label}
		if res.Err != nil {
			resp.Error = res.Err.Error()
		} else {
			resp.Date = &res.Health.Date
			resp.PresentCount = res.Health.PresentCount
			resp.ExpectedCount = res.Health.ExpectedCount
			resp.CompletenessRatio = res.Health.CompletenessRatio
			resp.Status = res.Health.Status
		}
		out = append(out, resp)
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"date":    date,
		"count":   len(out),
		"results": out,
	})
}

// RangeHealth handles GET /health/range?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *HealthHandler) RangeHealth(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.service.EvaluateRange(r.Context(), start, end, sensorIDs(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]rangeResponse, 0, len(results))
	for _, res := range results {
		resp := rangeResponse{SensorID: res.Sensor.ID, Label: res.Sensor.Label}
		if res.Err != nil {
			resp.Error = res.Err.Error()
			out = append(out, resp)
			continue
		}

		rh := res.Health
		resp.Status = rh.Status
		resp.Severity = rh.Severity()
		resp.TotalDays = rh.TotalDays
		resp.OnlineDays = rh.OnlineDays
		resp.DegradedDays = rh.DegradedDays
		resp.OfflineDays = rh.OfflineDays
		resp.UptimeRatio = rh.UptimeRatio
		resp.TotalPresent = rh.TotalPresent
		resp.TotalExpected = rh.TotalExpected
		resp.OfflineSummary = summaryOrNoIssues(res.OfflineSummary())
		resp.DegradedSummary = summaryOrNoIssues(res.DegradedSummary())
		resp.OfflineIntervals = res.OfflineIntervals
		resp.DegradedIntervals = res.DegradedIntervals
		out = append(out, resp)
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"start":   start,
		"end":     end,
		"count":   len(out),
		"results": out,
	})
}

func summaryOrNoIssues(s string) string {
	if s == "" {
		return NoIssues
	}
	return s
}

// sensorIDs accepts repeated or comma separated sensor_id parameters
func sensorIDs(r *http.Request) []string {
	var ids []string
	for _, v := range r.URL.Query()["sensor_id"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
