package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/service"
)

// maxPage bounds the page parameter
const maxPage = 100000

// ReadingQuerier is the part of the reading service the handler needs
type ReadingQuerier interface {
	QueryReadings(ctx context.Context, q service.ReadingQuery) (service.ReadingPage, error)
	Stats(ctx context.Context, q service.ReadingQuery) (service.ReadingStats, error)
}

type ReadingsHandler struct {
	service ReadingQuerier
	logger  *zap.Logger
}

// NewReadingsHandler creates a handler over svc
func NewReadingsHandler(svc ReadingQuerier, logger *zap.Logger) *ReadingsHandler {
	return &ReadingsHandler{
		service: svc,
		logger:  logger,
	}
}

// RegisterRoutes registers the raw reading routes
func (h *ReadingsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/readings", h.QueryReadings).Methods(http.MethodGet)
	router.HandleFunc("/readings/stats", h.GetStats).Methods(http.MethodGet)

	h.logger.Info("Reading routes registered")
}

// QueryReadings handles GET /readings?start=&end=[&sensor_id=&min=&max=&page=&page_size=]
func (h *ReadingsHandler) QueryReadings(w http.ResponseWriter, r *http.Request) {
	q, err := parseReadingQuery(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.QueryReadings(r.Context(), q)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"page":      page.Page,
		"page_size": page.PageSize,
		"total":     page.Total,
		"count":     len(page.Readings),
		"data":      page.Readings,
	})
}

// GetStats handles GET /readings/stats with the same filters as /readings
func (h *ReadingsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	q, err := parseReadingQuery(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.service.Stats(r.Context(), q)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"status": "success",
		"start":  q.Start,
		"end":    q.End,
		"stats":  stats,
	})
}

func parseReadingQuery(r *http.Request) (service.ReadingQuery, error) {
	values := r.URL.Query()

	start, end, err := parseDateRange(values)
	if err != nil {
		return service.ReadingQuery{}, err
	}

	q := service.ReadingQuery{
		SensorIDs: sensorIDs(r),
		Start:     start,
		End:       end,
		PageSize:  service.DefaultPageSize,
	}

	if q.Min, err = parseBound(values, "min"); err != nil {
		return service.ReadingQuery{}, err
	}
	if q.Max, err = parseBound(values, "max"); err != nil {
		return service.ReadingQuery{}, err
	}

	if p := values.Get("page"); p != "" {
		if parsed, err := parseInt(p, 0, maxPage); err == nil {
			q.Page = parsed
		}
	}
	if ps := values.Get("page_size"); ps != "" {
		if parsed, err := parseInt(ps, 1, service.MaxPageSize); err == nil {
			q.PageSize = parsed
		}
	}

	return q, nil
}

func parseDateRange(values url.Values) (start, end civil.Date, err error) {
	start, err = civil.ParseDate(values.Get("start"))
	if err != nil {
		return start, end, errors.New("start must be YYYY-MM-DD")
	}
	end, err = civil.ParseDate(values.Get("end"))
	if err != nil {
		return start, end, errors.New("end must be YYYY-MM-DD")
	}
	return start, end, nil
}

// parseBound reads an optional numeric value filter
func parseBound(values url.Values, key string) (*float64, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

// parseInt converts val to an int clamped to [min, max]
func parseInt(val string, min, max int) (int, error) {
	var result int
	_, err := fmt.Sscanf(val, "%d", &result)
	if err != nil {
		return 0, err
	}

	if result < min {
		result = min
	}
	if result > max {
		result = max
	}

	return result, nil
}
