package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/health"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/service"
)

// writeServiceError maps service errors to status codes
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, health.ErrInvalidRange), errors.Is(err, service.ErrInvalidFilter):
		writeError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownSensor):
		writeError(w, logger, http.StatusNotFound, err.Error())
	default:
		logger.Error("Request failed", zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, "failed to read sensor data")
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, msg string) {
	writeJSON(w, logger, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
