package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/orcainteriores/orca-api/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = 20
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var fileNotFound *domain.ErrFileNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var unsupported *domain.ErrUnsupportedFormat
	var readFailure *domain.ErrReadFailure
	var tooLarge *domain.ErrFileTooLarge
	var noBillable *domain.ErrNoBillableComponents
	var quotaExceeded *domain.ErrQuotaExceeded
	var unauthorized *domain.ErrUnauthorized
	var disabled *domain.ErrAccountDisabled
	var forbidden *domain.ErrForbidden
	var conflict *domain.ErrConflict

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &fileNotFound):
		logger.Debug("file not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unsupported):
		logger.Debug("unsupported format", zap.String("extension", unsupported.Extension))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &readFailure):
		logger.Error("file read failure", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooLarge):
		logger.Warn("file too large",
			zap.Float64("size_mb", tooLarge.SizeMB),
			zap.Float64("limit_mb", tooLarge.LimitMB),
		)
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.As(err, &noBillable):
		logger.Debug("no billable components", zap.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &quotaExceeded):
		logger.Warn("quota exceeded",
			zap.String("plan", quotaExceeded.Plan),
			zap.Int("limit", quotaExceeded.Limit),
		)
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &disabled):
		logger.Warn("account disabled", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
