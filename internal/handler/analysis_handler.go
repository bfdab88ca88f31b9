package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/orcainteriores/orca-api/internal/domain"
	"github.com/orcainteriores/orca-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Análise de arquivos 3D
// ============================================================

// uploadAnalysisHandler accepts a multipart upload ("file" field), stores it
// in a temp file and runs the analysis pipeline on it.
func uploadAnalysisHandler(svc *service.EstimateService, uploadDir string, maxMB float64, logger *zap.Logger) http.HandlerFunc {
	maxBytes := int64(maxMB * 1024 * 1024)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analyses")
		defer span.End()

		userID := UserIDFromContext(ctx)

		if r.ContentLength > maxBytes {
			err := &domain.ErrFileTooLarge{SizeMB: float64(r.ContentLength) / (1024 * 1024), LimitMB: maxMB}
			handleServiceError(w, err, logger)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Arquivo não enviado: use o campo multipart 'file'")
			return
		}
		defer file.Close()

		span.SetAttributes(attribute.String("file.name", header.Filename))

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext == "" {
			writeError(w, http.StatusBadRequest, "Arquivo sem extensão")
			return
		}

		// Keep the extension: the analyzer dispatches on it.
		tmp, err := os.CreateTemp(uploadDir, "upload-*"+ext)
		if err != nil {
			logger.Error("upload: create temp file", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		tmpPath := tmp.Name()
		defer os.Remove(tmpPath)

		if _, err := io.Copy(tmp, file); err != nil {
			tmp.Close()
			logger.Error("upload: write temp file", zap.Error(err))
			writeError(w, http.StatusRequestEntityTooLarge, "Falha ao receber o arquivo: tamanho máximo excedido")
			return
		}
		tmp.Close()

		analysis, err := svc.AnalyzeUpload(ctx, userID, tmpPath, header.Filename)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, analysis)
	}
}

func getAnalysisHandler(svc *service.EstimateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analyses/{analysisId}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		analysisID := chi.URLParam(r, "analysisId")

		analysis, err := svc.GetAnalysis(ctx, userID, analysisID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, analysis)
	}
}

func createQuoteHandler(svc *service.EstimateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analyses/{analysisId}/quote")
		defer span.End()

		userID := UserIDFromContext(ctx)
		analysisID := chi.URLParam(r, "analysisId")

		var cfg domain.PricingConfig
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		quote, err := svc.QuoteAnalysis(ctx, userID, analysisID, cfg)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, quote)
	}
}
