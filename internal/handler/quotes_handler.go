package handler

import (
	"net/http"

	"github.com/orcainteriores/orca-api/internal/domain"
	"github.com/orcainteriores/orca-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Histórico de orçamentos
// ============================================================

func listQuotesHandler(svc *service.EstimateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/quotes")
		defer span.End()

		userID := UserIDFromContext(ctx)
		page, pageSize := parsePagination(r)

		records, total, err := svc.ListQuotes(ctx, userID, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.QuoteRecord]{
			Data:     records,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
			HasMore:  page*pageSize < total,
		})
	}
}

func getQuoteHandler(svc *service.EstimateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/quotes/{quoteId}")
		defer span.End()

		userID := UserIDFromContext(ctx)
		quoteID := chi.URLParam(r, "quoteId")

		quote, err := svc.GetQuote(ctx, userID, quoteID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, quote)
	}
}

// quoteReportHandler returns the quote as a plain-text report suitable for
// printing or attaching to a client proposal.
func quoteReportHandler(svc *service.EstimateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/quotes/{quoteId}/report")
		defer span.End()

		userID := UserIDFromContext(ctx)
		quoteID := chi.URLParam(r, "quoteId")

		report, err := svc.QuoteReport(ctx, userID, quoteID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(report))
	}
}

func quoteChartDataHandler(svc *service.EstimateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/quotes/{quoteId}/chart-data")
		defer span.End()

		userID := UserIDFromContext(ctx)
		quoteID := chi.URLParam(r, "quoteId")

		data, err := svc.QuoteChartData(ctx, userID, quoteID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, data)
	}
}
