package handler

import (
	"net/http"

	"github.com/orcainteriores/orca-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dev Tools Handlers
// ============================================================

func devResetCountersHandler(devSvc *service.DevService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dev/reset-monthly-counters")
		defer span.End()

		affected, err := devSvc.ResetMonthlyCounters(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":        true,
			"users_affected": affected,
		})
	}
}
