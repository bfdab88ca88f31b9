package handler

import (
	"net/http"
	"time"

	"github.com/orcainteriores/orca-api/internal/domain"
	"github.com/orcainteriores/orca-api/internal/infra/observability"
	"github.com/orcainteriores/orca-api/internal/port"
	"github.com/orcainteriores/orca-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// RouterConfig carries the services and settings the router needs.
type RouterConfig struct {
	Auth        *service.AuthService
	Estimate    *service.EstimateService
	Dev         *service.DevService
	Store       port.Pinger
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	UploadDir   string
	UploadMaxMB float64
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	logger := cfg.Logger

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(cfg.Store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Autenticação
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			// Public routes
			r.Post("/register", authRegisterHandler(cfg.Auth, logger))
			r.Post("/login", authLoginHandler(cfg.Auth, logger))
			r.Post("/refresh", authRefreshHandler(cfg.Auth, logger))

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(cfg.Auth, logger))
				r.Post("/logout", authLogoutHandler(cfg.Auth, logger))
				r.Put("/password", authChangePasswordHandler(cfg.Auth, logger))
			})
		})

		// =============================================
		// Métricas do motor de orçamentos
		// =============================================
		r.Get("/metrics/engine", engineMetricsHandler(cfg.Metrics))

		// =============================================
		// Análises e orçamentos (protected)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(cfg.Auth, logger))

			// Upload e análise de arquivos 3D
			r.Post("/analyses", uploadAnalysisHandler(cfg.Estimate, cfg.UploadDir, cfg.UploadMaxMB, logger))
			r.Get("/analyses/{analysisId}", getAnalysisHandler(cfg.Estimate, logger))
			r.Post("/analyses/{analysisId}/quote", createQuoteHandler(cfg.Estimate, logger))

			// Histórico de orçamentos
			r.Get("/quotes", listQuotesHandler(cfg.Estimate, logger))
			r.Get("/quotes/{quoteId}", getQuoteHandler(cfg.Estimate, logger))
			r.Get("/quotes/{quoteId}/report", quoteReportHandler(cfg.Estimate, logger))
			r.Get("/quotes/{quoteId}/chart-data", quoteChartDataHandler(cfg.Estimate, logger))

			// Conta
			r.Get("/users/me", getMeHandler(cfg.Auth, logger))
			r.Get("/users/me/stats", userStatsHandler(cfg.Estimate, logger))
			r.Put("/users/me/plan", changePlanHandler(cfg.Auth, logger))
		})

		// =============================================
		// Dev Tools (mounted only in dev mode)
		// =============================================
		if cfg.Dev != nil {
			r.Post("/dev/reset-monthly-counters", devResetCountersHandler(cfg.Dev, logger))
		}
	})

	return r
}

// ============================================================
// Probes & metrics
// ============================================================

func healthzHandler(store port.Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "orca-api", Status: "healthy", LatencyMs: 0, UptimePercent: 99.99, LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("healthz: store ping failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "store", Status: status, LatencyMs: latency,
				UptimePercent: 99.9, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
