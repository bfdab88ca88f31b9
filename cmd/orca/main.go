package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orcainteriores/orca-api/internal/analyzer"
	"github.com/orcainteriores/orca-api/internal/config"
	"github.com/orcainteriores/orca-api/internal/domain"
	"github.com/orcainteriores/orca-api/internal/handler"
	"github.com/orcainteriores/orca-api/internal/infra/cache"
	"github.com/orcainteriores/orca-api/internal/infra/observability"
	"github.com/orcainteriores/orca-api/internal/infra/resilience"
	"github.com/orcainteriores/orca-api/internal/infra/store/sqlite"
	"github.com/orcainteriores/orca-api/internal/infra/supabase"
	"github.com/orcainteriores/orca-api/internal/port"
	"github.com/orcainteriores/orca-api/internal/pricing"
	"github.com/orcainteriores/orca-api/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Float64("upload_max_mb", cfg.UploadMaxMB),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
		zap.Bool("dev_mode", cfg.DevMode),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "orca-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	analysisCache := cache.New[*domain.Analysis](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Store ---
	var store port.Store
	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as data backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		httpClient := &http.Client{Timeout: 10 * time.Second}
		cb := resilience.NewCircuitBreaker("supabase")
		store = supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			logger,
		)
	} else {
		logger.Info("using SQLite as data backend", zap.String("path", cfg.SQLitePath))
		sqliteStore, err := sqlite.New(cfg.SQLitePath, logger)
		if err != nil {
			logger.Fatal("failed to open sqlite store", zap.Error(err))
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}

	// --- Services ---
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)
	estimateSvc := service.NewEstimateService(
		analyzer.New(logger),
		pricing.NewEngine(logger),
		store,
		analysisCache,
		bulkhead,
		metrics,
		logger,
	)

	var devSvc *service.DevService
	if cfg.DevMode {
		devSvc = service.NewDevService(store, logger)
		if err := authSvc.SeedDemoUsers(context.Background()); err != nil {
			logger.Warn("failed to seed demo users", zap.Error(err))
		}
		logger.Info("dev mode enabled: demo users seeded, /v1/dev routes mounted")
	}

	// --- Router ---
	router := handler.NewRouter(handler.RouterConfig{
		Auth:        authSvc,
		Estimate:    estimateSvc,
		Dev:         devSvc,
		Store:       store,
		Metrics:     metrics,
		Logger:      logger,
		UploadDir:   cfg.UploadDir,
		UploadMaxMB: cfg.UploadMaxMB,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
