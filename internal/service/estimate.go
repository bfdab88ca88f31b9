package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orcainteriores/orca-api/internal/analyzer"
	"github.com/orcainteriores/orca-api/internal/domain"
	"github.com/orcainteriores/orca-api/internal/infra/observability"
	"github.com/orcainteriores/orca-api/internal/infra/resilience"
	"github.com/orcainteriores/orca-api/internal/port"
	"github.com/orcainteriores/orca-api/internal/pricing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var estimateTracer = otel.Tracer("service/estimate")

const analysisCacheName = "analysis"

// EstimateService runs file analyses and turns them into quotes.
type EstimateService struct {
	analyzer *analyzer.Analyzer
	engine   *pricing.Engine
	store    port.Store
	cache    port.Cache[*domain.Analysis]
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewEstimateService wires the analysis pipeline, pricing engine and storage.
func NewEstimateService(
	an *analyzer.Analyzer,
	engine *pricing.Engine,
	store port.Store,
	cache port.Cache[*domain.Analysis],
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *EstimateService {
	return &EstimateService{
		analyzer: an,
		engine:   engine,
		store:    store,
		cache:    cache,
		bulkhead: bulkhead,
		metrics:  metrics,
		logger:   logger,
	}
}

// AnalyzeUpload parses the uploaded 3D file at path and caches the result
// under the owning user. originalName is the client-side file name; path
// points at the server-side temp copy (same extension).
func (s *EstimateService) AnalyzeUpload(ctx context.Context, userID, path, originalName string) (*domain.Analysis, error) {
	ctx, span := estimateTracer.Start(ctx, "EstimateService.AnalyzeUpload")
	defer span.End()
	span.SetAttributes(attribute.String("file.name", originalName))

	// Parsing big OBJ files is CPU and memory heavy; cap concurrency.
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "analyze"}
	}
	defer s.bulkhead.Release()

	start := time.Now()
	analysis, err := s.analyzer.AnalyzeFile(ctx, path)
	s.metrics.RecordRequestDuration("analyze", time.Since(start))
	if err != nil {
		s.metrics.IncrAnalysis("error")
		return nil, err
	}
	s.metrics.IncrAnalysis("success")
	s.metrics.RecordObjects(len(analysis.Components), len(analysis.Dropped))

	analysis.FileName = originalName
	s.cache.Set(analysisKey(userID, analysis.ID), analysis)

	s.logger.Info("file analyzed",
		zap.String("user_id", userID),
		zap.String("analysis_id", analysis.ID),
		zap.String("format", analysis.Format),
		zap.Int("components", len(analysis.Components)),
		zap.Int("dropped", len(analysis.Dropped)),
		zap.Duration("took", time.Since(start)),
	)
	return analysis, nil
}

// GetAnalysis returns a cached analysis owned by userID.
func (s *EstimateService) GetAnalysis(ctx context.Context, userID, analysisID string) (*domain.Analysis, error) {
	_, span := estimateTracer.Start(ctx, "EstimateService.GetAnalysis")
	defer span.End()

	analysis, ok := s.cache.Get(analysisKey(userID, analysisID))
	if !ok {
		s.metrics.IncrCacheMiss(analysisCacheName)
		return nil, &domain.ErrNotFound{Resource: "analysis", ID: analysisID}
	}
	s.metrics.IncrCacheHit(analysisCacheName)
	return analysis, nil
}

// QuoteAnalysis prices a previously analyzed file and persists the quote.
// The user's monthly quota is checked before pricing.
func (s *EstimateService) QuoteAnalysis(ctx context.Context, userID, analysisID string, cfg domain.PricingConfig) (*domain.Quote, error) {
	ctx, span := estimateTracer.Start(ctx, "EstimateService.QuoteAnalysis")
	defer span.End()

	analysis, err := s.GetAnalysis(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if user.QuotesThisMonth >= user.QuoteLimit {
		s.logger.Warn("quote quota exceeded",
			zap.String("user_id", userID),
			zap.String("plan", user.Plan),
			zap.Int("used", user.QuotesThisMonth),
		)
		return nil, &domain.ErrQuotaExceeded{Plan: user.Plan, Limit: user.QuoteLimit, Used: user.QuotesThisMonth}
	}

	quote, err := s.engine.Price(analysis, cfg)
	if err != nil {
		s.metrics.IncrQuote("error")
		return nil, err
	}

	payload, err := json.Marshal(quote)
	if err != nil {
		s.metrics.IncrQuote("error")
		return nil, fmt.Errorf("marshal quote: %w", err)
	}
	if err := s.store.SaveQuote(ctx, userID, quote, payload); err != nil {
		s.metrics.IncrQuote("error")
		return nil, fmt.Errorf("save quote: %w", err)
	}
	if err := s.store.IncrementQuoteCount(ctx, userID); err != nil {
		s.logger.Error("increment quote count", zap.String("user_id", userID), zap.Error(err))
	}
	s.metrics.IncrQuote("success")

	s.logger.Info("quote generated",
		zap.String("user_id", userID),
		zap.String("quote_id", quote.ID),
		zap.String("analysis_id", analysisID),
		zap.Int("quota_used", user.QuotesThisMonth+1),
		zap.Int("quota_limit", user.QuoteLimit),
	)
	return quote, nil
}

// ListQuotes returns the user's quote history, newest first.
func (s *EstimateService) ListQuotes(ctx context.Context, userID string, page, pageSize int) ([]domain.QuoteRecord, int, error) {
	ctx, span := estimateTracer.Start(ctx, "EstimateService.ListQuotes")
	defer span.End()

	return s.store.ListQuotes(ctx, userID, page, pageSize)
}

// GetQuote loads a stored quote by ID, scoped to the owning user.
func (s *EstimateService) GetQuote(ctx context.Context, userID, quoteID string) (*domain.Quote, error) {
	ctx, span := estimateTracer.Start(ctx, "EstimateService.GetQuote")
	defer span.End()

	payload, err := s.store.GetQuotePayload(ctx, userID, quoteID)
	if err != nil {
		return nil, fmt.Errorf("load quote: %w", err)
	}
	if payload == nil {
		return nil, &domain.ErrNotFound{Resource: "quote", ID: quoteID}
	}

	var quote domain.Quote
	if err := json.Unmarshal(payload, &quote); err != nil {
		return nil, fmt.Errorf("decode quote %s: %w", quoteID, err)
	}
	return &quote, nil
}

// QuoteReport renders the plain-text report for a stored quote.
func (s *EstimateService) QuoteReport(ctx context.Context, userID, quoteID string) (string, error) {
	quote, err := s.GetQuote(ctx, userID, quoteID)
	if err != nil {
		return "", err
	}
	return pricing.Report(quote), nil
}

// QuoteChartData returns chart-ready series for a stored quote.
func (s *EstimateService) QuoteChartData(ctx context.Context, userID, quoteID string) (*domain.ChartData, error) {
	quote, err := s.GetQuote(ctx, userID, quoteID)
	if err != nil {
		return nil, err
	}
	return pricing.ChartData(quote), nil
}

// UserStats aggregates the user's quoting history and remaining quota.
func (s *EstimateService) UserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	ctx, span := estimateTracer.Start(ctx, "EstimateService.UserStats")
	defer span.End()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}

	stats, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user stats: %w", err)
	}

	stats.CurrentPlan = user.Plan
	stats.MonthlyLimit = user.QuoteLimit
	stats.QuotesLeft = user.QuoteLimit - user.QuotesThisMonth
	if stats.QuotesLeft < 0 {
		stats.QuotesLeft = 0
	}
	return stats, nil
}

func analysisKey(userID, analysisID string) string {
	return userID + ":" + analysisID
}
