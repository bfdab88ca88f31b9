package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/orcainteriores/orca-api/internal/analyzer"
	"github.com/orcainteriores/orca-api/internal/domain"
	"github.com/orcainteriores/orca-api/internal/infra/cache"
	"github.com/orcainteriores/orca-api/internal/infra/observability"
	"github.com/orcainteriores/orca-api/internal/infra/resilience"
	"github.com/orcainteriores/orca-api/internal/pricing"
	"github.com/orcainteriores/orca-api/internal/service"

	"go.uber.org/zap"
)

const kitchenOBJ = `o Armario_Cozinha
v 0 0 0
v 2000 0 0
v 2000 600 0
v 0 600 0
v 0 0 1500
v 2000 0 1500
v 2000 600 1500
v 0 600 1500
f 1 2 3 4
f 5 6 7 8
o Balcao_Pia
v 0 0 0
v 1800 0 0
v 1800 600 0
v 0 0 900
f 9 10 11 12
`

func newEstimateService(store *mockStore) *service.EstimateService {
	logger := zap.NewNop()
	return service.NewEstimateService(
		analyzer.New(logger),
		pricing.NewEngine(logger),
		store,
		cache.New[*domain.Analysis](30*time.Minute),
		resilience.NewBulkhead(4),
		observability.NewMetrics(),
		logger,
	)
}

func seedUser(store *mockStore, id string, used, limit int) {
	store.users[id] = &domain.User{
		ID: id, Email: id + "@example.com",
		Plan:            domain.PlanBasico,
		QuotesThisMonth: used,
		QuoteLimit:      limit,
		Active:          true,
	}
}

func writeOBJ(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cozinha.obj")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestAnalyzeUpload(t *testing.T) {
	store := newMockStore()
	svc := newEstimateService(store)
	path := writeOBJ(t, kitchenOBJ)

	analysis, err := svc.AnalyzeUpload(context.Background(), "user-1", path, "projeto cliente.obj")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if analysis.FileName != "projeto cliente.obj" {
		t.Errorf("expected original file name kept, got %s", analysis.FileName)
	}
	if len(analysis.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(analysis.Components))
	}

	// The analysis is retrievable for the same user only.
	if _, err := svc.GetAnalysis(context.Background(), "user-1", analysis.ID); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
	_, err = svc.GetAnalysis(context.Background(), "user-2", analysis.ID)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestAnalyzeUpload_MissingFile(t *testing.T) {
	svc := newEstimateService(newMockStore())

	_, err := svc.AnalyzeUpload(context.Background(), "user-1", filepath.Join(t.TempDir(), "nada.obj"), "nada.obj")
	var notFound *domain.ErrFileNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestQuoteAnalysis(t *testing.T) {
	store := newMockStore()
	seedUser(store, "user-1", 0, 10)
	svc := newEstimateService(store)

	analysis, err := svc.AnalyzeUpload(context.Background(), "user-1", writeOBJ(t, kitchenOBJ), "cozinha.obj")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	quote, err := svc.QuoteAnalysis(context.Background(), "user-1", analysis.ID, domain.PricingConfig{MarginPct: 20})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.AnalysisID != analysis.ID {
		t.Errorf("expected quote bound to analysis %s, got %s", analysis.ID, quote.AnalysisID)
	}
	if !quote.Summary.ValorFinal.IsPositive() {
		t.Errorf("expected positive final value, got %s", quote.Summary.ValorFinal)
	}

	// Persisted and counted against the quota.
	if store.users["user-1"].QuotesThisMonth != 1 {
		t.Errorf("expected quota usage 1, got %d", store.users["user-1"].QuotesThisMonth)
	}
	stored, err := svc.GetQuote(context.Background(), "user-1", quote.ID)
	if err != nil {
		t.Fatalf("get stored quote: %v", err)
	}
	if !stored.Summary.ValorFinal.Equal(quote.Summary.ValorFinal) {
		t.Errorf("stored quote differs: %s vs %s", stored.Summary.ValorFinal, quote.Summary.ValorFinal)
	}
}

func TestQuoteAnalysis_QuotaExceeded(t *testing.T) {
	store := newMockStore()
	seedUser(store, "user-1", 10, 10)
	svc := newEstimateService(store)

	analysis, err := svc.AnalyzeUpload(context.Background(), "user-1", writeOBJ(t, kitchenOBJ), "cozinha.obj")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	_, err = svc.QuoteAnalysis(context.Background(), "user-1", analysis.ID, domain.PricingConfig{})
	var quota *domain.ErrQuotaExceeded
	if !errors.As(err, &quota) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if quota.Used != 10 || quota.Limit != 10 {
		t.Errorf("unexpected quota detail: %d/%d", quota.Used, quota.Limit)
	}
	if len(store.quotes["user-1"]) != 0 {
		t.Error("quote persisted despite exceeded quota")
	}
}

func TestQuoteAnalysis_UnknownAnalysis(t *testing.T) {
	store := newMockStore()
	seedUser(store, "user-1", 0, 10)
	svc := newEstimateService(store)

	_, err := svc.QuoteAnalysis(context.Background(), "user-1", "inexistente", domain.PricingConfig{})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListQuotes_Pagination(t *testing.T) {
	store := newMockStore()
	seedUser(store, "user-1", 0, 50)
	svc := newEstimateService(store)

	analysis, err := svc.AnalyzeUpload(context.Background(), "user-1", writeOBJ(t, kitchenOBJ), "cozinha.obj")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.QuoteAnalysis(context.Background(), "user-1", analysis.ID, domain.PricingConfig{}); err != nil {
			t.Fatalf("quote %d: %v", i, err)
		}
	}

	records, total, err := svc.ListQuotes(context.Background(), "user-1", 1, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(records) != 3 {
		t.Errorf("expected page of 3, got %d", len(records))
	}

	records, _, err = svc.ListQuotes(context.Background(), "user-1", 2, 3)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 on last page, got %d", len(records))
	}
}

func TestQuoteReport(t *testing.T) {
	store := newMockStore()
	seedUser(store, "user-1", 0, 10)
	svc := newEstimateService(store)

	analysis, err := svc.AnalyzeUpload(context.Background(), "user-1", writeOBJ(t, kitchenOBJ), "cozinha.obj")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	quote, err := svc.QuoteAnalysis(context.Background(), "user-1", analysis.ID, domain.PricingConfig{})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	report, err := svc.QuoteReport(context.Background(), "user-1", quote.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(report, "cozinha.obj") || !strings.Contains(report, "VALOR FINAL") {
		t.Error("report missing expected sections")
	}

	chart, err := svc.QuoteChartData(context.Background(), "user-1", quote.ID)
	if err != nil {
		t.Fatalf("chart data: %v", err)
	}
	if len(chart.ComponentCosts) != len(quote.Components) {
		t.Errorf("expected %d component points, got %d", len(quote.Components), len(chart.ComponentCosts))
	}
}

func TestGetQuote_NotFound(t *testing.T) {
	store := newMockStore()
	svc := newEstimateService(store)

	_, err := svc.GetQuote(context.Background(), "user-1", "inexistente")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserStats(t *testing.T) {
	store := newMockStore()
	seedUser(store, "user-1", 0, 10)
	svc := newEstimateService(store)

	analysis, err := svc.AnalyzeUpload(context.Background(), "user-1", writeOBJ(t, kitchenOBJ), "cozinha.obj")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.QuoteAnalysis(context.Background(), "user-1", analysis.ID, domain.PricingConfig{}); err != nil {
			t.Fatalf("quote %d: %v", i, err)
		}
	}

	stats, err := svc.UserStats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalQuotes != 3 {
		t.Errorf("expected 3 quotes, got %d", stats.TotalQuotes)
	}
	if stats.QuotesLeft != 7 {
		t.Errorf("expected 7 quotes left, got %d", stats.QuotesLeft)
	}
	if stats.CurrentPlan != domain.PlanBasico {
		t.Errorf("expected plan basico, got %s", stats.CurrentPlan)
	}
	if stats.AvgValue <= 0 {
		t.Errorf("expected positive average, got %.2f", stats.AvgValue)
	}
}

func TestResetMonthlyCounters(t *testing.T) {
	store := newMockStore()
	seedUser(store, "user-1", 7, 10)
	seedUser(store, "user-2", 0, 10)
	dev := service.NewDevService(store, zap.NewNop())

	affected, err := dev.ResetMonthlyCounters(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if affected != 1 {
		t.Errorf("expected 1 user affected, got %d", affected)
	}
	if store.users["user-1"].QuotesThisMonth != 0 {
		t.Error("counter not reset")
	}
}
