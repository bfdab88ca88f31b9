package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/orcainteriores/orca-api/internal/analyzer"
	"github.com/orcainteriores/orca-api/internal/domain"
	"github.com/orcainteriores/orca-api/internal/handler"
	"github.com/orcainteriores/orca-api/internal/infra/cache"
	"github.com/orcainteriores/orca-api/internal/infra/observability"
	"github.com/orcainteriores/orca-api/internal/infra/resilience"
	"github.com/orcainteriores/orca-api/internal/infra/store/sqlite"
	"github.com/orcainteriores/orca-api/internal/pricing"
	"github.com/orcainteriores/orca-api/internal/service"

	"go.uber.org/zap"
)

const kitchenOBJ = `# export cozinha completa
o Armario_Cozinha_Superior
v 0 0 0
v 2400 0 0
v 2400 350 0
v 0 350 0
v 0 0 700
v 2400 0 700
v 2400 350 700
v 0 350 700
f 1 2 3 4
f 5 6 7 8
o Balcao_Pia
v 0 0 0
v 1800 0 0
v 1800 600 0
v 0 0 900
f 9 10 11 12
o Parede_Fundo
v 0 0 0
v 4000 0 0
v 4000 0 2700
v 0 0 2700
f 13 14 15 16
`

// startServer boots the API over a temp SQLite database, exactly as
// cmd/orca wires it minus the process plumbing.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "integration.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	metrics := observability.NewMetrics()
	auth := service.NewAuthService(store, "integration-secret", 15*time.Minute, time.Hour, logger)
	estimate := service.NewEstimateService(
		analyzer.New(logger),
		pricing.NewEngine(logger),
		store,
		cache.New[*domain.Analysis](5*time.Minute),
		resilience.NewBulkhead(4),
		metrics,
		logger,
	)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:        auth,
		Estimate:    estimate,
		Dev:         service.NewDevService(store, logger),
		Store:       store,
		Metrics:     metrics,
		Logger:      logger,
		UploadDir:   t.TempDir(),
		UploadMaxMB: 50,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type apiClient struct {
	t       *testing.T
	baseURL string
	token   string
}

func (c *apiClient) postJSON(path string, body, out any) int {
	c.t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		c.t.Fatalf("marshal: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *apiClient) get(path string, out any) int {
	c.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out any) int {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			c.t.Fatalf("%s %s: decode: %v", req.Method, req.URL.Path, err)
		}
	}
	return resp.StatusCode
}

func (c *apiClient) upload(fileName, content string, out any) int {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		c.t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, c.baseURL+"/v1/analyses", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func TestIntegration_FullFlow(t *testing.T) {
	srv := startServer(t)
	c := &apiClient{t: t, baseURL: srv.URL}

	// Register + login.
	var reg domain.RegisterResponse
	if code := c.postJSON("/v1/auth/register", domain.RegisterRequest{
		Email: "joana@marcenaria.com.br", Password: "senha123", Plan: domain.PlanBasico,
	}, &reg); code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", code)
	}

	var login domain.LoginResponse
	if code := c.postJSON("/v1/auth/login", domain.LoginRequest{
		Email: "joana@marcenaria.com.br", Password: "senha123",
	}, &login); code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", code)
	}
	c.token = login.AccessToken

	// Refresh rotates the token pair.
	var refreshed domain.LoginResponse
	if code := c.postJSON("/v1/auth/refresh", domain.RefreshRequest{
		RefreshToken: login.RefreshToken,
	}, &refreshed); code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", code)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("refresh token was not rotated")
	}
	c.token = refreshed.AccessToken

	// Upload and analyze: the wall must be dropped, furniture kept.
	var analysis domain.Analysis
	if code := c.upload("cozinha_joana.obj", kitchenOBJ, &analysis); code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d", code)
	}
	if len(analysis.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(analysis.Components))
	}
	if len(analysis.Dropped) != 1 {
		t.Fatalf("expected 1 dropped object, got %d", len(analysis.Dropped))
	}
	if analysis.FileName != "cozinha_joana.obj" {
		t.Errorf("expected original file name, got %s", analysis.FileName)
	}

	// Price it.
	var quote domain.Quote
	if code := c.postJSON("/v1/analyses/"+analysis.ID+"/quote", domain.PricingConfig{
		Material: "mdf_18mm", Complexity: "media", AccessoryTier: "comum", MarginPct: 25,
	}, &quote); code != http.StatusCreated {
		t.Fatalf("quote: expected 201, got %d", code)
	}
	if !quote.Summary.ValorFinal.IsPositive() {
		t.Errorf("expected positive total, got %s", quote.Summary.ValorFinal)
	}
	if len(quote.Components) != 2 {
		t.Errorf("expected 2 priced components, got %d", len(quote.Components))
	}

	// History and stats reflect the new quote.
	var list domain.ListResponse[domain.QuoteRecord]
	if code := c.get("/v1/quotes", &list); code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	if list.Total != 1 {
		t.Errorf("expected 1 quote in history, got %d", list.Total)
	}

	var stats domain.UserStats
	if code := c.get("/v1/users/me/stats", &stats); code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", code)
	}
	if stats.TotalQuotes != 1 {
		t.Errorf("expected 1 total quote, got %d", stats.TotalQuotes)
	}
	if stats.QuotesLeft != domain.PlanQuoteLimit(domain.PlanBasico)-1 {
		t.Errorf("expected %d quotes left, got %d", domain.PlanQuoteLimit(domain.PlanBasico)-1, stats.QuotesLeft)
	}

	// Stored quote matches the one returned at creation.
	var stored domain.Quote
	if code := c.get("/v1/quotes/"+quote.ID, &stored); code != http.StatusOK {
		t.Fatalf("get quote: expected 200, got %d", code)
	}
	if !stored.Summary.ValorFinal.Equal(quote.Summary.ValorFinal) {
		t.Errorf("stored total %s differs from %s", stored.Summary.ValorFinal, quote.Summary.ValorFinal)
	}

	fmt.Printf("✅ full flow: %d components priced at R$ %s\n",
		len(quote.Components), quote.Summary.ValorFinal.StringFixed(2))
}

func TestIntegration_QuotaExhaustion(t *testing.T) {
	srv := startServer(t)
	c := &apiClient{t: t, baseURL: srv.URL}

	c.postJSON("/v1/auth/register", domain.RegisterRequest{
		Email: "quota@marcenaria.com.br", Password: "senha123",
	}, nil)
	var login domain.LoginResponse
	if code := c.postJSON("/v1/auth/login", domain.LoginRequest{
		Email: "quota@marcenaria.com.br", Password: "senha123",
	}, &login); code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", code)
	}
	c.token = login.AccessToken

	var analysis domain.Analysis
	if code := c.upload("projeto.obj", kitchenOBJ, &analysis); code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d", code)
	}

	// The basico plan allows 10 quotes per month.
	for i := 0; i < 10; i++ {
		if code := c.postJSON("/v1/analyses/"+analysis.ID+"/quote", domain.PricingConfig{}, nil); code != http.StatusCreated {
			t.Fatalf("quote %d: expected 201, got %d", i+1, code)
		}
	}
	if code := c.postJSON("/v1/analyses/"+analysis.ID+"/quote", domain.PricingConfig{}, nil); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exhausting quota, got %d", code)
	}

	// The dev reset endpoint restores the allowance.
	if code := c.postJSON("/v1/dev/reset-monthly-counters", nil, nil); code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", code)
	}
	if code := c.postJSON("/v1/analyses/"+analysis.ID+"/quote", domain.PricingConfig{}, nil); code != http.StatusCreated {
		t.Fatalf("expected quota restored after reset, got %d", code)
	}
}

func TestIntegration_PasswordChangeRevokesSessions(t *testing.T) {
	srv := startServer(t)
	c := &apiClient{t: t, baseURL: srv.URL}

	c.postJSON("/v1/auth/register", domain.RegisterRequest{
		Email: "troca@marcenaria.com.br", Password: "senha123",
	}, nil)
	var login domain.LoginResponse
	if code := c.postJSON("/v1/auth/login", domain.LoginRequest{
		Email: "troca@marcenaria.com.br", Password: "senha123",
	}, &login); code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", code)
	}
	c.token = login.AccessToken

	payload, _ := json.Marshal(domain.ChangePasswordRequest{
		CurrentPassword: "senha123", NewPassword: "novasenha456",
	})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/auth/password", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if code := c.do(req, nil); code != http.StatusOK {
		t.Fatalf("change password: expected 200, got %d", code)
	}

	// The pre-change refresh token is dead.
	if code := c.postJSON("/v1/auth/refresh", domain.RefreshRequest{
		RefreshToken: login.RefreshToken,
	}, nil); code != http.StatusUnauthorized {
		t.Errorf("expected old refresh token revoked, got %d", code)
	}

	// Old password out, new password in.
	if code := c.postJSON("/v1/auth/login", domain.LoginRequest{
		Email: "troca@marcenaria.com.br", Password: "senha123",
	}, nil); code != http.StatusUnauthorized {
		t.Errorf("old password still accepted: %d", code)
	}
	if code := c.postJSON("/v1/auth/login", domain.LoginRequest{
		Email: "troca@marcenaria.com.br", Password: "novasenha456",
	}, nil); code != http.StatusOK {
		t.Errorf("new password rejected: %d", code)
	}
}

func TestIntegration_UnsupportedUpload(t *testing.T) {
	srv := startServer(t)
	c := &apiClient{t: t, baseURL: srv.URL}

	c.postJSON("/v1/auth/register", domain.RegisterRequest{
		Email: "formato@marcenaria.com.br", Password: "senha123",
	}, nil)
	var login domain.LoginResponse
	c.postJSON("/v1/auth/login", domain.LoginRequest{
		Email: "formato@marcenaria.com.br", Password: "senha123",
	}, &login)
	c.token = login.AccessToken

	if code := c.upload("projeto.skp", "not a real model", nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported format, got %d", code)
	}
}
