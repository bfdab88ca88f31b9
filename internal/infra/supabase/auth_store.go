package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/orcainteriores/orca-api/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// AuthStore implementation — user/credential CRUD via PostgREST
// ============================================================

// supabaseUser maps the usuarios table columns.
type supabaseUser struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	Plano           string  `json:"plano"`
	OrcamentosMes   int     `json:"orcamentos_mes"`
	LimiteOrcamento int     `json:"limite_orcamentos"`
	Ativo           bool    `json:"ativo"`
	CriadoEm        string  `json:"criado_em"`
	UltimoLoginEm   *string `json:"ultimo_login_em"`
}

func (u supabaseUser) toDomain() *domain.User {
	user := &domain.User{
		ID:              u.ID,
		Email:           u.Email,
		Plan:            u.Plano,
		QuotesThisMonth: u.OrcamentosMes,
		QuoteLimit:      u.LimiteOrcamento,
		Active:          u.Ativo,
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, u.CriadoEm)
	if u.UltimoLoginEm != nil {
		if t, err := time.Parse(time.RFC3339, *u.UltimoLoginEm); err == nil {
			user.LastLoginAt = &t
		}
	}
	return user
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	path := fmt.Sprintf("usuarios?email=eq.%s&limit=1", url.QueryEscape(email))
	return c.fetchUser(ctx, path)
}

func (c *Client) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByID")
	defer span.End()

	path := fmt.Sprintf("usuarios?id=eq.%s&limit=1", userID)
	return c.fetchUser(ctx, path)
}

func (c *Client) fetchUser(ctx context.Context, path string) (*domain.User, error) {
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return nil, nil // not found is not an error for auth lookup
	}

	var rows []supabaseUser
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode usuarios: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

func (c *Client) CreateUser(ctx context.Context, user *domain.User, passwordHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	userData := map[string]any{
		"id":                user.ID,
		"email":             user.Email,
		"plano":             user.Plan,
		"orcamentos_mes":    0,
		"limite_orcamentos": user.QuoteLimit,
		"ativo":             user.Active,
		"criado_em":         user.CreatedAt.Format(time.RFC3339),
	}
	if _, err := c.doPost(ctx, "usuarios", userData); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	credData := map[string]any{
		"usuario_id":      user.ID,
		"password_hash":   passwordHash,
		"failed_attempts": 0,
	}
	if _, err := c.doPost(ctx, "credenciais", credData); err != nil {
		return fmt.Errorf("create credentials: %w", err)
	}
	return nil
}

func (c *Client) UpdateUserPlan(ctx context.Context, userID, plan string, quoteLimit int) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateUserPlan")
	defer span.End()

	path := fmt.Sprintf("usuarios?id=eq.%s", userID)
	return c.doPatch(ctx, path, map[string]any{
		"plano":             plan,
		"limite_orcamentos": quoteLimit,
	})
}

func (c *Client) IncrementQuoteCount(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.IncrementQuoteCount")
	defer span.End()

	// PostgREST has no atomic increment; read-modify-write is acceptable
	// here because a lost update only undercounts quota usage by one.
	user, err := c.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}

	path := fmt.Sprintf("usuarios?id=eq.%s", userID)
	return c.doPatch(ctx, path, map[string]any{
		"orcamentos_mes": user.QuotesThisMonth + 1,
	})
}

func (c *Client) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ResetMonthlyCounters")
	defer span.End()

	// PATCH does not report affected rows; count first.
	body, err := c.doRequest(ctx, http.MethodGet, "usuarios?orcamentos_mes=gt.0&select=id")
	if err != nil {
		return 0, err
	}
	var rows []struct {
		ID string `json:"id"`
	}
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return 0, fmt.Errorf("decode usuarios: %w", err)
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := c.doPatch(ctx, "usuarios?orcamentos_mes=gt.0", map[string]any{"orcamentos_mes": 0}); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// --- Credentials ---

// supabaseCredential maps the credenciais table columns.
type supabaseCredential struct {
	UsuarioID         string  `json:"usuario_id"`
	PasswordHash      string  `json:"password_hash"`
	FailedAttempts    int     `json:"failed_attempts"`
	LockedUntil       *string `json:"locked_until"`
	LastLoginAt       *string `json:"last_login_at"`
	PasswordChangedAt *string `json:"password_changed_at"`
}

func (c *Client) GetCredentials(ctx context.Context, userID string) (*domain.Credential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCredentials")
	defer span.End()

	path := fmt.Sprintf("credenciais?usuario_id=eq.%s&limit=1", userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}

	var rows []supabaseCredential
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode credenciais: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}

	r := rows[0]
	cred := &domain.Credential{
		UserID:         r.UsuarioID,
		PasswordHash:   r.PasswordHash,
		FailedAttempts: r.FailedAttempts,
	}
	cred.LockedUntil = parseTimePtr(r.LockedUntil)
	cred.LastLoginAt = parseTimePtr(r.LastLoginAt)
	cred.PasswordChangedAt = parseTimePtr(r.PasswordChangedAt)
	return cred, nil
}

func (c *Client) UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCredentials")
	defer span.End()

	path := fmt.Sprintf("credenciais?usuario_id=eq.%s", userID)
	return c.doPatch(ctx, path, updates)
}

// --- Refresh tokens ---

func (c *Client) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.StoreRefreshToken")
	defer span.End()

	data := map[string]any{
		"id":         uuid.New().String(),
		"usuario_id": userID,
		"token_hash": tokenHash,
		"expires_at": expiresAt.Format(time.RFC3339),
		"revoked":    false,
	}

	_, err := c.doPost(ctx, "refresh_tokens", data)
	return err
}

// supabaseRefreshToken maps the refresh_tokens table columns.
type supabaseRefreshToken struct {
	ID        string `json:"id"`
	UsuarioID string `json:"usuario_id"`
	TokenHash string `json:"token_hash"`
	ExpiresAt string `json:"expires_at"`
	Revoked   bool   `json:"revoked"`
}

func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	path := fmt.Sprintf("refresh_tokens?token_hash=eq.%s&revoked=eq.false&limit=1", tokenHash)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []supabaseRefreshToken
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode refresh_tokens: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	r := rows[0]
	token := &domain.RefreshToken{
		ID:        r.ID,
		UserID:    r.UsuarioID,
		TokenHash: r.TokenHash,
		Revoked:   r.Revoked,
	}
	token.ExpiresAt, _ = time.Parse(time.RFC3339, r.ExpiresAt)
	return token, nil
}

func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	path := fmt.Sprintf("refresh_tokens?token_hash=eq.%s", tokenHash)
	return c.doPatch(ctx, path, map[string]any{"revoked": true})
}

func (c *Client) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeAllRefreshTokens")
	defer span.End()

	path := fmt.Sprintf("refresh_tokens?usuario_id=eq.%s&revoked=eq.false", userID)
	return c.doPatch(ctx, path, map[string]any{"revoked": true})
}

func parseTimePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}
