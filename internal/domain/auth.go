package domain

import "time"

// ============================================================
// Auth — Request / Response types (matches frontend API contract)
// ============================================================

// Subscription plans and their monthly quote limits.
const (
	PlanBasico       = "basico"
	PlanProfissional = "profissional"
	PlanEmpresarial  = "empresarial"
)

// PlanQuoteLimit returns how many quotes per month a plan allows.
// The empresarial plan is effectively unlimited.
func PlanQuoteLimit(plan string) int {
	switch plan {
	case PlanProfissional:
		return 50
	case PlanEmpresarial:
		return 999999
	default:
		return 10
	}
}

// ValidPlan reports whether plan names a known subscription tier.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanBasico, PlanProfissional, PlanEmpresarial:
		return true
	}
	return false
}

// RegisterRequest is the body for POST /v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Plan     string `json:"plan,omitempty"`
}

// RegisterResponse is the body for 201 from POST /v1/auth/register.
type RegisterResponse struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Plan    string `json:"plan"`
	Message string `json:"message"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body for 200 from POST /v1/auth/login.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Plan         string `json:"plan"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest is the body for PUT /v1/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePlanRequest is the body for PUT /v1/users/me/plan.
type ChangePlanRequest struct {
	Plan string `json:"plan"`
}

// User is an account in the estimator.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Plan            string     `json:"plano"`
	QuotesThisMonth int        `json:"orcamentos_mes"`
	QuoteLimit      int        `json:"limite_orcamentos"`
	Active          bool       `json:"ativo"`
	CreatedAt       time.Time  `json:"criado_em"`
	LastLoginAt     *time.Time `json:"ultimo_login,omitempty"`
}

// UserStats aggregates a user's quote history.
type UserStats struct {
	TotalQuotes  int        `json:"total_orcamentos"`
	TotalValue   float64    `json:"valor_total"`
	AvgValue     float64    `json:"valor_medio"`
	TotalAreaM2  float64    `json:"area_total_m2"`
	LastQuoteAt  *time.Time `json:"ultimo_orcamento,omitempty"`
	QuotesLeft   int        `json:"orcamentos_restantes"`
	CurrentPlan  string     `json:"plano_atual"`
	MonthlyLimit int        `json:"limite_mensal"`
}

// Credential represents stored login credentials.
type Credential struct {
	UserID            string     `json:"user_id"`
	PasswordHash      string     `json:"password_hash"`
	FailedAttempts    int        `json:"failed_attempts"`
	LockedUntil       *time.Time `json:"locked_until,omitempty"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
}

// RefreshToken represents a refresh token stored hashed in the database.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}
