// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/orcainteriores/orca-api/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// Pinger reports whether a backend is reachable. Used by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuthStore defines all data operations for the authentication system.
// Lookup methods return (nil, nil) when the row is absent.
type AuthStore interface {
	// Users
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User, passwordHash string) error
	UpdateUserPlan(ctx context.Context, userID, plan string, quoteLimit int) error

	// Quota counters
	IncrementQuoteCount(ctx context.Context, userID string) error
	ResetMonthlyCounters(ctx context.Context) (int64, error)

	// Credentials
	GetCredentials(ctx context.Context, userID string) (*domain.Credential, error)
	UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error

	// Refresh tokens
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// QuoteStore persists quote history per user.
type QuoteStore interface {
	SaveQuote(ctx context.Context, userID string, quote *domain.Quote, payload []byte) error
	ListQuotes(ctx context.Context, userID string, page, pageSize int) ([]domain.QuoteRecord, int, error)
	GetQuotePayload(ctx context.Context, userID, quoteID string) ([]byte, error)
	GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error)
}

// Store is the full persistence surface the server wires at startup.
// Implemented by the SQLite store and the Supabase adapter.
type Store interface {
	AuthStore
	QuoteStore
	Pinger
}
