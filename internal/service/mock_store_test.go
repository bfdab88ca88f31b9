package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/orcainteriores/orca-api/internal/domain"
)

// mockStore is an in-memory port.Store used by the service tests.
type mockStore struct {
	mu sync.Mutex

	users       map[string]*domain.User       // by ID
	credentials map[string]*domain.Credential // by user ID
	tokens      map[string]*domain.RefreshToken
	quotes      map[string][]storedQuote // by user ID

	pingErr error
}

type storedQuote struct {
	record  domain.QuoteRecord
	payload []byte
}

func newMockStore() *mockStore {
	return &mockStore{
		users:       make(map[string]*domain.User),
		credentials: make(map[string]*domain.Credential),
		tokens:      make(map[string]*domain.RefreshToken),
		quotes:      make(map[string][]storedQuote),
	}
}

func (m *mockStore) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockStore) CreateUser(ctx context.Context, user *domain.User, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	m.credentials[user.ID] = &domain.Credential{UserID: user.ID, PasswordHash: passwordHash}
	return nil
}

func (m *mockStore) UpdateUserPlan(ctx context.Context, userID, plan string, quoteLimit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	u.Plan = plan
	u.QuoteLimit = quoteLimit
	return nil
}

func (m *mockStore) IncrementQuoteCount(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.QuotesThisMonth++
	}
	return nil
}

func (m *mockStore) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.QuotesThisMonth > 0 {
			u.QuotesThisMonth = 0
			n++
		}
	}
	return n, nil
}

func (m *mockStore) GetCredentials(ctx context.Context, userID string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credentials[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	cp := *c
	return &cp, nil
}

func (m *mockStore) UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credentials[userID]
	if !ok {
		return &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	for col, val := range updates {
		switch col {
		case "password_hash":
			c.PasswordHash = val.(string)
		case "failed_attempts":
			c.FailedAttempts = val.(int)
		case "locked_until":
			c.LockedUntil = parseTimeValue(val)
		case "last_login_at":
			c.LastLoginAt = parseTimeValue(val)
		case "password_changed_at":
			c.PasswordChangedAt = parseTimeValue(val)
		}
	}
	return nil
}

func parseTimeValue(val any) *time.Time {
	s, ok := val.(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func (m *mockStore) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = &domain.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (m *mockStore) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok || t.Revoked {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockStore) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[tokenHash]; ok {
		t.Revoked = true
	}
	return nil
}

func (m *mockStore) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockStore) SaveQuote(ctx context.Context, userID string, quote *domain.Quote, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[userID] = append(m.quotes[userID], storedQuote{
		record: domain.QuoteRecord{
			ID:          quote.ID,
			UserID:      userID,
			FileName:    quote.FileName,
			ValorFinal:  quote.Summary.ValorFinal.InexactFloat64(),
			AreaTotalM2: quote.Summary.AreaTotalM2,
			CreatedAt:   quote.CreatedAt,
		},
		payload: payload,
	})
	return nil
}

func (m *mockStore) ListQuotes(ctx context.Context, userID string, page, pageSize int) ([]domain.QuoteRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.quotes[userID]
	total := len(all)

	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	records := make([]domain.QuoteRecord, 0, end-start)
	for _, q := range all[start:end] {
		records = append(records, q.record)
	}
	return records, total, nil
}

func (m *mockStore) GetQuotePayload(ctx context.Context, userID, quoteID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.quotes[userID] {
		if q.record.ID == quoteID {
			return q.payload, nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.UserStats{}
	for _, q := range m.quotes[userID] {
		stats.TotalQuotes++
		stats.TotalValue += q.record.ValorFinal
		stats.TotalAreaM2 += q.record.AreaTotalM2
	}
	if stats.TotalQuotes > 0 {
		stats.AvgValue = stats.TotalValue / float64(stats.TotalQuotes)
		last := m.quotes[userID][stats.TotalQuotes-1].record.CreatedAt
		stats.LastQuoteAt = &last
	}
	return stats, nil
}
