// Package sqlite implements port.Store on an embedded SQLite database.
// This is the default backend; Supabase is used when configured.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/orcainteriores/orca-api/internal/domain"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store wraps a SQLite database handle.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (creating if needed) the database at path and applies the schema.
func New(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS usuarios (
		id                TEXT PRIMARY KEY,
		email             TEXT NOT NULL UNIQUE,
		plano             TEXT NOT NULL,
		orcamentos_mes    INTEGER NOT NULL DEFAULT 0,
		limite_orcamentos INTEGER NOT NULL,
		ativo             INTEGER NOT NULL DEFAULT 1,
		criado_em         DATETIME NOT NULL,
		ultimo_login_em   DATETIME
	);

	CREATE TABLE IF NOT EXISTS credenciais (
		usuario_id          TEXT PRIMARY KEY REFERENCES usuarios(id),
		password_hash       TEXT NOT NULL,
		failed_attempts     INTEGER NOT NULL DEFAULT 0,
		locked_until        DATETIME,
		last_login_at       DATETIME,
		password_changed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         TEXT PRIMARY KEY,
		usuario_id TEXT NOT NULL REFERENCES usuarios(id),
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked    INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(usuario_id);

	CREATE TABLE IF NOT EXISTS orcamentos (
		id            TEXT PRIMARY KEY,
		usuario_id    TEXT NOT NULL REFERENCES usuarios(id),
		nome_arquivo  TEXT NOT NULL,
		valor_final   REAL NOT NULL,
		area_total_m2 REAL NOT NULL,
		payload       BLOB NOT NULL,
		criado_em     DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orcamentos_usuario ON orcamentos(usuario_id, criado_em);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ============================================================
// Users
// ============================================================

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT id, email, plano, orcamentos_mes, limite_orcamentos, ativo, criado_em, ultimo_login_em
		FROM usuarios WHERE email = ?`, email)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT id, email, plano, orcamentos_mes, limite_orcamentos, ativo, criado_em, ultimo_login_em
		FROM usuarios WHERE id = ?`, userID)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		u         domain.User
		active    int
		createdAt string
		lastLogin sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Plan, &u.QuotesThisMonth, &u.QuoteLimit, &active, &createdAt, &lastLogin,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	u.Active = active == 1
	u.CreatedAt = parseTime(createdAt)
	if lastLogin.Valid {
		t := parseTime(lastLogin.String)
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User, passwordHash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO usuarios (id, email, plano, orcamentos_mes, limite_orcamentos, ativo, criado_em)
		 VALUES (?, ?, ?, 0, ?, ?, ?)`,
		user.ID, user.Email, user.Plan, user.QuoteLimit, boolInt(user.Active), user.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO credenciais (usuario_id, password_hash) VALUES (?, ?)`,
		user.ID, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("insert credentials: %w", err)
	}

	return tx.Commit()
}

func (s *Store) UpdateUserPlan(ctx context.Context, userID, plan string, quoteLimit int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE usuarios SET plano = ?, limite_orcamentos = ? WHERE id = ?`,
		plan, quoteLimit, userID,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return nil
}

func (s *Store) IncrementQuoteCount(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE usuarios SET orcamentos_mes = orcamentos_mes + 1 WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("increment quote count: %w", err)
	}
	return nil
}

func (s *Store) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE usuarios SET orcamentos_mes = 0 WHERE orcamentos_mes > 0`)
	if err != nil {
		return 0, fmt.Errorf("reset counters: %w", err)
	}
	return res.RowsAffected()
}

// ============================================================
// Credentials
// ============================================================

func (s *Store) GetCredentials(ctx context.Context, userID string) (*domain.Credential, error) {
	var (
		c          domain.Credential
		locked     sql.NullString
		lastLogin  sql.NullString
		pwdChanged sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT usuario_id, password_hash, failed_attempts, locked_until, last_login_at, password_changed_at
		 FROM credenciais WHERE usuario_id = ?`, userID,
	).Scan(&c.UserID, &c.PasswordHash, &c.FailedAttempts, &locked, &lastLogin, &pwdChanged)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}

	c.LockedUntil = nullTime(locked)
	c.LastLoginAt = nullTime(lastLogin)
	c.PasswordChangedAt = nullTime(pwdChanged)
	return &c, nil
}

// credentialColumns whitelists the columns UpdateCredentials may touch.
var credentialColumns = map[string]bool{
	"password_hash":       true,
	"failed_attempts":     true,
	"locked_until":        true,
	"last_login_at":       true,
	"password_changed_at": true,
}

func (s *Store) UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	cols := make([]string, 0, len(updates))
	for col := range updates {
		if !credentialColumns[col] {
			return fmt.Errorf("unknown credential column %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, updates[col])
	}
	args = append(args, userID)

	query := fmt.Sprintf(`UPDATE credenciais SET %s WHERE usuario_id = ?`, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update credentials: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	return nil
}

// ============================================================
// Refresh tokens
// ============================================================

func (s *Store) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, usuario_id, token_hash, expires_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), userID, tokenHash, expiresAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var (
		t         domain.RefreshToken
		expiresAt string
		revoked   int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, usuario_id, token_hash, expires_at, revoked FROM refresh_tokens
		 WHERE token_hash = ? AND revoked = 0`, tokenHash,
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &expiresAt, &revoked)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query refresh token: %w", err)
	}

	t.ExpiresAt = parseTime(expiresAt)
	t.Revoked = revoked == 1
	return &t, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE usuario_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// ============================================================
// Quotes
// ============================================================

func (s *Store) SaveQuote(ctx context.Context, userID string, quote *domain.Quote, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orcamentos (id, usuario_id, nome_arquivo, valor_final, area_total_m2, payload, criado_em)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		quote.ID, userID, quote.FileName,
		quote.Summary.ValorFinal.InexactFloat64(), quote.Summary.AreaTotalM2,
		payload, quote.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

func (s *Store) ListQuotes(ctx context.Context, userID string, page, pageSize int) ([]domain.QuoteRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orcamentos WHERE usuario_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, usuario_id, nome_arquivo, valor_final, area_total_m2, criado_em
		 FROM orcamentos WHERE usuario_id = ?
		 ORDER BY criado_em DESC LIMIT ? OFFSET ?`,
		userID, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	records := make([]domain.QuoteRecord, 0, pageSize)
	for rows.Next() {
		var (
			r         domain.QuoteRecord
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.FileName, &r.ValorFinal, &r.AreaTotalM2, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("scan quote row: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate quotes: %w", err)
	}
	return records, total, nil
}

func (s *Store) GetQuotePayload(ctx context.Context, userID, quoteID string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM orcamentos WHERE id = ? AND usuario_id = ?`, quoteID, userID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query quote payload: %w", err)
	}
	return payload, nil
}

func (s *Store) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	var (
		stats     domain.UserStats
		lastQuote sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(valor_final), 0), COALESCE(AVG(valor_final), 0),
		        COALESCE(SUM(area_total_m2), 0), MAX(criado_em)
		 FROM orcamentos WHERE usuario_id = ?`, userID,
	).Scan(&stats.TotalQuotes, &stats.TotalValue, &stats.AvgValue, &stats.TotalAreaM2, &lastQuote)
	if err != nil {
		return nil, fmt.Errorf("query user stats: %w", err)
	}

	stats.LastQuoteAt = nullTime(lastQuote)
	return &stats, nil
}

// ============================================================
// Helpers
// ============================================================

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTime handles both RFC3339 (what we write) and SQLite's default
// DATETIME format, returning the zero time on failure.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}
