package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/orcainteriores/orca-api/internal/domain"
)

// ============================================================
// QuoteStore implementation — quote history via PostgREST
// ============================================================

// supabaseQuote maps the orcamentos table columns. The full quote document
// is stored as a jsonb payload; the scalar columns exist for listing and
// aggregation without unpacking the payload.
type supabaseQuote struct {
	ID          string          `json:"id"`
	UsuarioID   string          `json:"usuario_id"`
	NomeArquivo string          `json:"nome_arquivo"`
	ValorFinal  float64         `json:"valor_final"`
	AreaTotalM2 float64         `json:"area_total_m2"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CriadoEm    string          `json:"criado_em"`
}

func (c *Client) SaveQuote(ctx context.Context, userID string, quote *domain.Quote, payload []byte) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveQuote")
	defer span.End()

	data := map[string]any{
		"id":            quote.ID,
		"usuario_id":    userID,
		"nome_arquivo":  quote.FileName,
		"valor_final":   quote.Summary.ValorFinal.InexactFloat64(),
		"area_total_m2": quote.Summary.AreaTotalM2,
		"payload":       json.RawMessage(payload),
		"criado_em":     quote.CreatedAt.Format(time.RFC3339),
	}

	if _, err := c.doPost(ctx, "orcamentos", data); err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

func (c *Client) ListQuotes(ctx context.Context, userID string, page, pageSize int) ([]domain.QuoteRecord, int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListQuotes")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	countBody, err := c.doRequest(ctx, http.MethodGet,
		fmt.Sprintf("orcamentos?usuario_id=eq.%s&select=id", userID))
	if err != nil {
		return nil, 0, err
	}
	var ids []struct {
		ID string `json:"id"`
	}
	if countBody != nil {
		if err := json.Unmarshal(countBody, &ids); err != nil {
			return nil, 0, fmt.Errorf("decode orcamentos: %w", err)
		}
	}
	total := len(ids)

	path := fmt.Sprintf(
		"orcamentos?usuario_id=eq.%s&select=id,usuario_id,nome_arquivo,valor_final,area_total_m2,criado_em&order=criado_em.desc&limit=%d&offset=%d",
		userID, pageSize, (page-1)*pageSize,
	)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, 0, err
	}
	if body == nil || string(body) == "[]" {
		return []domain.QuoteRecord{}, total, nil
	}

	var rows []supabaseQuote
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, 0, fmt.Errorf("decode orcamentos: %w", err)
	}

	records := make([]domain.QuoteRecord, 0, len(rows))
	for _, r := range rows {
		createdAt, _ := time.Parse(time.RFC3339, r.CriadoEm)
		records = append(records, domain.QuoteRecord{
			ID:          r.ID,
			UserID:      r.UsuarioID,
			FileName:    r.NomeArquivo,
			ValorFinal:  r.ValorFinal,
			AreaTotalM2: r.AreaTotalM2,
			CreatedAt:   createdAt,
		})
	}
	return records, total, nil
}

func (c *Client) GetQuotePayload(ctx context.Context, userID, quoteID string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetQuotePayload")
	defer span.End()

	path := fmt.Sprintf("orcamentos?id=eq.%s&usuario_id=eq.%s&select=payload&limit=1", quoteID, userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode orcamentos payload: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].Payload, nil
}

func (c *Client) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserStats")
	defer span.End()

	path := fmt.Sprintf(
		"orcamentos?usuario_id=eq.%s&select=valor_final,area_total_m2,criado_em&order=criado_em.desc",
		userID,
	)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	stats := &domain.UserStats{}
	if body == nil || string(body) == "[]" {
		return stats, nil
	}

	var rows []supabaseQuote
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode orcamentos: %w", err)
	}

	for _, r := range rows {
		stats.TotalQuotes++
		stats.TotalValue += r.ValorFinal
		stats.TotalAreaM2 += r.AreaTotalM2
	}
	if stats.TotalQuotes > 0 {
		stats.AvgValue = stats.TotalValue / float64(stats.TotalQuotes)
		if t, err := time.Parse(time.RFC3339, rows[0].CriadoEm); err == nil {
			stats.LastQuoteAt = &t
		}
	}
	return stats, nil
}
