package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Quote — output of the pricing engine
// ============================================================

// Materials accepted by the pricing engine, in fixed display order.
var Materials = []string{
	"mdf_15mm", "mdf_18mm",
	"compensado_15mm", "compensado_18mm",
	"melamina_15mm", "melamina_18mm",
}

// Complexity tiers accepted by the pricing engine.
var ComplexityTiers = []string{"simples", "media", "complexa", "premium"}

// Accessory quality tiers.
var AccessoryTiers = []string{"comum", "premium"}

// PricingConfig selects material, complexity, accessory quality and
// profit margin for a quote. Zero values fall back to the defaults
// the estimator UI pre-selects.
type PricingConfig struct {
	Material      string  `json:"material"`
	Complexity    string  `json:"complexidade"`
	AccessoryTier string  `json:"qualidade_acessorios"`
	MarginPct     float64 `json:"margem_lucro_pct"`
}

// ApplyDefaults fills unset fields with the standard configuration.
func (c *PricingConfig) ApplyDefaults() {
	if c.Material == "" {
		c.Material = "mdf_18mm"
	}
	if c.Complexity == "" {
		c.Complexity = "media"
	}
	if c.AccessoryTier == "" {
		c.AccessoryTier = "comum"
	}
}

// ComponentCost is the per-component price breakdown. Classifier
// metadata is echoed so a stored quote still tells how confident the
// identification behind each line item was.
type ComponentCost struct {
	Name          string          `json:"nome"`
	Type          string          `json:"tipo"`
	AreaM2        float64         `json:"area_m2"`
	Confidence    float64         `json:"ia_confianca"`
	Reason        string          `json:"ia_motivo"`
	PricePerM2    decimal.Decimal `json:"preco_por_m2"`
	MaterialCost  decimal.Decimal `json:"custo_material"`
	AccessoryCost decimal.Decimal `json:"custo_acessorios"`
	Total         decimal.Decimal `json:"custo_total"`
}

// QuoteSummary carries the quote totals. Field names match the JSON
// export schema consumed by the frontend and stored in history.
type QuoteSummary struct {
	ValorFinal         decimal.Decimal `json:"valor_final"`
	AreaTotalM2        float64         `json:"area_total_m2"`
	PrecoPorM2         decimal.Decimal `json:"preco_por_m2"`
	CustoBaseFabrica   decimal.Decimal `json:"custo_base_fabrica"`
	CustoMaterial      decimal.Decimal `json:"custo_material"`
	CustoPaineisExtras decimal.Decimal `json:"custo_paineis_extras"`
	CustoMontagem      decimal.Decimal `json:"custo_montagem"`
	ValorLucro         decimal.Decimal `json:"valor_lucro"`
	MargemLucroPct     float64         `json:"margem_lucro_pct"`
	ValorMercado       decimal.Decimal `json:"valor_mercado_estimado"`
	EconomiaCliente    decimal.Decimal `json:"economia_cliente"`
	PercentualEconomia float64         `json:"percentual_economia"`
}

// Quote is a full fabrication cost estimate for one analysis.
type Quote struct {
	ID         string          `json:"id"`
	AnalysisID string          `json:"analise_id"`
	FileName   string          `json:"nome_arquivo"`
	Config     PricingConfig   `json:"configuracao"`
	Components []ComponentCost `json:"componentes"`
	Summary    QuoteSummary    `json:"resumo"`
	CreatedAt  time.Time       `json:"criado_em"`
}

// QuoteRecord is a persisted history entry (list views read these; the
// full Quote payload is stored as JSON alongside).
type QuoteRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"usuario_id"`
	FileName    string    `json:"nome_arquivo"`
	ValorFinal  float64   `json:"valor_final"`
	AreaTotalM2 float64   `json:"area_total_m2"`
	CreatedAt   time.Time `json:"criado_em"`
}

// ============================================================
// Chart data — pre-computed series for the presentation layer
// ============================================================

// ChartPoint is one labeled value in a chart series.
type ChartPoint struct {
	Label string  `json:"rotulo"`
	Value float64 `json:"valor"`
}

// ChartData groups the series the frontend renders for a quote.
type ChartData struct {
	CostDistribution []ChartPoint `json:"distribuicao_custos"`
	PriceComparison  []ChartPoint `json:"comparativo_precos"`
	ComponentCosts   []ChartPoint `json:"custos_por_componente"`
}
