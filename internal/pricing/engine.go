// Package pricing implements the fabrication cost engine: table-driven
// per-component pricing plus calibrated totals, computed with decimal
// arithmetic so money never accumulates float drift.
package pricing

import (
	"time"

	"github.com/orcainteriores/orca-api/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ============================================================
// Pricing tables
// ============================================================

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Base material prices, R$/m².
var materialPrices = map[string]decimal.Decimal{
	"mdf_15mm":        d("208"),
	"mdf_18mm":        d("227.5"),
	"compensado_15mm": d("182"),
	"compensado_18mm": d("201.5"),
	"melamina_15mm":   d("247"),
	"melamina_18mm":   d("266.5"),
}

// Fabrication effort multipliers per component type.
var typeMultipliers = map[string]decimal.Decimal{
	domain.TypeArmario:     d("1.0"),
	domain.TypeDespenseiro: d("1.6"),
	domain.TypeBalcao:      d("1.2"),
	domain.TypeGaveteiro:   d("1.4"),
	domain.TypePrateleira:  d("0.7"),
	domain.TypePorta:       d("1.0"),
	"gaveta":               d("1.2"),
}

var complexityMultipliers = map[string]decimal.Decimal{
	"simples":  d("1.0"),
	"media":    d("1.1"),
	"complexa": d("1.25"),
	"premium":  d("1.4"),
}

// Accessory cost per m² (hinges, slides, handles).
var accessoryPrices = map[string]decimal.Decimal{
	"comum":   d("16"),
	"premium": d("26"),
}

var (
	// Cut waste applied to every material purchase.
	wasteFactor = d("1.05")
	// Back panels, internal shelves and finishing not in the model.
	extraPanelsFactor = d("0.15")
	// Assembly is billed separately by partners.
	assemblyFactor = d("0")
	// Global factor fitted against real fabrication invoices.
	calibrationFactor = d("1.192")
	// What the same project costs at a retail joinery shop.
	marketMultiplier = d("2.33")

	oneHundred = d("100")
)

// Engine prices analyses into quotes.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a pricing engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Price computes a full quote for the analysis under the given
// configuration. It never mutates the analysis, and repeated calls with
// the same inputs produce identical totals.
func (e *Engine) Price(analysis *domain.Analysis, cfg domain.PricingConfig) (*domain.Quote, error) {
	cfg.ApplyDefaults()

	basePrice, ok := materialPrices[cfg.Material]
	if !ok {
		return nil, &domain.ErrValidation{Field: "material", Message: "material desconhecido: " + cfg.Material}
	}
	complexMult, ok := complexityMultipliers[cfg.Complexity]
	if !ok {
		return nil, &domain.ErrValidation{Field: "complexidade", Message: "complexidade desconhecida: " + cfg.Complexity}
	}
	accessoryPrice, ok := accessoryPrices[cfg.AccessoryTier]
	if !ok {
		return nil, &domain.ErrValidation{Field: "qualidade_acessorios", Message: "qualidade de acessórios desconhecida: " + cfg.AccessoryTier}
	}
	if cfg.MarginPct < 0 || cfg.MarginPct > 100 {
		return nil, &domain.ErrValidation{Field: "margem_lucro_pct", Message: "margem deve estar entre 0 e 100"}
	}

	components := make([]domain.ComponentCost, 0, len(analysis.Components))
	subtotal := decimal.Zero
	totalArea := 0.0

	for _, c := range analysis.Components {
		if c.AreaM2 <= 0 {
			continue
		}

		area := decimal.NewFromFloat(c.AreaM2)
		typeMult, ok := typeMultipliers[c.Type]
		if !ok {
			typeMult = typeMultipliers[domain.TypeArmario]
		}

		pricePerM2 := basePrice.Mul(typeMult).Mul(complexMult)
		materialCost := area.Mul(wasteFactor).Mul(pricePerM2)
		accessoryCost := area.Mul(accessoryPrice)
		total := materialCost.Add(accessoryCost)

		components = append(components, domain.ComponentCost{
			Name:          c.Name,
			Type:          c.Type,
			AreaM2:        c.AreaM2,
			Confidence:    c.Confidence,
			Reason:        c.Reason,
			PricePerM2:    pricePerM2.Round(2),
			MaterialCost:  materialCost.Round(2),
			AccessoryCost: accessoryCost.Round(2),
			Total:         total.Round(2),
		})
		subtotal = subtotal.Add(total)
		totalArea += c.AreaM2
	}

	if len(components) == 0 {
		return nil, &domain.ErrNoBillableComponents{AnalysisID: analysis.ID}
	}

	margin := decimal.NewFromFloat(cfg.MarginPct)

	materialTotal := subtotal.Mul(calibrationFactor)
	extraPanels := materialTotal.Mul(extraPanelsFactor)
	assembly := materialTotal.Mul(assemblyFactor)
	factoryBase := materialTotal.Add(extraPanels).Add(assembly)
	profit := factoryBase.Mul(margin).Div(oneHundred)
	final := factoryBase.Add(profit)
	market := factoryBase.Mul(marketMultiplier)
	savings := market.Sub(final)

	savingsPct := 0.0
	if market.IsPositive() {
		savingsPct, _ = savings.Div(market).Mul(oneHundred).Float64()
	}
	pricePerM2 := decimal.Zero
	if totalArea > 0 {
		pricePerM2 = final.Div(decimal.NewFromFloat(totalArea))
	}

	quote := &domain.Quote{
		ID:         uuid.New().String(),
		AnalysisID: analysis.ID,
		FileName:   analysis.FileName,
		Config:     cfg,
		Components: components,
		Summary: domain.QuoteSummary{
			ValorFinal:         final.Round(2),
			AreaTotalM2:        totalArea,
			PrecoPorM2:         pricePerM2.Round(2),
			CustoBaseFabrica:   factoryBase.Round(2),
			CustoMaterial:      materialTotal.Round(2),
			CustoPaineisExtras: extraPanels.Round(2),
			CustoMontagem:      assembly.Round(2),
			ValorLucro:         profit.Round(2),
			MargemLucroPct:     cfg.MarginPct,
			ValorMercado:       market.Round(2),
			EconomiaCliente:    savings.Round(2),
			PercentualEconomia: savingsPct,
		},
		CreatedAt: time.Now(),
	}

	e.logger.Debug("quote computed",
		zap.String("analysis_id", analysis.ID),
		zap.String("material", cfg.Material),
		zap.Int("components", len(components)),
		zap.String("valor_final", quote.Summary.ValorFinal.String()),
	)

	return quote, nil
}
