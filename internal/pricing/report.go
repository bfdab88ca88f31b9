package pricing

import (
	"fmt"
	"strings"

	"github.com/orcainteriores/orca-api/internal/domain"

	"github.com/shopspring/decimal"
)

// Report renders a quote as the plain-text detailed report offered for
// download alongside the JSON payload.
func Report(q *domain.Quote) string {
	var b strings.Builder

	line := strings.Repeat("=", 52)
	b.WriteString(line + "\n")
	b.WriteString("       ORÇAMENTO DETALHADO - ORCA INTERIORES\n")
	b.WriteString(line + "\n\n")

	fmt.Fprintf(&b, "Arquivo:      %s\n", q.FileName)
	fmt.Fprintf(&b, "Data:         %s\n", q.CreatedAt.Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "Material:     %s\n", q.Config.Material)
	fmt.Fprintf(&b, "Complexidade: %s\n", q.Config.Complexity)
	fmt.Fprintf(&b, "Acessórios:   %s\n\n", q.Config.AccessoryTier)

	b.WriteString("COMPONENTES\n")
	b.WriteString(strings.Repeat("-", 52) + "\n")
	for _, c := range q.Components {
		fmt.Fprintf(&b, "%-28s %-12s %6.2f m²\n", truncate(c.Name, 28), c.Type, c.AreaM2)
		fmt.Fprintf(&b, "  material R$ %s  +  acessórios R$ %s  =  R$ %s\n",
			c.MaterialCost.StringFixed(2), c.AccessoryCost.StringFixed(2), c.Total.StringFixed(2))
		fmt.Fprintf(&b, "  confiança IA: %.0f%% (%s)\n", c.Confidence*100, c.Reason)
	}

	s := q.Summary
	b.WriteString("\nRESUMO\n")
	b.WriteString(strings.Repeat("-", 52) + "\n")
	fmt.Fprintf(&b, "Área total:            %.2f m²\n", s.AreaTotalM2)
	fmt.Fprintf(&b, "Custo de material:     R$ %s\n", s.CustoMaterial.StringFixed(2))
	fmt.Fprintf(&b, "Painéis extras (15%%):  R$ %s\n", s.CustoPaineisExtras.StringFixed(2))
	fmt.Fprintf(&b, "Montagem:              R$ %s\n", s.CustoMontagem.StringFixed(2))
	fmt.Fprintf(&b, "Custo base fábrica:    R$ %s\n", s.CustoBaseFabrica.StringFixed(2))
	fmt.Fprintf(&b, "Lucro (%.0f%%):           R$ %s\n", s.MargemLucroPct, s.ValorLucro.StringFixed(2))
	fmt.Fprintf(&b, "\nVALOR FINAL:           R$ %s\n", s.ValorFinal.StringFixed(2))
	fmt.Fprintf(&b, "Preço por m²:          R$ %s\n\n", s.PrecoPorM2.StringFixed(2))

	fmt.Fprintf(&b, "Valor de mercado:      R$ %s\n", s.ValorMercado.StringFixed(2))
	fmt.Fprintf(&b, "Sua economia:          R$ %s (%.1f%%)\n", s.EconomiaCliente.StringFixed(2), s.PercentualEconomia)
	b.WriteString("\n" + line + "\n")

	return b.String()
}

// ChartData derives the chart series the frontend renders for a quote.
// Only data, no rendering: drawing stays client-side.
func ChartData(q *domain.Quote) *domain.ChartData {
	s := q.Summary

	dist := []domain.ChartPoint{
		{Label: "Material", Value: toF(s.CustoMaterial)},
		{Label: "Painéis extras", Value: toF(s.CustoPaineisExtras)},
		{Label: "Montagem", Value: toF(s.CustoMontagem)},
		{Label: "Lucro", Value: toF(s.ValorLucro)},
	}

	comparison := []domain.ChartPoint{
		{Label: "Custo fábrica", Value: toF(s.CustoBaseFabrica)},
		{Label: "Valor final", Value: toF(s.ValorFinal)},
		{Label: "Mercado", Value: toF(s.ValorMercado)},
	}

	perComponent := make([]domain.ChartPoint, 0, len(q.Components))
	for _, c := range q.Components {
		perComponent = append(perComponent, domain.ChartPoint{
			Label: c.Name,
			Value: toF(c.Total),
		})
	}

	return &domain.ChartData{
		CostDistribution: dist,
		PriceComparison:  comparison,
		ComponentCosts:   perComponent,
	}
}

func toF(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// truncate shortens s to at most n runes. Component names are pt-BR
// and often carry accented characters, so slicing must be rune-based.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
