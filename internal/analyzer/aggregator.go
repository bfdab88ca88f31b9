package analyzer

import (
	"time"

	"github.com/orcainteriores/orca-api/internal/domain"

	"github.com/google/uuid"
)

// aggregate applies the second-pass quality filter and computes the
// analysis statistics. The filter re-checks what classification cannot
// guarantee on its own: components squeezing through with implausible
// area or near-zero confidence are discarded here.
func aggregate(fileName, format string, sizeMB float64, totalObjects int, components []domain.Component, dropped []domain.DroppedObject) *domain.Analysis {
	valid := make([]domain.Component, 0, len(components))
	for _, c := range components {
		if c.AreaM2 < domain.MinComponentAreaM2 || c.AreaM2 > domain.MaxComponentAreaM2 {
			continue
		}
		if c.Confidence < 0.1 {
			continue
		}
		valid = append(valid, c)
	}

	return &domain.Analysis{
		ID:         uuid.New().String(),
		FileName:   fileName,
		Format:     format,
		SizeMB:     sizeMB,
		Components: valid,
		Dropped:    dropped,
		Statistics: buildStatistics(totalObjects, valid),
		AnalyzedAt: time.Now(),
		Version:    domain.AnalysisVersion,
	}
}

func buildStatistics(totalObjects int, components []domain.Component) domain.Statistics {
	stats := domain.Statistics{
		TotalObjects:    totalObjects,
		ValidComponents: len(components),
		CountByType:     make(map[string]int),
	}

	if totalObjects > 0 {
		stats.UtilizationRate = float64(len(components)) / float64(totalObjects)
	}

	sum := 0.0
	for _, c := range components {
		sum += c.Confidence
		stats.AreaTotalM2 += c.AreaM2
		stats.CountByType[c.Type]++
	}
	if len(components) > 0 {
		stats.AvgConfidence = sum / float64(len(components))
	}

	stats.Quality = fileQuality(stats.AvgConfidence, stats.UtilizationRate)
	stats.Recommendations = recommendations(stats.AvgConfidence, stats.UtilizationRate)
	return stats
}

// fileQuality tiers the export quality on confidence and utilization.
func fileQuality(avgConf, utilization float64) string {
	switch {
	case avgConf > 0.8 && utilization > 0.7:
		return domain.QualityExcelente
	case avgConf > 0.6 && utilization > 0.5:
		return domain.QualityBoa
	case avgConf > 0.4 && utilization > 0.3:
		return domain.QualityRegular
	default:
		return domain.QualityBaixa
	}
}

func recommendations(avgConf, utilization float64) []string {
	var recs []string
	if avgConf < 0.5 {
		recs = append(recs, "Use nomes descritivos nos objetos para melhorar a identificação (ex: armario_cozinha, balcao_pia)")
	}
	if utilization < 0.5 {
		recs = append(recs, "Muitos objetos descartados: remova paredes, pisos e decoração antes de exportar")
	}
	if avgConf > 0.8 && utilization > 0.7 {
		recs = append(recs, "Arquivo bem estruturado: componentes nomeados e alto aproveitamento")
	}
	return recs
}
