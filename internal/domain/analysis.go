package domain

import "time"

// ============================================================
// Analysis — output of the 3D file pipeline
// (parser → classifier → aggregator)
// ============================================================

// Component types recognized by the classifier.
const (
	TypeArmario     = "armario"
	TypeDespenseiro = "despenseiro"
	TypeBalcao      = "balcao"
	TypeGaveteiro   = "gaveteiro"
	TypePrateleira  = "prateleira"
	TypePorta       = "porta"
)

// Area bounds for a plausible furniture component, in m².
const (
	MinComponentAreaM2 = 0.01
	MaxComponentAreaM2 = 50.0
)

// AnalysisVersion tags the export schema carried by Analysis payloads.
const AnalysisVersion = "3.0"

// RawObject is a geometry object extracted from a 3D file, before
// classification. Area is an axis-aligned bounding box approximation:
// the largest face of the box, converted from mm² to m².
type RawObject struct {
	Name     string  `json:"nome"`
	AreaM2   float64 `json:"area_m2"`
	Vertices int     `json:"vertices"`
	Faces    int     `json:"faces"`
}

// Component is a classified, validated furniture component.
type Component struct {
	Name            string   `json:"nome"`
	Type            string   `json:"tipo"`
	AreaM2          float64  `json:"area_m2"`
	Vertices        int      `json:"vertices"`
	Faces           int      `json:"faces"`
	Confidence      float64  `json:"ia_confianca"`
	Reason          string   `json:"ia_motivo"`
	NameConfidence  float64  `json:"confianca_nome"`
	DimensionsValid bool     `json:"dimensoes_validas"`
	DimensionNote   string   `json:"observacao_dimensoes,omitempty"`
	Insights        []string `json:"insights,omitempty"`
}

// DroppedObject records an object excluded as non-furniture. Kept on the
// Analysis so clients can show the user what was ignored and why.
type DroppedObject struct {
	Name     string  `json:"nome"`
	Category string  `json:"categoria"`
	Keyword  string  `json:"palavra_chave"`
	AreaM2   float64 `json:"area_m2"`
}

// Statistics summarizes an analysis for the presentation layer.
type Statistics struct {
	TotalObjects    int            `json:"total_objetos"`
	ValidComponents int            `json:"componentes_validos"`
	AreaTotalM2     float64        `json:"area_total"`
	UtilizationRate float64        `json:"taxa_aproveitamento"`
	AvgConfidence   float64        `json:"confianca_media"`
	CountByType     map[string]int `json:"contagem_por_tipo"`
	Quality         string         `json:"qualidade_arquivo"`
	Recommendations []string       `json:"recomendacoes"`
}

// File quality tiers.
const (
	QualityExcelente = "Excelente"
	QualityBoa       = "Boa"
	QualityRegular   = "Regular"
	QualityBaixa     = "Baixa"
)

// Analysis is the full result of analyzing one uploaded 3D file.
type Analysis struct {
	ID         string          `json:"id"`
	FileName   string          `json:"nome_arquivo"`
	Format     string          `json:"formato"`
	SizeMB     float64         `json:"tamanho_mb"`
	Components []Component     `json:"componentes"`
	Dropped    []DroppedObject `json:"objetos_descartados,omitempty"`
	Statistics Statistics      `json:"estatisticas"`
	AnalyzedAt time.Time       `json:"analisado_em"`
	Version    string          `json:"versao"`
}

// TotalAreaM2 sums the area of all valid components.
func (a *Analysis) TotalAreaM2() float64 {
	total := 0.0
	for _, c := range a.Components {
		total += c.AreaM2
	}
	return total
}
