package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/orcainteriores/orca-api/internal/domain"
)

// ============================================================
// Keyword tables
//
// Category order is fixed: classification iterates slices, never maps,
// so the same input always produces the same winner (first max wins).
// ============================================================

type keywordCategory struct {
	name     string
	keywords []string
}

var typeCategories = []keywordCategory{
	{domain.TypeArmario, []string{"armario", "armário", "cabinet", "wardrobe", "closet", "guarda", "roupeiro", "superior", "alto"}},
	{domain.TypeDespenseiro, []string{"despenseiro", "torre", "tower", "pantry", "tall", "alto", "vertical", "coluna", "despensa"}},
	{domain.TypeBalcao, []string{"balcao", "balcão", "base", "counter", "bancada", "inferior", "baixo", "gabinete", "sink"}},
	{domain.TypeGaveteiro, []string{"gaveteiro", "gaveta", "drawer", "gavetas", "chest", "comoda", "cômoda"}},
	{domain.TypePrateleira, []string{"prateleira", "shelf", "shelving", "estante", "nicho", "divisoria", "divisória"}},
	{domain.TypePorta, []string{"porta", "door", "folha", "batente", "abertura", "painel_porta"}},
}

// filterCategories name objects that are never furniture. The first
// matching keyword wins, so category order is significant.
var filterCategories = []keywordCategory{
	{"paredes", []string{"parede", "wall", "muro", "divisoria_alvenaria"}},
	{"pisos", []string{"piso", "floor", "chao", "chão", "laje"}},
	{"tetos", []string{"teto", "ceiling", "forro", "laje_superior"}},
	{"eletrodomesticos", []string{"geladeira", "refrigerator", "fridge", "fogao", "fogão", "stove", "microondas", "microwave", "lava", "maquina", "máquina", "washing", "dishwasher"}},
	{"decoracao", []string{"decoracao", "decoração", "vaso", "quadro", "luminaria", "luminária", "lamp", "plant", "decoration"}},
	{"estrutural", []string{"viga", "pilar", "beam", "column", "estrutura", "fundacao", "fundação", "laje"}},
}

// dimensionBand is the plausible area range for one furniture type, m².
type dimensionBand struct {
	min, max float64
}

var dimensionBands = map[string]dimensionBand{
	domain.TypeArmario:     {0.5, 15.0},
	domain.TypeDespenseiro: {1.0, 8.0},
	domain.TypeBalcao:      {0.8, 12.0},
	domain.TypeGaveteiro:   {0.3, 6.0},
	domain.TypePrateleira:  {0.1, 3.0},
	domain.TypePorta:       {0.2, 4.0},
}

var genericNames = []string{"mesh", "default", "object", "cube", "plane"}

// nonWord matches everything that is not a letter, digit or accented
// Latin character common in pt-BR object names.
var nonWord = regexp.MustCompile(`[^a-z0-9áéíóúâêîôûãõç]+`)

// ============================================================
// Classification
// ============================================================

// ClassifyObject classifies one parsed object. Non-furniture objects
// return a nil Component and a DroppedObject describing the exclusion;
// everything else returns a fully scored Component.
func ClassifyObject(obj domain.RawObject) (domain.Component, *domain.DroppedObject) {
	compType, nameConf := classifyType(obj.Name)
	isFurniture, filterCat, filterKw := furnitureCheck(obj.Name)
	dimsValid, dimNote := checkDimensions(compType, obj.AreaM2)

	conf := finalConfidence(nameConf, dimsValid, isFurniture)

	if !isFurniture {
		return domain.Component{}, &domain.DroppedObject{
			Name:     obj.Name,
			Category: filterCat,
			Keyword:  filterKw,
			AreaM2:   obj.AreaM2,
		}
	}

	comp := domain.Component{
		Name:            obj.Name,
		Type:            compType,
		AreaM2:          obj.AreaM2,
		Vertices:        obj.Vertices,
		Faces:           obj.Faces,
		Confidence:      conf,
		Reason:          acceptReason(obj.Name, nameConf),
		NameConfidence:  nameConf,
		DimensionsValid: dimsValid,
		DimensionNote:   dimNote,
	}
	comp.Insights = componentInsights(comp)
	return comp, nil
}

// classifyType scores the object name against every furniture category
// and returns the winner with a confidence in [0, 1]. A name matching
// nothing falls back to armario with low confidence instead of failing.
func classifyType(name string) (string, float64) {
	tokens := normalizeName(name)

	bestType := domain.TypeArmario
	bestScore := 0.0

	for _, cat := range typeCategories {
		score := 0.0
		for _, tok := range tokens {
			for _, kw := range cat.keywords {
				switch {
				case tok == kw:
					score += 1.0
				case strings.Contains(tok, kw) || strings.Contains(kw, tok):
					score += 0.5
				case charJaccard(tok, kw) > 0.7:
					score += 0.3
				}
			}
		}
		if score > bestScore {
			bestScore = score
			bestType = cat.name
		}
	}

	if bestScore == 0 {
		return domain.TypeArmario, 0.1
	}

	conf := bestScore / 2.0
	if conf > 1.0 {
		conf = 1.0
	}
	return bestType, conf
}

// acceptReason explains why an object was kept as furniture. Carried
// on the component so stored quotes keep the classification trail.
func acceptReason(name string, nameConf float64) string {
	switch {
	case hasGenericName(name):
		return "nome genérico aceito como móvel"
	case nameConf <= 0.1:
		return "sem palavra-chave reconhecida, assumido como armário"
	default:
		return "classificado pelas palavras-chave do nome"
	}
}

// furnitureCheck scans the raw lowercased name for exclusion keywords.
// Substring match on the raw name, not tokens: "Parede_Principal" must
// match "parede" even glued to other text.
func furnitureCheck(name string) (furniture bool, category, keyword string) {
	lower := strings.ToLower(name)
	for _, cat := range filterCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return false, cat.name, kw
			}
		}
	}
	return true, "", ""
}

// checkDimensions validates the area against the band for the type.
// Types without a band are always valid.
func checkDimensions(compType string, areaM2 float64) (bool, string) {
	band, ok := dimensionBands[compType]
	if !ok {
		return true, ""
	}
	if areaM2 < band.min {
		return false, fmt.Sprintf("área %.2fm² abaixo do mínimo de %.1fm² para %s", areaM2, band.min, compType)
	}
	if areaM2 > band.max {
		return false, fmt.Sprintf("área %.2fm² acima do máximo de %.1fm² para %s", areaM2, band.max, compType)
	}
	return true, ""
}

// finalConfidence combines the name score with the validation signals:
// invalid dimensions halve it, a non-furniture hit floors it, and a
// confident name with everything valid earns a capped bonus.
func finalConfidence(nameConf float64, dimsValid, furniture bool) float64 {
	conf := nameConf
	if !dimsValid {
		conf *= 0.5
	}
	if !furniture {
		conf *= 0.1
	}
	if dimsValid && furniture && nameConf > 0.5 {
		conf *= 1.2
		if conf > 1.0 {
			conf = 1.0
		}
	}
	return conf
}

// componentInsights produces the per-component advisory strings shown
// in the analysis report.
func componentInsights(c domain.Component) []string {
	var insights []string

	switch {
	case c.Confidence > 0.8:
		insights = append(insights, "Identificação de alta confiança")
	case c.Confidence > 0.5:
		insights = append(insights, "Identificação de média confiança")
	default:
		insights = append(insights, "Baixa confiança: renomeie o objeto no software 3D")
	}

	if c.AreaM2 > 10 {
		insights = append(insights, "Área muito grande: verifique se não é parede ou piso")
	}
	if c.AreaM2 < 0.1 {
		insights = append(insights, "Área muito pequena: pode ser um acessório")
	}

	if hasGenericName(c.Name) {
		insights = append(insights, "Nome genérico: use nomes descritivos (ex: armario_cozinha)")
	}

	if c.Type == domain.TypeDespenseiro && c.AreaM2 > 6 {
		insights = append(insights, "Despenseiro de grande porte: torre de armazenamento")
	}
	if c.Type == domain.TypePrateleira && c.AreaM2 > 2 {
		insights = append(insights, "Conjunto extenso de prateleiras")
	}

	return insights
}

func hasGenericName(name string) bool {
	lower := strings.ToLower(name)
	for _, g := range genericNames {
		if strings.Contains(lower, g) {
			return true
		}
	}
	return false
}

// normalizeName lowercases the name, strips everything that is not a
// word character and splits on whitespace.
func normalizeName(name string) []string {
	lower := strings.ToLower(name)
	cleaned := nonWord.ReplaceAllString(lower, " ")
	return strings.Fields(cleaned)
}

// charJaccard computes Jaccard similarity over the character sets of
// two strings. Cheap fuzzy match for typos like "armaro".
func charJaccard(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	setA := make(map[rune]bool)
	for _, r := range a {
		setA[r] = true
	}
	setB := make(map[rune]bool)
	for _, r := range b {
		setB[r] = true
	}

	inter := 0
	for r := range setA {
		if setB[r] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
