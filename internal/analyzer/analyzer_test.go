package analyzer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/orcainteriores/orca-api/internal/analyzer"
	"github.com/orcainteriores/orca-api/internal/domain"

	"go.uber.org/zap"
)

// writeFixture drops an OBJ (or other) file into a temp dir and returns its path.
func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

// A 2m x 0.6m x 0.7m box named as a counter. Coordinates in millimeters.
const balcaoOBJ = `# kitchen export
o Balcao_Pia
v 0 0 0
v 2000 0 0
v 2000 600 0
v 0 600 0
v 0 0 700
v 2000 0 700
v 2000 600 700
v 0 600 700
f 1 2 3 4
f 5 6 7 8
f 1 2 6 5
`

func TestAnalyzeFile_OBJ(t *testing.T) {
	path := writeFixture(t, "cozinha.obj", balcaoOBJ)

	a := analyzer.New(zap.NewNop())
	analysis, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analysis.Components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(analysis.Components))
	}
	comp := analysis.Components[0]
	if comp.Type != domain.TypeBalcao {
		t.Errorf("expected type balcao, got %s", comp.Type)
	}
	// Largest bounding-box face is 2000mm x 700mm = 1.4 m².
	if comp.AreaM2 < 1.39 || comp.AreaM2 > 1.41 {
		t.Errorf("expected area near 1.4 m², got %.3f", comp.AreaM2)
	}
	if analysis.Format != "obj" {
		t.Errorf("expected format obj, got %s", analysis.Format)
	}
	if analysis.ID == "" {
		t.Error("expected generated analysis ID")
	}
	if analysis.Statistics.ValidComponents != 1 {
		t.Errorf("expected 1 valid component, got %d", analysis.Statistics.ValidComponents)
	}
}

func TestAnalyzeFile_DropsWalls(t *testing.T) {
	content := balcaoOBJ + `o Parede_Principal
v 0 0 0
v 5000 0 0
v 5000 0 2700
v 0 0 2700
f 9 10 11 12
`
	path := writeFixture(t, "com_parede.obj", content)

	a := analyzer.New(zap.NewNop())
	analysis, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analysis.Components) != 1 {
		t.Fatalf("expected wall to be dropped, got %d components", len(analysis.Components))
	}
	if len(analysis.Dropped) != 1 {
		t.Fatalf("expected 1 dropped object, got %d", len(analysis.Dropped))
	}
	drop := analysis.Dropped[0]
	if drop.Category != "paredes" || drop.Keyword != "parede" {
		t.Errorf("unexpected drop reason: %s/%s", drop.Category, drop.Keyword)
	}
	if analysis.Statistics.TotalObjects != 2 {
		t.Errorf("expected 2 total objects, got %d", analysis.Statistics.TotalObjects)
	}
	if analysis.Statistics.UtilizationRate != 0.5 {
		t.Errorf("expected utilization 0.5, got %.2f", analysis.Statistics.UtilizationRate)
	}
}

func TestAnalyzeFile_StatisticsTotalArea(t *testing.T) {
	// Counter (1.4 m²) plus a bookshelf (1000mm x 400mm largest face = 0.4 m²).
	content := balcaoOBJ + `o Prateleira_Livros
v 0 0 0
v 1000 0 0
v 1000 300 0
v 0 300 400
f 9 10 11 12
`
	path := writeFixture(t, "total.obj", content)

	a := analyzer.New(zap.NewNop())
	analysis, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(analysis.Components))
	}

	sum := 0.0
	for _, c := range analysis.Components {
		sum += c.AreaM2
	}
	got := analysis.Statistics.AreaTotalM2
	if got < sum-0.001 || got > sum+0.001 {
		t.Errorf("expected statistics total area %.3f, got %.3f", sum, got)
	}
	if got < 1.79 || got > 1.81 {
		t.Errorf("expected total area near 1.8 m², got %.3f", got)
	}
}

func TestAnalyzeFile_MalformedLinesSkipped(t *testing.T) {
	content := `o Armario_Cozinha
v 0 0
v not numbers here
v 0 0 0
v 1000 0 0
v 1000 500 0
v 0 0 600
f 1 2 3
garbage line that means nothing
f 1 2 3 4
`
	path := writeFixture(t, "sujo.obj", content)

	a := analyzer.New(zap.NewNop())
	analysis, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("malformed lines must not fail the file: %v", err)
	}
	if len(analysis.Components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(analysis.Components))
	}
	// Only the 4 well-formed vertices count.
	if analysis.Components[0].Vertices != 4 {
		t.Errorf("expected 4 vertices, got %d", analysis.Components[0].Vertices)
	}
}

func TestAnalyzeFile_VerticesBeforeObject(t *testing.T) {
	// Some exporters emit vertices before any "o" record. They land in a
	// synthetic object instead of being lost.
	content := `v 0 0 0
v 1200 0 0
v 1200 600 0
v 0 0 700
f 1 2 3 4
`
	path := writeFixture(t, "anonimo.obj", content)

	a := analyzer.New(zap.NewNop())
	analysis, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.Components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(analysis.Components))
	}
	if analysis.Components[0].Name != "Objeto_1" {
		t.Errorf("expected synthetic name Objeto_1, got %s", analysis.Components[0].Name)
	}
}

func TestAnalyzeFile_AreaClamped(t *testing.T) {
	// A 20m x 20m span is far beyond plausible furniture; the parser
	// clamps it to the maximum instead of pricing a football field.
	content := `o Armario_Gigante
v 0 0 0
v 20000 0 0
v 20000 20000 0
v 0 20000 100
f 1 2 3 4
`
	path := writeFixture(t, "gigante.obj", content)

	a := analyzer.New(zap.NewNop())
	analysis, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.Components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(analysis.Components))
	}
	if got := analysis.Components[0].AreaM2; got != domain.MaxComponentAreaM2 {
		t.Errorf("expected area clamped to %.0f, got %.2f", domain.MaxComponentAreaM2, got)
	}
}

func TestAnalyzeFile_FileNotFound(t *testing.T) {
	a := analyzer.New(zap.NewNop())
	_, err := a.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "nao_existe.obj"))

	var notFound *domain.ErrFileNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestAnalyzeFile_UnsupportedFormat(t *testing.T) {
	path := writeFixture(t, "projeto.skp", "binary-ish")

	a := analyzer.New(zap.NewNop())
	_, err := a.AnalyzeFile(context.Background(), path)

	var unsupported *domain.ErrUnsupportedFormat
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if unsupported.Extension != "skp" {
		t.Errorf("expected extension skp, got %s", unsupported.Extension)
	}
}

func TestAnalyzeFile_DegradedFormat(t *testing.T) {
	path := writeFixture(t, "modelo.stl", "solid model\nendsolid model\n")

	a := analyzer.New(zap.NewNop())
	analysis, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analysis.Components) != 1 {
		t.Fatalf("expected single estimated component, got %d", len(analysis.Components))
	}
	comp := analysis.Components[0]
	if comp.Confidence != 0.3 {
		t.Errorf("expected confidence 0.3 in degraded mode, got %.2f", comp.Confidence)
	}
	// Tiny files still estimate at least 1 m².
	if comp.AreaM2 < 1.0 {
		t.Errorf("expected area floor of 1.0 m², got %.2f", comp.AreaM2)
	}
	if analysis.Statistics.Quality != domain.QualityRegular {
		t.Errorf("expected quality Regular, got %s", analysis.Statistics.Quality)
	}
	if analysis.Statistics.AreaTotalM2 != comp.AreaM2 {
		t.Errorf("expected statistics total area %.2f, got %.2f", comp.AreaM2, analysis.Statistics.AreaTotalM2)
	}
	if comp.Reason == "" {
		t.Error("expected an estimation reason on the degraded component")
	}
}

func TestAnalyzeFile_EmptyOBJ(t *testing.T) {
	path := writeFixture(t, "vazio.obj", "# nothing here\n")

	a := analyzer.New(zap.NewNop())
	analysis, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.Components) != 0 {
		t.Fatalf("expected no components, got %d", len(analysis.Components))
	}
	if analysis.Statistics.Quality != domain.QualityBaixa {
		t.Errorf("expected quality Baixa, got %s", analysis.Statistics.Quality)
	}
}
