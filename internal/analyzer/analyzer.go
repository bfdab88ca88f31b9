// Package analyzer implements the 3D file analysis pipeline:
// geometry parsing, component classification and analysis aggregation.
package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/orcainteriores/orca-api/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("analyzer")

// Formats with full geometry support.
const formatOBJ = "obj"

// Formats accepted in degraded (size-based estimation) mode.
var degradedFormats = map[string]bool{
	"dae":     true,
	"collada": true,
	"stl":     true,
	"ply":     true,
}

// Analyzer turns a 3D file on disk into a domain.Analysis.
type Analyzer struct {
	logger *zap.Logger
}

// New creates an Analyzer.
func New(logger *zap.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// AnalyzeFile runs the full pipeline on the file at path. OBJ files get
// per-object parsing and classification; dae/collada/stl/ply fall back
// to a single estimated component. Any error leaves no partial result.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*domain.Analysis, error) {
	_, span := tracer.Start(ctx, "Analyzer.AnalyzeFile")
	defer span.End()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.ErrFileNotFound{Path: path}
		}
		return nil, &domain.ErrReadFailure{Path: path, Err: err}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	sizeMB := float64(info.Size()) / (1024 * 1024)
	fileName := filepath.Base(path)

	span.SetAttributes(
		attribute.String("file.format", ext),
		attribute.Float64("file.size_mb", sizeMB),
	)

	switch {
	case ext == formatOBJ:
		objects, err := parseOBJ(path)
		if err != nil {
			return nil, err
		}
		a.logger.Info("obj file parsed",
			zap.String("file", fileName),
			zap.Int("objects", len(objects)),
		)
		analysis := a.buildAnalysis(fileName, ext, sizeMB, objects)
		span.SetAttributes(attribute.Int("analysis.components", len(analysis.Components)))
		return analysis, nil

	case degradedFormats[ext]:
		a.logger.Info("degraded format, estimating from file size",
			zap.String("file", fileName),
			zap.String("format", ext),
		)
		return a.degradedAnalysis(fileName, ext, sizeMB), nil

	default:
		return nil, &domain.ErrUnsupportedFormat{Extension: ext}
	}
}

// buildAnalysis classifies every parsed object and aggregates the result.
func (a *Analyzer) buildAnalysis(fileName, format string, sizeMB float64, objects []domain.RawObject) *domain.Analysis {
	components := make([]domain.Component, 0, len(objects))
	dropped := make([]domain.DroppedObject, 0)

	for _, obj := range objects {
		comp, drop := ClassifyObject(obj)
		if drop != nil {
			a.logger.Debug("object excluded as non-furniture",
				zap.String("object", drop.Name),
				zap.String("category", drop.Category),
				zap.String("keyword", drop.Keyword),
			)
			dropped = append(dropped, *drop)
			continue
		}
		components = append(components, comp)
	}

	return aggregate(fileName, format, sizeMB, len(objects), components, dropped)
}

// degradedAnalysis builds a one-component estimate for formats without
// per-object parsing. Area, vertex and face counts derive from file size.
func (a *Analyzer) degradedAnalysis(fileName, format string, sizeMB float64) *domain.Analysis {
	area := sizeMB * 2
	if area < 1.0 {
		area = 1.0
	}

	comp := domain.Component{
		Name:            "Componente_" + strings.ToUpper(format),
		Type:            domain.TypeArmario,
		AreaM2:          area,
		Vertices:        int(sizeMB * 1000),
		Faces:           int(sizeMB * 500),
		Confidence:      0.3,
		Reason:          "estimado pelo tamanho do arquivo (formato sem geometria por objeto)",
		NameConfidence:  0.3,
		DimensionsValid: true,
		Insights: []string{
			"Análise em modo compatibilidade: valores estimados pelo tamanho do arquivo",
		},
	}

	return &domain.Analysis{
		ID:         uuid.New().String(),
		FileName:   fileName,
		Format:     format,
		SizeMB:     sizeMB,
		Components: []domain.Component{comp},
		Statistics: domain.Statistics{
			TotalObjects:    1,
			ValidComponents: 1,
			AreaTotalM2:     area,
			UtilizationRate: 1.0,
			AvgConfidence:   0.3,
			CountByType:     map[string]int{domain.TypeArmario: 1},
			Quality:         domain.QualityRegular,
			Recommendations: []string{
				"Arquivo " + strings.ToUpper(format) + " analisado em modo compatibilidade",
				"Converta o projeto para OBJ para análise detalhada por componente",
			},
		},
		AnalyzedAt: time.Now(),
		Version:    domain.AnalysisVersion,
	}
}
