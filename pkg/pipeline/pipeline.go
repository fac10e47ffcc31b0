// Package pipeline sequences the analysis of one report document: extract
// text, classify the report, parse findings, then retrieve context and
// generate an explanation per finding.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medlens/medlens/internal/models"
	"github.com/medlens/medlens/internal/types"
	"github.com/medlens/medlens/pkg/classify"
	"github.com/medlens/medlens/pkg/findings"
)

// Stage names the phases of a pipeline run.
type Stage string

const (
	StageReceived   Stage = "received"
	StageExtracting Stage = "extracting"
	StageClassified Stage = "classified"
	StageParsing    Stage = "parsing"
	StageExplaining Stage = "explaining"
	StageCompleted  Stage = "completed"
	StageFailed     Stage = "failed"
)

const rawTextPreviewLimit = 1000

// Retriever supplies reference context for a finding. Implementations never
// fail; no context is an empty slice.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []string
}

// Explainer produces a non-empty explanation for a finding.
type Explainer interface {
	Explain(ctx context.Context, f models.Finding, kbContext []string) string
}

type Config struct {
	Extractor types.TextExtractor
	Retriever Retriever
	Explainer Explainer
	// KnowledgeTopK is how many reference snippets are fetched per finding.
	KnowledgeTopK int
	// OnExplanation is called after each finding is explained; used for
	// progress reporting.
	OnExplanation func(done, total int)
	Logger        zerolog.Logger
}

type Pipeline struct {
	config Config
}

func NewWithConfig(config Config) (*Pipeline, error) {
	if config.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if config.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if config.Explainer == nil {
		return nil, fmt.Errorf("explainer is required")
	}
	if config.KnowledgeTopK <= 0 {
		config.KnowledgeTopK = 2
	}
	return &Pipeline{config: config}, nil
}

// Analyze runs the full pipeline over one document. Extraction failure fails
// the run; everything after degrades per finding and always completes. Zero
// findings is a valid completed result.
func (p *Pipeline) Analyze(ctx context.Context, data []byte, format string) (*models.AnalysisResult, error) {
	log := p.config.Logger

	log.Debug().Str("stage", string(StageExtracting)).Str("format", format).Msg("extracting text")
	text, err := p.config.Extractor.Extract(ctx, data, format)
	if err != nil {
		log.Error().Err(err).Str("stage", string(StageFailed)).Str("format", format).
			Msg("text extraction failed")
		return nil, err
	}

	reportType := classify.Classify(text)
	log.Debug().Str("stage", string(StageClassified)).Str("report_type", string(reportType)).
		Msg("report classified")

	parsed := parseFindings(text, reportType)
	log.Debug().Str("stage", string(StageParsing)).Int("findings", len(parsed)).Msg("findings parsed")

	explanations := make([]models.Explanation, 0, len(parsed))
	for i, f := range parsed {
		explanations = append(explanations, p.explainOne(ctx, i+1, f))
		if p.config.OnExplanation != nil {
			p.config.OnExplanation(i+1, len(parsed))
		}
	}

	log.Info().Str("stage", string(StageCompleted)).Str("report_type", string(reportType)).
		Int("findings", len(parsed)).Msg("analysis complete")

	return &models.AnalysisResult{
		Success:       true,
		ReportType:    reportType,
		TotalFindings: len(parsed),
		Explanations:  explanations,
		RawText:       previewText(text),
	}, nil
}

// parseFindings applies the extraction strategy for the report type. Unknown
// reports run both strategies, lab values first.
func parseFindings(text string, reportType models.ReportType) []models.Finding {
	switch reportType {
	case models.ReportLaboratory:
		return findings.ExtractLabValues(text)
	case models.ReportRadiology:
		return findings.ExtractObservations(text)
	default:
		return append(findings.ExtractLabValues(text), findings.ExtractObservations(text)...)
	}
}

// explainOne handles a single finding. Retrieval and generation failures are
// recovered inside their components, so one bad finding never aborts the
// rest.
func (p *Pipeline) explainOne(ctx context.Context, ordinal int, f models.Finding) models.Explanation {
	kbContext := p.config.Retriever.Retrieve(ctx, searchText(f), p.config.KnowledgeTopK)
	text := p.config.Explainer.Explain(ctx, f, kbContext)

	kbMatches := kbContext
	if len(kbMatches) > 1 {
		kbMatches = kbMatches[:1]
	}

	return models.Explanation{
		Ordinal:     ordinal,
		DisplayName: findings.CleanFindingName(f.Label()),
		Kind:        f.Kind,
		Finding:     f.Label(),
		Value:       f.Value,
		Unit:        f.Unit,
		Descriptor:  f.Descriptor,
		Text:        text,
		KBMatches:   kbMatches,
	}
}

// searchText builds the retrieval query for a finding.
func searchText(f models.Finding) string {
	if f.IsLab() {
		return fmt.Sprintf("%s %s %s", f.Test, f.Value, f.Unit)
	}
	return fmt.Sprintf("%s %s", f.Name, f.Descriptor)
}

// previewText bounds the raw text echoed back to the caller.
func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= rawTextPreviewLimit {
		return text
	}
	return string(runes[:rawTextPreviewLimit]) + "..."
}
