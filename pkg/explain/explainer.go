// Package explain builds patient-readable explanations for findings. It runs
// an ordered chain of strategies: live model generation, then a static
// template table keyed by finding name, then a generic template. The chain
// always produces a non-empty string for a well-formed finding, so losing the
// model service degrades quality, never availability.
package explain

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medlens/medlens/internal/models"
	"github.com/medlens/medlens/internal/types"
	"github.com/medlens/medlens/pkg/findings"
)

// Strategy is one tier of the explanation chain. ok=false hands off to the
// next tier.
type Strategy interface {
	Explain(ctx context.Context, f models.Finding, kbContext []string) (text string, ok bool)
}

type Explainer struct {
	chain []Strategy
	log   zerolog.Logger
}

// New assembles the standard chain. gen may be nil when no model service is
// configured; the chain then starts at the template tier.
func New(gen types.Generator, log zerolog.Logger) *Explainer {
	var chain []Strategy
	if gen != nil {
		chain = append(chain, &llmStrategy{gen: gen, log: log})
	}
	chain = append(chain, &templateStrategy{}, &genericStrategy{})
	return &Explainer{chain: chain, log: log}
}

// NewWithStrategies builds an explainer over an explicit chain, for tests.
func NewWithStrategies(log zerolog.Logger, strategies ...Strategy) *Explainer {
	return &Explainer{chain: strategies, log: log}
}

// Explain returns a non-empty explanation for the finding.
func (e *Explainer) Explain(ctx context.Context, f models.Finding, kbContext []string) string {
	for _, s := range e.chain {
		if text, ok := s.Explain(ctx, f, kbContext); ok {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				return trimmed
			}
		}
	}
	// Unreachable with the standard chain; kept so a stubbed chain cannot
	// break the non-empty contract.
	return "No explanation is available for this finding. Please discuss it with your healthcare provider."
}

// llmStrategy asks the model service. The client retries internally; a final
// failure defers to the next tier.
type llmStrategy struct {
	gen types.Generator
	log zerolog.Logger
}

func (s *llmStrategy) Explain(ctx context.Context, f models.Finding, kbContext []string) (string, bool) {
	kb := ""
	if len(kbContext) > 0 {
		kb = kbContext[0]
	}

	text, err := s.gen.Generate(ctx, buildPrompt(f, kb))
	if err != nil {
		s.log.Warn().Err(err).Str("finding", f.Label()).
			Msg("model generation failed, falling back to templates")
		return "", false
	}
	return text, true
}

// templateStrategy serves the static lookup table keyed by normalized
// test/finding name.
type templateStrategy struct{}

func (s *templateStrategy) Explain(_ context.Context, f models.Finding, _ []string) (string, bool) {
	if f.IsLab() {
		tpl, ok := labTemplates[strings.ToLower(strings.TrimSpace(f.Test))]
		if !ok {
			return "", false
		}
		return renderLabTemplate(tpl, f.Value, f.Unit), true
	}

	name := strings.ToLower(findings.CleanFindingName(f.Label()))
	if isReassuring(f) {
		return matchTemplate(normalObservationTemplates, name)
	}
	if isConcerning(f) {
		return matchTemplate(concerningObservationTemplates, name)
	}
	return "", false
}

// genericStrategy interpolates raw value/unit/context; it always answers.
type genericStrategy struct{}

func (s *genericStrategy) Explain(_ context.Context, f models.Finding, kbContext []string) (string, bool) {
	kb := ""
	if len(kbContext) > 0 {
		kb = kbContext[0]
	}

	if f.IsLab() {
		if kb != "" {
			return "Lab test result: " + f.Value + " " + f.Unit + ". " + kb, true
		}
		return "Lab value of " + f.Value + " " + f.Unit + " detected. This test measures specific substances in your blood to assess organ function and overall health.", true
	}

	name := findings.CleanFindingName(f.Label())
	switch {
	case isReassuring(f):
		return "The " + name + " appears normal, which is a positive finding indicating healthy structures.", true
	case isConcerning(f):
		return "Changes noted in " + name + ". This finding may require follow-up with your healthcare provider.", true
	case kb != "":
		return "Finding: " + name + ". " + kb, true
	default:
		return "Medical finding detected in imaging. This finding was identified during radiological examination and may provide important information about your health status.", true
	}
}

func isConcerning(f models.Finding) bool {
	haystack := strings.ToLower(f.Label() + " " + f.Descriptor)
	for _, ind := range concerningIndicators {
		if strings.Contains(haystack, ind) {
			return true
		}
	}
	return false
}
