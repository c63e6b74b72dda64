package enhance

import (
	"context"

	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
)

// NarrativeGenerator port (interface untuk remote text generation)
type NarrativeGenerator interface {
	Generate(ctx context.Context, label string, confidence float64, risk diagnosis.RiskLevel) (Narrative, error)
}

// ResourceSearcher port (interface untuk trusted-domain article search)
type ResourceSearcher interface {
	Search(ctx context.Context, label string) ([]ResourceArticle, error)
}

// KeywordExtractor port (interface untuk remote term extraction)
type KeywordExtractor interface {
	Extract(ctx context.Context, text string) (CategorizedKeywords, error)
}

// ContentLibrary port: deterministic condition-keyed canned content.
// Single source of truth for every offline substitute; same arguments
// always yield identical content.
type ContentLibrary interface {
	NarrativeFor(label string, risk diagnosis.RiskLevel) Narrative
	ResourcesFor(family diagnosis.Family) []ResourceArticle
	KeywordsFor(label string, family diagnosis.Family) CategorizedKeywords
	RecommendationsFor(risk diagnosis.RiskLevel) []string
	NextStepsFor(risk diagnosis.RiskLevel) []string
	ConfidenceNote(confidence float64) string
	RiskNote(risk diagnosis.RiskLevel) string
}
