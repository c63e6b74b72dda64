package enhance

import (
	"time"

	"github.com/bryanwahyu/mediscan-ai/internal/domain/lesion"
)

// Narrative is the generated summary/explanation pair for one result.
type Narrative struct {
	Summary     string `json:"summary"`
	Explanation string `json:"explanation"`
}

// ResourceArticle value object, no identity
type ResourceArticle struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Source         string  `json:"source"`
	Snippet        string  `json:"snippet"`
	RelevanceScore float64 `json:"relevance_score"`
}

// CategorizedKeywords groups extracted terms into the fixed category set.
// Each list is ordered and duplicate-free; Conditions always contains at
// least the input label.
type CategorizedKeywords struct {
	Conditions []string `json:"conditions"`
	Symptoms   []string `json:"symptoms"`
	Treatments []string `json:"treatments"`
	Procedures []string `json:"procedures"`
	General    []string `json:"general"`
}

// Bundle is the always-populated enhancement output. Every field carries
// either a live result or a fallback substitute; the bundle is immutable
// once returned.
type Bundle struct {
	NarrativeSummary     string                 `json:"narrative_summary"`
	NarrativeExplanation string                 `json:"narrative_explanation"`
	ConfidenceNote       string                 `json:"confidence_note"`
	RiskNote             string                 `json:"risk_note"`
	Resources            []ResourceArticle      `json:"resources"`
	Keywords             CategorizedKeywords    `json:"keywords"`
	Characteristics      lesion.Characteristics `json:"characteristics"`
	GeneratedAt          time.Time              `json:"generated_at"`
}
