package fallback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
)

func TestLibrary_NarrativeFor_KnownLabel(t *testing.T) {
	lib := NewLibrary()

	got := lib.NarrativeFor(diagnosis.LabelMelanoma, diagnosis.RiskHigh)

	assert.Contains(t, got.Summary, "melanoma")
	assert.Contains(t, got.Summary, "high risk")
	assert.Contains(t, got.Summary, "requires immediate medical attention")
	assert.Contains(t, got.Summary, "should not replace professional medical diagnosis")
	assert.Contains(t, got.Explanation, "melanocytes")
}

func TestLibrary_NarrativeFor_UnknownLabelGetsGenericExplanation(t *testing.T) {
	lib := NewLibrary()

	got := lib.NarrativeFor("Mystery condition", diagnosis.RiskMedium)

	assert.Contains(t, got.Summary, "mystery condition")
	assert.Contains(t, got.Summary, "warrants professional evaluation")
	assert.Contains(t, got.Explanation, "Mystery condition")
	assert.Contains(t, got.Explanation, "professional medical evaluation")
}

func TestLibrary_NarrativeFor_ExplanationMatching(t *testing.T) {
	lib := NewLibrary()

	tests := []struct {
		label string
		want  string
	}{
		{diagnosis.LabelMelanocyticNevus, "A nevus (mole)"},
		{diagnosis.LabelBasalCell, "Basal cell carcinoma is the most common"},
		{diagnosis.LabelActinicKeratosis, "precancerous"},
		{diagnosis.LabelDermatofibroma, "small, firm bump"},
		{"Seborrheic keratosis", "benign (non-cancerous) skin growth"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := lib.NarrativeFor(tt.label, diagnosis.RiskLow)
			assert.Contains(t, got.Explanation, tt.want)
		})
	}
}

func TestLibrary_NarrativeFor_Deterministic(t *testing.T) {
	lib := NewLibrary()

	first := lib.NarrativeFor(diagnosis.LabelMelanoma, diagnosis.RiskHigh)
	second := lib.NarrativeFor(diagnosis.LabelMelanoma, diagnosis.RiskHigh)

	assert.Equal(t, first, second)
}

func TestLibrary_ResourcesFor_TrustedSourcesSortedByRelevance(t *testing.T) {
	lib := NewLibrary()

	got := lib.ResourcesFor(diagnosis.FamilyMelanoma)

	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].RelevanceScore, got[i].RelevanceScore)
	}
	for _, art := range got {
		assert.NotEmpty(t, art.Title)
		assert.NotEmpty(t, art.Snippet)
		assert.True(t,
			strings.Contains(art.URL, "aad.org") ||
				strings.Contains(art.URL, "mayoclinic.org") ||
				strings.Contains(art.URL, "skincancer.org"),
			"unexpected source url %s", art.URL)
	}
}

func TestLibrary_KeywordsFor_LabelLeadsConditions(t *testing.T) {
	lib := NewLibrary()

	got := lib.KeywordsFor(diagnosis.LabelMelanoma, diagnosis.FamilyMelanoma)

	require.NotEmpty(t, got.Conditions)
	assert.Equal(t, diagnosis.LabelMelanoma, got.Conditions[0])
	// label duplicates the canned "melanoma" term; only one survives
	lower := make([]string, 0, len(got.Conditions))
	for _, c := range got.Conditions {
		lower = append(lower, strings.ToLower(c))
	}
	seen := map[string]int{}
	for _, c := range lower {
		seen[c]++
	}
	for term, n := range seen {
		assert.Equal(t, 1, n, "duplicate condition term %q", term)
	}
}

func TestLibrary_KeywordsFor_CapsEveryCategory(t *testing.T) {
	lib := NewLibrary()

	for _, family := range []diagnosis.Family{
		diagnosis.FamilyMelanoma,
		diagnosis.FamilyCarcinoma,
		diagnosis.FamilyKeratosis,
		diagnosis.FamilyNevus,
		diagnosis.FamilyBenign,
		diagnosis.FamilyVascular,
		diagnosis.FamilyUnknown,
	} {
		got := lib.KeywordsFor("Some very specific label", family)
		assert.LessOrEqual(t, len(got.Conditions), maxTermsPerCategory)
		assert.LessOrEqual(t, len(got.Symptoms), maxTermsPerCategory)
		assert.LessOrEqual(t, len(got.Treatments), maxTermsPerCategory)
		assert.LessOrEqual(t, len(got.Procedures), maxTermsPerCategory)
		assert.LessOrEqual(t, len(got.General), maxTermsPerCategory)
		assert.Equal(t, "Some very specific label", got.Conditions[0])
	}
}

func TestLibrary_RecommendationsFor_ByRisk(t *testing.T) {
	lib := NewLibrary()

	high := lib.RecommendationsFor(diagnosis.RiskHigh)
	assert.Contains(t, high, "Consult a dermatologist immediately")
	assert.Contains(t, high, "Practice sun safety and use sunscreen")

	critical := lib.RecommendationsFor(diagnosis.RiskCritical)
	assert.Equal(t, high, critical)

	medium := lib.RecommendationsFor(diagnosis.RiskMedium)
	assert.Contains(t, medium, "Schedule a dermatology consultation within 2-4 weeks")

	low := lib.RecommendationsFor(diagnosis.RiskLow)
	assert.Contains(t, low, "This appears to be a benign lesion")
}

func TestLibrary_NextStepsFor_ByRisk(t *testing.T) {
	lib := NewLibrary()

	assert.Contains(t, lib.NextStepsFor(diagnosis.RiskHigh), "Schedule immediate dermatologist appointment")
	assert.Contains(t, lib.NextStepsFor(diagnosis.RiskMedium), "Take photos to track changes over time")
	assert.Contains(t, lib.NextStepsFor(diagnosis.RiskLow), "Schedule routine dermatology check-up annually")
	assert.Len(t, lib.NextStepsFor(diagnosis.RiskHigh), 4)
}

func TestLibrary_ConfidenceNote_Tiers(t *testing.T) {
	lib := NewLibrary()

	assert.Equal(t, "High confidence in the analysis", lib.ConfidenceNote(0.80))
	assert.Equal(t, "Good confidence in the analysis", lib.ConfidenceNote(0.60))
	assert.Equal(t, "Moderate confidence in the analysis", lib.ConfidenceNote(0.40))
	assert.Equal(t, "Lower confidence - additional evaluation recommended", lib.ConfidenceNote(0.39))
}

func TestLibrary_RiskNote_AllLevels(t *testing.T) {
	lib := NewLibrary()

	assert.Contains(t, lib.RiskNote(diagnosis.RiskLow), "routine monitoring")
	assert.Contains(t, lib.RiskNote(diagnosis.RiskMedium), "consult with a healthcare provider")
	assert.Contains(t, lib.RiskNote(diagnosis.RiskHigh), "High risk")
	assert.Contains(t, lib.RiskNote(diagnosis.RiskHigh), "prompt medical evaluation")
	assert.Contains(t, lib.RiskNote(diagnosis.RiskCritical), "immediate medical attention")
	assert.Contains(t, lib.RiskNote(diagnosis.RiskLevel("WEIRD")), "healthcare provider")
}
