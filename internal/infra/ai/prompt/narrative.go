package prompt

import (
	"fmt"
	"strings"
)

// Section markers the model is instructed to emit. Parsing keys off these.
const (
	summaryMarker     = "SUMMARY:"
	explanationMarker = "EXPLANATION:"
)

// GetSystemPrompt pins the assistant role for narrative generation.
func GetSystemPrompt() string {
	return "You are a medical AI assistant providing clear, accurate explanations of diagnostic results. Always include appropriate medical disclaimers."
}

// GetUserPrompt builds the narrative request for one diagnostic finding.
// A single completion covers both summary and condition explanation; the
// two sections are split afterwards by ParseNarrative.
func GetUserPrompt(label string, confidence float64, risk string) string {
	return fmt.Sprintf(`Generate a clear, professional medical summary for the following skin analysis result:

Top Prediction: %s
Confidence Level: %.1f%%
Risk Assessment: %s

Respond with exactly two sections using these markers:

SUMMARY:
A natural language summary of what this result means, the significance of the confidence level, what the risk level indicates, and appropriate next steps. Use clear, patient-friendly language and keep it under 200 words.

EXPLANATION:
A brief explanation of what this condition is, its common characteristics, and why professional evaluation matters. Keep it under 100 words.

Always include a medical disclaimer that this is AI-assisted analysis and professional medical evaluation is required for diagnosis and treatment decisions.`,
		label, confidence*100, risk)
}

// ParseNarrative splits a model completion into summary and explanation.
// Output without the expected markers is treated as a bare summary; the
// caller decides how to backfill a missing explanation.
func ParseNarrative(raw string) (summary, explanation string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ""
	}

	sumIdx := strings.Index(text, summaryMarker)
	expIdx := strings.Index(text, explanationMarker)

	if sumIdx == -1 && expIdx == -1 {
		return text, ""
	}

	if expIdx == -1 {
		return strings.TrimSpace(text[sumIdx+len(summaryMarker):]), ""
	}

	if sumIdx == -1 {
		summary = strings.TrimSpace(text[:expIdx])
		explanation = strings.TrimSpace(text[expIdx+len(explanationMarker):])
		return summary, explanation
	}

	if sumIdx < expIdx {
		summary = strings.TrimSpace(text[sumIdx+len(summaryMarker) : expIdx])
		explanation = strings.TrimSpace(text[expIdx+len(explanationMarker):])
		return summary, explanation
	}

	explanation = strings.TrimSpace(text[expIdx+len(explanationMarker) : sumIdx])
	summary = strings.TrimSpace(text[sumIdx+len(summaryMarker):])
	return summary, explanation
}
