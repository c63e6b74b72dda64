package diagnosis

import (
	"strings"
)

// AnalysisID identifier type
type AnalysisID string

// RiskLevel enum
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ParseRiskLevel normalizes free-form risk strings to the enum.
// Unknown values map to MEDIUM so downstream content stays conservative.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLow
	case "MEDIUM":
		return RiskMedium
	case "HIGH":
		return RiskHigh
	case "CRITICAL":
		return RiskCritical
	default:
		return RiskMedium
	}
}

// Recognized classifier labels (ISIC / HAM10000 class set)
const (
	LabelMelanoma         = "Melanoma"
	LabelMelanocyticNevus = "Melanocytic nevus"
	LabelBasalCell        = "Basal cell carcinoma"
	LabelActinicKeratosis = "Actinic keratosis"
	LabelBenignKeratosis  = "Benign keratosis"
	LabelDermatofibroma   = "Dermatofibroma"
	LabelVascularLesion   = "Vascular lesion"
)

// KnownLabels in model output order.
func KnownLabels() []string {
	return []string{
		LabelMelanoma,
		LabelMelanocyticNevus,
		LabelBasalCell,
		LabelActinicKeratosis,
		LabelBenignKeratosis,
		LabelDermatofibroma,
		LabelVascularLesion,
	}
}

// AnalysisResult is the classifier output consumed by the enhancement layer.
// Immutable input; produced once per request.
type AnalysisResult struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	RiskLevel  RiskLevel `json:"risk_level"`
	ImageRef   string    `json:"image_ref,omitempty"`
}

// Classification is the full model output: the class distribution plus
// the derived top prediction and risk level.
type Classification struct {
	Predictions map[string]float64 `json:"predictions"`
	TopLabel    string             `json:"top_prediction"`
	Confidence  float64            `json:"confidence"`
	RiskLevel   RiskLevel          `json:"risk_level"`
}

// ModelInfo describes the classifier backing an analysis.
type ModelInfo struct {
	Type    string `json:"type"`
	Version string `json:"version"`
	Classes int    `json:"classes"`
	Mode    string `json:"mode"`
}

// Result projects the classification into the enhancement input.
func (c Classification) Result(imageRef string) AnalysisResult {
	return AnalysisResult{
		Label:      c.TopLabel,
		Confidence: c.Confidence,
		RiskLevel:  c.RiskLevel,
		ImageRef:   imageRef,
	}
}
