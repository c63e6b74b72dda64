package fallback

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/enhance"
)

// Library serves canned enhancement content from in-memory tables.
// Deterministic and instant, no I/O; every lookup is keyed by label,
// family, risk or confidence so the same input always yields the same
// content.
type Library struct{}

var _ enhance.ContentLibrary = (*Library)(nil)

func NewLibrary() *Library {
	return &Library{}
}

var riskDescriptions = map[diagnosis.RiskLevel]string{
	diagnosis.RiskHigh:   "requires immediate medical attention",
	diagnosis.RiskMedium: "warrants professional evaluation",
	diagnosis.RiskLow:    "appears to be low risk but should be monitored",
}

// labelExplanations is ordered; the first key contained in the normalized
// label wins, so specific conditions shadow broader ones.
var labelExplanations = []struct {
	key  string
	text string
}{
	{"melanoma", "Melanoma is a type of skin cancer that develops from melanocytes (pigment-producing cells). Early detection and treatment are crucial for the best outcomes."},
	{"basal cell carcinoma", "Basal cell carcinoma is the most common type of skin cancer. It typically grows slowly and rarely spreads to other parts of the body when treated early."},
	{"squamous cell carcinoma", "Squamous cell carcinoma is a common form of skin cancer that can be more aggressive than basal cell carcinoma but is highly treatable when caught early."},
	{"actinic keratosis", "Actinic keratosis is a precancerous skin condition caused by sun damage. While not cancer itself, it can develop into squamous cell carcinoma if left untreated."},
	{"seborrheic keratosis", "Seborrheic keratosis is a common, benign (non-cancerous) skin growth. These growths are typically harmless but should be evaluated to rule out other conditions."},
	{"nevus", "A nevus (mole) is a common, usually benign skin growth. Most moles are harmless, but changes in size, color, or shape should be evaluated by a dermatologist."},
	{"dermatofibroma", "Dermatofibroma is a common, benign skin growth that typically appears as a small, firm bump. These are generally harmless but can be removed if bothersome."},
}

// NarrativeFor builds the canned narrative for one finding.
func (l *Library) NarrativeFor(label string, risk diagnosis.RiskLevel) enhance.Narrative {
	desc, ok := riskDescriptions[risk]
	if !ok {
		desc = "requires evaluation"
	}

	summary := fmt.Sprintf(
		"The analysis suggests %s as the leading finding. This %s risk finding %s. "+
			"Please note: this is an AI-assisted analysis tool and should not replace professional medical diagnosis. "+
			"Always consult with qualified healthcare professionals for proper evaluation and treatment decisions.",
		strings.ToLower(label), strings.ToLower(string(risk)), desc)

	return enhance.Narrative{
		Summary:     summary,
		Explanation: l.explanationFor(label),
	}
}

func (l *Library) explanationFor(label string) string {
	norm := strings.ToLower(label)
	for _, entry := range labelExplanations {
		if strings.Contains(norm, entry.key) {
			return entry.text
		}
	}
	return fmt.Sprintf("%s is a skin condition that requires professional medical evaluation for proper diagnosis and treatment recommendations.", label)
}

// ResourcesFor returns curated reference articles for a condition family.
func (l *Library) ResourcesFor(family diagnosis.Family) []enhance.ResourceArticle {
	condition := family.DisplayName()
	return []enhance.ResourceArticle{
		{
			Title:          fmt.Sprintf("Understanding %s: Diagnosis and Treatment", condition),
			URL:            "https://www.aad.org/public/diseases/skin-cancer",
			Source:         "American Academy of Dermatology",
			Snippet:        fmt.Sprintf("Comprehensive information about %s, including symptoms, diagnosis, and treatment options.", condition),
			RelevanceScore: 0.9,
		},
		{
			Title:          fmt.Sprintf("%s - Mayo Clinic", condition),
			URL:            "https://www.mayoclinic.org/diseases-conditions",
			Source:         "Mayo Clinic",
			Snippet:        fmt.Sprintf("Expert medical information about %s from Mayo Clinic specialists.", condition),
			RelevanceScore: 0.85,
		},
		{
			Title:          fmt.Sprintf("%s: Prevention and Early Detection", condition),
			URL:            "https://www.skincancer.org/skin-cancer-information/",
			Source:         "Skin Cancer Foundation",
			Snippet:        fmt.Sprintf("Prevention, early detection, and treatment guidance for %s from the Skin Cancer Foundation.", condition),
			RelevanceScore: 0.8,
		},
	}
}

// familyKeywords holds the curated vocabulary per condition family. Terms
// come from the dermatology keyword corpus; the predicted label itself is
// prepended by KeywordsFor.
var familyKeywords = map[diagnosis.Family]enhance.CategorizedKeywords{
	diagnosis.FamilyMelanoma: {
		Conditions: []string{"melanoma", "skin cancer", "atypical nevus"},
		Symptoms:   []string{"asymmetry", "border irregularity", "color variation", "diameter", "evolution"},
		Treatments: []string{"excision", "wide local excision", "Mohs surgery", "biopsy"},
		Procedures: []string{"dermoscopy", "biopsy", "histopathology", "staging"},
		General:    []string{"dermatology", "oncology", "sun protection", "risk factors"},
	},
	diagnosis.FamilyCarcinoma: {
		Conditions: []string{"carcinoma", "skin cancer"},
		Symptoms:   []string{"ulceration", "crusting", "bleeding", "scaling"},
		Treatments: []string{"excision", "Mohs surgery", "cryotherapy", "electrodesiccation"},
		Procedures: []string{"dermoscopy", "biopsy", "histopathology"},
		General:    []string{"dermatology", "oncology", "sun protection", "prevention"},
	},
	diagnosis.FamilyKeratosis: {
		Conditions: []string{"actinic keratosis", "keratosis"},
		Symptoms:   []string{"scaling", "crusting", "pigmentation"},
		Treatments: []string{"cryotherapy", "topical chemotherapy", "electrodesiccation"},
		Procedures: []string{"dermoscopy", "biopsy"},
		General:    []string{"dermatology", "sun protection", "surveillance", "prevention"},
	},
	diagnosis.FamilyNevus: {
		Conditions: []string{"nevus", "mole"},
		Symptoms:   []string{"asymmetry", "border irregularity", "color variation", "evolution"},
		Treatments: []string{"surgical removal", "excision"},
		Procedures: []string{"dermoscopy", "dermatoscopy"},
		General:    []string{"dermatology", "surveillance", "follow-up", "sun protection"},
	},
	diagnosis.FamilyBenign: {
		Conditions: []string{"lesion", "keratosis"},
		Symptoms:   []string{"pigmentation", "scaling", "itching"},
		Treatments: []string{"cryotherapy", "surgical removal"},
		Procedures: []string{"dermoscopy", "shave biopsy"},
		General:    []string{"dermatology", "follow-up", "surveillance"},
	},
	diagnosis.FamilyVascular: {
		Conditions: []string{"vascular lesion", "lesion"},
		Symptoms:   []string{"pigmentation", "bleeding"},
		Treatments: []string{"surgical removal"},
		Procedures: []string{"dermoscopy"},
		General:    []string{"dermatology", "follow-up"},
	},
	diagnosis.FamilyUnknown: {
		Conditions: []string{"lesion"},
		Symptoms:   []string{"evolution", "pigmentation"},
		Treatments: []string{"biopsy"},
		Procedures: []string{"dermoscopy", "biopsy"},
		General:    []string{"dermatology", "diagnosis", "follow-up"},
	},
}

// KeywordsFor returns the canned keyword set with the predicted label
// guaranteed first among conditions.
func (l *Library) KeywordsFor(label string, family diagnosis.Family) enhance.CategorizedKeywords {
	base := familyKeywords[family]
	return enhance.CategorizedKeywords{
		Conditions: prependTerm(label, base.Conditions),
		Symptoms:   capTerms(base.Symptoms),
		Treatments: capTerms(base.Treatments),
		Procedures: capTerms(base.Procedures),
		General:    capTerms(base.General),
	}
}

const maxTermsPerCategory = 6

func prependTerm(term string, terms []string) []string {
	out := make([]string, 0, len(terms)+1)
	out = append(out, term)
	seen := map[string]bool{strings.ToLower(term): true}
	for _, t := range terms {
		if seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return capTerms(out)
}

func capTerms(terms []string) []string {
	if len(terms) > maxTermsPerCategory {
		terms = terms[:maxTermsPerCategory]
	}
	out := make([]string, len(terms))
	copy(out, terms)
	return out
}

// RecommendationsFor returns patient guidance keyed by risk level.
func (l *Library) RecommendationsFor(risk diagnosis.RiskLevel) []string {
	base := []string{
		"Continue regular skin self-examinations",
		"Practice sun safety and use sunscreen",
	}
	switch risk {
	case diagnosis.RiskHigh, diagnosis.RiskCritical:
		return append([]string{
			"Consult a dermatologist immediately",
			"Schedule urgent medical evaluation",
			"Monitor for any changes in size, color, or texture",
		}, base...)
	case diagnosis.RiskMedium:
		return append([]string{
			"Schedule a dermatology consultation within 2-4 weeks",
			"Monitor the lesion for changes",
		}, base...)
	default:
		return append([]string{
			"This appears to be a benign lesion",
			"Schedule routine dermatology check-up",
		}, base...)
	}
}

// NextStepsFor returns the action checklist keyed by risk level.
func (l *Library) NextStepsFor(risk diagnosis.RiskLevel) []string {
	switch risk {
	case diagnosis.RiskHigh, diagnosis.RiskCritical:
		return []string{
			"Schedule immediate dermatologist appointment",
			"Prepare list of questions for your doctor",
			"Document any recent changes in the lesion",
			"Avoid sun exposure to the area",
		}
	case diagnosis.RiskMedium:
		return []string{
			"Schedule dermatologist consultation within 2-4 weeks",
			"Monitor the lesion for any changes",
			"Take photos to track changes over time",
			"Practice sun safety measures",
		}
	default:
		return []string{
			"Continue regular skin self-examinations",
			"Schedule routine dermatology check-up annually",
			"Maintain sun protection habits",
			"Monitor for any new or changing lesions",
		}
	}
}

// ConfidenceNote interprets the classifier confidence for patients.
func (l *Library) ConfidenceNote(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "High confidence in the analysis"
	case confidence >= 0.6:
		return "Good confidence in the analysis"
	case confidence >= 0.4:
		return "Moderate confidence in the analysis"
	default:
		return "Lower confidence - additional evaluation recommended"
	}
}

// RiskNote interprets the risk level for patients.
func (l *Library) RiskNote(risk diagnosis.RiskLevel) string {
	switch risk {
	case diagnosis.RiskLow:
		return "Generally not concerning, but routine monitoring recommended"
	case diagnosis.RiskMedium:
		return "May require attention - consult with a healthcare provider"
	case diagnosis.RiskHigh:
		return "High risk - requires prompt medical evaluation and consultation"
	case diagnosis.RiskCritical:
		return "Requires immediate medical attention"
	default:
		return "Consult with a healthcare provider for interpretation"
	}
}
