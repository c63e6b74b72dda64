package diagnosis

import "strings"

// Family is a closed taxonomic bucket for condition labels. Fallback content
// and scorer weighting key off the family, never off raw label substrings.
type Family string

const (
	FamilyMelanoma  Family = "melanoma"
	FamilyNevus     Family = "nevus"
	FamilyCarcinoma Family = "carcinoma"
	FamilyKeratosis Family = "keratosis"
	FamilyBenign    Family = "benign"
	FamilyVascular  Family = "vascular"
	FamilyUnknown   Family = "unknown"
)

// familyByLabel is the only place labels are bucketed. Exact match on the
// normalized label; anything else is FamilyUnknown.
var familyByLabel = map[string]Family{
	"melanoma":                FamilyMelanoma,
	"melanocytic nevus":       FamilyNevus,
	"nevus":                   FamilyNevus,
	"atypical nevus":          FamilyNevus,
	"dysplastic nevus":        FamilyNevus,
	"basal cell carcinoma":    FamilyCarcinoma,
	"squamous cell carcinoma": FamilyCarcinoma,
	"actinic keratosis":       FamilyKeratosis,
	"benign keratosis":        FamilyBenign,
	"seborrheic keratosis":    FamilyBenign,
	"dermatofibroma":          FamilyBenign,
	"vascular lesion":         FamilyVascular,
}

// FamilyOf maps a classifier label to its condition family.
func FamilyOf(label string) Family {
	norm := strings.ToLower(strings.TrimSpace(label))
	if f, ok := familyByLabel[norm]; ok {
		return f
	}
	return FamilyUnknown
}

// DisplayName is the human wording used in canned content.
func (f Family) DisplayName() string {
	switch f {
	case FamilyMelanoma:
		return "melanoma"
	case FamilyNevus:
		return "melanocytic nevi"
	case FamilyCarcinoma:
		return "carcinoma"
	case FamilyKeratosis:
		return "actinic keratosis"
	case FamilyBenign:
		return "benign skin growths"
	case FamilyVascular:
		return "vascular lesions"
	default:
		return "skin conditions"
	}
}

// DeriveRiskLevel maps a family and classifier confidence to a risk level.
// Melanoma and carcinoma families are treated as high-risk conditions,
// actinic keratosis as precancerous; everything else is benign-leaning.
func DeriveRiskLevel(family Family, confidence float64) RiskLevel {
	switch family {
	case FamilyMelanoma, FamilyCarcinoma:
		if confidence > 0.6 {
			return RiskHigh
		}
		return RiskMedium
	case FamilyKeratosis:
		if confidence > 0.5 {
			return RiskMedium
		}
		return RiskLow
	default:
		if confidence > 0.80 {
			return RiskLow
		}
		return RiskMedium
	}
}
