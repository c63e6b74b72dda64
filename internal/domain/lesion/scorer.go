package lesion

import (
	"fmt"
	"image"
	"math"

	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
)

// DefaultConfidenceThreshold gates characteristic scoring. The value is a
// carried-over operational default, not a clinically validated cutoff.
const DefaultConfidenceThreshold = 0.30

// Lower clamp per score. Degenerate inputs (uniform color, 1x1 regions)
// land on these boundaries instead of reporting a misleading zero.
const (
	minAsymmetry = 0.15
	minBorder    = 0.12
	minColor     = 0.18
	minEvolution = 0.10
)

// CharacteristicScores holds the four normalized lesion-feature scores.
// EvolutionRisk is a heuristic composite of the other three weighted by
// condition family and confidence; it is not a measured clinical quantity.
type CharacteristicScores struct {
	Asymmetry          float64 `json:"asymmetry_score"`
	BorderIrregularity float64 `json:"border_irregularity"`
	ColorVariation     float64 `json:"color_variation"`
	EvolutionRisk      float64 `json:"evolution_risk"`
}

// Characteristics is the scorer output: either four numeric scores or a
// single not-applicable marker with a rationale, never a mix.
type Characteristics struct {
	Applicable bool                  `json:"applicable"`
	Scores     *CharacteristicScores `json:"scores,omitempty"`
	Rationale  string                `json:"rationale,omitempty"`
}

// NotApplicable builds the suppressed result.
func NotApplicable(rationale string) Characteristics {
	return Characteristics{Applicable: false, Rationale: rationale}
}

// familyWeights adjust the raw pixel metrics per condition family.
// Malignant-leaning families weight upward. Tunable heuristics.
type familyWeights struct {
	Asymmetry float64
	Border    float64
	Color     float64
	Evolution float64
}

var weightsByFamily = map[diagnosis.Family]familyWeights{
	diagnosis.FamilyMelanoma:  {Asymmetry: 1.3, Border: 1.4, Color: 1.2, Evolution: 1.4},
	diagnosis.FamilyCarcinoma: {Asymmetry: 1.1, Border: 1.2, Color: 1.0, Evolution: 1.2},
	diagnosis.FamilyKeratosis: {Asymmetry: 0.9, Border: 1.1, Color: 1.0, Evolution: 1.1},
	diagnosis.FamilyNevus:     {Asymmetry: 0.8, Border: 0.9, Color: 0.9, Evolution: 0.7},
	diagnosis.FamilyBenign:    {Asymmetry: 0.8, Border: 0.9, Color: 0.9, Evolution: 0.7},
	diagnosis.FamilyVascular:  {Asymmetry: 1.0, Border: 1.0, Color: 1.0, Evolution: 1.0},
	diagnosis.FamilyUnknown:   {Asymmetry: 1.0, Border: 1.0, Color: 1.0, Evolution: 1.0},
}

// Scorer computes lesion characteristic scores from pixel data.
// Pure and CPU-bound; it never performs I/O and never fails.
type Scorer struct {
	Threshold float64
}

// NewScorer builds a scorer with the given confidence gate.
func NewScorer(threshold float64) Scorer {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return Scorer{Threshold: threshold}
}

// Score computes the four characteristic scores for one image.
//
// Confidence gate first: below the threshold all four dimensions are
// suppressed together, with a rationale, so a shaky classification never
// dresses itself up with precise-looking structure numbers. Above the
// gate every score is numeric in [0,1]; a nil or degenerate image falls
// back to confidence-derived defaults rather than erroring.
func (s Scorer) Score(img image.Image, label string, confidence float64) Characteristics {
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	if confidence < threshold {
		return NotApplicable(fmt.Sprintf(
			"classifier confidence %.1f%% is below the %.0f%% threshold; structural feature estimates would not be meaningful",
			confidence*100, threshold*100))
	}

	family := diagnosis.FamilyOf(label)
	w := weightsByFamily[family]

	if img == nil || img.Bounds().Dx() < 2 || img.Bounds().Dy() < 2 {
		return confidenceScores(w, confidence)
	}

	factor := 0.5 + confidence*0.5

	asym := clamp(asymmetryMetric(img)*factor*w.Asymmetry, minAsymmetry, 1.0)
	border := clamp(borderMetric(img)*factor*w.Border, minBorder, 1.0)
	color := clamp(colorMetric(img)*factor*w.Color, minColor, 1.0)
	evolution := clamp(((asym+border+color)/3)*w.Evolution*confidence, minEvolution, 1.0)

	return Characteristics{
		Applicable: true,
		Scores: &CharacteristicScores{
			Asymmetry:          asym,
			BorderIrregularity: border,
			ColorVariation:     color,
			EvolutionRisk:      evolution,
		},
	}
}

// confidenceScores derives defaults when no usable pixel data exists.
func confidenceScores(w familyWeights, confidence float64) Characteristics {
	asym := clamp(math.Max(0.20, confidence*0.7)*w.Asymmetry, minAsymmetry, 1.0)
	border := clamp(math.Max(0.15, confidence*0.6)*w.Border, minBorder, 1.0)
	color := clamp(math.Max(0.25, confidence*0.5)*w.Color, minColor, 1.0)
	evolution := clamp(math.Max(0.10, confidence*0.8)*w.Evolution, minEvolution, 1.0)
	return Characteristics{
		Applicable: true,
		Scores: &CharacteristicScores{
			Asymmetry:          asym,
			BorderIrregularity: border,
			ColorVariation:     color,
			EvolutionRisk:      evolution,
		},
	}
}

// asymmetryMetric compares mean luminance between left/right and top/bottom
// halves; each axis difference is normalized to [0,1] and the two averaged.
func asymmetryMetric(img image.Image) float64 {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	left := meanLuma(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+width/2, b.Max.Y))
	right := meanLuma(img, image.Rect(b.Min.X+width/2, b.Min.Y, b.Max.X, b.Max.Y))
	top := meanLuma(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+height/2))
	bottom := meanLuma(img, image.Rect(b.Min.X, b.Min.Y+height/2, b.Max.X, b.Max.Y))

	horizontal := math.Abs(left-right) / 255.0
	vertical := math.Abs(top-bottom) / 255.0
	return (horizontal + vertical) / 2
}

// borderMetric runs a 3x3 Laplacian edge kernel over the interior and
// combines mean edge magnitude with its spread. Irregular boundaries
// produce both stronger and more uneven gradients.
func borderMetric(img image.Image) float64 {
	b := img.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return 0
	}

	var sum, sumSq float64
	var n int
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			center := luma(img, x, y)
			var around float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					around += luma(img, x+dx, y+dy)
				}
			}
			mag := clamp(8*center-around, 0, 255)
			sum += mag
			sumSq += mag * mag
			n++
		}
	}
	if n == 0 {
		return 0
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	stddev := math.Sqrt(variance)
	return (mean/255.0 + stddev/255.0) / 2
}

// colorMetric averages the per-channel coefficient of variation across RGB.
func colorMetric(img image.Image) float64 {
	b := img.Bounds()
	var sum, sumSq [3]float64
	var n int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			ch := [3]float64{float64(r >> 8), float64(g >> 8), float64(bl >> 8)}
			for i, v := range ch {
				sum[i] += v
				sumSq[i] += v * v
			}
			n++
		}
	}
	if n == 0 {
		return 0.25
	}

	var variations []float64
	for i := 0; i < 3; i++ {
		mean := sum[i] / float64(n)
		if mean <= 0 {
			continue
		}
		variance := sumSq[i]/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		variations = append(variations, math.Sqrt(variance)/mean)
	}
	if len(variations) == 0 {
		return 0.25
	}

	var total float64
	for _, v := range variations {
		total += v
	}
	return total / float64(len(variations)) / 2
}

func meanLuma(img image.Image, r image.Rectangle) float64 {
	var sum float64
	var n int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			sum += luma(img, x, y)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func luma(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
