package classifier

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
)

// Mock produces deterministic pseudo-classifications from coarse image
// statistics. It stands in for the real model runtime so the rest of the
// pipeline can run without model weights; the same image and filename
// always yield the same prediction.
type Mock struct{}

var _ diagnosis.Classifier = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Info() diagnosis.ModelInfo {
	return diagnosis.ModelInfo{
		Type:    "ISIC ResNet-50",
		Version: "2.0",
		Classes: len(diagnosis.KnownLabels()),
		Mode:    "mock",
	}
}

// Classify derives a class distribution from image fingerprint and coarse
// color statistics. Reddish lesions lean vascular, dark lesions lean
// melanocytic, and so on; confidence bands differ per branch.
func (m *Mock) Classify(ctx context.Context, img image.Image, filename string) (diagnosis.Classification, error) {
	stats := imageStats(img)
	rng := rand.New(rand.NewSource(seedFor(filename, img, stats)))

	labels := diagnosis.KnownLabels()
	primary, confidence := pickPrimary(rng, img, stats, labels)

	predictions := distribute(rng, labels, primary, confidence)

	top, topProb := primary, predictions[primary]
	for _, l := range labels {
		if predictions[l] > topProb {
			top, topProb = l, predictions[l]
		}
	}

	return diagnosis.Classification{
		Predictions: predictions,
		TopLabel:    top,
		Confidence:  topProb,
		RiskLevel:   diagnosis.DeriveRiskLevel(diagnosis.FamilyOf(top), topProb),
	}, nil
}

type channelStats struct {
	red, green, blue float64
	brightness       float64
}

func (s channelStats) redDominance() float64 {
	return s.red / (s.red + s.green + s.blue + 1e-6)
}

func (s channelStats) blueDominance() float64 {
	return s.blue / (s.red + s.green + s.blue + 1e-6)
}

func imageStats(img image.Image) channelStats {
	if img == nil || img.Bounds().Empty() {
		return channelStats{red: 128, green: 128, blue: 128, brightness: 128}
	}
	b := img.Bounds()
	var sum [3]float64
	var n int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			sum[0] += float64(r >> 8)
			sum[1] += float64(g >> 8)
			sum[2] += float64(bl >> 8)
			n++
		}
	}
	s := channelStats{
		red:   sum[0] / float64(n),
		green: sum[1] / float64(n),
		blue:  sum[2] / float64(n),
	}
	s.brightness = (s.red + s.green + s.blue) / 3
	return s
}

func seedFor(filename string, img image.Image, stats channelStats) int64 {
	fingerprint := filename
	if img != nil {
		b := img.Bounds()
		fingerprint = fmt.Sprintf("%s_%d_%d_%.1f", filename, b.Dx(), b.Dy(), stats.brightness)
	}
	digest := md5.Sum([]byte(fingerprint))
	return int64(binary.BigEndian.Uint32(digest[:4]))
}

func pickPrimary(rng *rand.Rand, img image.Image, stats channelStats, labels []string) (string, float64) {
	if img == nil || img.Bounds().Empty() {
		return choose(rng, labels), uniform(rng, 0.40, 0.75)
	}

	b := img.Bounds()
	aspect := float64(b.Dx()) / float64(b.Dy())
	pixels := b.Dx() * b.Dy()

	switch {
	case stats.redDominance() > 0.4:
		return choose(rng, []string{diagnosis.LabelVascularLesion, diagnosis.LabelBasalCell}), uniform(rng, 0.55, 0.80)
	case stats.blueDominance() > 0.4:
		return choose(rng, []string{diagnosis.LabelMelanoma, diagnosis.LabelDermatofibroma}), uniform(rng, 0.45, 0.75)
	case stats.brightness < 100:
		return choose(rng, []string{diagnosis.LabelMelanoma, diagnosis.LabelMelanocyticNevus}), uniform(rng, 0.50, 0.85)
	case stats.brightness > 180:
		return choose(rng, []string{diagnosis.LabelBenignKeratosis, diagnosis.LabelActinicKeratosis}), uniform(rng, 0.60, 0.90)
	case aspect > 1.5 || aspect < 0.67:
		return choose(rng, []string{diagnosis.LabelMelanoma, diagnosis.LabelDermatofibroma}), uniform(rng, 0.40, 0.70)
	case pixels > 500000:
		return choose(rng, []string{diagnosis.LabelBenignKeratosis, diagnosis.LabelMelanocyticNevus}), uniform(rng, 0.65, 0.90)
	case pixels < 50000:
		return choose(rng, labels), uniform(rng, 0.35, 0.65)
	default:
		return choose(rng, []string{diagnosis.LabelBenignKeratosis, diagnosis.LabelMelanocyticNevus, diagnosis.LabelActinicKeratosis}), uniform(rng, 0.50, 0.85)
	}
}

// distribute spreads the remaining probability mass over the secondary
// classes, normalizes, and rounds to three decimals. The last class absorbs
// the leftover mass, capped below the primary so the primary stays on top.
func distribute(rng *rand.Rand, labels []string, primary string, confidence float64) map[string]float64 {
	predictions := map[string]float64{primary: confidence}
	remaining := 1.0 - confidence

	others := make([]string, 0, len(labels)-1)
	for _, l := range labels {
		if l != primary {
			others = append(others, l)
		}
	}
	rng.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})

	for i, label := range others {
		var prob float64
		switch {
		case i == 0:
			prob = uniform(rng, 0.05, math.Min(0.25, remaining-0.05))
		case i == 1:
			prob = uniform(rng, 0.02, math.Min(0.15, remaining-0.02))
		case i == len(others)-1:
			prob = math.Min(remaining, confidence*0.9)
		default:
			prob = uniform(rng, 0.001, math.Min(0.08, remaining-0.001))
		}
		prob = math.Max(0.001, prob)

		predictions[label] = prob
		remaining -= prob
		if remaining <= 0.001 {
			break
		}
	}

	var total float64
	for _, p := range predictions {
		total += p
	}
	for label, p := range predictions {
		predictions[label] = math.Round(p/total*1000) / 1000
	}
	return predictions
}

func choose(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

// uniform tolerates hi < lo the way the band arithmetic can produce it;
// the sample then falls between the swapped bounds.
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
