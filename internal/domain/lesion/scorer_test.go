package lesion

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
)

func uniformImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func splitImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, color.RGBA{A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return img
}

func noisyImage(w, h int, seed int64) image.Image {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func TestNewScorer_DefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultConfidenceThreshold, NewScorer(0).Threshold)
	assert.Equal(t, 0.5, NewScorer(0.5).Threshold)
}

func TestScorer_Score_GatesOnLowConfidence(t *testing.T) {
	s := NewScorer(0.30)
	img := uniformImage(32, 32, color.Gray{Y: 128})

	got := s.Score(img, diagnosis.LabelMelanoma, 0.29)

	assert.False(t, got.Applicable)
	assert.Nil(t, got.Scores)
	assert.Contains(t, got.Rationale, "below")
	assert.Contains(t, got.Rationale, "confidence")
}

func TestScorer_Score_AtThresholdIsApplicable(t *testing.T) {
	s := NewScorer(0.30)
	img := uniformImage(32, 32, color.Gray{Y: 128})

	got := s.Score(img, diagnosis.LabelMelanoma, 0.30)

	assert.True(t, got.Applicable)
	require.NotNil(t, got.Scores)
	assert.Empty(t, got.Rationale)
}

func TestScorer_Score_ZeroValueScorerStillGates(t *testing.T) {
	var s Scorer

	got := s.Score(nil, diagnosis.LabelMelanoma, 0.10)

	assert.False(t, got.Applicable)
	assert.NotEmpty(t, got.Rationale)
}

func TestScorer_Score_UniformImageLandsOnFloors(t *testing.T) {
	s := NewScorer(0.30)
	img := uniformImage(64, 64, color.Gray{Y: 128})

	got := s.Score(img, diagnosis.LabelMelanoma, 0.9)

	require.True(t, got.Applicable)
	require.NotNil(t, got.Scores)
	assert.InDelta(t, 0.15, got.Scores.Asymmetry, 1e-9)
	assert.InDelta(t, 0.12, got.Scores.BorderIrregularity, 1e-9)
	assert.InDelta(t, 0.18, got.Scores.ColorVariation, 1e-9)
	// mean(0.15, 0.12, 0.18) * 1.4 * 0.9
	assert.InDelta(t, 0.189, got.Scores.EvolutionRisk, 1e-9)
}

func TestScorer_Score_EvolutionFloorForBenignFamilies(t *testing.T) {
	s := NewScorer(0.30)
	img := uniformImage(64, 64, color.Gray{Y: 128})

	got := s.Score(img, diagnosis.LabelMelanocyticNevus, 0.9)

	require.NotNil(t, got.Scores)
	// mean(0.15, 0.12, 0.18) * 0.7 * 0.9 = 0.0945, clamped up
	assert.InDelta(t, 0.10, got.Scores.EvolutionRisk, 1e-9)
}

func TestScorer_Score_AsymmetricImageScoresHigher(t *testing.T) {
	s := NewScorer(0.30)

	uniform := s.Score(uniformImage(64, 64, color.Gray{Y: 128}), diagnosis.LabelMelanoma, 0.9)
	split := s.Score(splitImage(64, 64), diagnosis.LabelMelanoma, 0.9)

	require.NotNil(t, uniform.Scores)
	require.NotNil(t, split.Scores)
	// raw 0.5 horizontal diff * (0.5+0.5*0.9) * 1.3
	assert.InDelta(t, 0.6175, split.Scores.Asymmetry, 1e-9)
	assert.Greater(t, split.Scores.Asymmetry, uniform.Scores.Asymmetry)
}

func TestScorer_Score_FamilyWeightsOrderEvolution(t *testing.T) {
	s := NewScorer(0.30)
	img := noisyImage(48, 48, 7)

	melanoma := s.Score(img, diagnosis.LabelMelanoma, 0.8)
	nevus := s.Score(img, diagnosis.LabelMelanocyticNevus, 0.8)

	require.NotNil(t, melanoma.Scores)
	require.NotNil(t, nevus.Scores)
	assert.Greater(t, melanoma.Scores.EvolutionRisk, nevus.Scores.EvolutionRisk)
	assert.GreaterOrEqual(t, melanoma.Scores.BorderIrregularity, nevus.Scores.BorderIrregularity)
}

func TestScorer_Score_ScoresStayInRange(t *testing.T) {
	s := NewScorer(0.30)
	images := []image.Image{
		uniformImage(16, 16, color.RGBA{A: 255}),
		uniformImage(16, 16, color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		splitImage(33, 17),
		noisyImage(40, 40, 42),
	}
	labels := append(diagnosis.KnownLabels(), "something unrecognized")

	for _, img := range images {
		for _, label := range labels {
			got := s.Score(img, label, 0.95)
			require.True(t, got.Applicable)
			require.NotNil(t, got.Scores)
			for name, v := range map[string]float64{
				"asymmetry": got.Scores.Asymmetry,
				"border":    got.Scores.BorderIrregularity,
				"color":     got.Scores.ColorVariation,
				"evolution": got.Scores.EvolutionRisk,
			} {
				assert.GreaterOrEqual(t, v, 0.0, name)
				assert.LessOrEqual(t, v, 1.0, name)
			}
		}
	}
}

func TestScorer_Score_NilImageUsesConfidenceDefaults(t *testing.T) {
	s := NewScorer(0.30)

	got := s.Score(nil, diagnosis.LabelMelanoma, 0.8)

	require.True(t, got.Applicable)
	require.NotNil(t, got.Scores)
	assert.InDelta(t, 0.8*0.7*1.3, got.Scores.Asymmetry, 1e-9)
	assert.InDelta(t, 0.8*0.6*1.4, got.Scores.BorderIrregularity, 1e-9)
	assert.InDelta(t, 0.8*0.5*1.2, got.Scores.ColorVariation, 1e-9)
	assert.InDelta(t, 0.8*0.8*1.4, got.Scores.EvolutionRisk, 1e-9)
}

func TestScorer_Score_TinyImageFallsBackToDefaults(t *testing.T) {
	s := NewScorer(0.30)
	one := uniformImage(1, 1, color.Gray{Y: 200})

	fromTiny := s.Score(one, diagnosis.LabelBenignKeratosis, 0.7)
	fromNil := s.Score(nil, diagnosis.LabelBenignKeratosis, 0.7)

	assert.Equal(t, fromNil, fromTiny)
}

func TestScorer_Score_DeterministicForSameInput(t *testing.T) {
	s := NewScorer(0.30)
	img := noisyImage(32, 32, 99)

	first := s.Score(img, diagnosis.LabelMelanoma, 0.75)
	second := s.Score(img, diagnosis.LabelMelanoma, 0.75)

	assert.Equal(t, first, second)
}
