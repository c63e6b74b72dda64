package analyze

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/mediscan-ai/internal/application"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/enhance"
)

// Service implements the analysis use-case: classify an uploaded lesion
// image, optionally archive the original upload, and attach risk-keyed
// guidance.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Classifier diagnosis.Classifier
	Archive    diagnosis.ImageArchive // nil berarti arsip dimatikan
	Library    enhance.ContentLibrary
	Clock      application.Clock
}

//
// ==== USE CASES ====
//

// AnalyzeCommand carries one validated upload.
type AnalyzeCommand struct {
	Filename string
	Data     []byte
	Image    image.Image
}

type AnalyzeResult struct {
	ID              string              `json:"analysis_id"`
	Filename        string              `json:"filename"`
	FileSizeMB      float64             `json:"file_size_mb"`
	ImageDimensions string              `json:"image_dimensions,omitempty"`
	Predictions     map[string]float64  `json:"predictions"`
	TopPrediction   string              `json:"top_prediction"`
	Confidence      float64             `json:"confidence"`
	RiskLevel       diagnosis.RiskLevel `json:"risk_level"`
	Recommendations []string            `json:"recommendations"`
	NextSteps       []string            `json:"next_steps"`
	DurationMS      int64               `json:"duration_ms"`
	Timestamp       time.Time           `json:"timestamp"`
	ModelInfo       diagnosis.ModelInfo `json:"model_info"`
	ImageRef        string              `json:"image_ref,omitempty"`
}

// Analyze classifies one upload and assembles the analysis record.
// An archive failure is logged and skipped; it never fails the analysis.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (AnalyzeResult, error) {
	started := s.Clock.Now()
	id := uuid.New().String()

	classification, err := s.Classifier.Classify(ctx, cmd.Image, cmd.Filename)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("classify %s: %w", cmd.Filename, err)
	}

	imageRef := ""
	if s.Archive != nil && len(cmd.Data) > 0 {
		key := archiveKey(id, cmd.Filename)
		ref, aerr := s.Archive.Store(ctx, cmd.Data, key)
		if aerr != nil {
			log.Printf("analyze: archive upload failed for %s: %v", key, aerr)
		} else {
			imageRef = ref
		}
	}

	dims := ""
	if cmd.Image != nil {
		b := cmd.Image.Bounds()
		dims = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
	}

	return AnalyzeResult{
		ID:              id,
		Filename:        cmd.Filename,
		FileSizeMB:      roundMB(len(cmd.Data)),
		ImageDimensions: dims,
		Predictions:     classification.Predictions,
		TopPrediction:   classification.TopLabel,
		Confidence:      classification.Confidence,
		RiskLevel:       classification.RiskLevel,
		Recommendations: s.Library.RecommendationsFor(classification.RiskLevel),
		NextSteps:       s.Library.NextStepsFor(classification.RiskLevel),
		DurationMS:      s.Clock.Now().Sub(started).Milliseconds(),
		Timestamp:       s.Clock.Now().UTC(),
		ModelInfo:       s.Classifier.Info(),
		ImageRef:        imageRef,
	}, nil
}

// Result projects the analysis into the enhancement input.
func (r AnalyzeResult) Result() diagnosis.AnalysisResult {
	return diagnosis.AnalysisResult{
		Label:      r.TopPrediction,
		Confidence: r.Confidence,
		RiskLevel:  r.RiskLevel,
		ImageRef:   r.ImageRef,
	}
}

func archiveKey(id, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("uploads/skin_%s%s", id, ext)
}

func roundMB(size int) float64 {
	return math.Round(float64(size)/(1024*1024)*100) / 100
}
