package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	appanalyze "github.com/bryanwahyu/mediscan-ai/internal/application/analyze"
	appenhance "github.com/bryanwahyu/mediscan-ai/internal/application/enhance"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
	domain "github.com/bryanwahyu/mediscan-ai/internal/domain/enhance"
	"github.com/bryanwahyu/mediscan-ai/internal/middleware"
)

// multipart boundary and part headers on top of the image payload
const multipartOverheadBytes = 1 << 20

var errBadRequest = errors.New("invalid request")

// Options carries the HTTP-surface knobs wired by the router.
type Options struct {
	APIKeys      map[string]string // empty = auth disabled
	RateCapacity int
	RateRefill   int
	CORSOrigins  []string
	Timeouts     appenhance.Timeouts
	Checkers     map[string]middleware.HealthChecker
}

type Router struct {
	analyzeSvc *appanalyze.Service
	enhanceSvc *appenhance.Service
	timeouts   appenhance.Timeouts
}

func NewRouter(analyzeSvc *appanalyze.Service, enhanceSvc *appenhance.Service, opts Options) http.Handler {
	r := &Router{analyzeSvc: analyzeSvc, enhanceSvc: enhanceSvc, timeouts: opts.Timeouts}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}
	if opts.RateCapacity > 0 && opts.RateRefill > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateCapacity, opts.RateRefill))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/skin", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/enhance", r.wrap(r.handleEnhance))
		rt.Get("/supported-formats", r.wrap(r.handleSupportedFormats))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (rt *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, diagnosis.ErrUnsupportedFormat),
				errors.Is(err, diagnosis.ErrInvalidImage),
				errors.Is(err, errBadRequest):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, diagnosis.ErrFileTooLarge):
				http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// analysisResponse is the merged analysis + enhancement document.
type analysisResponse struct {
	appanalyze.AnalyzeResult
	Enhancement domain.Bundle `json:"enhancement"`
}

// POST /v1/skin/analyze
// Multipart body with the image under field "file".
func (rt *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	maxBody := int64(middleware.MaxUploadBytes + multipartOverheadBytes)
	if req.ContentLength > maxBody {
		middleware.IncrementAnalysesFailed()
		return fmt.Errorf("%w: request body is %.1fMB (maximum size is %dMB)",
			diagnosis.ErrFileTooLarge, float64(req.ContentLength)/(1024*1024), middleware.MaxUploadBytes/(1024*1024))
	}
	req.Body = http.MaxBytesReader(w, req.Body, maxBody)

	file, header, err := req.FormFile("file")
	if err != nil {
		middleware.IncrementAnalysesFailed()
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body exceeds the %dMB limit",
				diagnosis.ErrFileTooLarge, middleware.MaxUploadBytes/(1024*1024))
		}
		return fmt.Errorf("%w: no file provided", diagnosis.ErrInvalidImage)
	}
	defer file.Close()

	filename := middleware.SanitizeFilename(header.Filename)
	if verr := middleware.ValidateImageFilename(filename); verr != nil {
		middleware.IncrementAnalysesFailed()
		return fmt.Errorf("%w: %s", diagnosis.ErrUnsupportedFormat, verr)
	}
	if verr := middleware.ValidateUploadSize(header.Size); verr != nil {
		middleware.IncrementAnalysesFailed()
		if header.Size > middleware.MaxUploadBytes {
			return fmt.Errorf("%w: %s", diagnosis.ErrFileTooLarge, verr)
		}
		return fmt.Errorf("%w: %s", diagnosis.ErrInvalidImage, verr)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return fmt.Errorf("read upload: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return fmt.Errorf("%w: %s", diagnosis.ErrInvalidImage, err)
	}

	result, err := rt.analyzeSvc.Analyze(req.Context(), appanalyze.AnalyzeCommand{
		Filename: filename,
		Data:     data,
		Image:    img,
	})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}

	middleware.IncrementEnhancements()
	bundle := rt.enhanceSvc.Enhance(req.Context(), appenhance.EnhanceCommand{
		Result:   result.Result(),
		Image:    img,
		Timeouts: rt.timeouts,
	})

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(analysisResponse{
		AnalyzeResult: result,
		Enhancement:   bundle,
	})
}

// POST /v1/skin/enhance
// Body: {"label": "...", "confidence": 0.82, "risk_level": "HIGH", "image_ref": "..."}
// Re-runs enhancement for an existing result; no image, so characteristic
// scores fall back to confidence-derived estimates.
func (rt *Router) handleEnhance(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		RiskLevel  string  `json:"risk_level"`
		ImageRef   string  `json:"image_ref"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, err)
	}
	if strings.TrimSpace(body.Label) == "" {
		return fmt.Errorf("%w: label is required", errBadRequest)
	}

	conf := body.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	risk := diagnosis.ParseRiskLevel(body.RiskLevel)
	if strings.TrimSpace(body.RiskLevel) == "" {
		risk = diagnosis.DeriveRiskLevel(diagnosis.FamilyOf(body.Label), conf)
	}

	middleware.IncrementEnhancements()
	bundle := rt.enhanceSvc.Enhance(req.Context(), appenhance.EnhanceCommand{
		Result: diagnosis.AnalysisResult{
			Label:      body.Label,
			Confidence: conf,
			RiskLevel:  risk,
			ImageRef:   body.ImageRef,
		},
		Timeouts: rt.timeouts,
	})

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(bundle)
}

// GET /v1/skin/supported-formats
func (rt *Router) handleSupportedFormats(w http.ResponseWriter, req *http.Request) error {
	info := rt.analyzeSvc.Classifier.Info()

	resp := map[string]any{
		"supported_formats":  middleware.AllowedImageExtensions(),
		"max_file_size_mb":   middleware.MaxUploadBytes / (1024 * 1024),
		"optimal_resolution": "224x224 to 1024x1024",
		"requirements": []string{
			"Clear, well-lit image of the skin lesion",
			"Lesion should be centered in the image",
			"Avoid shadows and reflections",
			"Include a ruler or coin for size reference if possible",
		},
		"processing_info": map[string]any{
			"typical_processing_time": "1-3 seconds",
			"model_type":              info.Type,
			"supported_conditions":    diagnosis.KnownLabels(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(resp)
}
