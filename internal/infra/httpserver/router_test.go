package httpserver

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/mediscan-ai/internal/application"
	appanalyze "github.com/bryanwahyu/mediscan-ai/internal/application/analyze"
	appenhance "github.com/bryanwahyu/mediscan-ai/internal/application/enhance"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
	domain "github.com/bryanwahyu/mediscan-ai/internal/domain/enhance"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/lesion"
	"github.com/bryanwahyu/mediscan-ai/internal/infra/classifier"
	"github.com/bryanwahyu/mediscan-ai/internal/infra/fallback"
)

// --- Test fixtures ---

// newTestRouter wires the real services with the mock classifier and no
// live enhancement adapters, so every request resolves locally.
func newTestRouter(opts Options) http.Handler {
	library := fallback.NewLibrary()
	analyzeSvc := &appanalyze.Service{
		Classifier: &classifier.Mock{},
		Library:    library,
		Clock:      application.SystemClock{},
	}
	enhanceSvc := &appenhance.Service{
		Library: library,
		Scorer:  lesion.NewScorer(0),
		Clock:   application.SystemClock{},
	}
	return NewRouter(analyzeSvc, enhanceSvc, opts)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postMultipart(t *testing.T, handler http.Handler, field, filename string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, payload)
	req := httptest.NewRequest(http.MethodPost, "/v1/skin/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// --- Analyze endpoint ---

func TestRouter_AnalyzeEndpoint(t *testing.T) {
	handler := newTestRouter(Options{})

	rec := postMultipart(t, handler, "file", "lesion.png", pngBytes(t, 64, 64))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doc analysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "lesion.png", doc.Filename)
	assert.Equal(t, "64x64", doc.ImageDimensions)
	assert.Contains(t, diagnosis.KnownLabels(), doc.TopPrediction)
	assert.Greater(t, doc.Confidence, 0.0)
	assert.LessOrEqual(t, doc.Confidence, 1.0)
	assert.GreaterOrEqual(t, len(doc.Predictions), 2)
	assert.NotEmpty(t, doc.Recommendations)
	assert.Len(t, doc.NextSteps, 4)
	assert.Equal(t, 7, doc.ModelInfo.Classes)
	assert.Empty(t, doc.ImageRef)

	// enhancement bundle rides along, fully populated from the library
	assert.NotEmpty(t, doc.Enhancement.NarrativeSummary)
	assert.NotEmpty(t, doc.Enhancement.NarrativeExplanation)
	assert.NotEmpty(t, doc.Enhancement.ConfidenceNote)
	assert.NotEmpty(t, doc.Enhancement.RiskNote)
	assert.Len(t, doc.Enhancement.Resources, 3)
	require.NotEmpty(t, doc.Enhancement.Keywords.Conditions)
	assert.Equal(t, doc.TopPrediction, doc.Enhancement.Keywords.Conditions[0])
	assert.False(t, doc.Enhancement.GeneratedAt.IsZero())

	// 64x64 upload always clears the mock's minimum confidence band
	require.True(t, doc.Enhancement.Characteristics.Applicable)
	require.NotNil(t, doc.Enhancement.Characteristics.Scores)
	s := doc.Enhancement.Characteristics.Scores
	for name, v := range map[string]float64{
		"asymmetry": s.Asymmetry,
		"border":    s.BorderIrregularity,
		"color":     s.ColorVariation,
		"evolution": s.EvolutionRisk,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
}

func TestRouter_AnalyzeIsDeterministicPerUpload(t *testing.T) {
	handler := newTestRouter(Options{})
	payload := pngBytes(t, 64, 64)

	first := postMultipart(t, handler, "file", "lesion.png", payload)
	second := postMultipart(t, handler, "file", "lesion.png", payload)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b analysisResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))

	assert.Equal(t, a.TopPrediction, b.TopPrediction)
	assert.Equal(t, a.Confidence, b.Confidence)
	assert.Equal(t, a.Predictions, b.Predictions)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRouter_AnalyzeRejectsUnsupportedFormat(t *testing.T) {
	handler := newTestRouter(Options{})

	rec := postMultipart(t, handler, "file", "report.pdf", pngBytes(t, 8, 8))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported image format")
}

func TestRouter_AnalyzeRejectsOversizedUpload(t *testing.T) {
	handler := newTestRouter(Options{})

	payload := make([]byte, 10*1024*1024+512*1024)
	rec := postMultipart(t, handler, "file", "big.jpg", payload)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "10MB")
}

func TestRouter_AnalyzeRejectsUndecodableImage(t *testing.T) {
	handler := newTestRouter(Options{})

	rec := postMultipart(t, handler, "file", "lesion.jpg", []byte("definitely not image bytes"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid image file")
}

func TestRouter_AnalyzeRequiresFileField(t *testing.T) {
	handler := newTestRouter(Options{})

	rec := postMultipart(t, handler, "attachment", "lesion.png", pngBytes(t, 8, 8))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no file provided")
}

// --- Enhance endpoint ---

func TestRouter_EnhanceEndpoint(t *testing.T) {
	handler := newTestRouter(Options{})

	body := `{"label": "Melanoma", "confidence": 0.85, "risk_level": "HIGH"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/skin/enhance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var bundle domain.Bundle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))

	assert.Contains(t, strings.ToLower(bundle.NarrativeSummary), "melanoma")
	assert.Len(t, bundle.Resources, 3)
	require.NotEmpty(t, bundle.Keywords.Conditions)
	assert.Equal(t, "Melanoma", bundle.Keywords.Conditions[0])
	assert.False(t, bundle.GeneratedAt.IsZero())

	// no image in the request, scorer falls back to confidence estimates
	require.True(t, bundle.Characteristics.Applicable)
	require.NotNil(t, bundle.Characteristics.Scores)
}

func TestRouter_EnhanceRequiresLabel(t *testing.T) {
	handler := newTestRouter(Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/skin/enhance", strings.NewReader(`{"confidence": 0.5}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "label is required")
}

func TestRouter_EnhanceRejectsMalformedJSON(t *testing.T) {
	handler := newTestRouter(Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/skin/enhance", strings.NewReader(`{"label":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_EnhanceDerivesRiskWhenMissing(t *testing.T) {
	handler := newTestRouter(Options{})

	body := `{"label": "Melanoma", "confidence": 0.9}`
	req := httptest.NewRequest(http.MethodPost, "/v1/skin/enhance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var bundle domain.Bundle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
	assert.Contains(t, bundle.NarrativeSummary, "high risk finding")
}

// --- Informational endpoints ---

func TestRouter_SupportedFormats(t *testing.T) {
	handler := newTestRouter(Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/skin/supported-formats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SupportedFormats []string `json:"supported_formats"`
		MaxFileSizeMB    int      `json:"max_file_size_mb"`
		ProcessingInfo   struct {
			SupportedConditions []string `json:"supported_conditions"`
		} `json:"processing_info"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Contains(t, resp.SupportedFormats, ".jpg")
	assert.Contains(t, resp.SupportedFormats, ".tiff")
	assert.Equal(t, 10, resp.MaxFileSizeMB)
	assert.Len(t, resp.ProcessingInfo.SupportedConditions, 7)
}

func TestRouter_HealthEndpoint(t *testing.T) {
	handler := newTestRouter(Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	handler := newTestRouter(Options{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var metrics map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Contains(t, metrics, "requests_total")
	assert.Contains(t, metrics, "analyses_total")
}

// --- Middleware wiring ---

func TestRouter_APIKeyAuth(t *testing.T) {
	handler := newTestRouter(Options{APIKeys: map[string]string{"clinic": "test-key-123"}})

	req := httptest.NewRequest(http.MethodGet, "/v1/skin/supported-formats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/skin/supported-formats", nil)
	req.Header.Set("Authorization", "Bearer test-key-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// health stays open
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	handler := newTestRouter(Options{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/skin/analyze", nil)
	req.Header.Set("Origin", "https://clinic.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
