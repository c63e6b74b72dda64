package keywordai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/bryanwahyu/mediscan-ai/internal/domain/enhance"
)

// DefaultBaseURL is the Keyword AI extraction endpoint.
const DefaultBaseURL = "https://api.keywordai.co"

const (
	extractionDomain = "medical"
	maxKeywords      = 20
	maxPerCategory   = 6
)

// Client extracts categorized medical terms from analysis text through
// the Keyword AI API.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
}

var _ enhance.KeywordExtractor = (*Client)(nil)

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		HTTPClient: &http.Client{},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
	}
}

type extractRequest struct {
	Text        string `json:"text"`
	Domain      string `json:"domain"`
	MaxKeywords int    `json:"max_keywords"`
}

// Extract sends the analysis text and maps the categorized response into
// the five fixed keyword categories. Terms under unrecognized categories
// are folded into general.
func (c *Client) Extract(ctx context.Context, text string) (enhance.CategorizedKeywords, error) {
	var zero enhance.CategorizedKeywords

	payload, err := json.Marshal(extractRequest{
		Text:        text,
		Domain:      extractionDomain,
		MaxKeywords: maxKeywords,
	})
	if err != nil {
		return zero, fmt.Errorf("marshal extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/extract", bytes.NewReader(payload))
	if err != nil {
		return zero, fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return zero, fmt.Errorf("%w: keyword extraction: %v", enhance.ErrTimeout, err)
		}
		return zero, fmt.Errorf("%w: keyword extraction: %v", enhance.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("%w: keyword extraction returned status %d", enhance.ErrNetwork, resp.StatusCode)
	}

	var categories map[string][]string
	if err := json.NewDecoder(resp.Body).Decode(&categories); err != nil {
		return zero, fmt.Errorf("%w: decode extraction response: %v", enhance.ErrMalformedResponse, err)
	}

	kw := enhance.CategorizedKeywords{
		Conditions: dedupeTerms(categories["conditions"]),
		Symptoms:   dedupeTerms(categories["symptoms"]),
		Treatments: dedupeTerms(categories["treatments"]),
		Procedures: dedupeTerms(categories["procedures"]),
		General:    dedupeTerms(append(categories["general"], unknownCategoryTerms(categories)...)),
	}

	if len(kw.Conditions)+len(kw.Symptoms)+len(kw.Treatments)+len(kw.Procedures)+len(kw.General) == 0 {
		return zero, fmt.Errorf("%w: extraction returned no terms", enhance.ErrEmptyResult)
	}
	return kw, nil
}

// unknownCategoryTerms gathers terms filed under categories outside the
// fixed five, in sorted category order so folding stays deterministic.
func unknownCategoryTerms(categories map[string][]string) []string {
	known := map[string]bool{
		"conditions": true,
		"symptoms":   true,
		"treatments": true,
		"procedures": true,
		"general":    true,
	}
	var extra []string
	for name := range categories {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	var terms []string
	for _, name := range extra {
		terms = append(terms, categories[name]...)
	}
	return terms
}

// dedupeTerms drops blanks and repeats, keeping first-seen order, capped.
func dedupeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
		if len(out) == maxPerCategory {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
