package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/bryanwahyu/mediscan-ai/internal/domain/enhance"
)

// DefaultBaseURL is the Tavily search API endpoint.
const DefaultBaseURL = "https://api.tavily.com"

// DefaultMaxResults caps how many articles one search returns.
const DefaultMaxResults = 5

const (
	searchDepth    = "basic"
	snippetLen     = 200
	defaultScore   = 0.8
	defaultSource  = "Medical Source"
	queryTemplate  = "%s dermatology treatment diagnosis"
	defaultSnippet = "Medical information about %s"
)

// DefaultTrustedDomains is the built-in allow-list for reference articles.
var DefaultTrustedDomains = []string{
	"mayoclinic.org",
	"aad.org",
	"dermnetnz.org",
	"skincancer.org",
}

// Client fetches reference articles for a condition from the Tavily
// search API. The API is asked to restrict itself to TrustedDomains, and
// results are filtered again locally since the upstream restriction is
// advisory.
type Client struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	MaxResults     int
	TrustedDomains []string
}

var _ enhance.ResourceSearcher = (*Client)(nil)

func NewClient(apiKey, baseURL string, maxResults int, trustedDomains []string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if len(trustedDomains) == 0 {
		trustedDomains = DefaultTrustedDomains
	}
	return &Client{
		HTTPClient:     &http.Client{},
		BaseURL:        strings.TrimRight(baseURL, "/"),
		APIKey:         apiKey,
		MaxResults:     maxResults,
		TrustedDomains: trustedDomains,
	}
}

type searchRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeImages  bool     `json:"include_images"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains"`
}

type searchResult struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Source  string   `json:"source"`
	Content string   `json:"content"`
	Score   *float64 `json:"score"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Search queries for condition articles and maps them into resource
// articles sorted by relevance, best first.
func (c *Client) Search(ctx context.Context, label string) ([]enhance.ResourceArticle, error) {
	payload, err := json.Marshal(searchRequest{
		Query:          fmt.Sprintf(queryTemplate, label),
		SearchDepth:    searchDepth,
		IncludeImages:  false,
		MaxResults:     c.MaxResults,
		IncludeDomains: c.TrustedDomains,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: article search: %v", enhance.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: article search: %v", enhance.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: article search returned status %d", enhance.ErrNetwork, resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", enhance.ErrMalformedResponse, err)
	}

	articles := make([]enhance.ResourceArticle, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if !c.isTrusted(r.URL) {
			continue
		}
		articles = append(articles, mapArticle(r, label))
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("%w: no articles from trusted sources for %q", enhance.ErrEmptyResult, label)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].RelevanceScore > articles[j].RelevanceScore
	})
	if len(articles) > c.MaxResults {
		articles = articles[:c.MaxResults]
	}
	return articles, nil
}

func mapArticle(r searchResult, label string) enhance.ResourceArticle {
	title := r.Title
	if title == "" {
		title = fmt.Sprintf("Medical Information: %s", label)
	}
	source := r.Source
	if source == "" {
		source = defaultSource
	}
	snippet := fmt.Sprintf(defaultSnippet, label)
	if r.Content != "" {
		snippet = truncate(r.Content, snippetLen)
	}
	score := defaultScore
	if r.Score != nil {
		score = *r.Score
	}
	return enhance.ResourceArticle{
		Title:          title,
		URL:            r.URL,
		Source:         source,
		Snippet:        snippet,
		RelevanceScore: score,
	}
}

func (c *Client) isTrusted(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range c.TrustedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
