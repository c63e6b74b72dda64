package groq

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/enhance"
	"github.com/bryanwahyu/mediscan-ai/internal/infra/ai/prompt"
)

const (
	// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the completion model used for narratives.
	DefaultModel = "llama3-8b-8192"

	maxTokens   = 500
	temperature = 0.3
)

// Client generates diagnostic narratives through the Groq chat API.
// Groq speaks the OpenAI wire protocol, so the client only swaps the
// base URL.
type Client struct {
	*openai.Client
	Model string
}

var _ enhance.NarrativeGenerator = (*Client)(nil)

func NewClient(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

// Generate requests one completion covering summary and explanation.
func (c *Client) Generate(ctx context.Context, label string, confidence float64, risk diagnosis.RiskLevel) (enhance.Narrative, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(label, confidence, string(risk))},
		},
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return enhance.Narrative{}, fmt.Errorf("%w: narrative completion: %v", enhance.ErrTimeout, err)
		}
		return enhance.Narrative{}, fmt.Errorf("%w: narrative completion: %v", enhance.ErrNetwork, err)
	}
	if len(resp.Choices) == 0 {
		return enhance.Narrative{}, fmt.Errorf("%w: completion returned no choices", enhance.ErrEmptyResult)
	}

	summary, explanation := prompt.ParseNarrative(resp.Choices[0].Message.Content)
	if strings.TrimSpace(summary) == "" {
		return enhance.Narrative{}, fmt.Errorf("%w: completion had no usable text", enhance.ErrEmptyResult)
	}

	return enhance.Narrative{Summary: summary, Explanation: explanation}, nil
}
