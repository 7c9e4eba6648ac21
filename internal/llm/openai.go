package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGenerator calls any OpenAI-compatible chat completions API (OpenAI,
// vLLM, Ollama's /v1 endpoint). The whole prompt is sent as one user message.
type OpenAIGenerator struct {
	client    openai.Client
	maxTokens int
}

// NewOpenAIGenerator creates a generator. An empty apiKey falls back to
// OPENAI_API_KEY and an empty baseURL to OPENAI_BASE_URL or the OpenAI API.
func NewOpenAIGenerator(baseURL, apiKey string, maxTokens int, timeout time.Duration) *OpenAIGenerator {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	opts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAIGenerator{client: openai.NewClient(opts...), maxTokens: maxTokens}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if g.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.maxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels returns the model IDs served by the API.
func (g *OpenAIGenerator) ListModels(ctx context.Context) ([]string, error) {
	page, err := g.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	models := []string{}
	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	return models, nil
}
