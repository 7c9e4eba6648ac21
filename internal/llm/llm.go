// Package llm talks to external text-generation services.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Generator produces a raw text completion for a prompt. Calls block until
// the service answers or ctx is done.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ModelLister is implemented by generators that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Message is one role-tagged entry of a prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ComposePrompt flattens a system instruction and messages into a single
// prompt: "[SYSTEM]\n<system>" followed by "[ROLE]\n<content>" per message,
// separated by blank lines. Messages without a role are tagged USER.
func ComposePrompt(system string, messages []Message) string {
	var parts []string
	if system != "" {
		parts = append(parts, "[SYSTEM]\n"+system)
	}
	for _, m := range messages {
		role := m.Role
		if role == "" {
			role = "user"
		}
		parts = append(parts, "["+strings.ToUpper(role)+"]\n"+m.Content)
	}
	return strings.Join(parts, "\n\n")
}

// Providers.
const (
	ProviderNone   = "none"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Options configures New.
type Options struct {
	Provider  string
	BaseURL   string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
	Logger    *zap.Logger
}

// New creates a generator for o.Provider. The "none" provider (or an empty
// one) returns a nil generator and no error.
func New(o Options) (Generator, error) {
	switch o.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderOllama:
		return NewOllamaGenerator(o.BaseURL, o.MaxTokens, o.Timeout, o.Logger), nil
	case ProviderOpenAI:
		return NewOpenAIGenerator(o.BaseURL, o.APIKey, o.MaxTokens, o.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (valid: ollama, openai, none)", o.Provider)
	}
}
