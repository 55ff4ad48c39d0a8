// Package llm provides a provider-agnostic chat completion client.
// The concrete provider (Anthropic, OpenAI, or a local Ollama server) is
// selected once from configuration at process start; callers only see the
// Client interface.
package llm

import (
	"context"

	"github.com/rotisserie/eris"
)

// Message is a single conversational message.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request is a provider-independent completion request.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
}

// Client performs one chat completion per call. Implementations do not
// retry; a failed call surfaces as a single error.
type Client interface {
	// Complete sends the request and returns the raw text of the reply.
	Complete(ctx context.Context, req Request) (string, error)
	// Name returns the provider identifier.
	Name() string
}

// defaultTemperature keeps structured-output replies near-deterministic.
const defaultTemperature = 0.1

// Config selects and configures a provider.
type Config struct {
	Provider string // "anthropic", "openai", "ollama"

	AnthropicKey   string
	AnthropicModel string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	OllamaBaseURL string
	OllamaModel   string

	MaxTokens int
	// RatePerSec, when > 0, wraps the client in a rate limiter.
	RatePerSec float64
}

// New resolves the configured provider. Called once at startup; an unknown
// provider name is a configuration error.
func New(cfg Config) (Client, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	var client Client
	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, eris.New("llm: anthropic api key is required")
		}
		client = NewAnthropic(cfg.AnthropicKey, cfg.AnthropicModel, maxTokens)
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, eris.New("llm: openai api key is required")
		}
		opts := []OpenAIOption{}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, WithOpenAIBaseURL(cfg.OpenAIBaseURL))
		}
		if cfg.OpenAIModel != "" {
			opts = append(opts, WithOpenAIModel(cfg.OpenAIModel))
		}
		client = NewOpenAI(cfg.OpenAIKey, maxTokens, opts...)
	case "ollama":
		opts := []OllamaOption{}
		if cfg.OllamaBaseURL != "" {
			opts = append(opts, WithOllamaBaseURL(cfg.OllamaBaseURL))
		}
		if cfg.OllamaModel != "" {
			opts = append(opts, WithOllamaModel(cfg.OllamaModel))
		}
		client = NewOllama(opts...)
	default:
		return nil, eris.Errorf("llm: unsupported provider: %s", cfg.Provider)
	}

	if cfg.RatePerSec > 0 {
		client = NewRateLimited(client, cfg.RatePerSec)
	}
	return client, nil
}
