package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is the provider-neutral surface the story generator depends on.
type Client interface {
	// GenerateContent returns free text for the prompt.
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON returns a JSON document with any markdown fences removed.
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel reports the model a tier resolves to.
	GetModel(tier ModelTier) string
	Close() error
}

// ErrEmptyResponse means the provider answered without any text.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// ErrMissingAPIKey is returned when a provider is constructed without credentials.
var ErrMissingAPIKey = errors.New("llm API key is required")

// NewClient builds the client for config.Provider.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig(ProviderGemini)
	}
	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey)
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.Provider)
	}
}
