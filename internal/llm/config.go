// Package llm wraps the LLM providers used to draft STAR stories.
package llm

import (
	"fmt"
	"maps"
	"strings"
)

// ModelTier is the capability level requested for a call.
type ModelTier string

const (
	// TierLite is for short classification-style prompts.
	TierLite ModelTier = "lite"
	// TierStandard drafts stories.
	TierStandard ModelTier = "standard"
	// TierAdvanced is reserved for rewrites that need more reasoning.
	TierAdvanced ModelTier = "advanced"
)

// Provider names an LLM vendor.
type Provider string

// Supported providers
const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// ParseProvider maps a config string onto a Provider. Empty means Gemini.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProviderGemini:
		return ProviderGemini, nil
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	default:
		return "", fmt.Errorf("unsupported llm provider %q", s)
	}
}

// Config selects a provider and the model used for each tier.
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	BaseURL     string
	Temperature float32
}

// DefaultConfig returns the stock model table for a provider.
func DefaultConfig(p Provider) *Config {
	switch p {
	case ProviderOpenAI:
		return &Config{
			Provider: ProviderOpenAI,
			Models: map[ModelTier]string{
				TierLite:     "gpt-4o-mini",
				TierStandard: "gpt-4o",
				TierAdvanced: "gpt-4.1",
			},
			Temperature: 0.4,
		}
	default:
		return &Config{
			Provider: ProviderGemini,
			Models: map[ModelTier]string{
				TierLite:     "gemini-2.5-flash-lite",
				TierStandard: "gemini-2.5-flash",
				TierAdvanced: "gemini-2.5-pro",
			},
			Temperature: 0.4,
		}
	}
}

// GetModel returns the model for a tier, falling back to standard then lite.
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if m := c.Models[t]; m != "" {
			return m
		}
	}
	return ""
}

// WithModel returns a copy of the config with one tier overridden.
// An empty model leaves the config unchanged.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = maps.Clone(c.Models)
	if out.Models == nil {
		out.Models = make(map[ModelTier]string)
	}
	if model != "" {
		out.Models[tier] = model
	}
	return &out
}
