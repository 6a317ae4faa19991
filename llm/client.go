// Package llm adapts chat-completion providers to contract.ModelClient.
package llm

import (
	"context"
	"debate-lab/contract"
	"debate-lab/errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
	ProviderOffline   Provider = "offline"
)

const defaultMaxTokens = 1024

type Config struct {
	Provider  Provider
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// Temperature nil = model default, explicit 0 = deterministic
	Temperature *float64
	// Latency only applies to the offline provider.
	Latency time.Duration
}

func (c Config) maxTokens() int64 {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return int64(c.MaxTokens)
}

// New builds the client of the configured provider.
func New(ctx context.Context, log *slog.Logger, cfg Config) (contract.ModelClient, error) {
	if cfg.Provider != ProviderOffline && cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: provider %s", errors.ErrMissingAPIKey, cfg.Provider)
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(log, cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(log, cfg), nil
	case ProviderGemini:
		return NewGemini(ctx, log, cfg)
	case ProviderOffline:
		return NewOffline(cfg.Latency), nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedProvider, cfg.Provider)
	}
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeName makes an identity usable as an OpenAI message name.
func SanitizeName(name string) string {
	sanitized := invalidNameChars.ReplaceAllString(name, "_")
	if len(sanitized) > 64 {
		sanitized = sanitized[:64]
	}
	return sanitized
}
