package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/kurt/internal/config"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/log"
)

// NewProvider creates the appropriate AIProvider based on configuration.
func NewProvider(ctx context.Context, cfg *config.LLMConfig) (core.AIProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL != "" {
			return NewOpenAICompatible(OpenAICompatibleConfig{
				BaseURL:    cfg.BaseURL,
				APIKey:     cfg.APIKey,
				Model:      cfg.Model,
				AuthHeader: "Authorization",
				AuthPrefix: "Bearer ",
			}), nil
		}
		return NewOpenAI(cfg.APIKey, cfg.Model), nil
	case "anthropic":
		return NewAnthropic(cfg.APIKey, cfg.Model), nil
	case "openrouter":
		return NewOpenRouter(cfg.APIKey, cfg.Model), nil
	case "ollama":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("ollama provider requires LLM_BASE_URL")
		}
		return NewOllama(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case "custom":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("custom provider requires LLM_BASE_URL")
		}
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
