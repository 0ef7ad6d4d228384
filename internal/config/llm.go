package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/kurt/pkg/log"
)

type LLMConfig struct {
	Provider string `env:"LLM_PROVIDER" envDefault:"openai"`
	Model    string `env:"LLM_MODEL" envDefault:"gpt-3.5-turbo"`
	APIKey   string `env:"LLM_API_KEY" secret:"true"`
	// BaseURL is required for ollama and custom providers.
	BaseURL string `env:"LLM_BASE_URL"`

	// RateLimit caps oracle calls per second across all sessions; 0 disables it.
	RateLimit float64 `env:"ORACLE_RATE_LIMIT" envDefault:"0"`
	// ContextTokens bounds the window context sent with each prompt; 0 disables it.
	ContextTokens int `env:"ORACLE_CONTEXT_TOKENS" envDefault:"3000"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}
