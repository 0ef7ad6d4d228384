package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/kurt/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"KURT_RUNTIME_PATH" envDefault:".kurt"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	// Polling
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	CallTimeout  time.Duration `env:"CALL_TIMEOUT" envDefault:"30s"`

	// Similarity cache
	CacheTTL            time.Duration `env:"CACHE_TTL" envDefault:"24h"`
	SimilarityThreshold float64       `env:"SIMILARITY_THRESHOLD" envDefault:"0.2"`

	// Assistant replies when the bot is addressed by name
	AssistantEnabled bool   `env:"ASSISTANT_ENABLED" envDefault:"false"`
	AssistantName    string `env:"ASSISTANT_NAME" envDefault:"Kurt"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}
