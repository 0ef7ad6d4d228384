package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/kurt/pkg/log"
)

type BotConfig struct {
	APIURL      string `env:"BOT_API_URL" envDefault:"https://app.attendee.dev/api/v1"`
	Token       string `env:"BOT_API_TOKEN,required,notEmpty" secret:"true"`
	DefaultName string `env:"BOT_DEFAULT_NAME" envDefault:"Kurt"`
}

func NewBotConfig(ctx context.Context) *BotConfig {
	c := &BotConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse meeting bot config")
	}
	return c
}
