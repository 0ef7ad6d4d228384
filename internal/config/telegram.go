package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/kurt/pkg/log"
)

// TelegramConfig enables ticket notifications when both fields are set.
type TelegramConfig struct {
	Token  string `env:"TELEGRAM_TOKEN" secret:"true"`
	ChatID int64  `env:"TELEGRAM_CHAT_ID"`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}

func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}
