package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/kurt/pkg/log"
)

type TrackerConfig struct {
	APIKey string `env:"LINEAR_API_KEY,required,notEmpty" secret:"true"`
	APIURL string `env:"LINEAR_API_URL" envDefault:"https://api.linear.app/graphql"`
	// TeamID pins issues to one team; empty means the workspace's first team.
	TeamID string `env:"LINEAR_TEAM_ID"`
}

func NewTrackerConfig(ctx context.Context) *TrackerConfig {
	c := &TrackerConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Linear config")
	}
	return c
}
