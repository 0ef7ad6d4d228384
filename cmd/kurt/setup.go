package main

import (
	"context"
	"fmt"

	"github.com/sandevgo/kurt/internal/config"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/internal/providers/llm"
	"github.com/sandevgo/kurt/internal/providers/meetbot"
	"github.com/sandevgo/kurt/internal/providers/tracker"
	"github.com/sandevgo/kurt/internal/service/oracle"
	"github.com/sandevgo/kurt/internal/service/poller"
	"github.com/sandevgo/kurt/internal/service/similarity"
	"github.com/sandevgo/kurt/internal/service/ticket"
	"github.com/sandevgo/kurt/internal/transport/api"
	"github.com/sandevgo/kurt/internal/transport/telegram"
	"github.com/sandevgo/kurt/pkg/log"
	"github.com/sandevgo/kurt/pkg/srv"
	"github.com/sandevgo/kurt/pkg/tokens"
)

// pipeline is everything both the HTTP server and the MCP server share.
type pipeline struct {
	processor *ticket.Processor
	oracle    *oracle.Oracle
	tracker   *tracker.Linear
	cleanups  []srv.Service
}

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	botCfg := config.NewBotConfig(ctx)

	// 2. Ticket pipeline
	p, err := newPipeline(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize ticket pipeline")
	}

	// 3. Meeting bot and sessions
	bot := meetbot.NewClient(botCfg)

	pollerOpts := []poller.Option{
		poller.WithInterval(appCfg.PollInterval),
		poller.WithCallTimeout(appCfg.CallTimeout),
	}
	if appCfg.AssistantEnabled {
		pollerOpts = append(pollerOpts, poller.WithAssistant(p.oracle))
	}
	sessions := poller.New(bot, p.processor, pollerOpts...)

	// 4. Transports
	httpSrv := api.NewServer(appCfg.HTTPAddr, botCfg.DefaultName, api.Deps{
		Bot:      bot,
		Tracker:  p.tracker,
		Pipeline: p.processor,
		Sessions: sessions,
	})

	// Shutdown runs in reverse, so clients close after the server drains.
	services := append([]srv.Service{}, p.cleanups...)
	services = append(services, srv.NewCleanup("meeting bot client", bot.Close))
	services = append(services, httpSrv)
	return services
}

func newPipeline(ctx context.Context, appCfg *config.AppConfig) (*pipeline, error) {
	llmCfg := config.NewLLMConfig(ctx)
	trackerCfg := config.NewTrackerConfig(ctx)
	tgCfg := config.NewTelegramConfig(ctx)

	provider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	o := oracle.New(provider,
		oracle.WithRateLimit(llmCfg.RateLimit),
		oracle.WithTruncator(tokens.NewTruncator(llmCfg.Model, llmCfg.ContextTokens)),
		oracle.WithAssistantName(appCfg.AssistantName),
	)

	cache := similarity.NewCache(
		similarity.WithTTL(appCfg.CacheTTL),
		similarity.WithThreshold(appCfg.SimilarityThreshold),
	)

	linear := tracker.NewLinear(trackerCfg)

	var procOpts []ticket.Option
	notifiers, err := initNotifiers(ctx, tgCfg)
	if err != nil {
		return nil, err
	}
	for _, n := range notifiers {
		procOpts = append(procOpts, ticket.WithNotifier(n))
	}

	return &pipeline{
		processor: ticket.NewProcessor(cache, o, linear, procOpts...),
		oracle:    o,
		tracker:   linear,
		cleanups:  []srv.Service{srv.NewCleanup("linear client", linear.Close)},
	}, nil
}

func initNotifiers(ctx context.Context, tgCfg *config.TelegramConfig) ([]core.TicketNotifier, error) {
	var notifiers []core.TicketNotifier

	if tgCfg.Enabled() {
		n, err := telegram.NewNotifier(tgCfg, "")
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
		log.FromCtx(ctx).Info().Int64("chat_id", tgCfg.ChatID).Msg("telegram notifications enabled")
	}

	return notifiers, nil
}
