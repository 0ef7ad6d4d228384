package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sandevgo/kurt/internal/config"
	"github.com/sandevgo/kurt/internal/service/ui"
	"github.com/sandevgo/kurt/pkg/env"
	"github.com/spf13/cobra"
)

var reveal bool

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the effective configuration as .env content",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context(), os.Stderr)
		defer flushLog()

		out, err := effectiveEnv(ctx, reveal)
		if err != nil {
			return err
		}

		if isatty.IsTerminal(os.Stdout.Fd()) {
			out = ui.HighlightEnv(out, env.SecretMask)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func effectiveEnv(ctx context.Context, revealSecrets bool) (string, error) {
	return env.MarshalEnv(revealSecrets,
		config.NewAppConfig(ctx),
		config.NewLLMConfig(ctx),
		config.NewTrackerConfig(ctx),
		config.NewBotConfig(ctx),
		config.NewTelegramConfig(ctx),
	)
}

func init() {
	envCmd.Flags().BoolVar(&reveal, "reveal", false, "print secrets instead of masking them")
	rootCmd.AddCommand(envCmd)
}
