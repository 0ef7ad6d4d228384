package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/log"
	"github.com/sandevgo/kurt/pkg/srv"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves the ticket endpoints and streams meeting sessions over server-sent events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx, os.Stderr)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Str("version", core.KurtVersion).Msg("starting kurt")

		services := NewServices(ctx)

		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("kurt has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
