package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/kurt/internal/config"
	"github.com/sandevgo/kurt/internal/transport/mcp"
	"github.com/sandevgo/kurt/pkg/log"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ticket tools over MCP stdio",
	Long:  `Exposes analyze_ticket, create_ticket and process_conversation to an MCP client on stdin/stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// stdout carries the protocol
		var flushLog func()
		ctx, flushLog = setupLogger(ctx, os.Stderr)
		defer flushLog()

		p, err := newPipeline(ctx, config.NewAppConfig(ctx))
		if err != nil {
			return err
		}
		defer func() {
			for _, c := range p.cleanups {
				if err := c.Shutdown(context.WithoutCancel(ctx)); err != nil {
					log.FromCtx(ctx).Warn().Err(err).Msgf("%v cleanup failed", c)
				}
			}
		}()

		return mcp.NewServer(p.processor).Serve(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
