package main

import (
	"context"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sandevgo/kurt/internal/config"
	"github.com/sandevgo/kurt/internal/service/ui"
	"github.com/sandevgo/kurt/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug   bool
	logJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "kurt",
	Short: "Kurt turns meeting conversation into tracker tickets",
	Long: `Kurt joins video meetings through a bot, follows the transcript, and files
or updates issue tracker tickets when the conversation calls for it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initEnv(config.GetEnvPath())
	},
}

func Execute() {
	CustomizeHelp(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON lines")
}

func setupLogger(ctx context.Context, out io.Writer) (context.Context, func()) {
	return log.NewContextWithLogger(ctx, log.Options{
		Debug: debug || config.IsDebug(),
		JSON:  logJSON || config.IsLogJSON(),
		Out:   out,
	})
}

// initEnv loads the runtime .env without overriding variables already set.
// A missing file is fine; the environment alone may be enough.
func initEnv(envFile string) error {
	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(envFile)
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return ui.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return ui.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return ui.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return ui.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{StyleFlag (.LocalFlags.FlagUsages | trimTrailingWhitespaces)}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
