package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/craftpanel/internal/logging"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
}

// newRootCmd builds the command tree. The persistent flags configure the
// process logger before any subcommand runs.
func newRootCmd() *cobra.Command {
	var (
		debugMode bool
		logFormat string
	)

	rootCmd := &cobra.Command{
		Use:   "craftpanel",
		Short: "Web control panel for a single Minecraft server",
		Long: `craftpanel starts, stops and restarts one Minecraft server process, relays
console commands over RCON and shows the server log to users who signed in
with Google and are on the allow-list.

It can run as:
  - An HTTP panel (serve)
  - An MCP (Model Context Protocol) server for AI assistants (mcp)
  - A one-shot console client (rcon)`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(os.Stderr, logFormat, debugMode)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	rootCmd.SetVersionTemplate(`{{printf "craftpanel version %s\n" .Version}}`)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newRCONCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())

	return rootCmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
