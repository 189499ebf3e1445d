package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/craftpanel/internal/config"
	"github.com/teemow/craftpanel/internal/server"
)

// errCommandFailed makes the process exit non-zero after the console
// failure text has been printed.
var errCommandFailed = errors.New("console command failed")

func newRCONCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rcon <command...>",
		Short: "Send one console command to the server and print the response",
		Long: `Send a single console command over RCON using the panel configuration
(RCON_HOST, RCON_PORT, RCON_PASSWORD, RCON_TIMEOUT) and print the response.

The command exits with status 1 when the console could not be reached.

Example:
  craftpanel rcon whitelist add Steve`,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			err = runRCON(cmd.Context(), cfg, slog.Default(), strings.Join(args, " "), cmd.OutOrStdout())
			if err != nil && !errors.Is(err, errCommandFailed) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}
	return cmd
}

func runRCON(ctx context.Context, cfg config.Config, logger *slog.Logger, command string, out io.Writer) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return server.ErrEmptyCommand
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res := newConsole(cfg, logger).Execute(ctx, command)
	fmt.Fprintln(out, res.Text)
	if !res.OK {
		return errCommandFailed
	}
	return nil
}
