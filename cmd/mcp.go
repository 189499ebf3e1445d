package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/craftpanel/internal/config"
	"github.com/teemow/craftpanel/internal/instrumentation"
	"github.com/teemow/craftpanel/internal/logging"
	"github.com/teemow/craftpanel/internal/server"
	"github.com/teemow/craftpanel/internal/tools/server_tools"
)

func newMCPCmd() *cobra.Command {
	var yolo bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the panel operations as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on standard input/output so that an
AI assistant on this machine can operate the game server.

The transport is local, so there is no login: every action is recorded in
the history as "mcp:local".

Safety Mode:
  By default only read-only tools are registered (status, logs, history).
  Use --yolo to also register start, stop, restart and console commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runMCP(cmd.Context(), cfg, slog.Default(), !yolo)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write tools (start, stop, restart, console commands)")

	return cmd
}

func runMCP(parent context.Context, cfg config.Config, logger *slog.Logger, readOnly bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Stdout carries the protocol, so exporters must not write to it.
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if instrConfig.MetricsExporter == instrumentation.ExporterStdout || instrConfig.TracingExporter == instrumentation.ExporterStdout {
		logger.Warn("Stdout exporters are not available with the stdio transport; instrumentation disabled")
		instrConfig.Enabled = false
	}
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	audit := instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	sc, err := newServerContext(ctx, cfg, logger, provider.Metrics(), audit)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sc.Close(closeCtx); err != nil {
			logger.Warn("Error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv, err := newMCPServer(sc, readOnly)
	if err != nil {
		return err
	}

	if readOnly {
		logger.Info("MCP server in READ-ONLY mode (use --yolo to enable write tools)")
	} else {
		logger.Info("MCP server with WRITE tools enabled (--yolo flag is set)")
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		stdio := mcpserver.NewStdioServer(mcpSrv)
		stdio.SetErrorLogger(logging.NewStdLogger(logger, slog.LevelError))
		if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
	case <-ctx.Done():
	}
	return nil
}

// newMCPServer registers the panel tools on a fresh MCP server.
func newMCPServer(sc *server.ServerContext, readOnly bool) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("craftpanel", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := server_tools.RegisterServerTools(mcpSrv, sc, readOnly); err != nil {
		return nil, fmt.Errorf("failed to register server tools: %w", err)
	}
	return mcpSrv, nil
}
