package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/craftpanel/internal/config"
	"github.com/teemow/craftpanel/internal/instrumentation"
	"github.com/teemow/craftpanel/internal/logging"
	"github.com/teemow/craftpanel/internal/server"
)

// shutdownTimeout bounds the whole graceful shutdown, including stopping the
// game server.
const shutdownTimeout = 60 * time.Second

// serveFlags are the command-line overrides for the environment config.
type serveFlags struct {
	httpAddr       string
	frontendURL    string
	frontendDir    string
	locale         string
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web panel",
		Long: `Start the HTTP control panel.

Configuration is read from the environment (see README); the flags below
override the corresponding variables when set explicitly.

Google login needs GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and
GOOGLE_REDIRECT_URI. Without them the panel still starts and the login
endpoint reports a configuration error.

On SIGINT or SIGTERM the panel stops accepting requests, stops the game
server if it is running and exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyServeFlags(cmd, &cfg, flags)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cmd.Context(), cfg, slog.Default())
		},
	}

	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", ":8000", "Panel listen address. Can also use PANEL_HTTP_ADDR env var.")
	cmd.Flags().StringVar(&flags.frontendURL, "frontend-url", "", "Where users land after login; also the allowed CORS origin. Can also use FRONTEND_URL env var.")
	cmd.Flags().StringVar(&flags.frontendDir, "frontend-dir", "", "Directory with index.html, static/ and img/ to serve. Can also use FRONTEND_DIR env var.")
	cmd.Flags().StringVar(&flags.locale, "locale", "ru", "Language of user-facing messages: ru or en. Can also use PANEL_LOCALE env var.")
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyServeFlags copies explicitly set flags over the environment values.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, flags serveFlags) {
	if cmd.Flags().Changed("http-addr") {
		cfg.HTTPAddr = flags.httpAddr
	}
	if cmd.Flags().Changed("frontend-url") {
		cfg.FrontendURL = flags.frontendURL
	}
	if cmd.Flags().Changed("frontend-dir") {
		cfg.FrontendDir = flags.frontendDir
	}
	if cmd.Flags().Changed("locale") {
		cfg.Locale = flags.locale
	}
	if cmd.Flags().Changed("metrics-enabled") {
		cfg.Metrics.Enabled = flags.metricsEnabled
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Addr = flags.metricsAddr
	}
}

func runServe(parent context.Context, cfg config.Config, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.CheckSecureOrigin(cfg.FrontendURL); err != nil {
		logger.Warn("Frontend URL is not secure", logging.Err(err))
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during instrumentation shutdown", logging.Err(err))
		}
	}()

	audit := instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	sc, err := newServerContext(ctx, cfg, logger, provider.Metrics(), audit)
	if err != nil {
		return err
	}
	if err := provider.Metrics().ObserveServerUp(sc.ServerRunning); err != nil {
		logger.Warn("Game server gauge unavailable", logging.Err(err))
	}

	errCh := make(chan error, 2)

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && provider.Enabled() && provider.ServesPrometheus() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	health := server.NewHealthChecker(sc)
	httpServer := server.NewHTTPServer(sc, health)
	go func() {
		if err := httpServer.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	logger.Info("Panel started",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("locale", cfg.Locale),
		slog.Int("authorized_users", sc.Policy().Size()),
		slog.String("version", version))

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errCh:
		logger.Error("Server failed", logging.Err(runErr))
	}

	health.SetReady(false)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	var errs []error
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	if err := sc.Close(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server context shutdown: %w", err))
	}
	for _, err := range errs {
		logger.Warn("Error during shutdown", logging.Err(err))
	}

	logger.Info("Panel stopped")
	return runErr
}
