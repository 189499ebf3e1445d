package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teemow/craftpanel/internal/config"
	"github.com/teemow/craftpanel/internal/history"
	"github.com/teemow/craftpanel/internal/i18n"
	"github.com/teemow/craftpanel/internal/instrumentation"
	"github.com/teemow/craftpanel/internal/lifecycle"
	"github.com/teemow/craftpanel/internal/logging"
	"github.com/teemow/craftpanel/internal/oauth"
	"github.com/teemow/craftpanel/internal/ratelimit"
	"github.com/teemow/craftpanel/internal/rcon"
	"github.com/teemow/craftpanel/internal/server"
	"github.com/teemow/craftpanel/internal/session"
)

// newConsole builds the RCON client with messages in the configured locale.
func newConsole(cfg config.Config, logger *slog.Logger) *rcon.Client {
	t := i18n.New(cfg.Locale)
	return rcon.New(cfg.RCONClientConfig(), logging.WithService(logger, "rcon")).
		WithFormatter(t.RCONFormatter())
}

// newServerContext wires every panel component from cfg.
func newServerContext(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	metrics *instrumentation.Metrics,
	audit *instrumentation.AuditLogger,
) (*server.ServerContext, error) {
	console := newConsole(cfg, logger)
	controller := lifecycle.NewController(cfg.LifecycleConfig(), console,
		logging.WithService(logger, "lifecycle"))

	codec, err := session.NewCodec(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Secure)
	if err != nil {
		return nil, fmt.Errorf("failed to create session codec: %w", err)
	}
	if cfg.Session.Secret == "" {
		logger.Warn("SESSION_SECRET is not set; sessions will not survive a restart")
	}

	provider, providerErr := oauth.NewProvider(cfg.ProviderConfig(), logging.WithService(logger, "oauth"))
	switch {
	case errors.Is(providerErr, oauth.ErrNotConfigured):
		logger.Warn("Google login is not configured; /auth/google will report a configuration error")
	case providerErr != nil:
		logger.Error("Invalid Google login configuration", logging.Err(providerErr))
	}

	sc, err := server.NewServerContext(ctx, server.Options{
		Controller:  controller,
		Console:     console,
		Codec:       codec,
		Policy:      session.NewPolicy(cfg.AuthorizedUsers),
		States:      oauth.NewStateStore(logger),
		Limiter:     ratelimit.New(cfg.Commands.Cooldown),
		History:     history.New(cfg.Commands.HistorySize),
		Provider:    provider,
		ProviderErr: providerErr,
		Translator:  i18n.New(cfg.Locale),
		Metrics:     metrics,
		Audit:       audit,
		LogFile:     cfg.LogFilePath(),
		FrontendURL: cfg.FrontendURL,
		FrontendDir: cfg.FrontendDir,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}

	if sc.Policy().Open() {
		logger.Warn("AUTHORIZED_USERS is empty; every signed-in user may operate the server")
	}
	return sc, nil
}
