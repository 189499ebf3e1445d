package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/craftpanel/internal/history"
	"github.com/teemow/craftpanel/internal/i18n"
	"github.com/teemow/craftpanel/internal/instrumentation"
	"github.com/teemow/craftpanel/internal/lifecycle"
	"github.com/teemow/craftpanel/internal/logging"
	"github.com/teemow/craftpanel/internal/logtail"
	"github.com/teemow/craftpanel/internal/oauth"
	"github.com/teemow/craftpanel/internal/ratelimit"
	"github.com/teemow/craftpanel/internal/rcon"
	"github.com/teemow/craftpanel/internal/session"
)

// LocalIdentity is the user recorded for actions requested over the local
// MCP transport, which has no login.
const LocalIdentity = "mcp:local"

var (
	// ErrRateLimited is returned by SendCommand when the caller is inside
	// its cooldown window.
	ErrRateLimited = errors.New("too many commands")

	// ErrEmptyCommand is returned by SendCommand for a blank command.
	ErrEmptyCommand = errors.New("command must not be empty")
)

// Console executes commands on the running game server.
type Console interface {
	Execute(ctx context.Context, command string) rcon.Result
	Addr() string
}

// Options carries the collaborators of a ServerContext. Controller, Console
// and Codec are required; everything else has a working default.
type Options struct {
	Controller *lifecycle.Controller
	Console    Console
	Codec      *session.Codec

	Policy  *session.Policy
	States  *oauth.StateStore
	Limiter *ratelimit.Limiter
	History *history.Log

	// Provider is nil when OAuth is not configured; ProviderErr then explains why.
	Provider    *oauth.Provider
	ProviderErr error

	Translator *i18n.Translator
	Metrics    *instrumentation.Metrics
	Audit      *instrumentation.AuditLogger

	LogFile     string
	FrontendURL string
	FrontendDir string

	Logger *slog.Logger
}

// ServerContext owns every piece of panel state: the process controller, the
// console client, OAuth state tokens, the rate limiter, the command history
// and the authorization policy. One instance is shared by the HTTP and MCP
// surfaces.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	controller *lifecycle.Controller
	console    Console
	codec      *session.Codec
	policy     *session.Policy
	states     *oauth.StateStore
	limiter    *ratelimit.Limiter
	history    *history.Log

	provider    *oauth.Provider
	providerErr error

	translator *i18n.Translator
	metrics    *instrumentation.Metrics
	audit      *instrumentation.AuditLogger

	logFile     string
	frontendURL string
	frontendDir string

	logger *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Controller == nil {
		return nil, errors.New("lifecycle controller is required")
	}
	if opts.Console == nil {
		return nil, errors.New("console client is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("session codec is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Policy == nil {
		opts.Policy = session.NewPolicy(nil)
	}
	if opts.States == nil {
		opts.States = oauth.NewStateStore(logger)
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(ratelimit.DefaultCooldown)
	}
	if opts.History == nil {
		opts.History = history.New(history.DefaultCapacity)
	}
	if opts.Translator == nil {
		opts.Translator = i18n.New("")
	}
	if opts.Metrics == nil {
		opts.Metrics = &instrumentation.Metrics{}
	}
	if opts.Audit == nil {
		opts.Audit = instrumentation.NewAuditLogger(logger)
	}
	if opts.Provider == nil && opts.ProviderErr == nil {
		opts.ProviderErr = oauth.ErrNotConfigured
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		controller:  opts.Controller,
		console:     opts.Console,
		codec:       opts.Codec,
		policy:      opts.Policy,
		states:      opts.States,
		limiter:     opts.Limiter,
		history:     opts.History,
		provider:    opts.Provider,
		providerErr: opts.ProviderErr,
		translator:  opts.Translator,
		metrics:     opts.Metrics,
		audit:       opts.Audit,
		logFile:     opts.LogFile,
		frontendURL: opts.FrontendURL,
		frontendDir: opts.FrontendDir,
		logger:      logging.WithService(logger, "panel"),
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Logger returns the panel logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Translator returns the message catalog for the configured locale.
func (sc *ServerContext) Translator() *i18n.Translator {
	return sc.translator
}

// Metrics returns the metric recorder; never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Policy returns the authorization policy.
func (sc *ServerContext) Policy() *session.Policy {
	return sc.policy
}

// Audit returns the audit logger; never nil.
func (sc *ServerContext) Audit() *instrumentation.AuditLogger {
	return sc.audit
}

// Codec returns the session cookie codec.
func (sc *ServerContext) Codec() *session.Codec {
	return sc.codec
}

// StartServer launches the game server on behalf of user.
func (sc *ServerContext) StartServer(ctx context.Context, user, channel string) (*lifecycle.Handle, error) {
	return sc.runLifecycle(ctx, instrumentation.OperationStart, history.ActionStart, user, channel, sc.controller.Start)
}

// StopServer runs the stop protocol on behalf of user.
func (sc *ServerContext) StopServer(ctx context.Context, user, channel string) error {
	_, err := sc.runLifecycle(ctx, instrumentation.OperationStop, history.ActionStop, user, channel,
		func(ctx context.Context) (*lifecycle.Handle, error) {
			return nil, sc.controller.Stop(ctx)
		})
	return err
}

// RestartServer stops a live server, waits and starts it again. A stopped
// server is simply started. The restart is recorded as a single history entry.
func (sc *ServerContext) RestartServer(ctx context.Context, user, channel string) (*lifecycle.Handle, error) {
	return sc.runLifecycle(ctx, instrumentation.OperationRestart, history.ActionRestart, user, channel, sc.controller.Restart)
}

// ServerStatus reports the process state.
func (sc *ServerContext) ServerStatus(ctx context.Context) lifecycle.Status {
	return sc.controller.Status(ctx)
}

// ServerRunning reports whether a live server process exists.
func (sc *ServerContext) ServerRunning(ctx context.Context) bool {
	return sc.controller.Status(ctx).State == lifecycle.Running
}

func (sc *ServerContext) runLifecycle(
	ctx context.Context,
	op, historyAction, user, channel string,
	fn func(context.Context) (*lifecycle.Handle, error),
) (*lifecycle.Handle, error) {
	ctx, span := instrumentation.StartLifecycleSpan(ctx, op,
		instrumentation.NewSpanAttributeBuilder().WithChannel(channel).WithUser(user).Build()...)
	defer span.End()

	action := instrumentation.NewAction(op, channel, user).WithSpanContext(ctx)
	logger := logging.WithOperation(sc.logger, "server."+op).With(
		logging.UserHash(user),
		slog.String("channel", channel))

	start := time.Now()
	h, err := fn(ctx)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	switch {
	case err == nil:
		if h != nil {
			span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithPID(h.PID).Build()...)
		}
		instrumentation.SetSpanSuccess(span)
		sc.history.Append(history.Entry{User: user, Command: historyAction, Result: instrumentation.StatusSuccess})
		logger.Info("Server operation completed", slog.Duration(logging.KeyDuration, duration))

	case errors.Is(err, lifecycle.ErrAlreadyRunning), errors.Is(err, lifecycle.ErrNotRunning):
		// Nothing happened, so nothing goes into the history.
		status = instrumentation.StatusRejected
		instrumentation.AddSpanEvent(span, "rejected")
		logger.Info("Server operation rejected", slog.String("reason", err.Error()))

	default:
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		sc.history.Append(history.Entry{User: user, Command: historyAction, Result: instrumentation.StatusError})
		logger.Error("Server operation failed", logging.Err(err))
	}

	sc.metrics.RecordLifecycleOperation(ctx, op, channel, status, duration)
	sc.audit.LogAction(action.Complete(err == nil, err))
	return h, err
}

// SendCommand delivers command to the server console on behalf of user.
// Console failures are not errors: they come back as a Result with OK unset
// and a displayable Text. The returned error is ErrEmptyCommand or
// ErrRateLimited.
func (sc *ServerContext) SendCommand(ctx context.Context, user, channel, command string) (rcon.Result, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return rcon.Result{}, ErrEmptyCommand
	}

	logger := logging.WithOperation(sc.logger, "server.command").With(
		logging.UserHash(user),
		logging.Command(command),
		slog.String("channel", channel))

	if !sc.limiter.Allow(user) {
		sc.metrics.RecordRateLimited(ctx, channel)
		logger.Warn("Command rejected by cooldown")
		return rcon.Result{}, ErrRateLimited
	}

	ctx, span := instrumentation.StartRCONSpan(ctx, sc.console.Addr(),
		instrumentation.NewSpanAttributeBuilder().
			WithChannel(channel).
			WithUser(user).
			WithCommand(command).
			Build()...)
	defer span.End()

	action := instrumentation.NewAction(instrumentation.OperationCommand, channel, user).
		WithCommand(command).
		WithSpanContext(ctx)

	start := time.Now()
	res := sc.console.Execute(ctx, command)
	duration := time.Since(start)

	result := instrumentation.StatusSuccess
	if res.OK {
		instrumentation.SetSpanSuccess(span)
		logger.Info("Command executed", slog.Duration(logging.KeyDuration, duration))
	} else {
		result = instrumentation.StatusError
		span.SetAttributes(attribute.String(instrumentation.SpanAttrFailure, res.Failure.String()))
		instrumentation.SetSpanError(span, res.Err)
		logger.Warn("Command not delivered",
			slog.String("failure", res.Failure.String()),
			logging.Err(res.Err))
	}

	sc.history.Append(history.Entry{User: user, Command: command, Result: result})
	sc.metrics.RecordRCONCommand(ctx, command, res.Failure.String(), user, duration)
	sc.audit.LogAction(action.Complete(res.OK, res.Err))
	return res, nil
}

// CommandCooldown returns the minimum spacing between two commands of one user.
func (sc *ServerContext) CommandCooldown() time.Duration {
	return sc.limiter.Cooldown()
}

// ReadLogs returns up to n trailing lines of the server log, clamped to
// logtail.MaxLines. Zero or negative n reads logtail.DefaultLines.
func (sc *ServerContext) ReadLogs(n int) ([]string, error) {
	lines, err := logtail.Tail(sc.logFile, n)
	if err != nil {
		return nil, fmt.Errorf("read server log: %w", err)
	}
	return lines, nil
}

// History returns the recent administrative actions, oldest first.
func (sc *ServerContext) History() []history.Entry {
	return sc.history.List()
}

// AuthCodeURL issues a fresh state token and returns the provider login URL.
func (sc *ServerContext) AuthCodeURL() (string, error) {
	if sc.provider == nil {
		return "", sc.providerErr
	}
	state, err := sc.states.Issue()
	if err != nil {
		return "", fmt.Errorf("issue state token: %w", err)
	}
	return sc.provider.AuthCodeURL(state), nil
}

// CompleteLogin validates state, exchanges code and returns the new session.
// The session is not authorized yet; the allow-list is checked per request.
func (sc *ServerContext) CompleteLogin(ctx context.Context, state, code string) (*session.Session, error) {
	ctx, span := instrumentation.StartSpan(ctx, "oauth.callback")
	defer span.End()

	logger := logging.WithOperation(sc.logger, "oauth.callback")

	if err := sc.states.Validate(state); err != nil {
		result := instrumentation.OAuthResultFailure
		if errors.Is(err, oauth.ErrStateConsumed) {
			result = instrumentation.OAuthResultReplay
		}
		sc.metrics.RecordOAuthAuth(ctx, result)
		instrumentation.SetSpanError(span, err)
		logger.Warn("State token rejected", logging.Err(err))
		return nil, err
	}

	if sc.provider == nil {
		sc.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, sc.providerErr
	}

	token, err := sc.provider.Exchange(ctx, code)
	if err != nil {
		sc.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		instrumentation.SetSpanError(span, err)
		logger.Warn("Code exchange failed", logging.Err(err))
		return nil, err
	}

	info, err := sc.provider.UserInfo(ctx, token)
	if err != nil {
		sc.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		instrumentation.SetSpanError(span, err)
		logger.Warn("User info request failed", logging.Err(err))
		return nil, err
	}

	s := &session.Session{
		Email:     info.Email,
		Name:      info.Name,
		Picture:   info.Picture,
		LoginTime: time.Now(),
	}

	result := instrumentation.OAuthResultSuccess
	if sc.policy.Authorize(s) != session.Authorized {
		result = instrumentation.OAuthResultUnauthorized
	}
	sc.metrics.RecordOAuthAuth(ctx, result)
	instrumentation.SetSpanSuccess(span)

	sc.audit.LogAction(instrumentation.NewAction(instrumentation.OperationLogin, instrumentation.ChannelHTTP, s.Email).
		WithSpanContext(ctx).
		Complete(true, nil))
	logger.Info("User logged in",
		logging.UserHash(s.Email),
		slog.String("result", result))
	return s, nil
}

// RecordLogout audits a logout.
func (sc *ServerContext) RecordLogout(ctx context.Context, user string) {
	sc.audit.LogAction(instrumentation.NewAction(instrumentation.OperationLogout, instrumentation.ChannelHTTP, user).
		WithSpanContext(ctx).
		Complete(true, nil))
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

// Close stops a live game server and then shuts the context down, so the
// panel never exits leaving an orphaned process.
func (sc *ServerContext) Close(ctx context.Context) error {
	err := sc.controller.Close(ctx)
	if err != nil {
		sc.logger.Error("Failed to stop server during shutdown", logging.Err(err))
	}
	return errors.Join(err, sc.Shutdown())
}
