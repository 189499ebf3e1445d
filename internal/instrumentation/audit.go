package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/craftpanel/internal/logging"
)

// Action captures one administrative action on the game server for audit
// logging: a lifecycle operation, a console command, a login or a logout.
//
// # Privacy Considerations
//
// User holds the email address. It is only written in clear when the audit
// logger is configured with IncludePII; otherwise a stable hash is logged.
type Action struct {
	Operation string
	Channel   string
	User      string

	// Command is the full console command. Only its verb is logged unless
	// PII is included, since arguments can contain player names.
	Command string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewAction starts timing an action.
func NewAction(operation, channel, user string) *Action {
	return &Action{
		Operation: operation,
		Channel:   channel,
		User:      user,
		StartTime: time.Now(),
	}
}

// WithCommand sets the console command.
func (a *Action) WithCommand(command string) *Action {
	a.Command = command
	return a
}

// WithSpanContext extracts trace context from the current span.
func (a *Action) WithSpanContext(ctx context.Context) *Action {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		a.TraceID = span.SpanContext().TraceID().String()
		a.SpanID = span.SpanContext().SpanID().String()
	}
	return a
}

// Complete marks the action as finished.
func (a *Action) Complete(success bool, err error) *Action {
	a.Duration = time.Since(a.StartTime)
	a.Success = success
	if err != nil {
		a.Error = err.Error()
	}
	return a
}

// Status returns "success" or "error" based on the Success field.
func (a *Action) Status() string {
	if a.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the anonymized attribute set.
func (a *Action) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", a.Operation),
		slog.String("channel", a.Channel),
		logging.UserHash(a.User),
		slog.String("user_domain", ExtractUserDomain(a.User)),
		slog.Duration("duration", a.Duration),
		slog.Bool("success", a.Success),
	}
	if a.Command != "" {
		attrs = append(attrs, slog.String("command", CommandVerb(a.Command)))
	}
	if a.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", a.TraceID))
	}
	if a.Error != "" {
		attrs = append(attrs, slog.String("error", a.Error))
	}
	return attrs
}

// LogAuditAttrs returns the full attribute set including the email address
// and the complete command line.
func (a *Action) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", a.Operation),
		slog.String("channel", a.Channel),
		slog.String("user", a.User),
		slog.Duration("duration", a.Duration),
		slog.Bool("success", a.Success),
	}
	if a.Command != "" {
		attrs = append(attrs, slog.String("command", a.Command))
	}
	if a.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", a.TraceID))
	}
	if a.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", a.SpanID))
	}
	if a.Error != "" {
		attrs = append(attrs, slog.String("error", a.Error))
	}
	return attrs
}

// AuditLogger writes one record per administrative action.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes users.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("log_type", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogAction writes a. Nil receivers and nil actions are ignored.
func (al *AuditLogger) LogAction(a *Action) {
	if al == nil || a == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = a.LogAuditAttrs()
	} else {
		attrs = a.LogAttrs()
	}

	level := slog.LevelInfo
	msg := "admin_action"
	if !a.Success {
		level = slog.LevelWarn
		msg = "admin_action_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
