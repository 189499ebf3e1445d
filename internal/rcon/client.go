package rcon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	gorcon "github.com/gorcon/rcon"

	"github.com/teemow/craftpanel/internal/logging"
)

const (
	// DefaultPort is the standard Minecraft RCON port.
	DefaultPort = 25575

	// DefaultTimeout bounds dialing and each read/write.
	DefaultTimeout = 5 * time.Second
)

// FailureKind classifies why a command could not be delivered.
type FailureKind int

const (
	// FailureNone means the command was delivered.
	FailureNone FailureKind = iota
	// FailureRefused means nothing accepted the TCP connection.
	FailureRefused
	// FailureTimeout means dialing or waiting for the reply timed out.
	FailureTimeout
	// FailureOther covers authentication and protocol errors.
	FailureOther
)

// String returns the metric label for k; empty for FailureNone.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return ""
	case FailureRefused:
		return "refused"
	case FailureTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// Result is the outcome of one console command.
// Text is always suitable for display: the server reply when OK, a system
// message otherwise.
type Result struct {
	OK      bool
	Text    string
	Failure FailureKind
	Err     error
}

// Formatter renders the display text for a failed command.
type Formatter func(kind FailureKind, err error) string

// Config holds the connection settings.
type Config struct {
	Host     string
	Port     int
	Password string
	Timeout  time.Duration
}

// Client executes console commands. It is safe for concurrent use because it
// holds no connection state between calls.
type Client struct {
	addr     string
	password string
	timeout  time.Duration
	format   Formatter
	logger   *slog.Logger
}

// New creates a client. Zero values in cfg fall back to localhost,
// DefaultPort and DefaultTimeout.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		password: cfg.Password,
		timeout:  cfg.Timeout,
		format:   DefaultFormatter,
		logger:   logger,
	}
}

// WithFormatter replaces the failure message renderer.
func (c *Client) WithFormatter(f Formatter) *Client {
	if f != nil {
		c.format = f
	}
	return c
}

// Addr returns the host:port the client dials.
func (c *Client) Addr() string {
	return c.addr
}

// Execute runs command and returns its result. The call is abandoned when ctx
// is done; a ctx deadline shorter than the client timeout takes precedence.
func (c *Client) Execute(ctx context.Context, command string) Result {
	logger := logging.WithOperation(c.logger, "rcon.execute")

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return c.failure(context.DeadlineExceeded)
	}

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)

	go func() {
		conn, err := gorcon.Dial(c.addr, c.password,
			gorcon.SetDialTimeout(timeout),
			gorcon.SetDeadline(timeout),
		)
		if err != nil {
			done <- reply{err: err}
			return
		}
		defer conn.Close()

		text, err := conn.Execute(command)
		done <- reply{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		logger.Debug("RCON command abandoned", logging.Err(ctx.Err()))
		return c.failure(ctx.Err())
	case r := <-done:
		if r.err != nil {
			logger.Warn("RCON command failed",
				slog.String("addr", c.addr),
				logging.Err(r.err))
			return c.failure(r.err)
		}
		logger.Debug("RCON command executed",
			slog.Int("response_bytes", len(r.text)))
		return Result{OK: true, Text: r.text}
	}
}

func (c *Client) failure(err error) Result {
	kind := Classify(err)
	return Result{
		OK:      false,
		Text:    c.format(kind, err),
		Failure: kind,
		Err:     err,
	}
}

// Classify maps a transport error to a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return FailureRefused
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureOther
}

// DefaultFormatter renders failures in Russian, the panel's default locale.
func DefaultFormatter(kind FailureKind, err error) string {
	switch kind {
	case FailureRefused:
		return "[Система]: Сервер не принимает RCON-подключения. Возможно, сервер не запущен."
	case FailureTimeout:
		return "[Система]: Превышено время ожидания RCON-соединения."
	default:
		return fmt.Sprintf("[Система]: Ошибка RCON: %v", err)
	}
}
