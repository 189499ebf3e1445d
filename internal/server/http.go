package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/teemow/craftpanel/internal/logging"
)

const (
	// DefaultReadHeaderTimeout bounds how long a client may take to send headers.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultWriteTimeout must outlast the worst-case stop protocol.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultIdleTimeout closes idle keep-alive connections.
	DefaultIdleTimeout = 120 * time.Second
)

// HTTPServer serves the panel.
type HTTPServer struct {
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// NewHTTPServer wraps the panel router for sc.
func NewHTTPServer(sc *ServerContext, health *HealthChecker) *HTTPServer {
	return &HTTPServer{
		handler: NewRouter(NewHandler(sc, health)),
		logger:  logging.WithService(sc.logger, "http"),
	}
}

// Handler returns the panel router.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Start listens on addr and blocks until the server is shut down.
func (s *HTTPServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks until the server is shut down.
func (s *HTTPServer) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		ErrorLog:          logging.NewStdLogger(s.logger, slog.LevelWarn),
	}

	s.logger.Info("Panel listening", slog.String("addr", ln.Addr().String()))
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// CheckSecureOrigin rejects plain-HTTP URLs that are not on a loopback host.
// Session cookies and OAuth redirects must not travel unencrypted off the
// local machine.
func CheckSecureOrigin(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("plain HTTP is only allowed for localhost (got: %s)", rawURL)
		}
	} else if u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
	}

	return nil
}
