package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teemow/craftpanel/internal/instrumentation"
	"github.com/teemow/craftpanel/internal/logging"
)

// Metrics listener defaults.
const (
	DefaultMetricsAddr         = ":9090"
	DefaultMetricsPath         = "/metrics"
	DefaultMetricsReadTimeout  = 10 * time.Second
	DefaultMetricsWriteTimeout = 10 * time.Second
	DefaultMetricsIdleTimeout  = 60 * time.Second
)

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the address to bind the metrics server to (e.g., ":9090").
	Addr string

	// Enabled determines whether the metrics server should be started.
	Enabled bool

	// InstrumentationProvider must be enabled and export to Prometheus.
	InstrumentationProvider *instrumentation.Provider

	// Logger receives start and shutdown messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// MetricsServer exposes the Prometheus registry on its own listener, away
// from the panel port, so scrapers never need a panel session.
type MetricsServer struct {
	addr    string
	handler http.Handler
	logger  *slog.Logger

	httpServer *http.Server
}

// NewMetricsServer validates config and builds the scrape handler. It serves
// the provider's Prometheus endpoint and a /healthz probe.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	provider := config.InstrumentationProvider
	switch {
	case provider == nil:
		return nil, errors.New("instrumentation provider is required for metrics server")
	case !provider.Enabled():
		return nil, errors.New("instrumentation provider is not enabled")
	case !provider.ServesPrometheus():
		return nil, fmt.Errorf("metrics exporter %q does not serve Prometheus", provider.Config().MetricsExporter)
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithService(logger, "metrics")

	path := provider.Config().PrometheusEndpoint
	if path == "" {
		path = DefaultMetricsPath
	}

	// The OpenTelemetry exporter registers with the default Prometheus
	// registry.
	scrape := promhttp.InstrumentMetricHandler(prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:      logging.NewStdLogger(logger, slog.LevelWarn),
			ErrorHandling: promhttp.ContinueOnError,
		}))

	mux := http.NewServeMux()
	mux.Handle(path, scrape)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		addr:    addr,
		handler: mux,
		logger:  logger,
	}, nil
}

// Handler returns the scrape mux.
func (s *MetricsServer) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and blocks until Shutdown.
func (s *MetricsServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts scrapes on ln and blocks until Shutdown.
func (s *MetricsServer) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
		ErrorLog:          logging.NewStdLogger(s.logger, slog.LevelWarn),
	}

	s.logger.Info("Metrics listening", slog.String("addr", ln.Addr().String()))
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured address for the metrics server.
func (s *MetricsServer) Addr() string {
	return s.addr
}
