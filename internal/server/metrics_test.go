package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/craftpanel/internal/instrumentation"
)

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name     string
		provider func(t *testing.T) *instrumentation.Provider
		addr     string
		wantAddr string
		wantErr  string
	}{
		{name: "prometheus provider", provider: createTestProvider, addr: ":9191", wantAddr: ":9191"},
		{name: "default addr", provider: createTestProvider, wantAddr: DefaultMetricsAddr},
		{name: "nil provider", wantErr: "instrumentation provider is required"},
		{name: "disabled provider", provider: createDisabledProvider, wantErr: "not enabled"},
		{name: "stdout exporter", provider: createStdoutProvider, wantErr: "does not serve Prometheus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MetricsServerConfig{Addr: tt.addr, Enabled: true, Logger: discardLogger()}
			if tt.provider != nil {
				cfg.InstrumentationProvider = tt.provider(t)
			}

			srv, err := NewMetricsServer(cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, srv.Addr())
		})
	}
}

func TestMetricsServer_ServesScrapes(t *testing.T) {
	provider := createTestProvider(t)
	provider.Metrics().RecordRateLimited(context.Background(), instrumentation.ChannelHTTP)

	srv, err := NewMetricsServer(MetricsServerConfig{
		Enabled:                 true,
		InstrumentationProvider: provider,
		Logger:                  discardLogger(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "promhttp_metric_handler_requests_total")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsServer_ServeAndShutdown(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{
		Enabled:                 true,
		InstrumentationProvider: createTestProvider(t),
		Logger:                  discardLogger(),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && string(body) == "ok"
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.True(t, errors.Is(<-done, http.ErrServerClosed))
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{
		Enabled:                 true,
		InstrumentationProvider: createTestProvider(t),
	})
	require.NoError(t, err)
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func createTestProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:        "craftpanel-test",
		ServiceVersion:     "1.0.0",
		Enabled:            true,
		MetricsExporter:    instrumentation.ExporterPrometheus,
		TracingExporter:    instrumentation.ExporterNone,
		PrometheusEndpoint: "/metrics",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func createDisabledProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName: "craftpanel-test",
		Enabled:     false,
	})
	require.NoError(t, err)
	return provider
}

func createStdoutProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "craftpanel-test",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterStdout,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}
