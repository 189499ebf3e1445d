package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumFor(t *testing.T, data metricdata.Aggregation, key, value string) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordHTTPRequest(ctx, "POST", "/api/server/start", 200, 100*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/api/server/start", 400, 5*time.Millisecond)
	m.RecordHTTPRequest(ctx, "GET", "/api/server/status", 401, time.Millisecond)

	data := collect(t, reader)
	if got := sumFor(t, data["http_requests_total"], attrPath, "/api/server/start"); got != 2 {
		t.Errorf("start requests = %d, want 2", got)
	}
	if got := sumFor(t, data["http_requests_total"], attrStatus, "401"); got != 1 {
		t.Errorf("401 responses = %d, want 1", got)
	}
}

func TestMetrics_RecordLifecycleOperation(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordLifecycleOperation(ctx, OperationStart, ChannelHTTP, StatusSuccess, time.Second)
	m.RecordLifecycleOperation(ctx, OperationStop, ChannelMCP, StatusError, 35*time.Second)

	data := collect(t, reader)
	if got := sumFor(t, data["game_server_operations_total"], attrOperation, OperationStart); got != 1 {
		t.Errorf("start operations = %d, want 1", got)
	}
	if got := sumFor(t, data["game_server_operations_total"], attrChannel, ChannelMCP); got != 1 {
		t.Errorf("mcp operations = %d, want 1", got)
	}
	if _, ok := data["game_server_operation_duration_seconds"].(metricdata.Histogram[float64]); !ok {
		t.Error("expected lifecycle duration histogram")
	}
}

func TestMetrics_RecordRCONCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("verb only", func(t *testing.T) {
		m, reader := newTestMetrics(t, false)
		m.RecordRCONCommand(ctx, "say hello world", "", "jane@example.com", 10*time.Millisecond)
		m.RecordRCONCommand(ctx, "list", "refused", "jane@example.com", time.Millisecond)

		data := collect(t, reader)
		total := data["rcon_commands_total"]
		if got := sumFor(t, total, attrCommand, "say"); got != 1 {
			t.Errorf("say commands = %d, want 1", got)
		}
		if got := sumFor(t, total, attrFailure, "refused"); got != 1 {
			t.Errorf("refused commands = %d, want 1", got)
		}
		if got := sumFor(t, total, attrDomain, "example.com"); got != 0 {
			t.Errorf("domain label present without detailed labels")
		}
	})

	t.Run("detailed labels", func(t *testing.T) {
		m, reader := newTestMetrics(t, true)
		m.RecordRCONCommand(ctx, "list", "", "jane@example.com", time.Millisecond)

		data := collect(t, reader)
		if got := sumFor(t, data["rcon_commands_total"], attrDomain, "example.com"); got != 1 {
			t.Errorf("domain-labelled commands = %d, want 1", got)
		}
	})
}

func TestMetrics_RecordRateLimitedAndOAuth(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordRateLimited(ctx, ChannelHTTP)
	m.RecordRateLimited(ctx, ChannelHTTP)
	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordOAuthAuth(ctx, OAuthResultReplay)
	m.RecordToolInvocation(ctx, "server_status", StatusSuccess, time.Millisecond)

	data := collect(t, reader)
	if got := sumFor(t, data["commands_rate_limited_total"], attrChannel, ChannelHTTP); got != 2 {
		t.Errorf("rate limited = %d, want 2", got)
	}
	if got := sumFor(t, data["oauth_auth_total"], attrResult, OAuthResultReplay); got != 1 {
		t.Errorf("replays = %d, want 1", got)
	}
	if got := sumFor(t, data["mcp_tool_invocations_total"], attrTool, "server_status"); got != 1 {
		t.Errorf("tool invocations = %d, want 1", got)
	}
}

func TestMetrics_ObserveServerUp(t *testing.T) {
	m, reader := newTestMetrics(t, false)

	up := true
	if err := m.ObserveServerUp(func(context.Context) bool { return up }); err != nil {
		t.Fatalf("ObserveServerUp: %v", err)
	}

	read := func() int64 {
		gauge, ok := collect(t, reader)["game_server_up"].(metricdata.Gauge[int64])
		if !ok || len(gauge.DataPoints) != 1 {
			t.Fatalf("unexpected gauge data: %#v", gauge)
		}
		return gauge.DataPoints[0].Value
	}

	if got := read(); got != 1 {
		t.Errorf("game_server_up = %d, want 1", got)
	}
	up = false
	if got := read(); got != 0 {
		t.Errorf("game_server_up = %d, want 0", got)
	}
}

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()
	m := &Metrics{}

	// none of these may panic
	m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	m.RecordLifecycleOperation(ctx, OperationStart, ChannelHTTP, StatusSuccess, time.Millisecond)
	m.RecordRCONCommand(ctx, "list", "", "", time.Millisecond)
	m.RecordRateLimited(ctx, ChannelHTTP)
	m.RecordOAuthAuth(ctx, OAuthResultFailure)
	m.RecordToolInvocation(ctx, "server_logs", StatusError, time.Millisecond)
	if err := m.ObserveServerUp(func(context.Context) bool { return true }); err != nil {
		t.Errorf("ObserveServerUp on zero Metrics: %v", err)
	}
}
