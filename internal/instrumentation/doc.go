// Package instrumentation provides OpenTelemetry instrumentation for the
// panel.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, route, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Game Server Metrics:
//   - game_server_up: Gauge, 1 while the managed process is alive
//   - game_server_operations_total: Counter of start/stop/restart by channel and status
//   - game_server_operation_duration_seconds: Histogram of lifecycle durations
//
// Console Metrics:
//   - rcon_commands_total: Counter of RCON round trips by command verb and failure kind
//   - rcon_command_duration_seconds: Histogram of RCON round trips
//   - commands_rate_limited_total: Counter of commands rejected by the cooldown
//
// OAuth and MCP Metrics:
//   - oauth_auth_total: Counter of login callbacks by result
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for lifecycle operations (server.<operation>), RCON
// round trips (rcon.execute) and MCP tools (tool.<name>). Spans carry the
// command verb and a user hash, never the raw email.
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: craftpanel)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordLifecycleOperation(ctx,
//		instrumentation.OperationStart, instrumentation.ChannelHTTP,
//		instrumentation.StatusSuccess, time.Since(start))
package instrumentation
