package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrChannel   = "channel"
	attrResult    = "result"
	attrTool      = "tool"
	attrCommand   = "command"
	attrFailure   = "failure"
	attrDomain    = "user_domain"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	meter metric.Meter

	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Game server lifecycle metrics
	lifecycleOperationsTotal   metric.Int64Counter
	lifecycleOperationDuration metric.Float64Histogram

	// Console metrics
	rconCommandsTotal   metric.Int64Counter
	rconCommandDuration metric.Float64Histogram
	rateLimitedTotal    metric.Int64Counter

	// OAuth metrics
	oauthAuthTotal metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		meter:          meter,
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.lifecycleOperationsTotal, err = meter.Int64Counter(
		"game_server_operations_total",
		metric.WithDescription("Total number of game server start, stop and restart requests"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create game_server_operations_total counter: %w", err)
	}

	// Stop can take the full graceful plus forceful window.
	m.lifecycleOperationDuration, err = meter.Float64Histogram(
		"game_server_operation_duration_seconds",
		metric.WithDescription("Game server lifecycle operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 20.0, 30.0, 40.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create game_server_operation_duration_seconds histogram: %w", err)
	}

	m.rconCommandsTotal, err = meter.Int64Counter(
		"rcon_commands_total",
		metric.WithDescription("Total number of console commands sent over RCON"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rcon_commands_total counter: %w", err)
	}

	m.rconCommandDuration, err = meter.Float64Histogram(
		"rcon_command_duration_seconds",
		metric.WithDescription("RCON round trip duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rcon_command_duration_seconds histogram: %w", err)
	}

	m.rateLimitedTotal, err = meter.Int64Counter(
		"commands_rate_limited_total",
		metric.WithDescription("Total number of console commands rejected by the per-user cooldown"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create commands_rate_limited_total counter: %w", err)
	}

	m.oauthAuthTotal, err = meter.Int64Counter(
		"oauth_auth_total",
		metric.WithDescription("Total number of OAuth authentication attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_auth_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, route pattern, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordLifecycleOperation records a start, stop or restart.
//
// Parameters:
//   - operation: OperationStart, OperationStop or OperationRestart
//   - channel: ChannelHTTP, ChannelMCP or ChannelCLI
//   - status: "success" or "error"
func (m *Metrics) RecordLifecycleOperation(ctx context.Context, operation, channel, status string, duration time.Duration) {
	if m.lifecycleOperationsTotal == nil || m.lifecycleOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrChannel, channel),
		attribute.String(attrStatus, status),
	}

	m.lifecycleOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.lifecycleOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRCONCommand records one console round trip. failure is empty on
// success, otherwise "refused", "timeout" or "other".
func (m *Metrics) RecordRCONCommand(ctx context.Context, command, failure, user string, duration time.Duration) {
	if m.rconCommandsTotal == nil || m.rconCommandDuration == nil {
		return // Instrumentation not initialized
	}

	status := StatusSuccess
	if failure != "" {
		status = StatusError
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrCommand, CommandVerb(command)),
		attribute.String(attrStatus, status),
	}
	if failure != "" {
		attrs = append(attrs, attribute.String(attrFailure, failure))
	}
	if m.detailedLabels && user != "" {
		attrs = append(attrs, attribute.String(attrDomain, ExtractUserDomain(user)))
	}

	m.rconCommandsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.rconCommandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRateLimited counts a command rejected by the cooldown.
func (m *Metrics) RecordRateLimited(ctx context.Context, channel string) {
	if m.rateLimitedTotal == nil {
		return // Instrumentation not initialized
	}

	m.rateLimitedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrChannel, channel)))
}

// RecordOAuthAuth records an OAuth authentication attempt with result.
// Result should be one of the OAuthResult constants.
func (m *Metrics) RecordOAuthAuth(ctx context.Context, result string) {
	if m.oauthAuthTotal == nil {
		return // Instrumentation not initialized
	}

	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// ObserveServerUp registers the game_server_up gauge, which reports 1 while
// probe returns true. It is a no-op when instrumentation is disabled.
func (m *Metrics) ObserveServerUp(probe func(context.Context) bool) error {
	if m.meter == nil || probe == nil {
		return nil
	}

	_, err := m.meter.Int64ObservableGauge(
		"game_server_up",
		metric.WithDescription("Whether the managed game server process is running"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			var up int64
			if probe(ctx) {
				up = 1
			}
			o.Observe(up)
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create game_server_up gauge: %w", err)
	}
	return nil
}
