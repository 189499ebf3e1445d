package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/craftpanel/internal/logging"
)

// TracerName is the default tracer name for the panel.
const TracerName = "github.com/teemow/craftpanel"

// Span attribute keys.
const (
	SpanAttrTool      = "mcp.tool"
	SpanAttrOperation = "panel.operation"
	SpanAttrChannel   = "panel.channel"
	SpanAttrUserHash  = "panel.user_hash"
	SpanAttrCommand   = "rcon.command"
	SpanAttrRCONAddr  = "rcon.address"
	SpanAttrFailure   = "rcon.failure"
	SpanAttrPID       = "process.pid"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 6),
	}
}

// WithChannel adds the request channel attribute.
func (b *SpanAttributeBuilder) WithChannel(channel string) *SpanAttributeBuilder {
	if channel != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrChannel, channel))
	}
	return b
}

// WithUser adds the anonymized user. The raw email never reaches a span.
func (b *SpanAttributeBuilder) WithUser(email string) *SpanAttributeBuilder {
	if email != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrUserHash, logging.AnonymizeEmail(email)))
	}
	return b
}

// WithCommand adds the console command verb.
func (b *SpanAttributeBuilder) WithCommand(command string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrCommand, CommandVerb(command)))
	return b
}

// WithPID adds the game server process ID.
func (b *SpanAttributeBuilder) WithPID(pid int) *SpanAttributeBuilder {
	if pid > 0 {
		b.attrs = append(b.attrs, attribute.Int(SpanAttrPID, pid))
	}
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a server span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartLifecycleSpan starts an internal span named server.<operation>.
func StartLifecycleSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrOperation, operation))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "server."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartRCONSpan starts a client span for one console round trip.
func StartRCONSpan(ctx context.Context, addr string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrRCONAddr, addr))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "rcon.execute",
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
