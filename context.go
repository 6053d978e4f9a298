package conproxy

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey is an unexported type for context keys defined in this package.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	traceIDKey   contextKey = "trace_id"
)

// ctxKey carries the context.Context through zap so the otelzap bridge can
// correlate records with the active span. filteringCore strips it from
// console and file output.
const ctxKey = "__conproxy_ctx__"

// WithRequestID adds a request ID to the context. Console calls that pass the
// context as an argument include it in the sink's entry.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithTraceID adds a trace ID to the context for callers without OTEL spans.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// contextZapFields pulls trace/span IDs and the request ID out of ctx.
func contextZapFields(ctx context.Context) []zap.Field {
	if ctx == nil || ctx == context.Background() || ctx == context.TODO() {
		return nil
	}

	fields := make([]zap.Field, 0, 4)

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	} else if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}

	if reqID, ok := ctx.Value(requestIDKey).(string); ok && reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}

	return append(fields, zap.Reflect(ctxKey, ctx))
}
