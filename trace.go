package conproxy

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NewSpanEventInterceptor returns an interceptor that records a
// "console.<name>" event on the recording span carried by a context.Context
// argument, then proceeds. Calls without such a span proceed untouched.
func NewSpanEventInterceptor() Interceptor {
	return InterceptorFunc(func(inv *Invocation) any {
		ctx := argContext(inv.Args())
		if ctx == nil {
			return inv.Proceed()
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return inv.Proceed()
		}

		e := splitArgs(inv.Args())
		span.AddEvent("console."+string(inv.Name()), trace.WithAttributes(
			attribute.String("console.fn", string(inv.Name())),
			attribute.String("console.message", e.msg),
		))
		return inv.Proceed()
	})
}
