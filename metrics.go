package conproxy

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/JupiterMetaLabs/conproxy"

// MetricsInterceptor counts intercepted calls per console function and
// proceeds unchanged.
type MetricsInterceptor struct {
	calls metric.Int64Counter
}

// NewMetricsInterceptor creates the conproxy.calls counter on meter.
func NewMetricsInterceptor(meter metric.Meter) (*MetricsInterceptor, error) {
	calls, err := meter.Int64Counter(
		"conproxy.calls",
		metric.WithDescription("Number of intercepted console calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calls counter: %w", err)
	}
	return &MetricsInterceptor{calls: calls}, nil
}

// Invoke records the call and proceeds.
func (m *MetricsInterceptor) Invoke(inv *Invocation) any {
	ctx := argContext(inv.Args())
	if ctx == nil {
		ctx = context.Background()
	}
	m.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("fn", string(inv.Name()))))
	return inv.Proceed()
}

// argContext returns the first context.Context among args, or nil.
func argContext(args []any) context.Context {
	for _, a := range args {
		if ctx, ok := a.(context.Context); ok {
			return ctx
		}
	}
	return nil
}
