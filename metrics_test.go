package conproxy

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectCalls(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "conproxy.calls" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("expected Sum[int64], got %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				fn, _ := dp.Attributes.Value(attribute.Key("fn"))
				out[fn.AsString()] = dp.Value
			}
		}
	}
	return out
}

func TestMetricsInterceptor_CountsPerFunction(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	mi, err := NewMetricsInterceptor(mp.Meter(meterName))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := &recorder{}
	target := newRecordedConsole(rec, FnLog, FnWarn)
	p := NewProxy(target, mi)

	p.Log("a")
	p.Log("b")
	p.Warn(context.Background(), "c")

	counts := collectCalls(t, reader)
	if counts["log"] != 2 {
		t.Errorf("expected 2 log calls, got %d", counts["log"])
	}
	if counts["warn"] != 1 {
		t.Errorf("expected 1 warn call, got %d", counts["warn"])
	}
	if rec.count(FnLog) != 2 || rec.count(FnWarn) != 1 {
		t.Errorf("expected calls to proceed, got log=%d warn=%d", rec.count(FnLog), rec.count(FnWarn))
	}
}

func TestMetricsInterceptor_CountsDroppedCalls(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	mi, err := NewMetricsInterceptor(mp.Meter(meterName))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := &recorder{}
	target := newRecordedConsole(rec, FnDebug)
	lp := NewLevelPolicy(target)
	lp.SetLevelEnabled(LevelDebug, false)

	p := NewProxy(target, Chain(mi, lp))
	p.Debug("hidden")

	if got := collectCalls(t, reader)["debug"]; got != 1 {
		t.Errorf("expected the call to be counted before the policy drops it, got %d", got)
	}
	if rec.count(FnDebug) != 0 {
		t.Errorf("expected debug dropped, got %d calls", rec.count(FnDebug))
	}
}
