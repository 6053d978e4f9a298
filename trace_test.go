package conproxy

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpanEventInterceptor_RecordsEvent(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rec := &recorder{}
	target := newRecordedConsole(rec, FnError)
	p := NewProxy(target, NewSpanEventInterceptor())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	p.Error(ctx, "failed", 3)
	span.End()

	if rec.count(FnError) != 1 {
		t.Errorf("expected call to proceed, got %d", rec.count(FnError))
	}

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	events := ended[0].Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Name != "console.error" {
		t.Errorf("expected event console.error, got %s", events[0].Name)
	}

	var msg string
	for _, kv := range events[0].Attributes {
		if kv.Key == "console.message" {
			msg = kv.Value.AsString()
		}
	}
	if msg != "failed 3" {
		t.Errorf("expected message %q, got %q", "failed 3", msg)
	}
}

func TestSpanEventInterceptor_NoSpan(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnLog)
	p := NewProxy(target, NewSpanEventInterceptor())

	p.Log("no context")
	p.Log(context.Background(), "no span")

	if rec.count(FnLog) != 2 {
		t.Errorf("expected 2 calls, got %d", rec.count(FnLog))
	}
}
