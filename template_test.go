package conproxy

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTemplate_ExecFnPatchesForTheCall(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnLog)
	orig := target.Slot(FnLog)

	intercepted := 0
	p := NewProxy(target, InterceptorFunc(func(inv *Invocation) any {
		intercepted++
		return inv.Proceed()
	}))
	tmpl := NewTemplate(p)

	res, err := tmpl.ExecFn(func(recv any, args ...any) (any, error) {
		if !p.IsProxyEnabled() {
			t.Error("expected proxy enabled inside ExecFn")
		}
		target.Log(args...)
		return recv, nil
	}, "receiver", "x")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "receiver" {
		t.Errorf("expected receiver to be forwarded, got %v", res)
	}
	if intercepted != 1 || rec.count(FnLog) != 1 {
		t.Errorf("expected 1 intercepted call, got %d (%d original)", intercepted, rec.count(FnLog))
	}
	if p.IsProxyEnabled() || target.Slot(FnLog) != orig {
		t.Error("expected target restored after ExecFn")
	}
}

func TestTemplate_RestoresOnError(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnLog)
	orig := target.Slot(FnLog)

	tmpl := NewTemplate(NewProxy(target, nil))
	errBoom := errors.New("boom")

	_, err := tmpl.ExecFn(func(any, ...any) (any, error) {
		return nil, errBoom
	}, nil)

	if !errors.Is(err, errBoom) {
		t.Errorf("expected boom, got %v", err)
	}
	if target.Slot(FnLog) != orig {
		t.Error("expected target restored after error")
	}
}

func TestTemplate_RestoresOnPanic(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnLog)
	orig := target.Slot(FnLog)
	p := NewProxy(target, nil)
	tmpl := NewTemplate(p)

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("expected panic boom, got %v", r)
			}
		}()
		_ = tmpl.Do(func() error { panic("boom") })
	}()

	if p.IsProxyEnabled() {
		t.Error("expected proxy disabled after panic")
	}
	if target.Slot(FnLog) != orig {
		t.Error("expected target restored after panic")
	}
}

func TestTemplate_NestedPatchesOnce(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnLog)
	orig := target.Slot(FnLog)

	var events []string
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewProxy(target, nil, WithLogger(zap.New(core)))
	tmpl := NewTemplate(p)

	observe := func(stage string) {
		if p.IsProxyEnabled() {
			events = append(events, stage+":patched")
		} else {
			events = append(events, stage+":unpatched")
		}
	}

	observe("before")
	err := tmpl.Do(func() error {
		observe("outer")
		patchedSlot := target.Slot(FnLog)
		err := tmpl.Do(func() error {
			observe("inner")
			if target.Slot(FnLog) != patchedSlot {
				t.Error("expected inner call to reuse the outer patch")
			}
			return nil
		})
		observe("after-inner")
		return err
	})
	observe("after")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"before:unpatched", "outer:patched", "inner:patched", "after-inner:patched", "after:unpatched"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
	if target.Slot(FnLog) != orig {
		t.Error("expected original slot restored")
	}
	if n := logs.FilterMessage("proxy enabled").Len(); n != 1 {
		t.Errorf("expected 1 patch, got %d", n)
	}
	if n := logs.FilterMessage("proxy disabled").Len(); n != 1 {
		t.Errorf("expected 1 unpatch, got %d", n)
	}
}

func TestTemplate_AlreadyEnabledLeavesPatch(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnLog)
	p := NewProxy(target, nil)
	disable := p.EnableProxy()
	defer disable()

	tmpl := NewTemplate(p)
	if _, err := tmpl.ExecFn(func(any, ...any) (any, error) { return nil, nil }, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsProxyEnabled() {
		t.Error("expected an outer patch to survive ExecFn")
	}
}

func TestTemplate_WrapFn(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnWarn)

	intercepted := 0
	p := NewProxy(target, InterceptorFunc(func(inv *Invocation) any {
		intercepted++
		return inv.Proceed()
	}))
	tmpl := NewTemplate(p)

	type service struct{ name string }
	wrapped := tmpl.WrapFn(func(recv any, args ...any) (any, error) {
		s := recv.(*service)
		target.Warn(s.name, args[0])
		return s.name + "!", nil
	})

	svc := &service{name: "svc"}
	for i := 0; i < 2; i++ {
		res, err := wrapped(svc, i)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res != "svc!" {
			t.Errorf("expected svc!, got %v", res)
		}
	}

	if intercepted != 2 {
		t.Errorf("expected 2 intercepted calls, got %d", intercepted)
	}
	if p.IsProxyEnabled() {
		t.Error("expected proxy disabled between calls")
	}
}
