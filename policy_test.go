package conproxy

import (
	"testing"
)

func TestLevelPolicy_DisabledLevelDropsCall(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnLog, FnInfo, FnWarn, FnDebug, FnError)

	lp := NewLevelPolicy(target)
	lp.SetLevelEnabled(LevelWarn, false)

	inv := NewInvocation(target, FnWarn, rec.fn(FnWarn), "dropped")
	if got := lp.Invoke(inv); got != nil {
		t.Errorf("expected nil result, got %v", got)
	}
	if len(rec.calls) != 0 {
		t.Errorf("expected no calls, got %d", len(rec.calls))
	}
}

func TestLevelPolicy_EnabledLevelCallsSnapshot(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnInfo)
	lp := NewLevelPolicy(target)

	// Replacing the live slot after construction does not change what the
	// policy calls.
	target.Set(FnInfo, func(...any) any {
		t.Error("policy should call the snapshotted function")
		return nil
	})

	proceeded := false
	inv := NewInvocation(target, FnInfo, func(...any) any {
		proceeded = true
		return nil
	}, "a", 1)
	lp.Invoke(inv)

	if proceeded {
		t.Error("expected policy not to proceed for a gated level")
	}
	if rec.count(FnInfo) != 1 {
		t.Fatalf("expected 1 call, got %d", rec.count(FnInfo))
	}
	if args := rec.calls[0].args; len(args) != 2 || args[0] != "a" || args[1] != 1 {
		t.Errorf("expected args [a 1], got %v", args)
	}
}

func TestLevelPolicy_ReturnsOriginalResult(t *testing.T) {
	target := NewConsole(Funcs{FnError: func(...any) any { return 42 }})
	lp := NewLevelPolicy(target)

	if got := lp.Invoke(NewInvocation(target, FnError, nil)); got != 42 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestLevelPolicy_OtherNamesProceed(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnTable)
	lp := NewLevelPolicy(target)
	lp.SetAllLevelsEnabled(false)

	inv := NewInvocation(target, FnTable, rec.fn(FnTable), "row")
	lp.Invoke(inv)

	if rec.count(FnTable) != 1 {
		t.Errorf("expected table to proceed, got %d calls", rec.count(FnTable))
	}
}

func TestLevelPolicy_MissingLevelFunction(t *testing.T) {
	target := NewConsole(Funcs{})
	lp := NewLevelPolicy(target)

	if got := lp.Invoke(NewInvocation(target, FnDebug, nil, "x")); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestLevelPolicy_Toggles(t *testing.T) {
	lp := NewLevelPolicy(NewConsole(Funcs{}))

	for _, l := range Levels() {
		if !lp.LevelEnabled(l) {
			t.Errorf("expected %s enabled by default", l)
		}
	}
	if !lp.LevelEnabled(LevelAll) {
		t.Error("expected all levels enabled by default")
	}

	lp.SetLevelEnabled(LevelAll, false)
	for _, l := range Levels() {
		if lp.LevelEnabled(l) {
			t.Errorf("expected %s disabled", l)
		}
	}

	lp.SetLevelEnabled(LevelError, true)
	if !lp.LevelEnabled(LevelError) {
		t.Error("expected error enabled")
	}
	if lp.LevelEnabled(LevelWarn) || lp.LevelEnabled(LevelAll) {
		t.Error("expected only error enabled")
	}

	lp.SetLevelEnabled(Level("verbose"), true)
	if len(lp.Levels()) != len(Levels()) {
		t.Errorf("expected unknown level to be ignored, got %v", lp.Levels())
	}

	lp.SetAllLevelsEnabled(true)
	if !lp.LevelEnabled(LevelAll) {
		t.Error("expected all levels enabled")
	}
}

func TestLevelPolicy_ThroughProxy(t *testing.T) {
	rec := &recorder{}
	target := newRecordedConsole(rec, FnLog, FnDebug, FnCount)

	lp := NewLevelPolicy(target)
	p := NewProxy(target, lp)
	disable := p.EnableProxy()
	defer disable()

	lp.SetLevelEnabled(LevelDebug, false)
	target.Debug("hidden")
	target.Log("shown")
	target.Call(FnCount, "c")

	if rec.count(FnDebug) != 0 {
		t.Errorf("expected debug dropped, got %d calls", rec.count(FnDebug))
	}
	if rec.count(FnLog) != 1 || rec.count(FnCount) != 1 {
		t.Errorf("expected log and count to pass, got %d and %d", rec.count(FnLog), rec.count(FnCount))
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"log", LevelLog, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" debug ", LevelDebug, false},
		{"error", LevelError, false},
		{"all", LevelAll, false},
		{"trace", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q): expected error=%v, got %v", tt.in, tt.wantErr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
