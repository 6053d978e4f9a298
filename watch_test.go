package conproxy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestWatchLevels_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	writeConfig(t, path, "levels:\n  disabled: [debug]\n")

	lp := NewLevelPolicy(NewConsole(Funcs{}))
	s, _, _ := newObservedSink(t)
	core, logs := observer.New(zapcore.InfoLevel)

	w, err := WatchLevels(path, lp, zap.New(core), WithSink(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = w.Stop() }()

	if err := w.Reload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lp.LevelEnabled(LevelDebug) {
		t.Error("expected debug disabled after reload")
	}
	if s.GetLevel() != "info" {
		t.Errorf("expected sink level info, got %s", s.GetLevel())
	}
	if logs.FilterMessage("config reloaded").Len() != 1 {
		t.Error("expected a reload log entry")
	}

	writeConfig(t, path, "level: error\nlevels:\n  disabled: [bogus]\n")
	if err := w.Reload(); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
	if lp.LevelEnabled(LevelDebug) {
		t.Error("expected a failed reload to keep the previous state")
	}
	if s.GetLevel() != "info" {
		t.Errorf("expected a failed reload to keep the sink level, got %s", s.GetLevel())
	}
	if logs.FilterMessage("config reload failed").Len() != 1 {
		t.Error("expected a failure log entry")
	}
}

func TestWatchLevels_FileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	writeConfig(t, path, "level: info\n")

	lp := NewLevelPolicy(NewConsole(Funcs{}))
	reloaded := make(chan error, 8)

	w, err := WatchLevels(path, lp, nil,
		WithDebounce(20*time.Millisecond),
		WithReloadFunc(func(_ Config, err error) {
			select {
			case reloaded <- err:
			default:
			}
		}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.StartAsync()
	defer func() { _ = w.Stop() }()

	writeConfig(t, path, "levels:\n  disabled: [warn, error]\n")

	// A write can surface as several events; wait for the reload that saw
	// the complete file.
	deadline := time.After(5 * time.Second)
	for lp.LevelEnabled(LevelWarn) {
		select {
		case err := <-reloaded:
			if err != nil {
				t.Fatalf("unexpected reload error: %v", err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}

	if lp.LevelEnabled(LevelWarn) || lp.LevelEnabled(LevelError) {
		t.Error("expected warn and error disabled")
	}
	if !lp.LevelEnabled(LevelInfo) {
		t.Error("expected info enabled")
	}
}

func TestWatchLevels_InvalidArgs(t *testing.T) {
	if _, err := WatchLevels("", NewLevelPolicy(NewConsole(Funcs{})), nil); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig for empty path, got %v", err)
	}
	if _, err := WatchLevels("console.yaml", nil, nil); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig for nil policy, got %v", err)
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "console.yaml")
	writeConfig(t, path, "")

	w, err := WatchLevels(path, NewLevelPolicy(NewConsole(Funcs{})), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.StartAsync()
	w.StartAsync()

	if err := w.Stop(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("expected second Stop to be a no-op, got %v", err)
	}
}
