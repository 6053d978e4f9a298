package conproxy

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadFunc is called after every reload attempt. err is nil on success.
type ReloadFunc func(cfg Config, err error)

// Watcher re-applies the disabled levels of a config file whenever it changes.
type Watcher struct {
	path     string
	policy   *LevelPolicy
	sink     *Sink
	logger   *zap.Logger
	onReload ReloadFunc
	debounce time.Duration

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	running bool
	closed  bool
	timer   *time.Timer
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for further changes before
// reloading. Default: 100ms
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadFunc registers a callback run after each reload attempt.
func WithReloadFunc(fn ReloadFunc) WatchOption {
	return func(w *Watcher) { w.onReload = fn }
}

// WithSink makes reloads also apply the config's minimum level to s.
func WithSink(s *Sink) WatchOption {
	return func(w *Watcher) { w.sink = s }
}

// WatchLevels creates a watcher over the config file at path. Call Start or
// StartAsync to begin watching and Stop to release it.
//
// The directory is watched instead of the file because editors often save by
// writing a temporary file and renaming it over the original.
func WatchLevels(path string, policy *LevelPolicy, logger *zap.Logger, opts ...WatchOption) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: config path is empty", ErrConfig)
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: nil level policy", ErrConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Watcher{
		path:     path,
		policy:   policy,
		logger:   logger,
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(
			fmt.Errorf("failed to watch directory %s: %w", dir, err),
			fsw.Close(),
		)
	}

	w.watcher = fsw
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w, nil
}

// WatchConfig watches path and applies reloads to the runtime's policy and sink.
func (r *Runtime) WatchConfig(path string, opts ...WatchOption) (*Watcher, error) {
	opts = append([]WatchOption{WithSink(r.sink)}, opts...)
	return WatchLevels(path, r.policy, r.sink.Logger().Named("conproxy"), opts...)
}

// Start watches until Stop is called. It blocks.
func (w *Watcher) Start() {
	if w.markRunning() {
		w.run()
	}
}

// StartAsync watches in a background goroutine and returns immediately.
func (w *Watcher) StartAsync() {
	if w.markRunning() {
		go w.run()
	}
}

func (w *Watcher) markRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.closed {
		return false
	}
	w.running = true
	return true
}

// Stop stops watching. A pending debounced reload is cancelled.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.cancel()
	w.running = false
	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}

// Reload reads the config file and applies it immediately.
func (w *Watcher) Reload() error {
	cfg, err := LoadConfig(w.path)
	if err == nil {
		err = cfg.ApplyLevels(w.policy)
	}
	if err == nil && w.sink != nil {
		w.sink.SetLevel(cfg.Level)
	}

	if err != nil {
		w.logger.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
	} else {
		w.logger.Info("config reloaded",
			zap.String("path", w.path),
			zap.Strings("disabled_levels", cfg.Levels.Disabled),
		)
	}
	if w.onReload != nil {
		w.onReload(cfg, err)
	}
	return err
}

func (w *Watcher) run() {
	filename := filepath.Base(w.path)
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", zap.String("path", w.path), zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	if filepath.Base(event.Name) != filename {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		_ = w.Reload()
	})
}
