package conproxy

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"

	internalotel "github.com/JupiterMetaLabs/conproxy/internal/otel"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLabel = "default"

// Warning represents a non-fatal initialization issue.
// Construction falls back to a working sink instead of failing when an
// optional component (like OTEL export) cannot be initialized.
type Warning struct {
	Component string // "otel", "metrics"
	Err       error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Component, w.Err)
}

// Sink is a zap-backed implementation of every recognized console function.
//
// Plain arguments are joined into the message, Field arguments become
// structured fields and a context.Context argument adds trace correlation.
//
//	sink, warnings := conproxy.NewSink(conproxy.Default())
//	console := sink.Console()
//	console.Info("user logged in", conproxy.Int("user_id", 42))
type Sink struct {
	logger       *zap.Logger
	level        zap.AtomicLevel
	clock        zapcore.Clock
	otelProvider *internalotel.LogProvider

	mu     sync.Mutex
	counts map[string]int
	timers map[string]time.Time
	groups []string
}

// NewSink builds a sink from cfg. It always returns a working sink; OTEL
// failures are reported as warnings and the sink runs without export.
func NewSink(cfg Config) (*Sink, []Warning) {
	var warnings []Warning

	level := zap.NewAtomicLevelAt(parseZapLevel(cfg.Level))

	var (
		otelCore zapcore.Core
		provider *internalotel.LogProvider
	)
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		p, err := internalotel.SetupLogProvider(internalotel.LogConfig{
			ExporterConfig: internalotel.ExporterConfig{
				Endpoint: cfg.OTEL.Endpoint,
				Protocol: cfg.OTEL.Protocol,
				Insecure: cfg.OTEL.Insecure,
				Username: cfg.OTEL.Username,
				Password: cfg.OTEL.Password,
				Headers:  cfg.OTEL.Headers,
				Timeout:  cfg.OTEL.Timeout,
			},
			Attributes:     cfg.OTEL.Attributes,
			BatchSize:      cfg.OTEL.BatchSize,
			ExportInterval: cfg.OTEL.ExportInterval,
		}, cfg.ServiceName, cfg.Version)
		if err != nil {
			warnings = append(warnings, Warning{
				Component: "otel",
				Err:       fmt.Errorf("failed to init OTEL logs: %w (export disabled)", err),
			})
		} else if p != nil {
			provider = p
			otelCore = otelzap.NewCore(cfg.ServiceName, otelzap.WithLoggerProvider(p.LoggerProvider()))
		}
	}

	s := newSink(buildCore(cfg, level, otelCore), level, zapcore.DefaultClock, buildZapOptions(cfg)...)
	s.otelProvider = provider
	return s, warnings
}

func newSink(core zapcore.Core, level zap.AtomicLevel, clock zapcore.Clock, opts ...zap.Option) *Sink {
	if clock == nil {
		clock = zapcore.DefaultClock
	}
	opts = append(opts, zap.WithClock(clock))
	return &Sink{
		logger: zap.New(core, opts...),
		level:  level,
		clock:  clock,
		counts: make(map[string]int),
		timers: make(map[string]time.Time),
	}
}

// Logger returns the underlying zap logger.
func (s *Sink) Logger() *zap.Logger { return s.logger }

// SetLevel changes the minimum sink level at runtime.
func (s *Sink) SetLevel(level string) {
	s.level.SetLevel(parseZapLevel(level))
}

// GetLevel returns the current minimum sink level.
func (s *Sink) GetLevel() string {
	return s.level.Level().String()
}

// Sync flushes buffered output.
func (s *Sink) Sync() error {
	return s.logger.Sync()
}

// Shutdown flushes output and stops OTEL export.
func (s *Sink) Shutdown(ctx context.Context) error {
	_ = s.logger.Sync()
	return s.otelProvider.Shutdown(ctx)
}

// Console returns a new console backed by the sink.
func (s *Sink) Console() *Console {
	return NewConsole(s.Funcs())
}

// Funcs returns the sink's implementation of all recognized console functions.
func (s *Sink) Funcs() Funcs {
	return Funcs{
		FnAssert:         s.assert,
		FnClear:          s.clear,
		FnCount:          s.count,
		FnCountReset:     s.countReset,
		FnDebug:          s.at(zapcore.DebugLevel),
		FnDir:            s.dir,
		FnDirxml:         s.dir,
		FnError:          s.at(zapcore.ErrorLevel),
		FnException:      s.at(zapcore.ErrorLevel),
		FnGroup:          s.group,
		FnGroupCollapsed: s.group,
		FnGroupEnd:       s.groupEnd,
		FnInfo:           s.at(zapcore.InfoLevel),
		FnLog:            s.at(zapcore.InfoLevel),
		FnProfile:        s.marker("profile started"),
		FnProfileEnd:     s.marker("profile ended"),
		FnTable:          s.dir,
		FnTime:           s.time,
		FnTimeEnd:        s.timeEnd,
		FnTimeLog:        s.timeLog,
		FnTimeStamp:      s.marker("timestamp"),
		FnTrace:          s.trace,
		FnWarn:           s.at(zapcore.WarnLevel),
	}
}

func (s *Sink) emit(lvl zapcore.Level, e entry, extra ...zap.Field) {
	ce := s.logger.Check(lvl, e.msg)
	if ce == nil {
		return
	}
	fields := make([]zap.Field, 0, len(e.fields)+len(extra)+1)
	if g := s.groupPath(); g != "" {
		fields = append(fields, zap.String("group", g))
	}
	fields = append(fields, extra...)
	fields = append(fields, e.fields...)
	ce.Write(fields...)
}

func (s *Sink) at(lvl zapcore.Level) Func {
	return func(args ...any) any {
		s.emit(lvl, splitArgs(args))
		return nil
	}
}

func (s *Sink) trace(args ...any) any {
	e := splitArgs(args)
	if e.msg == "" {
		e.msg = "trace"
	}
	s.emit(zapcore.DebugLevel, e, zap.StackSkip("stacktrace", 2))
	return nil
}

func (s *Sink) assert(args ...any) any {
	if len(args) > 0 && truthy(args[0]) {
		return nil
	}
	var rest []any
	if len(args) > 1 {
		rest = args[1:]
	}
	e := splitArgs(rest)
	if e.msg == "" {
		e.msg = "Assertion failed"
	} else {
		e.msg = "Assertion failed: " + e.msg
	}
	s.emit(zapcore.ErrorLevel, e)
	return nil
}

func (s *Sink) clear(...any) any { return nil }

func (s *Sink) count(args ...any) any {
	label, rest := splitLabel(args)
	s.mu.Lock()
	s.counts[label]++
	n := s.counts[label]
	s.mu.Unlock()

	e := splitArgs(rest)
	e.msg = joinMsg(fmt.Sprintf("%s: %d", label, n), e.msg)
	s.emit(zapcore.InfoLevel, e, zap.String("label", label), zap.Int("count", n))
	return nil
}

func (s *Sink) countReset(args ...any) any {
	label, _ := splitLabel(args)
	s.mu.Lock()
	_, ok := s.counts[label]
	if ok {
		s.counts[label] = 0
	}
	s.mu.Unlock()

	if !ok {
		s.emit(zapcore.WarnLevel, entry{msg: fmt.Sprintf("Count for '%s' does not exist", label)})
	}
	return nil
}

func (s *Sink) time(args ...any) any {
	label, _ := splitLabel(args)
	s.mu.Lock()
	_, exists := s.timers[label]
	if !exists {
		s.timers[label] = s.clock.Now()
	}
	s.mu.Unlock()

	if exists {
		s.emit(zapcore.WarnLevel, entry{msg: fmt.Sprintf("Timer '%s' already exists", label)})
	}
	return nil
}

func (s *Sink) timeLog(args ...any) any {
	s.elapsed(false, args)
	return nil
}

func (s *Sink) timeEnd(args ...any) any {
	s.elapsed(true, args)
	return nil
}

func (s *Sink) elapsed(end bool, args []any) {
	label, rest := splitLabel(args)
	now := s.clock.Now()

	s.mu.Lock()
	start, ok := s.timers[label]
	if ok && end {
		delete(s.timers, label)
	}
	s.mu.Unlock()

	if !ok {
		s.emit(zapcore.WarnLevel, entry{msg: fmt.Sprintf("Timer '%s' does not exist", label)})
		return
	}

	d := now.Sub(start)
	e := splitArgs(rest)
	e.msg = joinMsg(fmt.Sprintf("%s: %s", label, d), e.msg)
	s.emit(zapcore.InfoLevel, e, zap.String("label", label), zap.Duration("duration", d))
}

func (s *Sink) group(args ...any) any {
	e := splitArgs(args)
	label := e.msg
	if label == "" {
		label = "group"
	} else {
		s.emit(zapcore.InfoLevel, e)
	}
	s.mu.Lock()
	s.groups = append(s.groups, label)
	s.mu.Unlock()
	return nil
}

func (s *Sink) groupEnd(...any) any {
	s.mu.Lock()
	if n := len(s.groups); n > 0 {
		s.groups = s.groups[:n-1]
	}
	s.mu.Unlock()
	return nil
}

func (s *Sink) groupPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.groups, " > ")
}

func (s *Sink) dir(args ...any) any {
	if len(args) == 0 {
		return nil
	}
	e := splitArgs(args[1:])
	s.emit(zapcore.InfoLevel, e, zap.Any("value", args[0]))
	return nil
}

func (s *Sink) marker(prefix string) Func {
	return func(args ...any) any {
		label, rest := splitLabel(args)
		e := splitArgs(rest)
		e.msg = joinMsg(prefix+": "+label, e.msg)
		s.emit(zapcore.DebugLevel, e, zap.String("label", label))
		return nil
	}
}

// splitLabel takes a leading string argument as the label.
func splitLabel(args []any) (string, []any) {
	if len(args) > 0 {
		if l, ok := args[0].(string); ok {
			return l, args[1:]
		}
	}
	return defaultLabel, args
}

func joinMsg(head, tail string) string {
	if tail == "" {
		return head
	}
	return head + " " + tail
}

// truthy reports whether v counts as a passing assertion condition: nil,
// false, zero numbers and empty strings fail.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}
