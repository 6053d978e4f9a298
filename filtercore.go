package conproxy

import (
	"slices"

	"go.uber.org/zap/zapcore"
)

// filteringCore wraps a zapcore.Core and drops fields with the given keys.
// Console and file cores drop ctxKey; the OTEL core keeps it for the bridge.
type filteringCore struct {
	zapcore.Core
	drop []string
}

func newFilteringCore(core zapcore.Core, keys ...string) zapcore.Core {
	return &filteringCore{Core: core, drop: keys}
}

func (c *filteringCore) filter(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if !slices.Contains(c.drop, f.Key) {
			out = append(out, f)
		}
	}
	return out
}

func (c *filteringCore) With(fields []zapcore.Field) zapcore.Core {
	return &filteringCore{Core: c.Core.With(c.filter(fields)), drop: c.drop}
}

func (c *filteringCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *filteringCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(entry, c.filter(fields))
}

// levelEnforcer overrides a core's Enabled check with the sink's atomic
// level. The otelzap core defaults to its own minimum otherwise.
type levelEnforcer struct {
	zapcore.Core
	level zapcore.LevelEnabler
}

func (l *levelEnforcer) Enabled(lvl zapcore.Level) bool {
	return l.level.Enabled(lvl)
}

func (l *levelEnforcer) With(fields []zapcore.Field) zapcore.Core {
	return &levelEnforcer{Core: l.Core.With(fields), level: l.level}
}

func (l *levelEnforcer) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if l.Enabled(ent.Level) {
		return ce.AddCore(ent, l)
	}
	return ce
}
