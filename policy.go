package conproxy

import (
	"fmt"
	"strings"
	"sync"
)

// Level is one of the five gated console levels.
type Level string

const (
	LevelLog   Level = "log"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelDebug Level = "debug"
	LevelError Level = "error"

	// LevelAll addresses every level at once in SetLevelEnabled.
	LevelAll Level = "all"
)

var levels = [...]Level{LevelLog, LevelInfo, LevelWarn, LevelDebug, LevelError}

// Levels returns the five gated levels in their fixed order.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels[:])
	return out
}

// ParseLevel converts a string to a Level. Matching is case-insensitive and
// accepts "warning" for warn; "all" is accepted as well.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "log":
		return LevelLog, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "debug":
		return LevelDebug, nil
	case "error":
		return LevelError, nil
	case "all":
		return LevelAll, nil
	default:
		return "", fmt.Errorf("conproxy: unknown level %q", s)
	}
}

func isLevel(l Level) bool {
	for _, lv := range levels {
		if lv == l {
			return true
		}
	}
	return false
}

// LevelPolicy is an Interceptor that gates the five level functions with
// on/off flags and lets every other function through.
//
// Enabled levels call the target's level function as it was when the policy
// was created; disabled levels drop the call and return nil.
// All levels start enabled. Safe for concurrent use.
type LevelPolicy struct {
	mu       sync.RWMutex
	enabled  map[Level]bool
	original map[FuncName]Func
}

// NewLevelPolicy creates a policy over target. A nil target means Std().
func NewLevelPolicy(target *Console) *LevelPolicy {
	if target == nil {
		target = Std()
	}
	lp := &LevelPolicy{
		enabled:  make(map[Level]bool, len(levels)),
		original: make(map[FuncName]Func, len(levels)),
	}
	for _, l := range levels {
		lp.enabled[l] = true
		if fn, ok := target.Lookup(FuncName(l)); ok {
			lp.original[FuncName(l)] = fn
		}
	}
	return lp
}

// Invoke gates level functions and proceeds with everything else.
func (lp *LevelPolicy) Invoke(inv *Invocation) any {
	level := Level(inv.Name())
	if !isLevel(level) {
		return inv.Proceed()
	}

	lp.mu.RLock()
	enabled := lp.enabled[level]
	fn := lp.original[inv.Name()]
	lp.mu.RUnlock()

	if !enabled || fn == nil {
		return nil
	}
	return fn(inv.Args()...)
}

// SetLevelEnabled switches one level, or every level when level is LevelAll.
// Unknown levels are ignored.
func (lp *LevelPolicy) SetLevelEnabled(level Level, enabled bool) {
	if level == LevelAll {
		lp.SetAllLevelsEnabled(enabled)
		return
	}
	if !isLevel(level) {
		return
	}
	lp.mu.Lock()
	lp.enabled[level] = enabled
	lp.mu.Unlock()
}

// SetAllLevelsEnabled switches every level to the same value at once.
func (lp *LevelPolicy) SetAllLevelsEnabled(enabled bool) {
	lp.mu.Lock()
	for _, l := range levels {
		lp.enabled[l] = enabled
	}
	lp.mu.Unlock()
}

// LevelEnabled reports whether level is enabled. LevelAll reports whether
// every level is enabled.
func (lp *LevelPolicy) LevelEnabled(level Level) bool {
	lp.mu.RLock()
	defer lp.mu.RUnlock()
	if level == LevelAll {
		for _, l := range levels {
			if !lp.enabled[l] {
				return false
			}
		}
		return true
	}
	return lp.enabled[level]
}

// Levels returns a copy of the current enablement flags.
func (lp *LevelPolicy) Levels() map[Level]bool {
	lp.mu.RLock()
	defer lp.mu.RUnlock()
	out := make(map[Level]bool, len(lp.enabled))
	for l, on := range lp.enabled {
		out[l] = on
	}
	return out
}
