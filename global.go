package conproxy

import "sync"

var (
	stdMu sync.RWMutex
	std   *Console
)

// Std returns the process-wide console. On first use it is backed by a sink
// built from Default().
func Std() *Console {
	stdMu.RLock()
	c := std
	stdMu.RUnlock()
	if c != nil {
		return c
	}

	stdMu.Lock()
	defer stdMu.Unlock()
	if std == nil {
		sink, _ := NewSink(Default())
		std = sink.Console()
	}
	return std
}

// SetStd replaces the process-wide console. Proxies, policies and templates
// created afterwards with a nil target bind to c.
func SetStd(c *Console) {
	stdMu.Lock()
	std = c
	stdMu.Unlock()
}

// swapStd installs c and returns the previous console without building the
// lazy default.
func swapStd(c *Console) *Console {
	stdMu.Lock()
	defer stdMu.Unlock()
	prev := std
	std = c
	return prev
}

// restoreStd puts prev back if cur is still installed.
func restoreStd(cur, prev *Console) {
	stdMu.Lock()
	if std == cur {
		std = prev
	}
	stdMu.Unlock()
}

// Log calls the process-wide console's log function.
func Log(args ...any) any { return Std().Call(FnLog, args...) }

// Info calls the process-wide console's info function.
func Info(args ...any) any { return Std().Call(FnInfo, args...) }

// Warn calls the process-wide console's warn function.
func Warn(args ...any) any { return Std().Call(FnWarn, args...) }

// Debug calls the process-wide console's debug function.
func Debug(args ...any) any { return Std().Call(FnDebug, args...) }

// Error calls the process-wide console's error function.
func Error(args ...any) any { return Std().Call(FnError, args...) }

// Call invokes the named function on the process-wide console.
func Call(name FuncName, args ...any) any { return Std().Call(name, args...) }
