package conproxy

// FuncName identifies one entry of a console function table.
type FuncName string

// Recognized console function names.
const (
	FnAssert         FuncName = "assert"
	FnClear          FuncName = "clear"
	FnCount          FuncName = "count"
	FnCountReset     FuncName = "countReset"
	FnDebug          FuncName = "debug"
	FnDir            FuncName = "dir"
	FnDirxml         FuncName = "dirxml"
	FnError          FuncName = "error"
	FnException      FuncName = "exception"
	FnGroup          FuncName = "group"
	FnGroupCollapsed FuncName = "groupCollapsed"
	FnGroupEnd       FuncName = "groupEnd"
	FnInfo           FuncName = "info"
	FnLog            FuncName = "log"
	FnProfile        FuncName = "profile"
	FnProfileEnd     FuncName = "profileEnd"
	FnTable          FuncName = "table"
	FnTime           FuncName = "time"
	FnTimeEnd        FuncName = "timeEnd"
	FnTimeLog        FuncName = "timeLog"
	FnTimeStamp      FuncName = "timeStamp"
	FnTrace          FuncName = "trace"
	FnWarn           FuncName = "warn"
)

// fnNames is the frozen, ordered list of recognized names.
// It is an array so it can only be handed out by copy.
var fnNames = [...]FuncName{
	FnAssert,
	FnClear,
	FnCount,
	FnCountReset,
	FnDebug,
	FnDir,
	FnDirxml,
	FnError,
	FnException,
	FnGroup,
	FnGroupCollapsed,
	FnGroupEnd,
	FnInfo,
	FnLog,
	FnProfile,
	FnProfileEnd,
	FnTable,
	FnTime,
	FnTimeEnd,
	FnTimeLog,
	FnTimeStamp,
	FnTrace,
	FnWarn,
}

var logFnNames = [...]FuncName{FnLog, FnInfo, FnWarn, FnDebug, FnError}

// FuncNames returns the recognized console function names in their fixed order.
// Each call returns a fresh slice.
func FuncNames() []FuncName {
	out := make([]FuncName, len(fnNames))
	copy(out, fnNames[:])
	return out
}

// LogFuncNames returns the five level functions: log, info, warn, debug, error.
func LogFuncNames() []FuncName {
	out := make([]FuncName, len(logFnNames))
	copy(out, logFnNames[:])
	return out
}

// Known reports whether n is one of the recognized console function names.
func (n FuncName) Known() bool {
	for _, fn := range fnNames {
		if fn == n {
			return true
		}
	}
	return false
}
