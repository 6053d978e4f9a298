package conproxy

import "sync"

// Func is a single console function.
// Arguments are handed through untouched; the return value is whatever the
// implementation chooses to return (usually nil).
type Func func(args ...any) any

// Funcs is a plain, possibly partial, console function table.
//
// Funcs also satisfies Interceptor: a name present in the table receives the
// invocation's raw arguments, every other name proceeds to the original.
type Funcs map[FuncName]Func

// Invoke forwards the invocation's arguments to the entry named by the call.
func (f Funcs) Invoke(inv *Invocation) any {
	if fn := f[inv.Name()]; fn != nil {
		return fn(inv.Args()...)
	}
	return inv.Proceed()
}

// Console is a live, mutable console function table.
//
// Each entry is held in a slot (*Func). Slot identity is function identity:
// two slots are the same function only when they are the same pointer.
// All methods are safe for concurrent use.
type Console struct {
	mu    sync.RWMutex
	slots map[FuncName]*Func
}

// NewConsole creates a console from the given functions. Nil entries are skipped.
func NewConsole(fns Funcs) *Console {
	c := &Console{slots: make(map[FuncName]*Func, len(fns))}
	for name, fn := range fns {
		if fn == nil {
			continue
		}
		c.slots[name] = newSlot(fn)
	}
	return c
}

func newSlot(fn Func) *Func {
	return &fn
}

// Slot returns the slot currently stored under name, or nil.
func (c *Console) Slot(name FuncName) *Func {
	c.mu.RLock()
	s := c.slots[name]
	c.mu.RUnlock()
	return s
}

// SetSlot stores slot under name. A nil slot removes the entry.
func (c *Console) SetSlot(name FuncName, slot *Func) {
	c.mu.Lock()
	if slot == nil {
		delete(c.slots, name)
	} else {
		c.slots[name] = slot
	}
	c.mu.Unlock()
}

// Set stores fn under name in a new slot. A nil fn removes the entry.
func (c *Console) Set(name FuncName, fn Func) {
	if fn == nil {
		c.SetSlot(name, nil)
		return
	}
	c.SetSlot(name, newSlot(fn))
}

// Delete removes the entry for name.
func (c *Console) Delete(name FuncName) {
	c.SetSlot(name, nil)
}

// Lookup returns the function stored under name.
func (c *Console) Lookup(name FuncName) (Func, bool) {
	s := c.Slot(name)
	if s == nil || *s == nil {
		return nil, false
	}
	return *s, true
}

// Has reports whether the console has a function named name.
func (c *Console) Has(name FuncName) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Names returns the recognized names present on the console, in their fixed order.
func (c *Console) Names() []FuncName {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]FuncName, 0, len(c.slots))
	for _, name := range fnNames {
		if s := c.slots[name]; s != nil && *s != nil {
			names = append(names, name)
		}
	}
	return names
}

// Call invokes the function currently stored under name.
// Calling a name the console does not have is a no-op returning nil.
func (c *Console) Call(name FuncName, args ...any) any {
	fn, ok := c.Lookup(name)
	if !ok {
		return nil
	}
	return fn(args...)
}

// Log calls the console's log function.
func (c *Console) Log(args ...any) any { return c.Call(FnLog, args...) }

// Info calls the console's info function.
func (c *Console) Info(args ...any) any { return c.Call(FnInfo, args...) }

// Warn calls the console's warn function.
func (c *Console) Warn(args ...any) any { return c.Call(FnWarn, args...) }

// Debug calls the console's debug function.
func (c *Console) Debug(args ...any) any { return c.Call(FnDebug, args...) }

// Error calls the console's error function.
func (c *Console) Error(args ...any) any { return c.Call(FnError, args...) }

// snapshot returns a shallow copy of the slot table.
func (c *Console) snapshot() map[FuncName]*Func {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[FuncName]*Func, len(c.slots))
	for name, s := range c.slots {
		out[name] = s
	}
	return out
}

// update runs fn with the slot table write-locked.
func (c *Console) update(fn func(slots map[FuncName]*Func)) {
	c.mu.Lock()
	fn(c.slots)
	c.mu.Unlock()
}

// view runs fn with the slot table read-locked.
func (c *Console) view(fn func(slots map[FuncName]*Func)) {
	c.mu.RLock()
	fn(c.slots)
	c.mu.RUnlock()
}
