package conproxy

import (
	"sync"

	"go.uber.org/zap"
)

// Proxy wraps a console's functions and routes every call through an interceptor.
//
// Precedence per call: the function interceptor registered for the name, then
// the default interceptor, then the original function.
//
// A Proxy can also patch itself onto its target (EnableProxy) so that calls
// made directly against the target are observed as well. The original
// functions are snapshotted when the target is set, so a patched target never
// routes back into itself.
type Proxy struct {
	mu           sync.RWMutex
	target       *Console
	original     map[FuncName]*Func
	defaultIC    Interceptor
	interceptors map[FuncName]*registration

	// overwritten holds, per patched console, the slots EnableProxy replaced.
	overwritten map[*Console]map[FuncName]*Func

	// wrapped is fixed at construction and never mutated afterwards.
	wrapped map[FuncName]*Func
	names   []FuncName

	logger *zap.Logger
}

type registration struct {
	ic Interceptor
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithLogger sets the logger used for proxy diagnostics.
func WithLogger(l *zap.Logger) ProxyOption {
	return func(p *Proxy) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProxy creates a proxy over target. A nil target means Std().
//
// One wrapped function is created for every recognized name present on the
// target; names the target lacks are not exposed. ic becomes the default
// interceptor and may be nil, an InterceptorFunc, an Invoke object, or a
// partial Funcs table.
func NewProxy(target *Console, ic Interceptor, opts ...ProxyOption) *Proxy {
	if target == nil {
		target = Std()
	}

	p := &Proxy{
		interceptors: make(map[FuncName]*registration),
		overwritten:  make(map[*Console]map[FuncName]*Func),
		wrapped:      make(map[FuncName]*Func),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.target = target
	p.original = p.capture(target)

	for _, name := range fnNames {
		if s := p.original[name]; s == nil || *s == nil {
			continue
		}
		p.wrapped[name] = newSlot(p.dispatcher(name))
		p.names = append(p.names, name)
	}

	p.SetInterceptor(ic)
	return p
}

// capture snapshots target. A slot holding this proxy's own wrapped function
// is replaced by the function EnableProxy overwrote on that console, or
// dropped when none was recorded, so a patched target never becomes its own
// original.
func (p *Proxy) capture(target *Console) map[FuncName]*Func {
	snap := target.snapshot()
	prev := p.overwritten[target]
	for name, s := range snap {
		if w, ok := p.wrapped[name]; ok && w == s {
			if o := prev[name]; o != nil {
				snap[name] = o
			} else {
				delete(snap, name)
			}
		}
	}
	return snap
}

func (p *Proxy) dispatcher(name FuncName) Func {
	return func(args ...any) any {
		return p.dispatch(name, args)
	}
}

func (p *Proxy) dispatch(name FuncName, args []any) any {
	p.mu.RLock()
	target := p.target
	var fn Func
	if s := p.original[name]; s != nil {
		fn = *s
	}
	ic := p.defaultIC
	if reg, ok := p.interceptors[name]; ok {
		ic = reg.ic
	}
	p.mu.RUnlock()

	inv := &Invocation{
		target:  target,
		fn:      fn,
		name:    name,
		args:    args,
		proceed: callOriginal(fn),
	}
	if ic == nil {
		return inv.Proceed()
	}
	return ic.Invoke(inv)
}

// SetInterceptor replaces the default interceptor. Nil clears it.
func (p *Proxy) SetInterceptor(ic Interceptor) {
	if fns, ok := ic.(Funcs); ok && fns == nil {
		ic = nil
	}
	p.mu.Lock()
	p.defaultIC = ic
	p.mu.Unlock()
}

// SetFunctionInterceptor installs ic for calls to name and returns a function
// that removes exactly this registration. Names the proxy does not expose are
// accepted but never reached.
func (p *Proxy) SetFunctionInterceptor(name FuncName, ic Interceptor) (unregister func()) {
	reg := &registration{ic: ic}

	p.mu.Lock()
	p.interceptors[name] = reg
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		if p.interceptors[name] == reg {
			delete(p.interceptors, name)
		}
		p.mu.Unlock()
	}
}

// SetInterceptorFunction installs fn for calls to name. fn receives the raw
// call arguments. It fails with a *ConfigError when the current target has no
// function named name.
func (p *Proxy) SetInterceptorFunction(name FuncName, fn Func) (func(), error) {
	p.mu.RLock()
	_, ok := p.original[name]
	p.mu.RUnlock()
	if !ok {
		return nil, &ConfigError{Name: name}
	}

	return p.SetFunctionInterceptor(name, InterceptorFunc(func(inv *Invocation) any {
		return fn(inv.Args()...)
	})), nil
}

// Target returns the console the proxy currently wraps.
func (p *Proxy) Target() *Console {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.target
}

// SetTarget replaces the wrapped console and snapshots its functions.
// Registered interceptors and wrapped functions are kept.
func (p *Proxy) SetTarget(target *Console) {
	if target == nil {
		target = Std()
	}
	p.mu.Lock()
	p.target = target
	p.original = p.capture(target)
	p.mu.Unlock()

	p.logger.Debug("proxy target replaced", zap.Int("functions", len(p.names)))
}

// EnableProxy overwrites the target's slots with the proxy's wrapped functions
// and returns a function restoring them.
//
// Calling EnableProxy while already enabled changes nothing; the returned
// function is still valid. The returned function only restores while every
// wrapped slot is still in place, so calling it more than once, or after
// another party unpatched the target, is a no-op.
func (p *Proxy) EnableProxy() (disable func()) {
	p.mu.RLock()
	target := p.target
	saved := p.original
	p.mu.RUnlock()

	disable = func() {
		restored := false
		target.update(func(slots map[FuncName]*Func) {
			if !p.patched(slots) {
				return
			}
			for _, name := range p.names {
				if s, ok := saved[name]; ok {
					slots[name] = s
				} else {
					delete(slots, name)
				}
			}
			restored = true
		})
		if restored {
			p.mu.Lock()
			delete(p.overwritten, target)
			p.mu.Unlock()
			p.logger.Debug("proxy disabled", zap.Int("functions", len(p.names)))
		}
	}

	applied := false
	replaced := make(map[FuncName]*Func, len(p.names))
	target.update(func(slots map[FuncName]*Func) {
		if p.patched(slots) {
			return
		}
		for _, name := range p.names {
			cur := slots[name]
			if cur == p.wrapped[name] {
				cur = saved[name]
			}
			replaced[name] = cur
			slots[name] = p.wrapped[name]
		}
		applied = true
	})
	if applied {
		p.mu.Lock()
		p.overwritten[target] = replaced
		p.mu.Unlock()
		p.logger.Debug("proxy enabled", zap.Int("functions", len(p.names)))
	}

	return disable
}

// IsProxyEnabled reports whether every wrapped function is currently patched
// onto the target. Partial patching reports false. A proxy that wraps no
// functions always reports true.
func (p *Proxy) IsProxyEnabled() bool {
	enabled := false
	p.Target().view(func(slots map[FuncName]*Func) {
		enabled = p.patched(slots)
	})
	return enabled
}

func (p *Proxy) patched(slots map[FuncName]*Func) bool {
	for _, name := range p.names {
		if slots[name] != p.wrapped[name] {
			return false
		}
	}
	return true
}

// Names returns the names the proxy exposes, in their fixed order.
func (p *Proxy) Names() []FuncName {
	out := make([]FuncName, len(p.names))
	copy(out, p.names)
	return out
}

// Has reports whether the proxy exposes a wrapped function for name.
func (p *Proxy) Has(name FuncName) bool {
	_, ok := p.wrapped[name]
	return ok
}

// Func returns the wrapped function for name.
func (p *Proxy) Func(name FuncName) (Func, bool) {
	s, ok := p.wrapped[name]
	if !ok {
		return nil, false
	}
	return *s, true
}

// Call invokes the wrapped function for name. Names the proxy does not expose
// are a no-op returning nil.
func (p *Proxy) Call(name FuncName, args ...any) any {
	s, ok := p.wrapped[name]
	if !ok {
		return nil
	}
	return (*s)(args...)
}

// Console returns a console whose slots are the proxy's wrapped functions.
func (p *Proxy) Console() *Console {
	c := &Console{slots: make(map[FuncName]*Func, len(p.wrapped))}
	for name, s := range p.wrapped {
		c.slots[name] = s
	}
	return c
}

// Log calls the wrapped log function.
func (p *Proxy) Log(args ...any) any { return p.Call(FnLog, args...) }

// Info calls the wrapped info function.
func (p *Proxy) Info(args ...any) any { return p.Call(FnInfo, args...) }

// Warn calls the wrapped warn function.
func (p *Proxy) Warn(args ...any) any { return p.Call(FnWarn, args...) }

// Debug calls the wrapped debug function.
func (p *Proxy) Debug(args ...any) any { return p.Call(FnDebug, args...) }

// Error calls the wrapped error function.
func (p *Proxy) Error(args ...any) any { return p.Call(FnError, args...) }
