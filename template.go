package conproxy

// Method is a function with an explicit receiver. The receiver is passed as a
// parameter rather than bound, so wrappers can forward it unchanged.
type Method func(recv any, args ...any) (any, error)

// Template runs functions with a proxy patched onto its target for the
// duration of the call.
//
// Nested executions only patch once: an inner call that finds the proxy
// already enabled runs its body directly, and only the outermost call
// restores the target.
type Template struct {
	proxy *Proxy
}

// NewTemplate creates a template for p.
func NewTemplate(p *Proxy) *Template {
	return &Template{proxy: p}
}

// Proxy returns the proxy the template patches.
func (t *Template) Proxy() *Proxy { return t.proxy }

// ExecFn calls fn(recv, args...) with the proxy enabled and returns its result.
// The target is restored on every exit path, including a panic; errors and
// panics from fn reach the caller unchanged.
func (t *Template) ExecFn(fn Method, recv any, args ...any) (any, error) {
	if t.proxy.IsProxyEnabled() {
		return fn(recv, args...)
	}
	disable := t.proxy.EnableProxy()
	defer disable()
	return fn(recv, args...)
}

// WrapFn returns a Method that runs fn through ExecFn on every call.
func (t *Template) WrapFn(fn Method) Method {
	return func(recv any, args ...any) (any, error) {
		return t.ExecFn(fn, recv, args...)
	}
}

// Do runs fn with the proxy enabled. It is the closure form of ExecFn.
func (t *Template) Do(fn func() error) error {
	_, err := t.ExecFn(func(any, ...any) (any, error) {
		return nil, fn()
	}, nil)
	return err
}
