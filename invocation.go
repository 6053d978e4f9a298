package conproxy

// Invocation describes one intercepted call. It is built fresh for every call
// and must not be retained after the interceptor returns.
type Invocation struct {
	target  *Console
	fn      Func
	name    FuncName
	args    []any
	proceed func(args []any) any
}

// Target returns the console the proxy wraps.
func (inv *Invocation) Target() *Console { return inv.target }

// Fn returns the original function captured when the target was snapshotted.
// It is nil when the snapshot has no entry for the name.
func (inv *Invocation) Fn() Func { return inv.fn }

// Name returns the name of the called function.
func (inv *Invocation) Name() FuncName { return inv.name }

// Args returns the arguments supplied by the caller.
func (inv *Invocation) Args() []any { return inv.args }

// Proceed replays the call against the original function with the caller's arguments.
func (inv *Invocation) Proceed() any {
	return inv.proceed(inv.args)
}

// ProceedWith replays the call with args in place of the caller's arguments.
func (inv *Invocation) ProceedWith(args ...any) any {
	if args == nil {
		args = []any{}
	}
	return inv.proceed(args)
}

// withArgs returns a copy of inv carrying args.
func (inv *Invocation) withArgs(args []any) *Invocation {
	c := *inv
	c.args = args
	return &c
}

// NewInvocation builds an invocation whose Proceed calls fn directly.
// It is intended for driving interceptors outside of a Proxy, for example in tests.
func NewInvocation(target *Console, name FuncName, fn Func, args ...any) *Invocation {
	return &Invocation{
		target:  target,
		fn:      fn,
		name:    name,
		args:    args,
		proceed: callOriginal(fn),
	}
}

func callOriginal(fn Func) func(args []any) any {
	return func(args []any) any {
		if fn == nil {
			return nil
		}
		return fn(args...)
	}
}

// Interceptor receives intercepted calls.
//
// There are two variants: InterceptorFunc for plain functions, and any type
// with an Invoke method (LevelPolicy, Funcs, MetricsInterceptor, ...).
type Interceptor interface {
	Invoke(inv *Invocation) any
}

// InterceptorFunc adapts an ordinary function to the Interceptor interface.
type InterceptorFunc func(inv *Invocation) any

// Invoke calls f(inv).
func (f InterceptorFunc) Invoke(inv *Invocation) any { return f(inv) }

// Chain composes interceptors. The first interceptor receives the call; its
// Proceed reaches the next one, and the last one's Proceed reaches the
// original function. Nil entries are skipped.
func Chain(interceptors ...Interceptor) Interceptor {
	ics := make([]Interceptor, 0, len(interceptors))
	for _, ic := range interceptors {
		if ic != nil {
			ics = append(ics, ic)
		}
	}
	return InterceptorFunc(func(inv *Invocation) any {
		return invokeAt(ics, 0, inv)
	})
}

func invokeAt(ics []Interceptor, i int, inv *Invocation) any {
	if i == len(ics) {
		return inv.Proceed()
	}
	next := inv.withArgs(inv.args)
	next.proceed = func(args []any) any {
		return invokeAt(ics, i+1, inv.withArgs(args))
	}
	return ics[i].Invoke(next)
}
