package conproxy

import (
	"context"
	"errors"
	"fmt"

	internalotel "github.com/JupiterMetaLabs/conproxy/internal/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Runtime is the process-wide console stack assembled from a Config: a sink
// installed as Std(), a level policy and a proxy patched onto Std() that runs
// every call through metrics, span events and the policy.
//
// Example:
//
//	rt, warnings, err := conproxy.Setup(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, w := range warnings {
//	    log.Printf("conproxy warning: %v", w)
//	}
//	defer rt.Shutdown(context.Background())
//
//	conproxy.Info("started")            // routed through the proxy
//	rt.Policy().SetLevelEnabled(conproxy.LevelDebug, false)
type Runtime struct {
	sink          *Sink
	console       *Console
	policy        *LevelPolicy
	proxy         *Proxy
	template      *Template
	meterProvider *internalotel.MeterProvider
	tracer        *internalotel.TracerProvider
	disable       func()
	prevStd       *Console
}

// Setup builds the sink, installs it as Std() and patches a proxy onto it.
//
// Returns:
//   - *Runtime: always usable when err is nil (optional exporters may be off)
//   - []Warning: non-fatal issues (e.g. OTEL export could not be initialized)
//   - error: invalid configuration, wrapping ErrConfig
func Setup(cfg Config) (*Runtime, []Warning, error) {
	sink, warnings := NewSink(cfg)
	console := sink.Console()

	policy := NewLevelPolicy(console)
	if err := cfg.ApplyLevels(policy); err != nil {
		_ = sink.Shutdown(context.Background())
		return nil, warnings, err
	}

	var mp *internalotel.MeterProvider
	if cfg.Metrics.Enabled && cfg.Metrics.Endpoint != "" {
		p, err := internalotel.SetupMeterProvider(internalotel.MeterConfig{
			ExporterConfig: internalotel.ExporterConfig{
				Endpoint: cfg.Metrics.Endpoint,
				Protocol: cfg.Metrics.Protocol,
				Insecure: cfg.Metrics.Insecure,
				Username: cfg.Metrics.Username,
				Password: cfg.Metrics.Password,
				Headers:  cfg.Metrics.Headers,
				Timeout:  cfg.Metrics.Timeout,
			},
			Interval: cfg.Metrics.Interval,
		}, cfg.ServiceName, cfg.Version)
		if err != nil {
			warnings = append(warnings, Warning{
				Component: "metrics",
				Err:       fmt.Errorf("failed to init metrics: %w (metrics disabled)", err),
			})
		} else {
			mp = p
		}
	}

	var tp *internalotel.TracerProvider
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint != "" {
		p, err := internalotel.SetupTracer(internalotel.TracerConfig{
			ExporterConfig: internalotel.ExporterConfig{
				Endpoint: cfg.Tracing.Endpoint,
				Protocol: cfg.Tracing.Protocol,
				Insecure: cfg.Tracing.Insecure,
				Username: cfg.Tracing.Username,
				Password: cfg.Tracing.Password,
				Headers:  cfg.Tracing.Headers,
				Timeout:  cfg.Tracing.Timeout,
			},
			Sampler:        cfg.Tracing.Sampler,
			BatchSize:      cfg.Tracing.BatchSize,
			ExportInterval: cfg.Tracing.ExportInterval,
		}, cfg.ServiceName, cfg.Version)
		if err != nil {
			warnings = append(warnings, Warning{
				Component: "tracing",
				Err:       fmt.Errorf("failed to init tracing: %w (tracing disabled)", err),
			})
		} else {
			tp = p
		}
	}

	chain := []Interceptor{}
	metrics, err := NewMetricsInterceptor(mp.Meter(meterName))
	if err != nil {
		warnings = append(warnings, Warning{Component: "metrics", Err: err})
	} else {
		chain = append(chain, metrics)
	}
	chain = append(chain, NewSpanEventInterceptor(), policy)

	proxy := NewProxy(console, Chain(chain...), WithLogger(sink.Logger().Named("conproxy")))
	prev := swapStd(console)

	rt := &Runtime{
		sink:          sink,
		console:       console,
		policy:        policy,
		proxy:         proxy,
		template:      NewTemplate(proxy),
		meterProvider: mp,
		tracer:        tp,
		prevStd:       prev,
	}
	rt.disable = proxy.EnableProxy()

	sink.Logger().Debug("conproxy runtime ready",
		zap.String("level", sink.GetLevel()),
		zap.Strings("disabled_levels", cfg.Levels.Disabled),
		zap.Bool("metrics", mp != nil),
		zap.Bool("tracing", tp != nil),
	)
	return rt, warnings, nil
}

// Sink returns the runtime's sink.
func (r *Runtime) Sink() *Sink { return r.sink }

// Console returns the console installed as Std().
func (r *Runtime) Console() *Console { return r.console }

// Policy returns the runtime's level policy.
func (r *Runtime) Policy() *LevelPolicy { return r.policy }

// Proxy returns the proxy patched onto Std().
func (r *Runtime) Proxy() *Proxy { return r.proxy }

// Template returns a template over the runtime's proxy.
func (r *Runtime) Template() *Template { return r.template }

// Tracer returns a named tracer from the runtime's tracer provider. Without
// tracing enabled it returns a no-op tracer.
func (r *Runtime) Tracer(name string) trace.Tracer {
	return r.tracer.Tracer(name)
}

// Shutdown unpatches Std(), puts back the console Std() returned before
// Setup, and flushes the sink and exporters. Std() is left alone if it was
// replaced after Setup.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r.disable != nil {
		r.disable()
	}
	restoreStd(r.console, r.prevStd)
	return errors.Join(
		r.tracer.Shutdown(ctx),
		r.meterProvider.Shutdown(ctx),
		r.sink.Shutdown(ctx),
	)
}
