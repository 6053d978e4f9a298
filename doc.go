// Package conproxy intercepts calls made through a console function table.
//
// A Console is a mutable table of named logging functions (log, info, warn,
// debug, error, table, time, ...). A Proxy captures a snapshot of a console's
// functions and, when enabled, patches every slot with a dispatcher that runs
// the call through an Interceptor. Interceptors receive an Invocation and
// decide whether, and with which arguments, the captured original runs.
//
// # Guarantees
//
//   - Reversibility: the disable function returned by EnableProxy restores
//     every slot the proxy still owns to the exact original function.
//   - Process Safety: conproxy never terminates the process; interceptor
//     panics reach the caller that made the console call.
//   - Concurrency: Console, Proxy, LevelPolicy and Sink are safe for
//     concurrent use.
//
// # Architecture
//
//   - Sink: a zap-backed console whose functions write structured logs to
//     console, rotating file and OTEL cores.
//   - LevelPolicy: an Interceptor that suppresses disabled log levels.
//   - Template: runs a function with a proxy patched for its duration.
//   - Runtime: assembles sink, policy, metrics, span events and proxy from a
//     Config and installs the result as Std().
//
// conproxy is not a logging framework in itself. The sink is one possible
// target; any Funcs table can be proxied.
package conproxy
