// Package conhttp exposes a level policy over HTTP.
//
// GET returns the enablement of every level:
//
//	{"log":true,"info":true,"warn":true,"debug":false,"error":true}
//
// PUT or POST changes one level, or all of them:
//
//	curl -X PUT -d '{"level":"debug","enabled":true}' localhost:8080/console/levels
//
// Handler adds OpenTelemetry instrumentation:
//
//	mux.Handle("/console/levels", conhttp.Handler(rt.Policy(), "console-levels"))
package conhttp

import (
	"encoding/json"
	"net/http"

	"github.com/JupiterMetaLabs/conproxy"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// LevelUpdate is the body accepted by PUT and POST.
type LevelUpdate struct {
	Level   string `json:"level"`
	Enabled *bool  `json:"enabled"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// LevelHandler serves the enablement of policy's levels.
func LevelHandler(policy *conproxy.LevelPolicy, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &levelHandler{policy: policy, logger: logger}
}

type levelHandler struct {
	policy *conproxy.LevelPolicy
	logger *zap.Logger
}

func (h *levelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, levelMap(h.policy))
	case http.MethodPut, http.MethodPost:
		h.update(w, r)
	default:
		w.Header().Set("Allow", "GET, PUT, POST")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	}
}

func (h *levelHandler) update(w http.ResponseWriter, r *http.Request) {
	var req LevelUpdate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body: " + err.Error()})
		return
	}
	if req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: `missing "enabled"`})
		return
	}

	level, err := conproxy.ParseLevel(req.Level)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.policy.SetLevelEnabled(level, *req.Enabled)
	h.logger.Info("console level updated",
		zap.String("level", string(level)),
		zap.Bool("enabled", *req.Enabled),
		zap.String("remote_addr", r.RemoteAddr),
	)
	writeJSON(w, http.StatusOK, levelMap(h.policy))
}

func levelMap(policy *conproxy.LevelPolicy) map[string]bool {
	levels := policy.Levels()
	out := make(map[string]bool, len(levels))
	for l, enabled := range levels {
		out[string(l)] = enabled
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Handler wraps LevelHandler with OpenTelemetry instrumentation.
// It creates a span for each request named after operation.
func Handler(policy *conproxy.LevelPolicy, operation string, opts ...Option) http.Handler {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(o)
	}

	var otelOpts []otelhttp.Option
	if o.filter != nil {
		otelOpts = append(otelOpts, otelhttp.WithFilter(o.filter))
	}

	return otelhttp.NewHandler(LevelHandler(policy, o.logger), operation, otelOpts...)
}

// --- Options ---

type options struct {
	filter otelhttp.Filter
	logger *zap.Logger
}

func defaultOptions() *options {
	return &options{logger: zap.NewNop()}
}

// Option configures Handler.
type Option interface {
	apply(*options)
}

type filterOption struct {
	filter otelhttp.Filter
}

func (f filterOption) apply(o *options) { o.filter = f.filter }

// WithFilter sets a filter function to exclude requests from tracing.
// Return true to include the request, false to skip.
func WithFilter(filter func(r *http.Request) bool) Option {
	return filterOption{filter: otelhttp.Filter(filter)}
}

type loggerOption struct {
	logger *zap.Logger
}

func (l loggerOption) apply(o *options) {
	if l.logger != nil {
		o.logger = l.logger
	}
}

// WithLogger sets the logger that records level updates.
func WithLogger(logger *zap.Logger) Option {
	return loggerOption{logger: logger}
}
