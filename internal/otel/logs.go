// Package otel sets up the OpenTelemetry providers used by the console sink
// and the metrics interceptor.
package otel

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ExporterConfig is the transport part shared by log and metric export.
type ExporterConfig struct {
	Endpoint string
	Protocol string
	Insecure bool
	Username string
	Password string
	Headers  map[string]string
	Timeout  time.Duration
}

// LogConfig configures the log provider.
type LogConfig struct {
	ExporterConfig
	Attributes     map[string]string
	BatchSize      int
	ExportInterval time.Duration
}

// LogProvider manages the OpenTelemetry log provider.
type LogProvider struct {
	provider *sdklog.LoggerProvider
}

// LoggerProvider returns the underlying sdklog.LoggerProvider.
func (p *LogProvider) LoggerProvider() *sdklog.LoggerProvider {
	if p == nil {
		return nil
	}
	return p.provider
}

// Shutdown flushes and stops the provider.
func (p *LogProvider) Shutdown(ctx context.Context) error {
	if p == nil || p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// SetupLogProvider creates a batching log provider exporting over OTLP and
// registers it globally. It returns nil when no endpoint is configured.
func SetupLogProvider(cfg LogConfig, serviceName, version string) (*LogProvider, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := newResource(ctx, serviceName, version, cfg.Attributes)
	if err != nil {
		return nil, err
	}

	if cfg.ExporterConfig, err = cfg.ExporterConfig.resolve(); err != nil {
		return nil, err
	}

	headers := InjectBasicAuth(cfg.Headers, cfg.Username, cfg.Password)

	var exporter sdklog.Exporter
	switch cfg.Protocol {
	case "http":
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		if cfg.Timeout > 0 {
			opts = append(opts, otlploghttp.WithTimeout(cfg.Timeout))
		}
		if len(headers) > 0 {
			opts = append(opts, otlploghttp.WithHeaders(headers))
		}
		exporter, err = otlploghttp.New(ctx, opts...)
	default:
		opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts,
				otlploggrpc.WithInsecure(),
				otlploggrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			)
		}
		if cfg.Timeout > 0 {
			opts = append(opts, otlploggrpc.WithTimeout(cfg.Timeout))
		}
		if len(headers) > 0 {
			opts = append(opts, otlploggrpc.WithHeaders(headers))
		}
		exporter, err = otlploggrpc.New(ctx, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create OTEL log exporter: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 512
	}
	exportInterval := cfg.ExportInterval
	if exportInterval <= 0 {
		exportInterval = 5 * time.Second
	}

	processor := sdklog.NewBatchProcessor(
		exporter,
		sdklog.WithMaxQueueSize(batchSize*2),
		sdklog.WithExportMaxBatchSize(batchSize),
		sdklog.WithExportInterval(exportInterval),
	)

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(processor),
	)
	global.SetLoggerProvider(provider)

	return &LogProvider{provider: provider}, nil
}

// InjectBasicAuth returns a copy of headers carrying a Basic Authorization
// header when both username and password are set.
func InjectBasicAuth(headers map[string]string, username, password string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	if username != "" && password != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		out["Authorization"] = "Basic " + auth
	}
	return out
}

func newResource(ctx context.Context, serviceName, version string, extra map[string]string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	}
	for k, v := range extra {
		attrs = append(attrs, attribute.String(k, v))
	}

	// resource.New with explicit detectors avoids schema URL conflicts with
	// resource.Default().
	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithOS(),
		resource.WithProcess(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTEL resource: %w", err)
	}
	return res, nil
}
