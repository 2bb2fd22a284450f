// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope profiling. Every part is a no-op unless enabled.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// Config holds telemetry configuration
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	Insecure          bool
	ServiceName       string
	ServiceVersion    string
	// SamplingRatio of traces, 0..1
	SamplingRatio   float64
	MetricsInterval time.Duration
	// Logs ships zap output to the collector as well
	Logs      bool
	Profiling ProfilerConfig
}

// Telemetry owns the providers started by Setup
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts the configured providers and registers them globally
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Telemetry, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "posterdash"
	}
	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	t := &Telemetry{}
	if t.Tracer, err = NewTracerProvider(ctx, cfg, res, logger); err != nil {
		return nil, err
	}
	if t.Meter, err = NewMeterProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, t.Tracer.Shutdown(ctx))
	}
	if t.Logs, err = NewLoggerProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, t.Meter.Shutdown(ctx), t.Tracer.Shutdown(ctx))
	}
	if t.Profiler, err = NewProfiler(cfg.Profiling, cfg.ServiceName, logger); err != nil {
		return nil, errors.Join(err, t.Logs.Shutdown(ctx), t.Meter.Shutdown(ctx), t.Tracer.Shutdown(ctx))
	}
	if t.Profiler.IsEnabled() {
		t.Tracer.EnableSpanProfiles()
	}
	return t, nil
}

// Shutdown flushes and stops every provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Tracer.Shutdown(ctx),
		t.Meter.Shutdown(ctx),
		t.Logs.Shutdown(ctx),
		t.Profiler.Stop(),
	)
}

func newResource(cfg Config) (*resource.Resource, error) {
	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
