// Package observability wires OpenTelemetry for the scheduler: spans exported
// over OTLP/HTTP and metrics served by the Prometheus exporter on /metrics.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/Alijeyrad/simorq_scheduler/config"
)

const (
	defaultServiceName = "simorq_scheduler"
	shutdownTimeout    = 5 * time.Second
)

// Provider owns the SDK providers installed as otel globals. Meters is nil
// when metrics are disabled; the global no-op meter is left in place then.
type Provider struct {
	Traces *sdktrace.TracerProvider
	Meters *sdkmetric.MeterProvider
}

// Setup builds the providers described by the observability section and
// installs them globally. Spans are only exported when tracing is enabled
// and an endpoint is set; otherwise they are sampled and dropped in process.
func Setup(ctx context.Context, c config.ObservabilityConfig, environment string) (*Provider, error) {
	name := c.ServiceName
	if name == "" {
		name = defaultServiceName
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(name),
		semconv.ServiceVersion(c.ServiceVersion),
		semconv.DeploymentEnvironmentName(environment),
	))
	if err != nil {
		return nil, fmt.Errorf("observability: resource: %w", err)
	}

	p := &Provider{}
	if p.Traces, err = newTracerProvider(ctx, res, c.Tracing); err != nil {
		return nil, err
	}
	otel.SetTracerProvider(p.Traces)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if c.Metrics.Enabled {
		// The exporter registers with the default Prometheus registry, which
		// promhttp serves.
		exporter, err := prometheus.New()
		if err != nil {
			_ = p.Traces.Shutdown(ctx)
			return nil, fmt.Errorf("observability: prometheus exporter: %w", err)
		}
		p.Meters = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(exporter))
		otel.SetMeterProvider(p.Meters)
	}
	return p, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, c config.TracingConfig) (*sdktrace.TracerProvider, error) {
	rate := c.SamplingRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	}

	if c.Enabled && c.OTLPEndpoint != "" {
		exportOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(c.OTLPEndpoint)}
		if c.OTLPInsecure {
			exportOpts = append(exportOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, exportOpts...)
		if err != nil {
			return nil, fmt.Errorf("observability: otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

// Shutdown flushes and stops both providers, even when the first one fails.
func (p *Provider) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if err := p.Traces.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer provider: %w", err))
	}
	if p.Meters != nil {
		if err := p.Meters.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
