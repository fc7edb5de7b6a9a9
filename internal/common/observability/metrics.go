package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Observability struct {
	serviceName   string
	meterProvider *metric.MeterProvider
	traceProvider *sdktrace.TracerProvider
	meter         otelmetric.Meter
	tracer        oteltrace.Tracer

	turnCounter      otelmetric.Int64Counter
	turnDuration     otelmetric.Float64Histogram
	providerCounter  otelmetric.Int64Counter
	providerDuration otelmetric.Float64Histogram
	platformCounter  otelmetric.Int64Counter
	alertCounter     otelmetric.Int64Counter
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{serviceName: serviceName, tracer: noop.NewTracerProvider().Tracer(serviceName)}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	turnCounter, _ := meter.Int64Counter(
		"turns.processed",
		otelmetric.WithDescription("Number of conversation turns processed"),
	)

	turnDuration, _ := meter.Float64Histogram(
		"turns.duration",
		otelmetric.WithDescription("Conversation turn processing duration"),
		otelmetric.WithUnit("ms"),
	)

	providerCounter, _ := meter.Int64Counter(
		"provider.calls",
		otelmetric.WithDescription("Number of completion provider calls"),
	)

	providerDuration, _ := meter.Float64Histogram(
		"provider.duration",
		otelmetric.WithDescription("Completion provider call duration"),
		otelmetric.WithUnit("ms"),
	)

	platformCounter, _ := meter.Int64Counter(
		"platform.requests",
		otelmetric.WithDescription("Number of Earth Engine platform requests"),
	)

	alertCounter, _ := meter.Int64Counter(
		"alerts.sent",
		otelmetric.WithDescription("Number of risk alerts dispatched"),
	)

	return &Observability{
		serviceName:      serviceName,
		meterProvider:    provider,
		meter:            meter,
		tracer:           noop.NewTracerProvider().Tracer(serviceName),
		turnCounter:      turnCounter,
		turnDuration:     turnDuration,
		providerCounter:  providerCounter,
		providerDuration: providerDuration,
		platformCounter:  platformCounter,
		alertCounter:     alertCounter,
	}
}

// EnableTracing wires a Jaeger span exporter. Tracing stays a no-op until called.
func (o *Observability) EnableTracing(collectorEndpoint string) error {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(collectorEndpoint)))
	if err != nil {
		return err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", o.serviceName),
		)),
	)
	otel.SetTracerProvider(provider)

	o.traceProvider = provider
	o.tracer = provider.Tracer(o.serviceName)
	return nil
}

// StartSpan starts a span under the configured tracer. Callers must End the span.
func (o *Observability) StartSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	return o.tracer.Start(ctx, name)
}

func (o *Observability) RecordTurnProcessed(ctx context.Context, status string) {
	if o.turnCounter != nil {
		o.turnCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordTurnDuration(ctx context.Context, duration time.Duration, status string) {
	if o.turnDuration != nil {
		o.turnDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordProviderCall(ctx context.Context, provider, status string, duration time.Duration) {
	if o.providerCounter != nil {
		o.providerCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		))
	}
	if o.providerDuration != nil {
		o.providerDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("provider", provider),
		))
	}
}

func (o *Observability) RecordPlatformRequest(ctx context.Context, operation, status string) {
	if o.platformCounter != nil {
		o.platformCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordAlertSent(ctx context.Context, channel, status string) {
	if o.alertCounter != nil {
		o.alertCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("channel", channel),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.traceProvider != nil {
		o.traceProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
}
