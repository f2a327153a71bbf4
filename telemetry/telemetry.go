// Package telemetry builds the OpenTelemetry tracer and meter providers
// used by the scanner and the worker pool. Exporters are supplied by
// the caller so the same wiring serves both a short-lived CLI run
// (stdout or none) and a long-running worker (OTLP collector).
package telemetry

import (
	"context"
	"encoding/hex"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// serviceName identifies sigil in exported telemetry.
const serviceName = "sigil"

// newResource describes this process to telemetry backends.
func newResource(logger *slog.Logger) *resource.Resource {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		logger.Warn("failed to create resource, using default", "error", err)
		return resource.Default()
	}
	return res
}

// NewTracerProvider creates a TracerProvider that forwards completed
// spans to exporter. Spans are exported immediately without batching so
// a short CLI run never drops its trace on exit.
func NewTracerProvider(exporter sdktrace.SpanExporter, logger *slog.Logger) *sdktrace.TracerProvider {
	processor := sdktrace.NewSimpleSpanProcessor(exporter)

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(newResource(logger)),
	)
}

// NewTracer creates a tracer with the standard instrumentation name.
func NewTracer(tp *sdktrace.TracerProvider) trace.Tracer {
	return tp.Tracer(serviceName)
}

// NewMeterProvider creates a MeterProvider that periodically pushes
// metrics through reader.
func NewMeterProvider(reader sdkmetric.Reader, logger *slog.Logger) *sdkmetric.MeterProvider {
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(newResource(logger)),
	)
}

// NewMeter creates a meter with the standard instrumentation name.
func NewMeter(mp *sdkmetric.MeterProvider) metric.Meter {
	return mp.Meter(serviceName)
}

// CreateParentContext creates a context carrying a remote parent
// SpanContext decoded from hex trace and span IDs, typically taken from
// a queued scan job. Returns the original context if either ID cannot
// be decoded.
func CreateParentContext(ctx context.Context, traceID, parentSpanID string) context.Context {
	if traceID == "" || parentSpanID == "" {
		return ctx
	}

	traceIDBytes, err := hex.DecodeString(traceID)
	if err != nil || len(traceIDBytes) != 16 {
		return ctx
	}

	spanIDBytes, err := hex.DecodeString(parentSpanID)
	if err != nil || len(spanIDBytes) != 8 {
		return ctx
	}

	var tid trace.TraceID
	copy(tid[:], traceIDBytes)

	var sid trace.SpanID
	copy(sid[:], spanIDBytes)

	parentSpanContext := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})

	return trace.ContextWithSpanContext(ctx, parentSpanContext)
}
