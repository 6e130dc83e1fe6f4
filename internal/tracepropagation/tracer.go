package tracepropagation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Config controls the optional OTLP exporter wired up by Init. This
// package reads no environment variables; the caller sets Enabled. While
// Enabled is false no spans are exported and Extract returns an empty
// TraceContext; Inject uses the global propagator, which is a no-op until
// Init has installed the W3C one.
type Config struct {
	Enabled     bool
	Endpoint    string // host:port, e.g. localhost:4318
	ServiceName string
}

var provider = &state{tracer: trace.NewNoopTracerProvider().Tracer("")}

type state struct {
	tp      *sdktrace.TracerProvider
	tracer  trace.Tracer
	enabled bool
}

// Init wires a TracerProvider exporting spans over OTLP/HTTP when cfg.Enabled
// is set. It installs the global W3C tracecontext propagator regardless, so
// Inject parses a traceparent whether or not spans are exported.
func Init(ctx context.Context, cfg Config) error {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		provider = &state{enabled: false, tracer: trace.NewNoopTracerProvider().Tracer("")}
		return nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return fmt.Errorf("build otel resource: %w", err)
	}

	exp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	provider = &state{tp: tp, tracer: tp.Tracer(cfg.ServiceName), enabled: true}
	return nil
}

// Shutdown flushes and stops the tracer provider, if one was started.
func Shutdown(ctx context.Context) error {
	if provider.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return provider.tp.Shutdown(ctx)
}

// Enabled reports whether a real (non-noop) tracer provider is active.
func Enabled() bool {
	return provider.enabled
}

// Tracer returns the process tracer, noop if Init was never called or
// cfg.Enabled was false.
func Tracer() trace.Tracer {
	return provider.tracer
}
