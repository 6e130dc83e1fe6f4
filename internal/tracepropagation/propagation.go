// Package tracepropagation carries the W3C trace context that arrives on
// the Lambda-Runtime-Trace-Id header across the ambient ("process-wide")
// ..._X_AMZN_TRACE_ID slot the invocation loop exposes to user code, and
// optionally feeds an OpenTelemetry tracer provider from the same value.
package tracepropagation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceContext holds the W3C trace context fields carried on the
// Lambda-Runtime-Trace-Id header.
type TraceContext struct {
	TraceParent string
	TraceState  string
}

// Extract pulls the current trace context out of ctx for propagation
// to a downstream call (e.g. the ambient env var, or a span created by
// user code).
func Extract(ctx context.Context) TraceContext {
	if !Enabled() {
		return TraceContext{}
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{
		TraceParent: carrier.Get("traceparent"),
		TraceState:  carrier.Get("tracestate"),
	}
}

// Inject threads a TraceContext (typically parsed from the
// Lambda-Runtime-Trace-Id header) onto ctx so any span started from it
// is a child of the host's trace.
func Inject(ctx context.Context, tc TraceContext) context.Context {
	if tc.TraceParent == "" {
		return ctx
	}
	carrier := propagation.MapCarrier{
		"traceparent": tc.TraceParent,
	}
	if tc.TraceState != "" {
		carrier["tracestate"] = tc.TraceState
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// TraceID returns the trace id of the span in ctx, or "" if there is none.
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().HasTraceID() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// SpanID returns the span id of the span in ctx, or "" if there is none.
func SpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().HasSpanID() {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
