// Package tracing aliases opentelemetry's trace.Tracer so that core
// components accept tracing as an external collaborator without ever
// linking an exporter or SDK: when the caller supplies none, the tracer of
// the global TracerProvider is used, which records nothing until a caller
// installs a provider via otel.SetTracerProvider.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the span-starting contract every traced component accepts.
type Tracer = trace.Tracer

// Span is the handle returned by Start.
type Span = trace.Span

// Noop returns the unnamed tracer of the global TracerProvider, used
// whenever a caller installs nothing. It is a no-op tracer unless a
// provider has been installed via otel.SetTracerProvider.
func Noop() Tracer {
	return otel.Tracer("")
}

// Named returns the tracer registered under name via otel.SetTracerProvider,
// or the no-op tracer if nothing was ever installed.
func Named(name string) Tracer {
	return otel.Tracer(name)
}

// StartSpan is a small convenience wrapper so callers don't need to import
// otel/trace directly just to start a span.
func StartSpan(ctx context.Context, tracer Tracer, spanName string) (context.Context, Span) {
	return tracer.Start(ctx, spanName)
}
