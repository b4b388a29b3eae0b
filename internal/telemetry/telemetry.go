// Package telemetry sets up OpenTelemetry tracing for the HTTP server.
//
// When tracing is disabled every function here is a no-op, so callers wire
// it unconditionally.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Options struct {
	Enabled     bool
	ServiceName string
	Environment string
	// Writer receives the exported spans as JSON. Defaults to stdout.
	Writer io.Writer
}

// Tracing owns the tracer provider. The zero value (tracing off) is valid.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

// Setup builds a tracer provider that batches spans to a stdout exporter
// and installs it, plus the W3C trace-context propagator, as the globals.
func Setup(opts Options) (*Tracing, error) {
	if !opts.Enabled {
		return &Tracing{}, nil
	}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", opts.ServiceName),
		attribute.String("deployment.environment", opts.Environment),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracing{provider: tp}, nil
}

// Wrap returns h instrumented with a server span per request, or h itself
// when tracing is off.
func (t *Tracing) Wrap(h http.Handler, operation string) http.Handler {
	if t == nil || t.provider == nil {
		return h
	}
	return otelhttp.NewHandler(h, operation, otelhttp.WithTracerProvider(t.provider))
}

// Shutdown flushes buffered spans. Safe to call when tracing is off.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
