// Package observability provides OpenTelemetry tracing for colpir. Every
// ingestion pass and protocol phase runs inside a span started with
// StartPhase. Until Initialize is called the global no-op provider is in
// effect and spans cost nothing.
package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/colpir"

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
)

// Initialize sets up tracing. Calling it again replaces the previous
// provider after shutting it down.
func Initialize(ctx context.Context, config TracingConfig) error {
	tp, err := initTracing(config)
	if err != nil {
		return err
	}

	mu.Lock()
	prev := provider
	provider = tp
	mu.Unlock()

	if prev != nil {
		_ = prev.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the colpir tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Meter returns the colpir meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// StartPhase starts a span named after a pipeline pass or protocol phase.
// The returned function ends the span, recording err if it is non-nil, and
// records the phase duration on the global meter provider.
//
//	ctx, end := observability.StartPhase(ctx, "validate", attribute.String("format", "csv"))
//	err := validate(ctx)
//	end(err)
func StartPhase(ctx context.Context, phase string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := Tracer().Start(ctx, phase,
		trace.WithAttributes(append(attrs, attribute.String("colpir.phase", phase))...),
	)
	return ctx, func(err error) {
		recordPhase(ctx, phase, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

func recordPhase(ctx context.Context, phase string, d time.Duration, err error) {
	hist, herr := Meter().Float64Histogram("colpir.phase.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of ingestion passes and protocol phases"),
	)
	if herr != nil {
		return
	}
	hist.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("colpir.phase", phase),
		attribute.Bool("error", err != nil),
	))
}

// AddEvent adds an event to the span in ctx, if any.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
