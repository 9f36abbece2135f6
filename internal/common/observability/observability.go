// internal/common/observability/observability.go
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the OpenTelemetry meter and tracer used by workers.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
}

// Options configures New.
type Options struct {
	ServiceName    string
	ServiceVersion string
	// JaegerEndpoint enables trace export when set, e.g.
	// http://jaeger:14268/api/traces.
	JaegerEndpoint string
}

// New wires the Prometheus metric exporter and, optionally, the Jaeger trace
// exporter. Without a Jaeger endpoint spans are created but not exported.
func New(opts Options) (*Observability, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", opts.ServiceName),
		attribute.String("service.version", opts.ServiceVersion),
	)

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(mp)

	o := &Observability{meterProvider: mp}
	meter := mp.Meter(opts.ServiceName)

	o.jobCounter, err = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	if err != nil {
		return nil, err
	}
	o.jobDuration, err = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	if opts.JaegerEndpoint == "" {
		o.tracer = noop.NewTracerProvider().Tracer(opts.ServiceName)
		return o, nil
	}

	je, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("jaeger exporter: %w", err)
	}
	o.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(je),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(o.tracerProvider)
	o.tracer = o.tracerProvider.Tracer(opts.ServiceName)
	return o, nil
}

// Nop returns an Observability that records nothing.
func Nop() *Observability {
	return &Observability{tracer: noop.NewTracerProvider().Tracer("nop")}
}

// StartJobSpan starts a span for one job.
func (o *Observability) StartJobSpan(ctx context.Context, taskType string, jobKey int64) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, taskType, trace.WithAttributes(
		attribute.String("zeebe.task_type", taskType),
		attribute.Int64("zeebe.job_key", jobKey),
	))
}

// EndJobSpan ends span, marking it failed when err is non-nil.
func EndJobSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

// Shutdown flushes and stops the providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	var firstErr error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
