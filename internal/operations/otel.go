package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"banketl/internal/infrastructure"
)

// TracerName names the spans created by the pipeline
const TracerName = "banketl.operation"

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.JobMetrics
}

// NewOperationTracer creates a tracer backed by tel. A nil tel records
// nothing.
func NewOperationTracer(tel *infrastructure.Telemetry) (*OperationTracer, error) {
	if tel == nil {
		metrics, err := infrastructure.CreateJobMetrics(metricnoop.NewMeterProvider().Meter(TracerName))
		if err != nil {
			return nil, err
		}
		return &OperationTracer{
			tracer:  tracenoop.NewTracerProvider().Tracer(TracerName),
			metrics: metrics,
		}, nil
	}

	return &OperationTracer{
		tracer:  tel.TracerProvider.Tracer(TracerName),
		metrics: tel.Metrics,
	}, nil
}

// Metrics returns the job instruments
func (pt *OperationTracer) Metrics() *infrastructure.JobMetrics {
	return pt.metrics
}

// TraceOperationExecution creates a span for the entire run
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, operationID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
		),
	)
}

// TraceStepExecution creates a span for one step
func (pt *OperationTracer) TraceStepExecution(ctx context.Context, operationID, stepID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "operation.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStepCompletion records the step's duration and ends its span status
func (pt *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	attrs := metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("status", status),
	)
	pt.metrics.StepDuration.Record(ctx, duration.Seconds(), attrs)

	span.SetAttributes(
		attribute.String("step.status", status),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
	)

	if err != nil {
		pt.metrics.StepFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", stepID)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}

// RecordOperationCompletion sets the run span's final status
func (pt *OperationTracer) RecordOperationCompletion(span trace.Span, state *OperationState) {
	span.SetAttributes(
		attribute.String("operation.status", string(state.Status)),
		attribute.String("operation.phase", string(state.CurrentPhase())),
		attribute.Float64("operation.duration_seconds", state.Duration().Seconds()),
	)
	if state.Error != nil {
		span.RecordError(state.Error)
		span.SetStatus(codes.Error, state.Error.Error())
		return
	}
	span.SetStatus(codes.Ok, "operation completed")
}

// RecordExtraction counts extracted and skipped rows
func (pt *OperationTracer) RecordExtraction(ctx context.Context, extracted, skipped int) {
	pt.metrics.RowsExtracted.Add(ctx, int64(extracted))
	pt.metrics.RowsSkipped.Add(ctx, int64(skipped))
	trace.SpanFromContext(ctx).AddEvent("rows.extracted", trace.WithAttributes(
		attribute.Int("rows.extracted", extracted),
		attribute.Int("rows.skipped", skipped),
	))
}

// RecordFallbacks counts currencies converted with the fallback rate
func (pt *OperationTracer) RecordFallbacks(ctx context.Context, currencies []string) {
	for _, code := range currencies {
		pt.metrics.CurrencyFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("currency", code)))
	}
	if len(currencies) > 0 {
		trace.SpanFromContext(ctx).AddEvent("currency.fallback", trace.WithAttributes(
			attribute.StringSlice("currencies", currencies),
		))
	}
}
