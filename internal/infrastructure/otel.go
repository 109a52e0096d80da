package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"banketl/internal/config"
	"banketl/pkg/contracts"
)

const (
	ServiceName    = "banketl"
	ServiceVersion = contracts.Version
	MeterName      = "banketl"
)

// Telemetry holds the tracing and metrics providers for one run
type Telemetry struct {
	TracerProvider trace.TracerProvider
	Tracer         trace.Tracer
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Metrics        *JobMetrics

	sdkTracer *sdktrace.TracerProvider
	textfile  string
	logger    *slog.Logger
}

// JobMetrics are the instruments recorded by the pipeline
type JobMetrics struct {
	RowsExtracted     metric.Int64Counter
	RowsSkipped       metric.Int64Counter
	CurrencyFallbacks metric.Int64Counter
	StepDuration      metric.Float64Histogram
	StepFailures      metric.Int64Counter
}

// InitializeTelemetry sets up tracing and metrics. Tracing output goes to
// traceOut (stderr when nil) when the stdout exporter is selected.
func InitializeTelemetry(ctx context.Context, cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	)

	t := &Telemetry{
		textfile: cfg.MetricsTextfile,
		logger:   logger.With(slog.String("component", "telemetry")),
	}

	if err := t.initializeTracing(cfg.TraceExporter, traceOut, res); err != nil {
		return nil, err
	}
	if err := t.initializeMetrics(res); err != nil {
		return nil, err
	}

	t.logger.InfoContext(ctx, "Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_textfile", cfg.MetricsTextfile))

	return t, nil
}

func (t *Telemetry) initializeTracing(exporterName string, out io.Writer, res *resource.Resource) error {
	switch exporterName {
	case "", "none":
		t.TracerProvider = noop.NewTracerProvider()
	case "stdout":
		if out == nil {
			out = os.Stderr
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		t.sdkTracer = tp
		t.TracerProvider = tp
		otel.SetTracerProvider(tp)
	default:
		return fmt.Errorf("unsupported trace exporter: %s", exporterName)
	}

	t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	t.Registry = prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))

	t.Metrics, err = CreateJobMetrics(t.Meter)
	return err
}

// CreateJobMetrics creates the pipeline instruments on meter
func CreateJobMetrics(meter metric.Meter) (*JobMetrics, error) {
	rowsExtracted, err := meter.Int64Counter(
		"banketl_rows_extracted",
		metric.WithDescription("Bank rows extracted from the source table"),
	)
	if err != nil {
		return nil, err
	}

	rowsSkipped, err := meter.Int64Counter(
		"banketl_rows_skipped",
		metric.WithDescription("Source rows skipped for having too few data cells"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"banketl_currency_fallbacks",
		metric.WithDescription("Currencies converted with the 1.0 fallback rate"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"banketl_step_duration",
		metric.WithDescription("Pipeline step duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepFailures, err := meter.Int64Counter(
		"banketl_step_failures",
		metric.WithDescription("Pipeline steps that failed"),
	)
	if err != nil {
		return nil, err
	}

	return &JobMetrics{
		RowsExtracted:     rowsExtracted,
		RowsSkipped:       rowsSkipped,
		CurrencyFallbacks: fallbacks,
		StepDuration:      stepDuration,
		StepFailures:      stepFailures,
	}, nil
}

// Shutdown flushes spans, writes the metrics textfile when configured and
// releases the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.textfile != "" && t.Registry != nil {
		if err := prometheus.WriteToTextfile(t.textfile, t.Registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics textfile: %w", err))
		} else {
			t.logger.InfoContext(ctx, "Metrics written", slog.String("path", t.textfile))
		}
	}
	if t.sdkTracer != nil {
		if err := t.sdkTracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}

	return errors.Join(errs...)
}
