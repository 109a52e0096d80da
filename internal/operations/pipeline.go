package operations

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"

	"banketl/internal/config"
	"banketl/internal/exporter"
	"banketl/internal/extractor"
	"banketl/internal/infrastructure"
	"banketl/internal/storage"
	"banketl/internal/transform"
)

// Dependencies are the collaborators of a pipeline. Nil fields are built
// from the configuration.
type Dependencies struct {
	Extractor   Extractor
	Transformer Transformer
	LoadRates   RateLoader
	CSVWriter   TableWriter
	XLSXWriter  WorkbookWriter
	OpenDB      DatabaseOpener
	Progress    ProgressLogger
	Telemetry   *infrastructure.Telemetry
	Output      io.Writer // query results, stdout when nil
	Logger      *slog.Logger
}

// NewPipeline builds a manager running the ETL steps in order:
// extract, transform, write_csv, connect, load, queries.
func NewPipeline(cfg *config.Config, deps Dependencies) (*Manager, error) {
	logger := deps.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	tracer, err := NewOperationTracer(deps.Telemetry)
	if err != nil {
		return nil, err
	}

	if deps.Extractor == nil {
		var tp trace.TracerProvider
		if deps.Telemetry != nil {
			tp = deps.Telemetry.TracerProvider
		}
		client := extractor.NewHTTPClient(cfg.Source.Timeout, tp)
		deps.Extractor = extractor.New(client, cfg.Source, logger)
	}
	if deps.Transformer == nil {
		deps.Transformer = transform.New(logger)
	}
	if deps.LoadRates == nil {
		deps.LoadRates = transform.LoadRates
	}
	if deps.CSVWriter == nil {
		deps.CSVWriter = exporter.NewCSVWriter(logger)
	}
	if deps.XLSXWriter == nil && cfg.Output.XLSXPath != "" {
		deps.XLSXWriter = exporter.NewXLSXWriter(logger)
	}
	if deps.OpenDB == nil {
		deps.OpenDB = func(ctx context.Context, path string) (Database, error) {
			store, err := storage.Open(ctx, path, logger)
			if err != nil {
				return nil, err
			}
			return store, nil
		}
	}
	if deps.Progress == nil {
		deps.Progress = infrastructure.NewProgressLog(cfg.Logging.ProgressFile, logger)
	}
	if deps.Output == nil {
		deps.Output = os.Stdout
	}

	manager, err := NewManager(NewRegistry(), deps.Progress, tracer, logger)
	if err != nil {
		return nil, err
	}

	rateColumns := transform.RateColumns{
		Currency: cfg.Rates.CurrencyColumn,
		Rate:     cfg.Rates.RateColumn,
	}

	steps := []Step{
		NewExtractStep(deps.Extractor, cfg.Source.URL, tracer, logger),
		NewTransformStep(deps.Transformer, deps.LoadRates, cfg.Rates.Path, rateColumns, tracer, logger),
		NewWriteCSVStep(deps.CSVWriter, cfg.Output.CSVPath, deps.XLSXWriter, cfg.Output.XLSXPath, cfg.Database.Table),
		NewConnectStep(deps.OpenDB, cfg.Database.Path),
		NewLoadStep(cfg.Database.Table),
		NewQueryStep(storage.DefaultQueries(cfg.Database.Table), deps.Output),
	}
	for _, step := range steps {
		if err := manager.RegisterStep(step); err != nil {
			return nil, err
		}
	}

	return manager, nil
}
