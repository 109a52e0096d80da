package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banketl/internal/config"
	apperrors "banketl/internal/errors"
	"banketl/internal/infrastructure"
	"banketl/internal/operations"
	"banketl/internal/validation"
	"banketl/pkg/contracts"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one ETL job and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("banketl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configFile := flags.String("config", "", "path to the YAML config file (defaults to banketl.yaml or configs/banketl.yaml)")
	showVersion := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return apperrors.ExitConfig
	}

	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return apperrors.ExitCode(err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return apperrors.ExitIO
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureRunID(ctx)

	logger.InfoContext(ctx, "Starting bank ETL run",
		slog.String("version", contracts.Version),
		slog.String("source", cfg.Source.URL),
		slog.String("csv_path", cfg.Output.CSVPath),
		slog.String("database", cfg.Database.Path),
		slog.String("table", cfg.Database.Table))

	telemetry, err := infrastructure.InitializeTelemetry(ctx, cfg.Telemetry, stderr, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		return apperrors.ExitUnknown
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if err := validation.NewFileValidator(logger).Preflight(cfg); err != nil {
		logger.ErrorContext(ctx, "Preflight checks failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))))
		return apperrors.ExitCode(err)
	}

	progress := infrastructure.NewProgressLog(cfg.Logging.ProgressFile, logger)

	manager, err := operations.NewPipeline(cfg, operations.Dependencies{
		Progress:  progress,
		Telemetry: telemetry,
		Output:    stdout,
		Logger:    logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build pipeline", slog.String("error", err.Error()))
		return apperrors.ExitCode(err)
	}

	state, err := manager.Execute(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Bank ETL run failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("step", operations.FailedStep(err)),
			slog.String("phase", string(state.CurrentPhase())))
		if logErr := progress.Log(ctx, "ERROR:"+err.Error()); logErr != nil {
			logger.WarnContext(ctx, "Failed to record error in progress log", slog.String("error", logErr.Error()))
		}
		return apperrors.ExitCode(err)
	}

	logger.InfoContext(ctx, "Bank ETL run complete",
		slog.String("run_id", state.ID),
		slog.Duration("duration", state.Duration()))
	return 0
}
