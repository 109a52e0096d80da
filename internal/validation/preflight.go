// Package validation runs the checks that must pass before a job touches the
// network.
package validation

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"banketl/internal/config"
	apperrors "banketl/internal/errors"
)

var errIsDir = errors.New("is a directory")

// FileValidator checks input files and prepares output directories
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "preflight")),
	}
}

// Preflight verifies the exchange-rate file and makes sure every output
// location has a parent directory. A missing or unreadable rate file is a
// CONFIG error; a directory that cannot be created is an IO error.
func (v *FileValidator) Preflight(cfg *config.Config) error {
	if err := v.ValidateFile(cfg.Rates.Path); err != nil {
		return apperrors.NewConfigError("exchange rate file unavailable", err).
			WithContext("path", cfg.Rates.Path)
	}

	outputs := []string{
		cfg.Output.CSVPath,
		cfg.Output.XLSXPath,
		cfg.Database.Path,
		cfg.Logging.ProgressFile,
	}
	for _, path := range outputs {
		if path == "" {
			continue
		}
		if err := v.ValidateOutputDirectory(filepath.Dir(path)); err != nil {
			return apperrors.NewIOError("output directory unavailable", err).
				WithContext("path", path)
		}
	}

	v.logger.Debug("Preflight checks passed",
		slog.String("rates", cfg.Rates.Path),
		slog.Int("outputs", len(outputs)))
	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// ValidateFile checks that path is a readable regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return err
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return &os.PathError{Op: "open", Path: path, Err: errIsDir}
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return err
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}
