package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banketl/internal/config"
	apperrors "banketl/internal/errors"
	"banketl/internal/shared/testutil"
)

func preflightConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	rates := filepath.Join(dir, "exchange_rate.csv")
	require.NoError(t, os.WriteFile(rates, []byte("Currency,Exchange Rate\nGBP,0.8\n"), 0644))

	cfg := config.Default()
	cfg.Rates.Path = rates
	cfg.Output.CSVPath = filepath.Join(dir, "out", "Largest_bank_data.csv")
	cfg.Output.XLSXPath = filepath.Join(dir, "out", "xlsx", "banks.xlsx")
	cfg.Database.Path = filepath.Join(dir, "db", "Bank.db")
	cfg.Logging.ProgressFile = filepath.Join(dir, "logs", "code_log.txt")
	return cfg
}

func TestPreflight_CreatesOutputDirectories(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := preflightConfig(t)

	require.NoError(t, NewFileValidator(logger).Preflight(cfg))

	for _, path := range []string{cfg.Output.CSVPath, cfg.Output.XLSXPath, cfg.Database.Path, cfg.Logging.ProgressFile} {
		assert.DirExists(t, filepath.Dir(path))
		assert.NoFileExists(t, path)
	}
}

func TestPreflight_SkipsUnsetWorkbook(t *testing.T) {
	cfg := preflightConfig(t)
	cfg.Output.XLSXPath = ""

	require.NoError(t, NewFileValidator(nil).Preflight(cfg))
}

func TestPreflight_RatesFile(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "missing",
			setup: func(t *testing.T, cfg *config.Config) {
				cfg.Rates.Path = filepath.Join(t.TempDir(), "absent.csv")
			},
		},
		{
			name: "directory",
			setup: func(t *testing.T, cfg *config.Config) {
				cfg.Rates.Path = t.TempDir()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			cfg := preflightConfig(t)
			tt.setup(t, cfg)

			err := NewFileValidator(logger).Preflight(cfg)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
			assert.NotEmpty(t, handler.GetRecordsByLevel(slog.LevelError))
			assert.NoDirExists(t, filepath.Dir(cfg.Output.CSVPath))
		})
	}
}

func TestPreflight_UnwritableOutput(t *testing.T) {
	cfg := preflightConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cfg.Database.Path = filepath.Join(blocker, "Bank.db")

	err := NewFileValidator(nil).Preflight(cfg)
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitIO, apperrors.ExitCode(err))
}
