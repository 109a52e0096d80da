package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "banketl/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "BANKETL"

// DefaultSourceURL is the archived page listing the largest banks.
const DefaultSourceURL = "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks"

// Config represents the complete job configuration
type Config struct {
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Rates     RatesConfig     `yaml:"rates" envconfig:"RATES"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Database  DatabaseConfig  `yaml:"database" envconfig:"DATABASE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// SourceConfig describes the page to scrape and its column layout
type SourceConfig struct {
	URL             string        `yaml:"url" split_words:"true" validate:"required,url"`
	NameColumn      int           `yaml:"name_column" split_words:"true" validate:"gte=0"`
	MarketCapColumn int           `yaml:"market_cap_column" split_words:"true" validate:"gte=0,nefield=NameColumn"`
	MinCells        int           `yaml:"min_cells" split_words:"true" validate:"gte=1"`
	Timeout         time.Duration `yaml:"timeout" split_words:"true" validate:"gte=0"`
	UserAgent       string        `yaml:"user_agent" split_words:"true"`
}

// RatesConfig locates the exchange-rate file and its key columns
type RatesConfig struct {
	Path           string `yaml:"path" split_words:"true" validate:"required"`
	CurrencyColumn string `yaml:"currency_column" split_words:"true" validate:"required"`
	RateColumn     string `yaml:"rate_column" split_words:"true" validate:"required"`
}

// OutputConfig contains the flat-file outputs. XLSXPath is optional.
type OutputConfig struct {
	CSVPath  string `yaml:"csv_path" split_words:"true" validate:"required"`
	XLSXPath string `yaml:"xlsx_path" split_words:"true"`
}

// DatabaseConfig contains the SQLite target
type DatabaseConfig struct {
	Path  string `yaml:"path" split_words:"true" validate:"required"`
	Table string `yaml:"table" split_words:"true" validate:"required,sqlident"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Output       string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath     string `yaml:"file_path" split_words:"true" validate:"required_unless=Output console"`
	ProgressFile string `yaml:"progress_file" split_words:"true" validate:"required"`
}

// TelemetryConfig controls tracing and the metrics textfile
type TelemetryConfig struct {
	TraceExporter   string `yaml:"trace_exporter" split_words:"true" validate:"oneof=none stdout"`
	MetricsTextfile string `yaml:"metrics_textfile" split_words:"true"`
}

// Default returns the stock job configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:             DefaultSourceURL,
			NameColumn:      1,
			MarketCapColumn: 2,
			MinCells:        2,
			UserAgent:       "banketl/1.0",
		},
		Rates: RatesConfig{
			Path:           "exchange_rate.csv",
			CurrencyColumn: "Currency",
			RateColumn:     "Exchange Rate",
		},
		Output: OutputConfig{
			CSVPath: "Largest_bank_data.csv",
		},
		Database: DatabaseConfig{
			Path:  "Bank.db",
			Table: "Largest_banks",
		},
		Logging: LoggingConfig{
			Level:        "info",
			Output:       "console",
			FilePath:     "logs/banketl.log",
			ProgressFile: "code_log.txt",
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// BANKETL_* environment variables, in increasing order of precedence.
// An empty configFile falls back to the well-known locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", configFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"banketl.yaml",
		"configs/banketl.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

var sqlIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsSQLIdentifier reports whether s can be interpolated into SQL as a bare
// table name.
func IsSQLIdentifier(s string) bool {
	return sqlIdentRe.MatchString(s)
}

func isSQLIdent(fl validator.FieldLevel) bool {
	return IsSQLIdentifier(fl.Field().String())
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("sqlident", isSQLIdent); err != nil {
		return nil, fmt.Errorf("failed to register sqlident rule: %w", err)
	}
	return v, nil
}

// Validate checks every section of the configuration
func (c *Config) Validate() error {
	v, err := newValidator()
	if err != nil {
		return apperrors.NewConfigError("config validator unavailable", err)
	}
	if err := v.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return apperrors.NewConfigError("config validation failed", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, formatValidationError(fe))
		}
		return apperrors.NewConfigError("config validation failed", fmt.Errorf("%s", strings.Join(msgs, "; "))).
			WithContext("fields", len(verrs))
	}
	return nil
}

func formatValidationError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "sqlident":
		return fmt.Sprintf("%s must be a plain SQL identifier", field)
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
