package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	apperrors "banketl/internal/errors"
	"banketl/pkg/contracts/domain"
)

// IndexHeader is the header of the unnamed index column
const IndexHeader = ""

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

// BankHeaders returns the CSV header row: the unnamed index column followed
// by the bank columns.
func BankHeaders() []string {
	return append([]string{IndexHeader}, domain.BankColumns...)
}

// BankRecords renders the table as CSV rows, each prefixed with its 1-based
// index.
func BankRecords(table domain.BankTable) [][]string {
	records := make([][]string, len(table))
	for i, b := range table {
		records[i] = []string{
			formatIndex(i),
			b.Name,
			formatFloat(b.MarketCapUSD),
			formatFloat(b.MarketCapGBP),
			formatFloat(b.MarketCapEUR),
			formatFloat(b.MarketCapINR),
		}
	}
	return records
}

// WriteBanks writes the table to path, replacing any existing file. Any
// failure is returned as an IO error.
func (w *CSVWriter) WriteBanks(table domain.BankTable, path string) error {
	err := w.WriteCSV(path, WriteOptions{
		Headers: BankHeaders(),
		Records: BankRecords(table),
	})
	if err != nil {
		return apperrors.NewIOError("failed to write CSV file", err).WithContext("path", path)
	}
	return nil
}

// ReadBanks reads a file written by WriteBanks, dropping the index column.
func ReadBanks(path string) (domain.BankTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open CSV file", err).WithContext("path", path)
	}
	defer f.Close()

	table, err := DecodeBanks(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// DecodeBanks parses bank CSV rows from r. The header must match BankHeaders.
func DecodeBanks(r io.Reader) (domain.BankTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read CSV", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError("CSV file is empty", nil)
	}
	return decodeRows(records)
}

// decodeRows converts a header row plus indexed bank rows into a table
func decodeRows(rows [][]string) (domain.BankTable, error) {
	headers := BankHeaders()
	if len(rows[0]) != len(headers) {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("header has %d columns, want %d", len(rows[0]), len(headers)), nil)
	}
	for i, want := range headers {
		if rows[0][i] != want {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("unexpected header %q at column %d, want %q", rows[0][i], i, want), nil)
		}
	}

	table := make(domain.BankTable, 0, len(rows)-1)
	for n, record := range rows[1:] {
		line := n + 2
		if len(record) != len(headers) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row has %d columns, want %d", len(record), len(headers)), nil).WithContext("line", line)
		}

		values := make([]float64, 4)
		for i := range values {
			v, err := strconv.ParseFloat(record[i+2], 64)
			if err != nil {
				return nil, apperrors.NewParsingError(
					fmt.Sprintf("invalid %s value", domain.BankColumns[i+1]), err).WithContext("line", line)
			}
			values[i] = v
		}

		table = append(table, domain.Bank{
			Name:         record[1],
			MarketCapUSD: values[0],
			MarketCapGBP: values[1],
			MarketCapEUR: values[2],
			MarketCapINR: values[3],
		})
	}
	return table, nil
}
