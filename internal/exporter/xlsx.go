package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "banketl/internal/errors"
	"banketl/pkg/contracts/domain"
)

// XLSXWriter writes the bank table to a workbook with one sheet
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger.With(slog.String("component", "xlsx_writer"))}
}

// WriteBanks writes table to path on a sheet named sheet. The layout matches
// the CSV output: header row, then one row per bank prefixed by its index.
func (w *XLSXWriter) WriteBanks(table domain.BankTable, path, sheet string) error {
	if err := w.write(table, path, sheet); err != nil {
		return apperrors.NewIOError("failed to write XLSX file", err).WithContext("path", path)
	}
	w.logger.Info("Wrote XLSX file",
		slog.String("file_path", path),
		slog.String("sheet", sheet),
		slog.Int("record_count", len(table)))
	return nil
}

func (w *XLSXWriter) write(table domain.BankTable, path, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headers := BankHeaders()
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	for i, b := range table {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := append([]any{i + 1}, b.Values()...)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	nameCol, _ := excelize.ColumnNumberToName(2)
	if err := f.SetColWidth(sheet, nameCol, nameCol, 40); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// ReadBanksXLSX reads a workbook written by XLSXWriter back into a table.
func ReadBanksXLSX(path, sheet string) (domain.BankTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open XLSX file", err).WithContext("path", path)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewIOError("failed to read XLSX sheet", err).WithContext("sheet", sheet)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("XLSX sheet is empty", nil).WithContext("sheet", sheet)
	}

	return decodeRows(rows)
}
