// Package exporter writes the bank table to flat files.
//
// CSVWriter produces the delimited output with a leading 1-based index
// column and can read it back. XLSXWriter produces an optional workbook with
// the same columns.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(logger)
//	if err := w.WriteBanks(table, "Largest_bank_data.csv"); err != nil {
//		return err
//	}
package exporter
