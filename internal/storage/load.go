package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "banketl/internal/errors"
	"banketl/pkg/contracts/domain"
)

// columnTypes are the SQLite types of domain.BankColumns, in order
var columnTypes = []string{"TEXT", "REAL", "REAL", "REAL", "REAL"}

// Load replaces table with the rows of banks. The drop, create and inserts
// run in one transaction; on failure the previous table is left in place.
func (s *Store) Load(ctx context.Context, banks domain.BankTable, table string) error {
	if err := validateTable(table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewIOError("failed to begin transaction", err).WithContext("table", table)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return apperrors.NewIOError("failed to drop table", err).WithContext("table", table)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table)); err != nil {
		return apperrors.NewIOError("failed to create table", err).WithContext("table", table)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(table))
	if err != nil {
		return apperrors.NewIOError("failed to prepare insert", err).WithContext("table", table)
	}
	defer stmt.Close()

	for i, b := range banks {
		if _, err := stmt.ExecContext(ctx, b.Values()...); err != nil {
			return apperrors.NewIOError(fmt.Sprintf("failed to insert row %d", i+1), err).
				WithContext("table", table).
				WithContext("bank", b.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewIOError("failed to commit table load", err).WithContext("table", table)
	}

	s.logger.InfoContext(ctx, "Table loaded",
		slog.String("table", table),
		slog.Int("rows", len(banks)))
	return nil
}

func createTableSQL(table string) string {
	cols := make([]string, len(domain.BankColumns))
	for i, name := range domain.BankColumns {
		cols[i] = quoteIdent(name) + " " + columnTypes[i]
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(cols, ", "))
}

func insertSQL(table string) string {
	cols := make([]string, len(domain.BankColumns))
	marks := make([]string, len(domain.BankColumns))
	for i, name := range domain.BankColumns {
		cols[i] = quoteIdent(name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
}
