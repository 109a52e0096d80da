package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	apperrors "banketl/internal/errors"
)

// QueryResult holds the columns and rows returned by a statement
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// DefaultQueries returns the read-back statements run after every load.
func DefaultQueries(table string) []string {
	return []string{
		fmt.Sprintf("SELECT * FROM %s", table),
		fmt.Sprintf("SELECT AVG(MC_GBP_Billion) FROM %s", table),
		fmt.Sprintf("SELECT Names FROM %s LIMIT 5", table),
	}
}

// RunQuery executes a literal statement and collects every row. Statements
// are fixed by the caller and never built from user input.
func (s *Store) RunQuery(ctx context.Context, statement string) (*QueryResult, error) {
	rows, err := s.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, apperrors.NewIOError("query failed", err).WithContext("statement", statement)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, apperrors.NewIOError("failed to read columns", err).WithContext("statement", statement)
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apperrors.NewIOError("failed to scan row", err).WithContext("statement", statement)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewIOError("failed to iterate rows", err).WithContext("statement", statement)
	}

	s.logger.DebugContext(ctx, "Query executed",
		slog.String("statement", statement),
		slog.Int("rows", len(result.Rows)))
	return result, nil
}

// Print writes the statement followed by the result as an aligned table with
// a leading 0-based row index.
func Print(w io.Writer, statement string, result *QueryResult) error {
	if _, err := fmt.Fprintln(w, statement); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(result.Columns, "\t"))
	for i, row := range result.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		fmt.Fprintf(tw, "%d\t%s\t\n", i, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// FormatValue renders a scanned SQLite value for display
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}
