package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"banketl/internal/config"
	apperrors "banketl/internal/errors"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite
const DriverName = "sqlite"

// Store is an open SQLite database
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the database file at path and checks the
// connection. The caller must Close the store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.NewIOError("failed to create database directory", err).WithContext("path", path)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open database", err).WithContext("path", path)
	}

	// one writer, used sequentially
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewIOError("failed to connect to database", err).WithContext("path", path)
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: logger.With(slog.String("component", "storage")),
	}
	s.logger.InfoContext(ctx, "Database connection established", slog.String("path", path))
	return s, nil
}

// Path returns the database file
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the connection. It is safe to call more than once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return apperrors.NewIOError("failed to close database", err).WithContext("path", s.path)
	}
	s.logger.Debug("Database connection closed", slog.String("path", s.path))
	return nil
}

func validateTable(name string) error {
	if !config.IsSQLIdentifier(name) {
		return apperrors.NewConfigError(fmt.Sprintf("invalid table name %q", name), nil)
	}
	return nil
}

// quoteIdent quotes an already validated identifier
func quoteIdent(name string) string {
	return `"` + name + `"`
}
