package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	apperrors "banketl/internal/errors"
)

// ProgressTimeLayout renders timestamps as YYYY-Mon-DD-HH:MM:SS.
const ProgressTimeLayout = "2006-Jan-02-15:04:05"

// ProgressLog appends one "<timestamp>:<message>" line per pipeline stage to a
// plain-text file. The file is reopened on every call so each line is flushed
// before the next stage starts.
type ProgressLog struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// NewProgressLog creates a progress log writing to path
func NewProgressLog(path string, logger *slog.Logger) *ProgressLog {
	if logger == nil {
		logger = GetLogger()
	}
	return &ProgressLog{
		path:   path,
		now:    time.Now,
		logger: logger.With(slog.String("component", "progress_log")),
	}
}

// WithClock replaces the time source. Used by tests.
func (p *ProgressLog) WithClock(now func() time.Time) *ProgressLog {
	p.now = now
	return p
}

// Path returns the file the log appends to
func (p *ProgressLog) Path() string {
	return p.path
}

// Log appends message. Any failure to write is returned as an IO error.
func (p *ProgressLog) Log(ctx context.Context, message string) error {
	line := fmt.Sprintf("%s:%s\n", p.now().Format(ProgressTimeLayout), message)

	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return apperrors.NewIOError("failed to open progress log", err).WithContext("path", p.path)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return apperrors.NewIOError("failed to write progress log", err).WithContext("path", p.path)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewIOError("failed to close progress log", err).WithContext("path", p.path)
	}

	p.logger.InfoContext(ctx, message)
	return nil
}
