package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "banketl/internal/errors"
	"banketl/internal/shared/testutil"
)

func TestProgressLog_Log(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code_log.txt")
	logger, handler := testutil.NewTestLogger(t)

	clock := time.Date(2023, time.September, 8, 9, 16, 35, 0, time.UTC)
	progress := NewProgressLog(path, logger).WithClock(func() time.Time { return clock })

	ctx := context.Background()
	require.NoError(t, progress.Log(ctx, "Preliminaries complete. Initiating ETL process"))
	clock = clock.Add(2 * time.Second)
	require.NoError(t, progress.Log(ctx, "Process Complete."))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"2023-Sep-08-09:16:35:Preliminaries complete. Initiating ETL process\n"+
			"2023-Sep-08-09:16:37:Process Complete.\n",
		string(content))

	assert.True(t, handler.ContainsMessage("Process Complete."))
	assert.True(t, handler.ContainsAttr("component", "progress_log"))
}

func TestProgressLog_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code_log.txt")
	require.NoError(t, os.WriteFile(path, []byte("earlier run\n"), 0644))

	progress := NewProgressLog(path, nil)
	require.NoError(t, progress.Log(context.Background(), "next"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `^earlier run\n\d{4}-[A-Z][a-z]{2}-\d{2}-\d{2}:\d{2}:\d{2}:next\n$`, string(content))
}

func TestProgressLog_Unwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "code_log.txt")

	err := NewProgressLog(path, nil).Log(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}
