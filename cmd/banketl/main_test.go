package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "banketl/internal/errors"
	"banketl/internal/infrastructure"
	"banketl/pkg/contracts"
)

const testPage = `<html><body><table><tbody>
<tr><th>Rank</th><th>Bank name</th><th>Market cap</th></tr>
<tr><td>1</td><td>JPMorgan Chase</td><td>432.92</td></tr>
<tr><td>2</td><td>Bank of America</td><td>231.52</td></tr>
</tbody></table></body></html>`

type testJob struct {
	dir        string
	configPath string
	csvPath    string
	dbPath     string
	progress   string
	metrics    string
}

func newTestJob(t *testing.T, sourceURL, rates string) *testJob {
	t.Helper()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	dir := t.TempDir()
	job := &testJob{
		dir:        dir,
		configPath: filepath.Join(dir, "banketl.yaml"),
		csvPath:    filepath.Join(dir, "Largest_bank_data.csv"),
		dbPath:     filepath.Join(dir, "Bank.db"),
		progress:   filepath.Join(dir, "code_log.txt"),
		metrics:    filepath.Join(dir, "banketl.prom"),
	}

	ratesPath := filepath.Join(dir, "exchange_rate.csv")
	require.NoError(t, os.WriteFile(ratesPath, []byte(rates), 0644))

	yaml := fmt.Sprintf(`source:
  url: %q
  timeout: 5s
rates:
  path: %q
output:
  csv_path: %q
database:
  path: %q
  table: Largest_banks
logging:
  level: debug
  output: console
  progress_file: %q
telemetry:
  trace_exporter: none
  metrics_textfile: %q
`, sourceURL, ratesPath, job.csvPath, job.dbPath, job.progress, job.metrics)
	require.NoError(t, os.WriteFile(job.configPath, []byte(yaml), 0644))
	return job
}

func (j *testJob) progressLines(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(j.progress)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-version"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "banketl v"+contracts.Version)
}

func TestRun_UnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-nope"}, &stdout, &stderr)
	assert.Equal(t, apperrors.ExitConfig, code)
}

func TestRun_MissingConfigFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "absent.yaml")}, &stdout, &stderr)
	assert.Equal(t, apperrors.ExitConfig, code)
	assert.Contains(t, stderr.String(), "configuration error")
}

func TestRun_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	job := newTestJob(t, server.URL, "Currency,Exchange Rate\nEUR,0.93\nGBP,0.8\nINR,82.95\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", job.configPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.FileExists(t, job.csvPath)
	assert.FileExists(t, job.dbPath)
	assert.FileExists(t, job.metrics)
	assert.Contains(t, stdout.String(), "SELECT AVG(MC_GBP_Billion) FROM Largest_banks")
	assert.Contains(t, stdout.String(), "JPMorgan Chase")

	lines := job.progressLines(t)
	require.Len(t, lines, 7)
	assert.True(t, strings.HasSuffix(lines[6], ":Process Complete."))

	metrics, err := os.ReadFile(job.metrics)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "banketl_rows_extracted")
}

func TestRun_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	job := newTestJob(t, server.URL, "Currency,Exchange Rate\nEUR,0.93\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", job.configPath}, &stdout, &stderr)
	assert.Equal(t, apperrors.ExitNetwork, code)
	assert.NoFileExists(t, job.csvPath)
	assert.NoFileExists(t, job.dbPath)

	lines := job.progressLines(t)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], ":ERROR:")
}

func TestRun_MissingRatesFile(t *testing.T) {
	job := newTestJob(t, "http://127.0.0.1:1/unused", "Currency,Exchange Rate\nGBP,0.8\n")
	require.NoError(t, os.Remove(filepath.Join(job.dir, "exchange_rate.csv")))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", job.configPath}, &stdout, &stderr)
	assert.Equal(t, apperrors.ExitConfig, code)
	assert.NoFileExists(t, job.progress)
}
