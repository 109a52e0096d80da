package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"banketl/internal/config"
	apperrors "banketl/internal/errors"
	"banketl/internal/shared/testutil"
	"banketl/pkg/contracts/domain"
)

const banksPage = `<!DOCTYPE html>
<html><body>
<h2>By market capitalization</h2>
<table class="wikitable">
<tbody>
<tr><th>Rank</th><th>Bank name</th><th>Market cap<br/>(US$ billion)</th></tr>
<tr><td>1</td><td><span class="flagicon"><img alt="United States"/></span> <a href="/wiki/JPMorgan_Chase">JPMorgan Chase</a>
</td><td>432.92
</td></tr>
<tr><td>2</td><td><a href="/wiki/Bank_of_America">Bank of America</a></td><td>231.52</td></tr>
<tr><td colspan="3">Source: companiesmarketcap.com</td></tr>
<tr><td>3</td><td> Industrial and Commercial <b>Bank</b> of China </td><td>1,194.01</td></tr>
</tbody>
</table>
<table><tbody><tr><td>9</td><td>Other table</td><td>1</td></tr></tbody></table>
</body></html>`

func sourceConfig() config.SourceConfig {
	return config.Default().Source
}

func TestExtract(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(banksPage))
	}))
	defer server.Close()

	logger, handler := testutil.NewTestLogger(t)
	ext := New(server.Client(), sourceConfig(), logger)

	result, err := ext.Extract(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, []domain.BankRecord{
		{Name: "JPMorgan Chase", MarketCapUSD: "432.92"},
		{Name: "Bank of America", MarketCapUSD: "231.52"},
		{Name: "Industrial and CommercialBankof China", MarketCapUSD: "1,194.01"},
	}, result.Records)
	assert.Equal(t, 5, result.Rows)
	assert.Equal(t, []SkippedRow{{Index: 0, Cells: 0}, {Index: 3, Cells: 1}}, result.Skipped)
	assert.Equal(t, "banketl/1.0", gotAgent)

	assert.True(t, handler.ContainsMessage("Extraction complete"))
	assert.True(t, handler.ContainsAttr("component", "extractor"))
	assert.Len(t, handler.FindByMessage("Skipped row"), 2)
}

func TestExtract_ColumnMapping(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<table><tbody><tr><td>Acme Bank</td><td>10</td></tr><tr><td>Beta Bank</td><td>20</td></tr></tbody></table>`))
	require.NoError(t, err)

	cfg := sourceConfig()
	cfg.NameColumn = 0
	cfg.MarketCapColumn = 1

	result, err := New(nil, cfg, nil).Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []domain.BankRecord{
		{Name: "Acme Bank", MarketCapUSD: "10"},
		{Name: "Beta Bank", MarketCapUSD: "20"},
	}, result.Records)
	assert.Empty(t, result.Skipped)
}

func TestParse_CountsRowsWithEnoughCells(t *testing.T) {
	tests := []struct {
		name    string
		rows    []int
		records int
	}{
		{name: "all valid", rows: []int{3, 3, 3}, records: 3},
		{name: "short rows skipped", rows: []int{1, 3, 0, 3}, records: 2},
		{name: "only short rows", rows: []int{1, 1}, records: 0},
		{name: "wide rows", rows: []int{5, 4}, records: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			sb.WriteString("<table><tbody>")
			for _, cells := range tt.rows {
				sb.WriteString("<tr>")
				for c := 0; c < cells; c++ {
					sb.WriteString("<td>1</td>")
				}
				sb.WriteString("</tr>")
			}
			sb.WriteString("</tbody></table>")

			doc, err := html.Parse(strings.NewReader(sb.String()))
			require.NoError(t, err)

			result, err := New(nil, sourceConfig(), nil).Parse(doc)
			require.NoError(t, err)
			assert.Len(t, result.Records, tt.records)
			assert.Equal(t, len(tt.rows), result.Rows)
			assert.Len(t, result.Skipped, len(tt.rows)-tt.records)
		})
	}
}

func TestParse_ImpliedTableBody(t *testing.T) {
	// the parser gives every table a tbody, so a table written without one
	// still counts as the first table body
	doc, err := html.Parse(strings.NewReader(`<html><body>
<table><tr><td>1</td><td>First Bank</td><td>10.5</td></tr></table>
<table><tbody><tr><td>1</td><td>Second Bank</td><td>20.5</td></tr></tbody></table>
</body></html>`))
	require.NoError(t, err)

	result, err := New(nil, sourceConfig(), nil).Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []domain.BankRecord{{Name: "First Bank", MarketCapUSD: "10.5"}}, result.Records)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "no table body", input: `<html><body><p>nothing here</p></body></html>`},
		{name: "mapped column missing", input: `<table><tbody><tr><td>1</td><td>Acme</td></tr></tbody></table>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := html.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)

			result, err := New(nil, sourceConfig(), nil).Parse(doc)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
		})
	}
}

func TestExtract_NetworkErrors(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := New(server.Client(), sourceConfig(), nil).Extract(context.Background(), server.URL)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := New(nil, sourceConfig(), nil).Extract(context.Background(), url)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
	})

	t.Run("malformed url", func(t *testing.T) {
		_, err := New(nil, sourceConfig(), nil).Extract(context.Background(), "://bad")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
	})
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(0, nil)
	assert.Zero(t, client.Timeout)
	assert.NotNil(t, client.Transport)
}
