package transform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "banketl/internal/errors"
	"banketl/pkg/contracts/domain"
)

const rateFile = `Currency,Exchange Rate
EUR,0.93
GBP,0.8
INR,82.95
`

func TestLoadRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exchange_rate.csv")
	require.NoError(t, os.WriteFile(path, []byte(rateFile), 0644))

	rates, err := LoadRates(path, DefaultRateColumns)
	require.NoError(t, err)
	assert.Equal(t, domain.ExchangeRates{"EUR": 0.93, "GBP": 0.8, "INR": 82.95}, rates)
}

func TestLoadRates_MissingFile(t *testing.T) {
	_, err := LoadRates(filepath.Join(t.TempDir(), "absent.csv"), DefaultRateColumns)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestParseRates(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		cols    RateColumns
		want    domain.ExchangeRates
		wantErr string
	}{
		{
			name:  "reordered columns and extra column",
			input: "Exchange Rate,Note,Currency\n0.8,pound,gbp\n",
			cols:  DefaultRateColumns,
			want:  domain.ExchangeRates{"GBP": 0.8},
		},
		{
			name:  "bom and blank code",
			input: "\ufeffCurrency,Exchange Rate\nEUR,0.9\n,1.5\n",
			cols:  DefaultRateColumns,
			want:  domain.ExchangeRates{"EUR": 0.9},
		},
		{
			name:  "custom columns",
			input: "code,rate\nINR,80\n",
			cols:  RateColumns{Currency: "code", Rate: "rate"},
			want:  domain.ExchangeRates{"INR": 80},
		},
		{
			name:    "missing rate column",
			input:   "Currency,Rate\nEUR,0.9\n",
			cols:    DefaultRateColumns,
			wantErr: `must have "Currency" and "Exchange Rate" columns`,
		},
		{
			name:    "non numeric rate",
			input:   "Currency,Exchange Rate\nEUR,abc\n",
			cols:    DefaultRateColumns,
			wantErr: "invalid exchange rate for EUR",
		},
		{
			name:    "nan rate",
			input:   "Currency,Exchange Rate\nGBP,NaN\nEUR,0.9\n",
			cols:    DefaultRateColumns,
			wantErr: "invalid exchange rate for GBP",
		},
		{
			name:    "infinite rate",
			input:   "Currency,Exchange Rate\nEUR,0.9\nINR,Inf\n",
			cols:    DefaultRateColumns,
			wantErr: "invalid exchange rate for INR",
		},
		{
			name:    "signed infinite rate",
			input:   "Currency,Exchange Rate\nINR,+Inf\n",
			cols:    DefaultRateColumns,
			wantErr: "not a finite number",
		},
		{
			name:    "negative rate",
			input:   "Currency,Exchange Rate\nEUR,-0.9\n",
			cols:    DefaultRateColumns,
			wantErr: "is negative",
		},
		{
			name:    "short row",
			input:   "Currency,Exchange Rate\nEUR\n",
			cols:    DefaultRateColumns,
			wantErr: "missing columns",
		},
		{
			name:    "header only",
			input:   "Currency,Exchange Rate\n",
			cols:    DefaultRateColumns,
			wantErr: "no rates",
		},
		{
			name:    "empty",
			input:   "",
			cols:    DefaultRateColumns,
			wantErr: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates, err := ParseRates(strings.NewReader(tt.input), tt.cols)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rates)
		})
	}
}
