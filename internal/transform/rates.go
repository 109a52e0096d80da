package transform

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	apperrors "banketl/internal/errors"
	"banketl/pkg/contracts/domain"
)

// RateColumns names the key and value columns of the rate file
type RateColumns struct {
	Currency string
	Rate     string
}

// DefaultRateColumns matches the published exchange_rate.csv
var DefaultRateColumns = RateColumns{Currency: "Currency", Rate: "Exchange Rate"}

// LoadRates reads the exchange-rate file at path.
func LoadRates(path string, cols RateColumns) (domain.ExchangeRates, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to open exchange rate file", err).WithContext("path", path)
	}
	defer f.Close()

	rates, err := ParseRates(f, cols)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			return nil, appErr.WithContext("path", path)
		}
		return nil, err
	}
	return rates, nil
}

// ParseRates reads rate rows from r. A missing key column or a rate that is
// not a finite, non-negative number is a CONFIG error; blank lines are ignored.
func ParseRates(r io.Reader, cols RateColumns) (domain.ExchangeRates, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.NewConfigError("exchange rate file is empty", nil)
	}
	if err != nil {
		return nil, apperrors.NewConfigError("failed to read exchange rate header", err)
	}

	currencyIdx, rateIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch name {
		case cols.Currency:
			currencyIdx = i
		case cols.Rate:
			rateIdx = i
		}
	}
	if currencyIdx < 0 || rateIdx < 0 {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("exchange rate file must have %q and %q columns", cols.Currency, cols.Rate), nil).
			WithContext("header", strings.Join(header, ","))
	}

	rates := make(domain.ExchangeRates)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewConfigError("failed to read exchange rate row", err).WithContext("line", line)
		}
		if len(record) <= currencyIdx || len(record) <= rateIdx {
			return nil, apperrors.NewConfigError("exchange rate row is missing columns", nil).WithContext("line", line)
		}

		code := strings.ToUpper(strings.TrimSpace(record[currencyIdx]))
		if code == "" {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(record[rateIdx]), 64)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid exchange rate for %s", code), err).
				WithContext("line", line)
		}
		if err := checkRate(rate); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid exchange rate for %s", code), err).
				WithContext("line", line)
		}
		rates[code] = rate
	}

	if len(rates) == 0 {
		return nil, apperrors.NewConfigError("exchange rate file has no rates", nil)
	}
	return rates, nil
}

// checkRate rejects multipliers that cannot be applied to a market cap
func checkRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("%v is not a finite number", rate)
	}
	if rate < 0 {
		return fmt.Errorf("%v is negative", rate)
	}
	return nil
}
