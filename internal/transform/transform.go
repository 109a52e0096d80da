package transform

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "banketl/internal/errors"
	"banketl/pkg/contracts/domain"
)

// FallbackRate is the multiplier used for a currency absent from the rates
const FallbackRate = 1.0

// RoundPlaces is the precision of every derived currency column
const RoundPlaces = 2

// Result is the outcome of one transform
type Result struct {
	Table domain.BankTable
	// Fallbacks lists the derived currencies converted with FallbackRate,
	// in column order.
	Fallbacks []string
}

// Transformer converts extracted records using a fixed rate table
type Transformer struct {
	logger *slog.Logger
}

// New creates a transformer
func New(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{logger: logger.With(slog.String("component", "transformer"))}
}

// Transform is a convenience wrapper around Transformer.Transform using the
// default logger.
func Transform(records []domain.BankRecord, rates domain.ExchangeRates) (*Result, error) {
	return New(nil).Transform(records, rates)
}

// Transform parses every record and derives the converted columns. The
// output has the same length and order as records. The first record that
// does not parse aborts the transform.
func (t *Transformer) Transform(records []domain.BankRecord, rates domain.ExchangeRates) (*Result, error) {
	if len(rates) == 0 {
		return nil, apperrors.NewConfigError("exchange rate table is empty", nil)
	}

	multipliers := make([]decimal.Decimal, len(domain.DerivedCurrencies))
	result := &Result{Table: make(domain.BankTable, 0, len(records))}
	for i, code := range domain.DerivedCurrencies {
		rate, ok := rates.Rate(code)
		if !ok {
			rate = FallbackRate
			result.Fallbacks = append(result.Fallbacks, code)
			t.logger.Debug("Currency missing from exchange rates, using fallback",
				slog.String("currency", code),
				slog.Float64("rate", FallbackRate))
		}
		if err := checkRate(rate); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid exchange rate for %s", code), err).
				WithContext("currency", code)
		}
		multipliers[i] = decimal.NewFromFloat(rate)
	}

	for i, rec := range records {
		usd, err := ParseMarketCap(rec.MarketCapUSD)
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("invalid market cap for row %d (%s)", i, rec.Name), err).
				WithContext("row", i).
				WithContext("bank", rec.Name).
				WithContext("value", rec.MarketCapUSD)
		}

		result.Table = append(result.Table, domain.Bank{
			Name:         rec.Name,
			MarketCapUSD: usd,
			MarketCapGBP: convert(usd, multipliers[0]),
			MarketCapEUR: convert(usd, multipliers[1]),
			MarketCapINR: convert(usd, multipliers[2]),
		})
	}

	t.logger.Info("Transform complete",
		slog.Int("rows", len(result.Table)),
		slog.Any("fallbacks", result.Fallbacks))

	return result, nil
}

// ParseMarketCap cleans a raw market cap ("1,234.5 ") and parses it. The
// value must be a finite, non-negative number.
func ParseMarketCap(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty value")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("%q is negative", raw)
	}
	return value, nil
}

// Convert returns round(usd*rate, 2).
func Convert(usd, rate float64) float64 {
	return convert(usd, decimal.NewFromFloat(rate))
}

func convert(usd float64, rate decimal.Decimal) float64 {
	v, _ := decimal.NewFromFloat(usd).Mul(rate).Round(RoundPlaces).Float64()
	return v
}
