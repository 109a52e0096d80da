package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBank_ValuesMatchColumns(t *testing.T) {
	b := Bank{Name: "JPMorgan Chase", MarketCapUSD: 432.92, MarketCapGBP: 346.34, MarketCapEUR: 402.62, MarketCapINR: 35910.71}

	values := b.Values()
	assert.Len(t, values, len(BankColumns))
	assert.Equal(t, []any{"JPMorgan Chase", 432.92, 346.34, 402.62, 35910.71}, values)
}

func TestBankTable_Names(t *testing.T) {
	table := BankTable{{Name: "A"}, {Name: "B"}}
	assert.Equal(t, []string{"A", "B"}, table.Names())
	assert.Empty(t, BankTable{}.Names())
}

func TestExchangeRates_Rate(t *testing.T) {
	rates := ExchangeRates{"GBP": 0.8}

	rate, ok := rates.Rate("GBP")
	assert.True(t, ok)
	assert.Equal(t, 0.8, rate)

	_, ok = rates.Rate("INR")
	assert.False(t, ok)
}
