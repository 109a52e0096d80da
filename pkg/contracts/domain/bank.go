package domain

// Column names used by every output (CSV, XLSX, database table).
const (
	ColumnName         = "Names"
	ColumnMarketCapUSD = "MC_USD_Billion"
	ColumnMarketCapGBP = "MC_GBP_Billion"
	ColumnMarketCapEUR = "MC_EUR_Billion"
	ColumnMarketCapINR = "MC_INR_Billion"
)

// BankColumns lists the output columns in BankTable field order.
var BankColumns = []string{
	ColumnName,
	ColumnMarketCapUSD,
	ColumnMarketCapGBP,
	ColumnMarketCapEUR,
	ColumnMarketCapINR,
}

// Currency codes derived from the USD market cap.
const (
	CurrencyGBP = "GBP"
	CurrencyEUR = "EUR"
	CurrencyINR = "INR"
)

// DerivedCurrencies lists the converted currencies in column order.
var DerivedCurrencies = []string{CurrencyGBP, CurrencyEUR, CurrencyINR}

// BankRecord is one extracted table row before any cleaning.
type BankRecord struct {
	Name         string `json:"name"`
	MarketCapUSD string `json:"market_cap_usd"` // raw, comma formatted
}

// Bank is a transformed row. Market caps are in billions.
type Bank struct {
	Name         string  `json:"name" db:"Names"`
	MarketCapUSD float64 `json:"market_cap_usd" db:"MC_USD_Billion"`
	MarketCapGBP float64 `json:"market_cap_gbp" db:"MC_GBP_Billion"`
	MarketCapEUR float64 `json:"market_cap_eur" db:"MC_EUR_Billion"`
	MarketCapINR float64 `json:"market_cap_inr" db:"MC_INR_Billion"`
}

// Values returns the row's values in BankColumns order.
func (b Bank) Values() []any {
	return []any{b.Name, b.MarketCapUSD, b.MarketCapGBP, b.MarketCapEUR, b.MarketCapINR}
}

// BankTable is the ordered result of a transform.
type BankTable []Bank

// Names returns the bank names in table order.
func (t BankTable) Names() []string {
	names := make([]string, len(t))
	for i, b := range t {
		names[i] = b.Name
	}
	return names
}

// ExchangeRates maps a currency code to its USD-relative multiplier.
// It is treated as read-only once loaded.
type ExchangeRates map[string]float64

// Rate returns the multiplier for code. ok is false when the code is absent.
func (r ExchangeRates) Rate(code string) (rate float64, ok bool) {
	rate, ok = r[code]
	return rate, ok
}
