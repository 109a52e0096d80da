// Package transform turns raw extracted records into the bank table.
//
// Market caps are cleaned and parsed as USD, then converted to each derived
// currency with the rates from the exchange-rate file. Conversions are
// rounded to two decimals, half away from zero.
//
// A derived currency missing from the rate table is converted with a
// multiplier of 1.0. This is reported in Result.Fallbacks and logged as a
// warning instead of being absorbed silently.
package transform
