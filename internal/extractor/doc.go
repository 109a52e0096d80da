// Package extractor fetches the source page and turns the first table body
// into an ordered list of raw bank records.
//
// Rows with fewer data cells than the configured minimum are skipped and
// reported in Result.Skipped. The cell positions of the name and market cap
// are configurable because the page has a leading rank column.
package extractor
