package exporter

import (
	"strconv"
)

// formatFloat renders f in its shortest round-tripping form
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatIndex renders the 1-based row index for position i
func formatIndex(i int) string {
	return strconv.Itoa(i + 1)
}
