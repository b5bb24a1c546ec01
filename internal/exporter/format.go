package exporter

import (
	"strconv"
	"strings"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	// 13.4 is written as 13.40 so columns line up in spreadsheets
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatPeak keeps the precision of normalized samples
func formatPeak(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// localize swaps the decimal point for a comma
func localize(s string, decimalComma bool) string {
	if !decimalComma {
		return s
	}
	return strings.Replace(s, ".", ",", 1)
}
