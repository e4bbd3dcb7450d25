// Package presenter turns companies and summary stats into display values:
// formatted numbers, table cells with badge variants, stat cards, chart
// series and virtual-scroll windows.  Nothing here touches the terminal.
package presenter

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatNumber groups thousands and keeps at most three fraction digits:
// 1000 => "1,000", 65.3333 => "65.333".
func FormatNumber(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		return s
	}
	return humanize.Commaf(math.Round(v*1000) / 1000)
}

// FormatInt groups thousands of an integer count.
func FormatInt(n int) string {
	return humanize.Comma(int64(n))
}

// FormatPercentage renders a fraction as a percentage with the given number
// of decimals: (0.85, 1) => "85.0%".
func FormatPercentage(v float64, decimals int) string {
	if s, ok := formatNonFinite(v); ok {
		return s + "%"
	}
	if decimals < 0 {
		decimals = 0
	}
	return fmt.Sprintf("%.*f%%", decimals, v*100)
}

// FormatCurrency renders whole US dollars: 1000 => "$1,000".
func FormatCurrency(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		return "$" + s
	}
	r := int64(math.Round(v))
	if r < 0 {
		return "-$" + humanize.Comma(-r)
	}
	return "$" + humanize.Comma(r)
}

// FormatMonths renders a duration in months with one decimal.
func FormatMonths(v float64) string {
	return FormatDecimal(v) + " months"
}

// FormatDecimal renders v with one decimal.
func FormatDecimal(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		return s
	}
	return fmt.Sprintf("%.1f", v)
}

func formatNonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "∞", true
	case math.IsInf(v, -1):
		return "-∞", true
	}
	return "", false
}
