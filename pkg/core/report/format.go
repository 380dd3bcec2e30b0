package report

import (
	"fmt"
	"strings"
)

// CurrencySymbol prefixes every formatted amount. The business operates in
// colones, so the default is not configurable per call.
const CurrencySymbol = "₡"

// NotAvailable is the placeholder for metrics that could not be computed.
const NotAvailable = "N/D"

// FormatCurrency renders an amount as "₡80,899.99". A nil value renders as
// "N/D" so the board never shows a fabricated zero.
func FormatCurrency(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return CurrencySymbol + groupThousands(fmt.Sprintf("%.2f", *v))
}

// FormatDays renders a day metric as "31.0 days", or "N/D" when nil.
func FormatDays(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f days", *v)
}

// FormatNumber renders a plain number with thousands separators.
func FormatNumber(v *float64, decimals int) string {
	if v == nil {
		return NotAvailable
	}
	return groupThousands(fmt.Sprintf("%.*f", decimals, *v))
}

// FormatPct renders a ratio as a percentage with one decimal, "N/D" when nil.
func FormatPct(ratio *float64) string {
	if ratio == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f%%", *ratio*100)
}

// groupThousands inserts comma separators into the integer part of an
// already-formatted decimal string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	out := intPart + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
