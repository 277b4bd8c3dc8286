package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders an amount the way the storefront shows prices: rounded to whole
// pesos with dot thousands separators, e.g. $12.990.
func Format(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	digits := amount.Abs().Round(0).StringFixed(0)

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}
