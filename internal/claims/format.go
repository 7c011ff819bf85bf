package claims

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount выводит сумму как "Rs. 1,234.50".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "Rs. "
	if neg {
		out += "-"
	}
	return out + b.String() + "." + frac
}
