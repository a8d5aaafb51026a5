package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// moneyNoise are the characters stripped before a money value is parsed:
// thousands separators, currency symbols and (non-breaking) spaces.
var moneyNoise = strings.NewReplacer(
	",", "",
	"$", "",
	"£", "",
	"€", "",
	" ", "",
	"\u00a0", "",
)

func cleanMoney(raw string) string {
	return moneyNoise.Replace(strings.TrimSpace(raw))
}

// NormalizeMoney parses "$1,234.50" style input. Empty or unparseable
// input is zero; it never fails.
func NormalizeMoney(raw string) decimal.Decimal {
	s := cleanMoney(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// IsNumericLike reports whether raw parses as money after cleaning.
func IsNumericLike(raw string) bool {
	s := cleanMoney(raw)
	if s == "" {
		return false
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}

// FormatMoney renders d as US dollars, e.g. "$1,234.50" or "-$12.00".
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "$" + b.String() + frac
}
