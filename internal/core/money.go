// Package core provides money parsing and handling utilities.
//
// Amounts are kept as exact decimals end to end. Rounding to cents happens
// only when a value is formatted for people.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-typed amount to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, a
// leading sign and an exponent as JSON numbers carry it (1.2e3). Thousands
// separators are rejected since "1.234" would be ambiguous between the two
// conventions.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("-5")     -> -5 (credit)
//	ParseAmount("1.2e3")  -> 1200
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ToLower(strings.ReplaceAll(s, ",", "."))

	mantissa, exp, hasExp := strings.Cut(s, "e")
	if hasExp {
		if exp = trimSign(exp); exp == "" || !allDigits(exp) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	whole, frac, _ := strings.Cut(trimSign(mantissa), ".")
	if whole+frac == "" || !allDigits(whole) || !allDigits(frac) {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func trimSign(s string) string {
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return s[1:]
	}
	return s
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// RoundCurrency rounds half away from zero to cents.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatBRL formats an amount the way the UI shows it, e.g. "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	rounded := RoundCurrency(d)
	neg := rounded.IsNegative()
	fixed := rounded.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "R$ " + b.String() + "," + frac
	if neg {
		return "-" + out
	}
	return out
}
