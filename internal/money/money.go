// Package money holds the rounding and display rules for amounts.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	currencySymbol = "₹"
	cents          = 2
)

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(cents)
}

// Sum adds amounts without intermediate rounding.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Format renders an amount with Indian digit grouping, e.g. 1234567.5 as
// "₹12,34,567.5". Trailing fractional zeros are dropped.
func Format(d decimal.Decimal) string {
	d = RoundCents(d)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	s := d.StringFixed(cents)
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	out := sign + currencySymbol + groupIndian(intPart)
	if frac != "" {
		out += "." + frac
	}
	return out
}

// groupIndian groups the last three digits, then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
