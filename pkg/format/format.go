// Package format renders overview and home values for display.
package format

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Missing is shown for values the API did not provide.
const Missing = "—"

// DefaultCurrency is assumed when a payload carries no currency.
const DefaultCurrency = money.USD

// Growth renders a fractional growth rate as a whole percentage: 0.123 -> "12%".
func Growth(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.0f%%", *v*100)
}

// Ratio renders a ratio with two decimals.
func Ratio(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.2f", *v)
}

// MarketCap abbreviates to billions or millions: 2_950_000_000_000 -> "$2950.0B".
func MarketCap(v *int64) string {
	if v == nil {
		return Missing
	}
	const (
		billion = 1_000_000_000.0
		million = 1_000_000.0
	)
	f := float64(*v)
	switch {
	case f >= billion:
		return fmt.Sprintf("$%.1fB", f/billion)
	case f >= million:
		return fmt.Sprintf("$%.1fM", f/million)
	default:
		return fmt.Sprintf("$%d", *v)
	}
}

// Price renders v in currency, defaulting to USD.
func Price(v *float64, currency string) string {
	if v == nil {
		return Missing
	}
	return Amount(decimal.NewFromFloat(*v), currency)
}

// Amount renders an exact amount in currency, rounded to the currency's
// minor unit. Unknown currencies fall back to "<amount> <code>".
func Amount(d decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = DefaultCurrency
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return d.StringFixed(2) + " " + code
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// AmountString parses a numeric string such as the home payload's prices
// and renders it with Amount.
func AmountString(raw, currency string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Missing
	}
	return Amount(d, currency)
}

// Tone classifies a growth value for colouring.
type Tone int

const (
	Neutral Tone = iota
	Positive
	Negative
)

// GrowthTone returns Positive for v >= 0, Negative below, Neutral when absent.
func GrowthTone(v *float64) Tone {
	switch {
	case v == nil:
		return Neutral
	case *v >= 0:
		return Positive
	default:
		return Negative
	}
}
