package format_test

import (
	"testing"

	"github.com/illmade-knight/go-investor/pkg/format"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }
func i(v int64) *int64     { return &v }

func TestGrowth(t *testing.T) {
	assert.Equal(t, format.Missing, format.Growth(nil))
	assert.Equal(t, "12%", format.Growth(f(0.123)))
	assert.Equal(t, "-5%", format.Growth(f(-0.05)))
	assert.Equal(t, "150%", format.Growth(f(1.5)))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, format.Missing, format.Ratio(nil))
	assert.Equal(t, "0.98", format.Ratio(f(0.98)))
	assert.Equal(t, "12.35", format.Ratio(f(12.345678)))
}

func TestMarketCap(t *testing.T) {
	testCases := []struct {
		in   *int64
		want string
	}{
		{nil, format.Missing},
		{i(2_950_000_000_000), "$2950.0B"},
		{i(1_500_000_000), "$1.5B"},
		{i(250_000_000), "$250.0M"},
		{i(999_999), "$999999"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, format.MarketCap(tc.in))
	}
}

func TestPrice(t *testing.T) {
	assert.Equal(t, format.Missing, format.Price(nil, "USD"))
	assert.Equal(t, "$189.55", format.Price(f(189.55), ""))
	assert.Equal(t, "$1,234.50", format.Price(f(1234.5), "usd"))
	assert.Equal(t, "£12.00", format.Price(f(12), "GBP"))
	assert.Equal(t, "7.25 XYZ", format.Price(f(7.25), "XYZ"))
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "$400.13", format.AmountString("400.125", "USD"))
	assert.Equal(t, format.Missing, format.AmountString("n/a", "USD"))
	assert.Equal(t, "$0.00", format.Amount(decimal.Zero, "USD"))
}

func TestGrowthTone(t *testing.T) {
	assert.Equal(t, format.Neutral, format.GrowthTone(nil))
	assert.Equal(t, format.Positive, format.GrowthTone(f(0)))
	assert.Equal(t, format.Negative, format.GrowthTone(f(-0.01)))
}
