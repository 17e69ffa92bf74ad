package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceChanges holds percentage changes over short windows, as strings.
type PriceChanges struct {
	D1 *string `json:"d1,omitempty"`
	W1 *string `json:"w1,omitempty"`
	W2 *string `json:"w2,omitempty"`
	M1 *string `json:"m1,omitempty"`
}

// EarningsNotification flags an upcoming or recent earnings release.
type EarningsNotification struct {
	Message *string `json:"message,omitempty"`
}

// PortfolioItem is one holding on the home screen. Money amounts are
// transported as decimal strings.
type PortfolioItem struct {
	Symbol       string                `json:"symbol"`
	CompanyName  string                `json:"company_name"`
	Image        *string               `json:"image,omitempty"`
	Currency     string                `json:"currency"`
	Quantity     string                `json:"quantity"`
	Value        string                `json:"value"`
	Price        string                `json:"price"`
	Score        *int                  `json:"score,omitempty"`
	PriceChanges PriceChanges          `json:"price_changes"`
	Earnings     *EarningsNotification `json:"earnings,omitempty"`
}

// QuantityDecimal parses Quantity.
func (p PortfolioItem) QuantityDecimal() (decimal.Decimal, error) {
	return parseDecimal("quantity", p.Symbol, p.Quantity)
}

// ValueDecimal parses Value.
func (p PortfolioItem) ValueDecimal() (decimal.Decimal, error) {
	return parseDecimal("value", p.Symbol, p.Value)
}

// PriceDecimal parses Price.
func (p PortfolioItem) PriceDecimal() (decimal.Decimal, error) {
	return parseDecimal("price", p.Symbol, p.Price)
}

type WatchlistStock struct {
	Symbol       string                `json:"symbol"`
	CompanyName  string                `json:"company_name"`
	Image        *string               `json:"image,omitempty"`
	Price        string                `json:"price"`
	Score        *int                  `json:"score,omitempty"`
	PriceChanges PriceChanges          `json:"price_changes"`
	Earnings     *EarningsNotification `json:"earnings,omitempty"`
}

// PriceDecimal parses Price.
func (w WatchlistStock) PriceDecimal() (decimal.Decimal, error) {
	return parseDecimal("price", w.Symbol, w.Price)
}

type Watchlist struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	IsDefault   bool             `json:"is_default"`
	TotalStocks int              `json:"total_stocks"`
	Stocks      []WatchlistStock `json:"stocks"`
}

type RecentlyViewedItem struct {
	Symbol       string                `json:"symbol"`
	CompanyName  string                `json:"company_name"`
	Image        *string               `json:"image,omitempty"`
	Currency     string                `json:"currency"`
	Price        string                `json:"price"`
	Score        *int                  `json:"score,omitempty"`
	PriceChanges PriceChanges          `json:"price_changes"`
	Earnings     *EarningsNotification `json:"earnings,omitempty"`
}

// PriceDecimal parses Price.
func (r RecentlyViewedItem) PriceDecimal() (decimal.Decimal, error) {
	return parseDecimal("price", r.Symbol, r.Price)
}

// MarketOverview is reserved by the API and currently always null.
type MarketOverview struct {
	Placeholder *string `json:"placeholder,omitempty"`
}

// HomeResponse is the home screen aggregate.
type HomeResponse struct {
	Portfolio      []PortfolioItem      `json:"portfolio"`
	Watchlists     []Watchlist          `json:"watchlists"`
	RecentlyViewed []RecentlyViewedItem `json:"recently_viewed"`
	MarketOverview *MarketOverview      `json:"market_overview,omitempty"`
}

// Validate rejects aggregates with unidentifiable entries.
func (h HomeResponse) Validate() error {
	for i, item := range h.Portfolio {
		if item.Symbol == "" {
			return fmt.Errorf("portfolio item %d has no symbol", i)
		}
	}
	for i, wl := range h.Watchlists {
		if wl.ID == "" {
			return fmt.Errorf("watchlist %d has no id", i)
		}
		for j, s := range wl.Stocks {
			if s.Symbol == "" {
				return fmt.Errorf("watchlist %s stock %d has no symbol", wl.ID, j)
			}
		}
	}
	for i, item := range h.RecentlyViewed {
		if item.Symbol == "" {
			return fmt.Errorf("recently viewed item %d has no symbol", i)
		}
	}
	return nil
}

// PortfolioValue sums the value of every holding. Holdings in other
// currencies are not converted; callers group by currency when that matters.
func (h HomeResponse) PortfolioValue() (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, item := range h.Portfolio {
		v, err := item.ValueDecimal()
		if err != nil {
			return nil, err
		}
		totals[item.Currency] = totals[item.Currency].Add(v)
	}
	return totals, nil
}

func parseDecimal(field, symbol, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %s %q: %w", symbol, field, raw, err)
	}
	return d, nil
}
