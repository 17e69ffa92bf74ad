package remote

import (
	"context"
	"net/url"
	"strings"

	"github.com/illmade-knight/go-investor/pkg/errkind"
	"github.com/illmade-knight/go-investor/pkg/types"
)

// DefaultCountry is used when a stock list is requested without a country.
const DefaultCountry = "US"

// NormalizeCountry upper-cases code and applies DefaultCountry.
func NormalizeCountry(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCountry
	}
	return code
}

// FetchStockList returns the full listing of a country's market.
func (c *Client) FetchStockList(ctx context.Context, country string) (types.StockList, error) {
	return get[types.StockList](ctx, c, "/stock/list", url.Values{"country": {NormalizeCountry(country)}})
}

// FetchStockOverview returns the overview of symbol, which is upper-cased.
func (c *Client) FetchStockOverview(ctx context.Context, symbol string) (types.StockOverview, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return types.StockOverview{}, errkind.New(errkind.InvalidRequest, "symbol is required")
	}
	return get[types.StockOverview](ctx, c, "/stock/"+symbol+"/overview", nil)
}

// FetchHome returns the signed-in user's home screen aggregate.
func (c *Client) FetchHome(ctx context.Context) (types.HomeResponse, error) {
	return get[types.HomeResponse](ctx, c, "/users/me/home", nil)
}

// FetchSubscription returns the signed-in user's privilege level and view quota.
func (c *Client) FetchSubscription(ctx context.Context) (types.UserSubscription, error) {
	return get[types.UserSubscription](ctx, c, "/users/me/subscription", nil)
}
