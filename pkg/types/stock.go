// Package types holds the payloads exchanged with the investor API and kept in
// the local cache.
package types

import (
	"errors"
	"fmt"
)

// Scoring algorithm maxima as published by the API.
const (
	MaxTotalScore        = 182 // 4x29 growth + 2x8 returns + 5x10 ratios
	MaxGrowthMetricScore = 29
	MaxReturnMetricScore = 8
	MaxRatioMetricScore  = 10
)

// PeriodLabels lists the PeriodMetrics periods in display order.
var PeriodLabels = []string{"5y", "3y", "2y", "1y", "6m"}

// PeriodMetrics is one metric over the standard look-back periods.
type PeriodMetrics struct {
	FiveYear  *float64 `json:"5y" msgpack:"5y"`
	ThreeYear *float64 `json:"3y" msgpack:"3y"`
	TwoYear   *float64 `json:"2y" msgpack:"2y"`
	OneYear   *float64 `json:"1y" msgpack:"1y"`
	SixMonth  *float64 `json:"6m" msgpack:"6m"`
}

// Values returns the metric values ordered as PeriodLabels.
func (p PeriodMetrics) Values() []*float64 {
	return []*float64{p.FiveYear, p.ThreeYear, p.TwoYear, p.OneYear, p.SixMonth}
}

// StockListItem is one entry of a market's stock list. Symbol is the unique key.
type StockListItem struct {
	Symbol            string  `json:"symbol" msgpack:"symbol"`
	CompanyName       *string `json:"companyName,omitempty" msgpack:"companyName,omitempty"`
	Currency          *string `json:"currency,omitempty" msgpack:"currency,omitempty"`
	Exchange          *string `json:"exchange,omitempty" msgpack:"exchange,omitempty"`
	Industry          *string `json:"industry,omitempty" msgpack:"industry,omitempty"`
	Sector            *string `json:"sector,omitempty" msgpack:"sector,omitempty"`
	Country           *string `json:"country,omitempty" msgpack:"country,omitempty"`
	ImageURL          *string `json:"image,omitempty" msgpack:"image,omitempty"`
	IsETF             *bool   `json:"isEtf,omitempty" msgpack:"isEtf,omitempty"`
	IsActivelyTrading *bool   `json:"isActivelyTrading,omitempty" msgpack:"isActivelyTrading,omitempty"`
	IsADR             *bool   `json:"isAdr,omitempty" msgpack:"isAdr,omitempty"`
	IsFund            *bool   `json:"isFund,omitempty" msgpack:"isFund,omitempty"`
}

// Name returns the company name, or an empty string when the API omitted it.
func (s StockListItem) Name() string {
	if s.CompanyName == nil {
		return ""
	}
	return *s.CompanyName
}

// StockList is a full market listing. It is replaced as a whole on refetch.
type StockList []StockListItem

// Validate rejects listings containing items without a symbol.
func (l StockList) Validate() error {
	for i, item := range l {
		if item.Symbol == "" {
			return fmt.Errorf("stock list item %d has no symbol", i)
		}
	}
	return nil
}

// StockProfile is the company profile part of a stock overview.
type StockProfile struct {
	Symbol           string   `json:"symbol"`
	CompanyName      *string  `json:"companyName,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	Changes          *float64 `json:"changes,omitempty"`
	ChangePercentage *float64 `json:"changePercentage,omitempty"`
	MktCap           *int64   `json:"mktCap,omitempty"`
	CalculatedMktCap *int64   `json:"calculatedMktCap,omitempty"`
	Volume           *int64   `json:"volume,omitempty"`
	VolAvg           *int64   `json:"volAvg,omitempty"`
	Beta             *float64 `json:"beta,omitempty"`
	Range            *string  `json:"range,omitempty"`
	LastDiv          *float64 `json:"lastDiv,omitempty"`
	Currency         *string  `json:"currency,omitempty"`
	Exchange         *string  `json:"exchange,omitempty"`
	Industry         *string  `json:"industry,omitempty"`
	Sector           *string  `json:"sector,omitempty"`
	CEO              *string  `json:"ceo,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Website          *string  `json:"website,omitempty"`
	Employees        *string  `json:"employees,omitempty"`
	Image            *string  `json:"image,omitempty"`
}

// ScoreBreakdown holds the per-metric points of a stock score.
type ScoreBreakdown struct {
	Revenue         int `json:"revenue"`
	OperatingIncome int `json:"operatingIncome"`
	FreeCashFlow    int `json:"freeCashFlow"`
	BookValue       int `json:"bookValue"`
	ROCE            int `json:"roce"`
	FCFROCE         int `json:"fcfroce"`
	ProfitMargin    int `json:"profitMargin"`
	DebtEquity      int `json:"debtEquity"`
	LiabilityEquity int `json:"liabilityEquity"`
	CurrentRatio    int `json:"currentRatio"`
	QuickRatio      int `json:"quickRatio"`
}

type StockScore struct {
	Overall   int            `json:"overall"`
	MaxScore  int            `json:"maxScore"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

type GrowthMetrics struct {
	Revenue         PeriodMetrics `json:"revenue"`
	OperatingIncome PeriodMetrics `json:"operatingIncome"`
	FreeCashFlow    PeriodMetrics `json:"freeCashFlow"`
	BookValue       PeriodMetrics `json:"bookValue"`
}

type ReturnsMetrics struct {
	ROCE    PeriodMetrics `json:"roce"`
	FCFROCE PeriodMetrics `json:"fcfroce"`
}

type Ratios struct {
	ProfitMargin      PeriodMetrics `json:"profitMargin"`
	DebtToEquity      PeriodMetrics `json:"debtToEquity"`
	LiabilityToEquity PeriodMetrics `json:"liabilityToEquity"`
	CurrentRatio      PeriodMetrics `json:"currentRatio"`
	QuickRatio        PeriodMetrics `json:"quickRatio"`
}

type Momentum struct {
	Score        float64 `json:"score"`
	Signal       string  `json:"signal"`
	Strength     string  `json:"strength"`
	Date         string  `json:"date"`
	CalculatedAt string  `json:"calculatedAt"`
}

type Earnings struct {
	Date             string   `json:"date"`
	EPSActual        *float64 `json:"epsActual,omitempty"`
	EPSEstimated     *float64 `json:"epsEstimated,omitempty"`
	RevenueActual    *int64   `json:"revenueActual,omitempty"`
	RevenueEstimated *int64   `json:"revenueEstimated,omitempty"`
}

type Dividend struct {
	Date        string   `json:"date"`
	Amount      *float64 `json:"amount,omitempty"`
	RecordDate  *string  `json:"recordDate,omitempty"`
	PaymentDate *string  `json:"paymentDate,omitempty"`
	Yield       *float64 `json:"yield,omitempty"`
}

type PricePoint struct {
	Price float64 `json:"price"`
	Date  string  `json:"date"`
}

// APIMetadata describes how the server computed an overview.
type APIMetadata struct {
	CalculationsPerformed *int  `json:"calculationsPerformed,omitempty"`
	CacheEnabled          *bool `json:"cacheEnabled,omitempty"`
	CacheTTL              *int  `json:"cacheTTL,omitempty"`
	MaxScore              *int  `json:"maxScore,omitempty"`
}

// StockOverview is the full research payload for one symbol.
type StockOverview struct {
	Symbol         string                         `json:"symbol"`
	LastUpdated    *string                        `json:"lastUpdated,omitempty"`
	Profile        StockProfile                   `json:"profile"`
	Score          StockScore                     `json:"score"`
	Growth         GrowthMetrics                  `json:"growth"`
	Returns        ReturnsMetrics                 `json:"returns"`
	Ratios         Ratios                         `json:"ratios"`
	Valuation      map[string]map[string]*float64 `json:"valuation,omitempty"`
	Earnings       []Earnings                     `json:"earnings"`
	Dividends      []Dividend                     `json:"dividends"`
	AnalystRatings map[string]float64             `json:"analystRatings,omitempty"`
	Momentum       *Momentum                      `json:"momentum,omitempty"`
	Prices         map[string]PricePoint          `json:"prices,omitempty"`
	Metadata       *APIMetadata                   `json:"_metadata,omitempty"`
}

// Validate rejects overviews missing the fields every screen depends on.
func (o StockOverview) Validate() error {
	if o.Symbol == "" {
		return errors.New("stock overview has no symbol")
	}
	if o.Profile.Symbol == "" {
		return fmt.Errorf("stock overview %s has no profile", o.Symbol)
	}
	if o.Score.MaxScore <= 0 {
		return fmt.Errorf("stock overview %s has no score", o.Symbol)
	}
	return nil
}

// APIError is the error body some endpoints return.
type APIError struct {
	Error string `json:"error"`
}
