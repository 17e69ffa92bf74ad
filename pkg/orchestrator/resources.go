package orchestrator

import (
	"context"
	"strings"
	"sync"

	"github.com/illmade-knight/go-investor/pkg/cache"
	"github.com/illmade-knight/go-investor/pkg/types"
	"github.com/rs/zerolog"
)

// Resource names.
const (
	ResourceStockList = "stock_list"
	ResourceHome      = "home"
	ResourceOverview  = "stock_overview"
)

// view exposes the read side shared by the per-resource wrappers.
type view[K comparable, T any] struct {
	orch *Orchestrator[K, T]
}

func (v view[K, T]) State() State[T] { return v.orch.State() }
func (v view[K, T]) Subscribe(obs Observer[T]) *Subscription { return v.orch.Subscribe(obs) }
func (v view[K, T]) Watch(ctx context.Context) <-chan State[T] { return v.orch.Watch(ctx) }
func (v view[K, T]) Resource() string { return v.orch.Resource() }
func (v view[K, T]) ClearAll(ctx context.Context) error { return v.orch.ClearAll(ctx) }

// StockListSource fetches a country's listing.
type StockListSource interface {
	FetchStockList(ctx context.Context, country string) (types.StockList, error)
}

// StockList orchestrates the per-country stock listing. Listings are large
// and change rarely, so they are cached for a day in msgpack form.
type StockList struct {
	view[string, types.StockList]
	defaultCountry string

	mu      sync.Mutex
	country string
}

// NewStockList creates the stock list orchestrator. An empty defaultCountry means US.
func NewStockList(src StockListSource, store cache.Store, defaultCountry string, logger zerolog.Logger, opts ...cache.EntryOption) (*StockList, error) {
	defaultCountry = normalizeCountry(defaultCountry, "US")
	entry := cache.NewEntry[types.StockList](store, cache.MsgpackCodec[types.StockList]{}, cache.StockListTTL, logger, opts...)
	orch, err := New(Config[string, types.StockList]{
		Resource:       ResourceStockList,
		Fetch:          src.FetchStockList,
		Entry:          entry,
		CacheKey:       cache.StockListKey,
		PersistentKeys: []string{cache.StockListKey(defaultCountry)},
	}, logger)
	if err != nil {
		return nil, err
	}
	return &StockList{
		view:           view[string, types.StockList]{orch: orch},
		defaultCountry: defaultCountry,
		country:        defaultCountry,
	}, nil
}

// Country returns the country currently selected.
func (s *StockList) Country() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.country
}

// Initialize loads the selected country's listing, from cache when fresh.
func (s *StockList) Initialize(ctx context.Context) State[types.StockList] {
	return s.orch.Initialize(ctx, s.Country())
}

// Refresh refetches the selected country's listing.
func (s *StockList) Refresh(ctx context.Context) State[types.StockList] {
	return s.orch.Refresh(ctx, s.Country())
}

// FetchCountry switches to country and fetches its listing from the network.
// A fetch still running for the previous country is superseded.
func (s *StockList) FetchCountry(ctx context.Context, country string) State[types.StockList] {
	country = normalizeCountry(country, s.defaultCountry)
	s.mu.Lock()
	s.country = country
	s.mu.Unlock()
	return s.orch.Refresh(ctx, country)
}

// Stocks returns the listing currently published, or nil.
func (s *StockList) Stocks() types.StockList {
	st := s.orch.State()
	if !st.HasData {
		return nil
	}
	return st.Data
}

// Clear drops the selected country's slot.
func (s *StockList) Clear(ctx context.Context) error {
	return s.orch.Clear(ctx, s.Country())
}

func normalizeCountry(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fallback
	}
	return code
}

// HomeSource fetches the home screen aggregate.
type HomeSource interface {
	FetchHome(ctx context.Context) (types.HomeResponse, error)
}

// Home orchestrates the signed-in user's home screen: portfolio,
// watchlists and recently viewed stocks. It goes stale after five minutes.
type Home struct {
	view[struct{}, types.HomeResponse]
}

// NewHome creates the home orchestrator.
func NewHome(src HomeSource, store cache.Store, logger zerolog.Logger, opts ...cache.EntryOption) (*Home, error) {
	entry := cache.NewEntry[types.HomeResponse](store, cache.JSONCodec[types.HomeResponse]{}, cache.HomeTTL, logger, opts...)
	orch, err := New(Config[struct{}, types.HomeResponse]{
		Resource: ResourceHome,
		Fetch: func(ctx context.Context, _ struct{}) (types.HomeResponse, error) {
			return src.FetchHome(ctx)
		},
		Entry:          entry,
		CacheKey:       func(struct{}) string { return cache.HomeKey },
		PersistentKeys: []string{cache.HomeKey},
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Home{view: view[struct{}, types.HomeResponse]{orch: orch}}, nil
}

// Initialize loads the home screen, from cache when younger than five minutes.
func (h *Home) Initialize(ctx context.Context) State[types.HomeResponse] {
	return h.orch.Initialize(ctx, struct{}{})
}

// Refresh refetches the home screen from the network.
func (h *Home) Refresh(ctx context.Context) State[types.HomeResponse] {
	return h.orch.Refresh(ctx, struct{}{})
}

// Clear drops the cached home data and resets the state.
func (h *Home) Clear(ctx context.Context) error {
	return h.orch.Clear(ctx, struct{}{})
}

// OverviewSource fetches one symbol's overview.
type OverviewSource interface {
	FetchStockOverview(ctx context.Context, symbol string) (types.StockOverview, error)
}

// Overview orchestrates the detail screen of one stock at a time.
type Overview struct {
	view[string, types.StockOverview]

	mu     sync.Mutex
	symbol string
}

// NewOverview creates the overview orchestrator. store is normally an
// LRUStore so only recently viewed symbols are kept.
func NewOverview(src OverviewSource, store cache.Store, logger zerolog.Logger, opts ...cache.EntryOption) (*Overview, error) {
	entry := cache.NewEntry[types.StockOverview](store, cache.JSONCodec[types.StockOverview]{}, cache.OverviewTTL, logger, opts...)
	orch, err := New(Config[string, types.StockOverview]{
		Resource: ResourceOverview,
		Fetch:    src.FetchStockOverview,
		Entry:    entry,
		CacheKey: cache.OverviewKey,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Overview{view: view[string, types.StockOverview]{orch: orch}}, nil
}

// Symbol returns the symbol last loaded, upper-cased.
func (o *Overview) Symbol() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.symbol
}

// Load shows symbol, from cache when fresh. Loading another symbol while a
// fetch is running supersedes it.
func (o *Overview) Load(ctx context.Context, symbol string) State[types.StockOverview] {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	o.mu.Lock()
	o.symbol = symbol
	o.mu.Unlock()
	return o.orch.Initialize(ctx, symbol)
}

// Refresh refetches the current symbol. Without one it returns the idle state.
func (o *Overview) Refresh(ctx context.Context) State[types.StockOverview] {
	symbol := o.Symbol()
	if symbol == "" {
		return o.orch.State()
	}
	return o.orch.Refresh(ctx, symbol)
}

// Clear forgets the current symbol and its cached overview.
func (o *Overview) Clear(ctx context.Context) error {
	o.mu.Lock()
	symbol := o.symbol
	o.symbol = ""
	o.mu.Unlock()
	if symbol == "" {
		return nil
	}
	return o.orch.Clear(ctx, symbol)
}
