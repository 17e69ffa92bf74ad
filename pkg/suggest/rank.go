// Package suggest ranks stock list entries against a search query and keeps
// the keyboard selection over the ranked results.
package suggest

import (
	"cmp"
	"slices"
	"strings"

	"github.com/illmade-knight/go-investor/pkg/types"
)

// MaxSuggestions caps the ranked result list.
const MaxSuggestions = 10

// Priority buckets, best first.
const (
	SymbolPrefix   = 1
	SymbolContains = 2
	NameWordPrefix = 3
)

// Match is a ranked candidate.
type Match struct {
	Item     types.StockListItem
	Priority int
}

// Rank returns the best MaxSuggestions matches for query, ordered by
// priority then symbol. Matching is case-insensitive and exact: there is no
// fuzzy or edit-distance matching. An empty query matches nothing.
func Rank(items []types.StockListItem, query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matches []Match
	for _, item := range items {
		if p := classify(item, q); p != 0 {
			matches = append(matches, Match{Item: item, Priority: p})
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return strings.Compare(a.Item.Symbol, b.Item.Symbol)
	})
	if len(matches) > MaxSuggestions {
		matches = matches[:MaxSuggestions]
	}
	return matches
}

// Suggest is Rank without the priorities.
func Suggest(items []types.StockListItem, query string) []types.StockListItem {
	matches := Rank(items, query)
	if len(matches) == 0 {
		return nil
	}
	out := make([]types.StockListItem, len(matches))
	for i, m := range matches {
		out[i] = m.Item
	}
	return out
}

// classify returns the priority of item for the lower-cased query, or 0.
func classify(item types.StockListItem, q string) int {
	symbol := strings.ToLower(item.Symbol)
	switch {
	case strings.HasPrefix(symbol, q):
		return SymbolPrefix
	case strings.Contains(symbol, q):
		return SymbolContains
	}
	for _, word := range strings.Fields(strings.ToLower(item.Name())) {
		if strings.HasPrefix(word, q) {
			return NameWordPrefix
		}
	}
	return 0
}
