package suggest

import (
	"sync"

	"github.com/illmade-knight/go-investor/pkg/types"
)

// StockSource provides the listing to search, normally the stock list
// orchestrator.
type StockSource interface {
	Stocks() types.StockList
}

// Search is the state behind a search box: the query, its ranked
// suggestions and the keyboard selection.
type Search struct {
	source StockSource

	mu          sync.Mutex
	query       string
	suggestions []types.StockListItem
	nav         Navigator
}

// NewSearch binds a search to source.
func NewSearch(source StockSource) *Search {
	return &Search{source: source, nav: NewNavigator(0)}
}

// SetQuery reranks against the current listing and resets the selection.
func (s *Search) SetQuery(query string) []types.StockListItem {
	suggestions := Suggest(s.source.Stocks(), query)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.suggestions = suggestions
	s.nav.Reset(len(suggestions))
	return suggestions
}

// Query returns the last query set.
func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Suggestions returns the ranked results of the last query.
func (s *Search) Suggestions() []types.StockListItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestions
}

// SelectedIndex returns the highlighted row or NoSelection.
func (s *Search) SelectedIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Index()
}

func (s *Search) Up() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Up()
}

func (s *Search) Down() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Down()
}

// Selected returns the highlighted suggestion, falling back to the first
// one when nothing is highlighted, as pressing enter in the box does.
func (s *Search) Selected() (types.StockListItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.suggestions) == 0 {
		return types.StockListItem{}, false
	}
	if i := s.nav.Index(); i != NoSelection {
		return s.suggestions[i], true
	}
	return s.suggestions[0], true
}

// Clear empties the query and the suggestions.
func (s *Search) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ""
	s.suggestions = nil
	s.nav.Reset(0)
}
