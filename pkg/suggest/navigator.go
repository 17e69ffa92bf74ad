package suggest

// NoSelection is the index of a Navigator with nothing selected.
const NoSelection = -1

// Navigator tracks the highlighted row of a suggestion list. Down stops at
// the last row; Up stops at the first row, except that Up with nothing
// selected jumps to the last row.
type Navigator struct {
	index int
	count int
}

// NewNavigator returns a navigator over count rows with nothing selected.
func NewNavigator(count int) Navigator {
	return Navigator{index: NoSelection, count: count}
}

// Reset clears the selection for a new list of count rows.
func (n *Navigator) Reset(count int) {
	n.index = NoSelection
	n.count = count
}

// Index returns the selected row or NoSelection.
func (n *Navigator) Index() int {
	return n.index
}

func (n *Navigator) Down() {
	if n.count == 0 {
		return
	}
	if n.index < n.count-1 {
		n.index++
	}
}

func (n *Navigator) Up() {
	if n.count == 0 {
		return
	}
	switch {
	case n.index == NoSelection:
		n.index = n.count - 1
	case n.index > 0:
		n.index--
	}
}
