package book

import (
	"container/heap"
	"sort"

	"github.com/uhyunpark/mktfeed/pkg/field"
)

// MapSide keeps levels in a map indexed by price plus a heap ordered by
// price. Add and Reduce are O(log L), Best is O(1) and there is no bound
// on the price range.
type MapSide struct {
	side   Side
	levels map[field.Price4]*level
	heap   levelHeap
}

func NewMapSide(s Side) *MapSide {
	return &MapSide{
		side:   s,
		levels: make(map[field.Price4]*level),
		heap:   levelHeap{side: s},
	}
}

func (m *MapSide) Add(px field.Price4, qty int64) (bool, error) {
	if err := checkAdd(m.side, px, qty); err != nil {
		return false, err
	}
	before := m.Best()
	m.add(px, qty)
	return m.Best() != before, nil
}

func (m *MapSide) add(px field.Price4, qty int64) {
	if l, ok := m.levels[px]; ok {
		l.qty += qty
		return
	}
	l := &level{price: px, qty: qty}
	m.levels[px] = l
	heap.Push(&m.heap, l)
}

func (m *MapSide) Reduce(px field.Price4, qty int64) (bool, error) {
	if qty <= 0 {
		return false, &FeedError{Op: "reduce", Side: m.side, Price: px, Qty: qty, Err: ErrInvalidQuantity}
	}
	l, ok := m.levels[px]
	if !ok {
		return false, &FeedError{Op: "reduce", Side: m.side, Price: px, Qty: qty, Err: ErrNoSuchLevel}
	}
	if qty > l.qty {
		return false, &FeedError{Op: "reduce", Side: m.side, Price: px, Qty: qty, Err: ErrReduceExceedsLevel}
	}
	before := m.Best()
	l.qty -= qty
	if l.qty == 0 {
		m.remove(l)
	}
	return m.Best() != before, nil
}

func (m *MapSide) remove(l *level) {
	heap.Remove(&m.heap, l.index)
	delete(m.levels, l.price)
}

func (m *MapSide) Best() Quote {
	l, ok := m.heap.Peek()
	if !ok {
		return emptyQuote(m.side)
	}
	return Quote{Price: l.price, Qty: l.qty}
}

func (m *MapSide) Worst() Quote {
	if len(m.levels) == 0 {
		return emptyQuote(m.side)
	}
	// heap leaves hold the worst price; scan the second half only
	ls := m.heap.levels
	worst := ls[len(ls)/2]
	for _, l := range ls[len(ls)/2:] {
		if better(m.side, worst.price, l.price) {
			worst = l
		}
	}
	return Quote{Price: worst.price, Qty: worst.qty}
}

func (m *MapSide) Count() int { return len(m.levels) }

// Levels walks the heap best first, so asking for the top n levels costs
// O(n^2) whatever the size of the side. Only n <= 0 copies and sorts
// every level.
func (m *MapSide) Levels(n int) []Quote {
	if n <= 0 || n >= len(m.levels) {
		out := make([]Quote, 0, len(m.levels))
		for _, l := range m.levels {
			out = append(out, Quote{Price: l.price, Qty: l.qty})
		}
		sortBestFirst(m.side, out)
		return out
	}

	ls := m.heap.levels
	out := make([]Quote, 0, n)
	// the next best level is always a child of a level already taken
	frontier := make([]int, 1, n+1)
	for len(out) < n {
		bi := 0
		for k := 1; k < len(frontier); k++ {
			if better(m.side, ls[frontier[k]].price, ls[frontier[bi]].price) {
				bi = k
			}
		}
		i := frontier[bi]
		frontier[bi] = frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		out = append(out, Quote{Price: ls[i].price, Qty: ls[i].qty})
		if c := 2*i + 1; c < len(ls) {
			frontier = append(frontier, c)
		}
		if c := 2*i + 2; c < len(ls) {
			frontier = append(frontier, c)
		}
	}
	return out
}

// mergeBestFirst merges two best-first lists with distinct prices,
// keeping at most n quotes.
func mergeBestFirst(s Side, a, b []Quote, n int) []Quote {
	out := make([]Quote, 0, min(n, len(a)+len(b)))
	for len(out) < n && (len(a) > 0 || len(b) > 0) {
		if len(b) == 0 || (len(a) > 0 && better(s, a[0].Price, b[0].Price)) {
			out = append(out, a[0])
			a = a[1:]
			continue
		}
		out = append(out, b[0])
		b = b[1:]
	}
	return out
}

func sortBestFirst(s Side, qs []Quote) {
	sort.Slice(qs, func(i, j int) bool { return better(s, qs[i].Price, qs[j].Price) })
}

var _ BookSide = (*MapSide)(nil)
