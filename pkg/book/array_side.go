package book

import "github.com/uhyunpark/mktfeed/pkg/field"

// DefaultMaxSize is the default number of ticks in an ArraySide window.
const DefaultMaxSize = 8192

const dollar = field.Price4(field.Price4Denom)

// Tick addressing: below one dollar every raw unit ($0.0001) is a tick,
// from one dollar up ticks are whole cents.
func tickOf(px field.Price4) (int, bool) {
	if px <= dollar {
		return int(px), true
	}
	if (px-dollar)%100 != 0 {
		return 0, false
	}
	return int(dollar) + int(px-dollar)/100, true
}

func priceOf(tick int) field.Price4 {
	if tick <= int(dollar) {
		return field.Price4(tick)
	}
	return dollar + field.Price4(tick-int(dollar))*100
}

// ArraySide keeps the levels near the inside in a fixed window of ticks
// indexed directly by price, so Add, Reduce and Best are O(1) for prices
// in the window. Levels outside the window, or off the tick grid, live in
// an overflow MapSide.
//
// When a better price arrives outside the window, or the window empties
// while overflow levels remain, the window is recentred on the new inside
// with half its ticks on each side.
type ArraySide struct {
	side     Side
	levels   []int64
	base     int // tick of levels[0]
	best     int // index of the best level in the window, -1 when empty
	count    int
	overflow *MapSide
}

func NewArraySide(s Side, maxSize int) *ArraySide {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &ArraySide{
		side:     s,
		levels:   make([]int64, maxSize),
		best:     -1,
		overflow: NewMapSide(s),
	}
}

// Window returns the lowest and highest prices addressed by the window.
func (a *ArraySide) Window() (lo, hi field.Price4) {
	return priceOf(a.base), priceOf(a.base + len(a.levels) - 1)
}

func (a *ArraySide) index(px field.Price4) (int, bool) {
	t, ok := tickOf(px)
	if !ok {
		return 0, false
	}
	i := t - a.base
	if i < 0 || i >= len(a.levels) {
		return 0, false
	}
	return i, true
}

func (a *ArraySide) Add(px field.Price4, qty int64) (bool, error) {
	if err := checkAdd(a.side, px, qty); err != nil {
		return false, err
	}
	before := a.Best()

	i, inWindow := a.index(px)
	if !inWindow {
		if _, onGrid := tickOf(px); onGrid && (before.Qty == 0 || better(a.side, px, before.Price)) {
			a.recenter(px)
			i, inWindow = a.index(px)
		}
	}
	if !inWindow {
		a.overflow.add(px, qty)
		return a.Best() != before, nil
	}

	if a.levels[i] == 0 {
		a.count++
	}
	a.levels[i] += qty
	if a.best < 0 || a.betterIndex(i, a.best) {
		a.best = i
	}
	return a.Best() != before, nil
}

func (a *ArraySide) Reduce(px field.Price4, qty int64) (bool, error) {
	before := a.Best()
	i, inWindow := a.index(px)
	if !inWindow {
		if _, err := a.overflow.Reduce(px, qty); err != nil {
			return false, err
		}
		a.refill()
		return a.Best() != before, nil
	}

	if qty <= 0 {
		return false, &FeedError{Op: "reduce", Side: a.side, Price: px, Qty: qty, Err: ErrInvalidQuantity}
	}
	if a.levels[i] == 0 {
		return false, &FeedError{Op: "reduce", Side: a.side, Price: px, Qty: qty, Err: ErrNoSuchLevel}
	}
	if qty > a.levels[i] {
		return false, &FeedError{Op: "reduce", Side: a.side, Price: px, Qty: qty, Err: ErrReduceExceedsLevel}
	}

	a.levels[i] -= qty
	if a.levels[i] == 0 {
		a.count--
		if i == a.best {
			a.best = a.nextBest(i)
		}
		a.refill()
	}
	return a.Best() != before, nil
}

// refill recentres an empty window on the best overflow level.
func (a *ArraySide) refill() {
	if a.count > 0 || a.overflow.Count() == 0 {
		return
	}
	px := a.overflow.Best().Price
	if _, ok := tickOf(px); !ok {
		return
	}
	a.recenter(px)
}

func (a *ArraySide) betterIndex(i, j int) bool {
	if a.side == Buy {
		return i > j
	}
	return i < j
}

// nextBest scans away from the inside for the next non-empty slot.
func (a *ArraySide) nextBest(from int) int {
	if a.side == Buy {
		for i := from - 1; i >= 0; i-- {
			if a.levels[i] != 0 {
				return i
			}
		}
		return -1
	}
	for i := from + 1; i < len(a.levels); i++ {
		if a.levels[i] != 0 {
			return i
		}
	}
	return -1
}

// recenter moves the window so px sits in its middle, spilling window
// levels that fall outside into overflow and pulling overflow levels that
// now fall inside into the window.
func (a *ArraySide) recenter(px field.Price4) {
	t, _ := tickOf(px)
	for i, q := range a.levels {
		if q != 0 {
			a.overflow.add(priceOf(a.base+i), q)
			a.levels[i] = 0
		}
	}
	a.base = max(t-len(a.levels)/2, 0)
	a.best = -1
	a.count = 0

	var moved []*level
	for p, l := range a.overflow.levels {
		if _, ok := a.index(p); ok {
			moved = append(moved, l)
		}
	}
	for _, l := range moved {
		i, _ := a.index(l.price)
		a.levels[i] = l.qty
		a.count++
		if a.best < 0 || a.betterIndex(i, a.best) {
			a.best = i
		}
		a.overflow.remove(l)
	}
}

func (a *ArraySide) Best() Quote {
	q := a.overflow.Best()
	if a.best >= 0 {
		w := Quote{Price: priceOf(a.base + a.best), Qty: a.levels[a.best]}
		if q.Qty == 0 || better(a.side, w.Price, q.Price) {
			return w
		}
	}
	return q
}

func (a *ArraySide) Worst() Quote {
	q := a.overflow.Worst()
	if a.count == 0 {
		return q
	}
	var w Quote
	if a.side == Buy {
		for i := 0; i < len(a.levels); i++ {
			if a.levels[i] != 0 {
				w = Quote{Price: priceOf(a.base + i), Qty: a.levels[i]}
				break
			}
		}
	} else {
		for i := len(a.levels) - 1; i >= 0; i-- {
			if a.levels[i] != 0 {
				w = Quote{Price: priceOf(a.base + i), Qty: a.levels[i]}
				break
			}
		}
	}
	if q.Qty == 0 || better(a.side, q.Price, w.Price) {
		return w
	}
	return q
}

func (a *ArraySide) Count() int { return a.count + a.overflow.Count() }

// Levels scans the window outward from the best slot and merges in the
// top of the overflow. Only n <= 0 sorts every level.
func (a *ArraySide) Levels(n int) []Quote {
	if n <= 0 || n >= a.Count() {
		out := a.overflow.Levels(0)
		for i, q := range a.levels {
			if q != 0 {
				out = append(out, Quote{Price: priceOf(a.base + i), Qty: q})
			}
		}
		sortBestFirst(a.side, out)
		return out
	}

	win := make([]Quote, 0, min(n, a.count))
	if a.best >= 0 {
		step := 1
		if a.side == Buy {
			step = -1
		}
		for i := a.best; i >= 0 && i < len(a.levels) && len(win) < n; i += step {
			if a.levels[i] != 0 {
				win = append(win, Quote{Price: priceOf(a.base + i), Qty: a.levels[i]})
			}
		}
	}
	return mergeBestFirst(a.side, win, a.overflow.Levels(n), n)
}

var _ BookSide = (*ArraySide)(nil)
