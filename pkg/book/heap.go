package book

import "github.com/uhyunpark/mktfeed/pkg/field"

type level struct {
	price field.Price4
	qty   int64
	index int // slot in the heap, kept current by Swap
}

// levelHeap implements heap.Interface over price levels with the best
// price on top. Use container/heap to manipulate it (Init, Push, Pop, Remove, Fix).
type levelHeap struct {
	side   Side
	levels []*level
}

func (h *levelHeap) Len() int { return len(h.levels) }

func (h *levelHeap) Less(i, j int) bool {
	return better(h.side, h.levels[i].price, h.levels[j].price)
}

func (h *levelHeap) Swap(i, j int) {
	h.levels[i], h.levels[j] = h.levels[j], h.levels[i]
	h.levels[i].index = i
	h.levels[j].index = j
}

func (h *levelHeap) Push(x interface{}) {
	l := x.(*level)
	l.index = len(h.levels)
	h.levels = append(h.levels, l)
}

func (h *levelHeap) Pop() interface{} {
	old := h.levels
	n := len(old)
	l := old[n-1]
	old[n-1] = nil
	l.index = -1
	h.levels = old[0 : n-1]
	return l
}

// Peek returns the best level without removing it.
func (h *levelHeap) Peek() (*level, bool) {
	if len(h.levels) == 0 {
		return nil, false
	}
	return h.levels[0], true
}
