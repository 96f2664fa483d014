package book

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/uhyunpark/mktfeed/pkg/field"
)

func backends() map[string]func(Side) BookSide {
	return map[string]func(Side) BookSide{
		"map":        func(s Side) BookSide { return NewMapSide(s) },
		"array":      func(s Side) BookSide { return NewArraySide(s, DefaultMaxSize) },
		"array-tiny": func(s Side) BookSide { return NewArraySide(s, 16) },
	}
}

func TestEmptySide(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			if got := mk(Buy).Best(); got != EmptyBid {
				t.Errorf("bid Best() = %v, want %v", got, EmptyBid)
			}
			if got := mk(Sell).Best(); got != EmptyOffer {
				t.Errorf("offer Best() = %v, want %v", got, EmptyOffer)
			}
			if got := mk(Sell).Worst(); got != EmptyOffer {
				t.Errorf("offer Worst() = %v, want %v", got, EmptyOffer)
			}
			if got := mk(Buy).Count(); got != 0 {
				t.Errorf("Count() = %d, want 0", got)
			}
		})
	}
}

func TestAddReduce(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			bid := mk(Buy)
			steps := []struct {
				add     bool
				px      field.Price4
				qty     int64
				changed bool
				best    Quote
			}{
				{true, 100000, 100, true, Quote{100000, 100}},
				{true, 99900, 50, false, Quote{100000, 100}},
				{true, 100000, 20, true, Quote{100000, 120}},
				{true, 100100, 10, true, Quote{100100, 10}},
				{false, 99900, 50, false, Quote{100100, 10}},
				{false, 100100, 10, true, Quote{100000, 120}},
				{false, 100000, 20, true, Quote{100000, 100}},
				{false, 100000, 100, true, EmptyBid},
			}
			for i, st := range steps {
				var changed bool
				var err error
				if st.add {
					changed, err = bid.Add(st.px, st.qty)
				} else {
					changed, err = bid.Reduce(st.px, st.qty)
				}
				if err != nil {
					t.Fatalf("step %d: unexpected error: %v", i, err)
				}
				if changed != st.changed {
					t.Errorf("step %d: changed = %v, want %v", i, changed, st.changed)
				}
				if got := bid.Best(); got != st.best {
					t.Errorf("step %d: Best() = %v, want %v", i, got, st.best)
				}
			}
			if bid.Count() != 0 {
				t.Errorf("Count() = %d, want 0", bid.Count())
			}
		})
	}
}

func TestOfferSide(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			ask := mk(Sell)
			for _, px := range []field.Price4{101000, 100500, 102000} {
				if _, err := ask.Add(px, 10); err != nil {
					t.Fatalf("Add(%s): %v", px, err)
				}
			}
			if got := ask.Best(); got.Price != 100500 {
				t.Errorf("Best().Price = %s, want 10.0500", got.Price)
			}
			if got := ask.Worst(); got.Price != 102000 {
				t.Errorf("Worst().Price = %s, want 10.2000", got.Price)
			}
			levels := ask.Levels(2)
			if len(levels) != 2 || levels[0].Price != 100500 || levels[1].Price != 101000 {
				t.Errorf("Levels(2) = %v", levels)
			}
		})
	}
}

func TestSideErrors(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			s := mk(Buy)
			if _, err := s.Add(100000, 10); err != nil {
				t.Fatalf("Add: %v", err)
			}
			tests := []struct {
				name string
				op   func() (bool, error)
				want error
			}{
				{"add zero qty", func() (bool, error) { return s.Add(100000, 0) }, ErrInvalidQuantity},
				{"add negative qty", func() (bool, error) { return s.Add(100000, -1) }, ErrInvalidQuantity},
				{"add zero price", func() (bool, error) { return s.Add(0, 10) }, ErrInvalidPrice},
				{"add sentinel price", func() (bool, error) { return s.Add(MaxPrice, 10) }, ErrInvalidPrice},
				{"reduce missing level", func() (bool, error) { return s.Reduce(99900, 1) }, ErrNoSuchLevel},
				{"reduce too much", func() (bool, error) { return s.Reduce(100000, 11) }, ErrReduceExceedsLevel},
				{"reduce zero", func() (bool, error) { return s.Reduce(100000, 0) }, ErrInvalidQuantity},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					_, err := tt.op()
					if !errors.Is(err, tt.want) {
						t.Fatalf("err = %v, want %v", err, tt.want)
					}
					var fe *FeedError
					if !errors.As(err, &fe) {
						t.Errorf("err = %T, want *FeedError", err)
					}
					if got := s.Best(); got != (Quote{100000, 10}) {
						t.Errorf("book changed after error: Best() = %v", got)
					}
				})
			}
		})
	}
}

func TestArraySideRecenter(t *testing.T) {
	a := NewArraySide(Buy, 16)
	if _, err := a.Add(100000, 5); err != nil {
		t.Fatal(err)
	}
	lo, hi := a.Window()
	if lo > 100000 || hi < 100000 {
		t.Fatalf("Window() = [%s, %s], want it to contain 10.0000", lo, hi)
	}

	// far below the window: goes to overflow, inside unchanged
	if changed, _ := a.Add(50000, 7); changed {
		t.Errorf("Add below window reported inside change")
	}
	// off the cent grid above a dollar: overflow even though it is better
	changed, err := a.Add(100050, 3)
	if err != nil || !changed {
		t.Fatalf("Add(10.0050) = %v, %v; want true, nil", changed, err)
	}
	if got := a.Best(); got != (Quote{100050, 3}) {
		t.Errorf("Best() = %v, want 3@10.0050", got)
	}
	// far above: recentres
	if _, err := a.Add(200000, 1); err != nil {
		t.Fatal(err)
	}
	lo, hi = a.Window()
	if lo > 200000 || hi < 200000 {
		t.Errorf("Window() = [%s, %s], want it to contain 20.0000", lo, hi)
	}
	if a.Count() != 4 {
		t.Errorf("Count() = %d, want 4", a.Count())
	}

	// drain from the top; the inside walks back down through overflow
	want := []Quote{{100050, 3}, {100000, 5}, {50000, 7}, EmptyBid}
	for i, px := range []field.Price4{200000, 100050, 100000, 50000} {
		b := a.Best()
		if b.Price != px {
			t.Fatalf("step %d: Best().Price = %s, want %s", i, b.Price, px)
		}
		if _, err := a.Reduce(px, b.Qty); err != nil {
			t.Fatalf("step %d: Reduce: %v", i, err)
		}
		if got := a.Best(); got != want[i] {
			t.Errorf("step %d: Best() = %v, want %v", i, got, want[i])
		}
	}
}

func TestTickGrid(t *testing.T) {
	tests := []struct {
		px   field.Price4
		tick int
		ok   bool
	}{
		{1, 1, true},
		{9999, 9999, true},
		{10000, 10000, true},
		{10100, 10001, true},
		{10050, 0, false},
		{1234500, 10000 + 12245, true},
	}
	for _, tt := range tests {
		tick, ok := tickOf(tt.px)
		if tick != tt.tick || ok != tt.ok {
			t.Errorf("tickOf(%d) = %d, %v, want %d, %v", tt.px, tick, ok, tt.tick, tt.ok)
		}
		if ok && priceOf(tick) != tt.px {
			t.Errorf("priceOf(%d) = %d, want %d", tick, priceOf(tick), tt.px)
		}
	}
}

// model is a plain map the backends are checked against.
type model struct {
	side   Side
	levels map[field.Price4]int64
}

func (m *model) best() Quote {
	q := emptyQuote(m.side)
	first := true
	for px, qty := range m.levels {
		if first || better(m.side, px, q.Price) {
			q = Quote{px, qty}
			first = false
		}
	}
	return q
}

func (m *model) sorted() []Quote {
	out := make([]Quote, 0, len(m.levels))
	for px, qty := range m.levels {
		out = append(out, Quote{px, qty})
	}
	sort.Slice(out, func(i, j int) bool { return better(m.side, out[i].Price, out[j].Price) })
	return out
}

func TestRandomAgainstModel(t *testing.T) {
	for name, mk := range backends() {
		for _, side := range []Side{Buy, Sell} {
			t.Run(name+"/"+side.String(), func(t *testing.T) {
				rng := rand.New(rand.NewSource(42))
				s := mk(side)
				m := &model{side: side, levels: map[field.Price4]int64{}}
				var live []field.Price4

				randPrice := func() field.Price4 {
					switch rng.Intn(4) {
					case 0: // sub-dollar
						return field.Price4(1 + rng.Intn(9999))
					case 1: // off grid
						return field.Price4(10001 + rng.Intn(50000))
					default:
						return field.Price4(10000 + 100*rng.Intn(500))
					}
				}

				for i := 0; i < 5000; i++ {
					before := m.best()
					var changed bool
					var err error
					if len(live) == 0 || rng.Intn(3) != 0 {
						px := randPrice()
						qty := int64(1 + rng.Intn(100))
						changed, err = s.Add(px, qty)
						if m.levels[px] == 0 {
							live = append(live, px)
						}
						m.levels[px] += qty
					} else {
						k := rng.Intn(len(live))
						px := live[k]
						qty := m.levels[px]
						if rng.Intn(2) == 0 {
							qty = 1 + rng.Int63n(qty)
						}
						changed, err = s.Reduce(px, qty)
						m.levels[px] -= qty
						if m.levels[px] == 0 {
							delete(m.levels, px)
							live[k] = live[len(live)-1]
							live = live[:len(live)-1]
						}
					}
					if err != nil {
						t.Fatalf("op %d: %v", i, err)
					}
					want := m.best()
					if got := s.Best(); got != want {
						t.Fatalf("op %d: Best() = %v, want %v", i, got, want)
					}
					if changed != (want != before) {
						t.Fatalf("op %d: changed = %v, want %v", i, changed, want != before)
					}
					if s.Count() != len(m.levels) {
						t.Fatalf("op %d: Count() = %d, want %d", i, s.Count(), len(m.levels))
					}
				}

				want := m.sorted()
				got := s.Levels(0)
				if len(got) != len(want) {
					t.Fatalf("Levels(0) len = %d, want %d", len(got), len(want))
				}
				for i := range want {
					if got[i] != want[i] {
						t.Fatalf("Levels(0)[%d] = %v, want %v", i, got[i], want[i])
					}
				}
				for _, n := range []int{1, 3, 5, len(want) - 1} {
					if n <= 0 || n > len(want) {
						continue
					}
					top := s.Levels(n)
					if len(top) != n {
						t.Fatalf("Levels(%d) len = %d", n, len(top))
					}
					for i := range top {
						if top[i] != want[i] {
							t.Fatalf("Levels(%d)[%d] = %v, want %v", n, i, top[i], want[i])
						}
					}
				}
				if len(want) > 0 && s.Worst() != want[len(want)-1] {
					t.Errorf("Worst() = %v, want %v", s.Worst(), want[len(want)-1])
				}
			})
		}
	}
}

func TestOrderBookAndFactory(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"array", Config{Type: BackendArray, MaxSize: 64}, false},
		{"array zero size", Config{Type: BackendArray}, true},
		{"unknown", Config{Type: "tree"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFactory(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFactory() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			b := f()
			b.Add(Buy, 100000, 10)
			b.Add(Sell, 100100, 20)
			b.Add(Sell, 100200, 30)
			bid, offer := b.Inside()
			if bid != (Quote{100000, 10}) || offer != (Quote{100100, 20}) {
				t.Errorf("Inside() = %v, %v", bid, offer)
			}
			d := b.Depth(5)
			if len(d.Bids) != 1 || len(d.Asks) != 2 {
				t.Errorf("Depth(5) = %+v", d)
			}
			if b.Side(Sell).Count() != 2 {
				t.Errorf("Side(Sell).Count() = %d, want 2", b.Side(Sell).Count())
			}
		})
	}
}

func BenchmarkSideAddReduce(b *testing.B) {
	for name, mk := range backends() {
		b.Run(name, func(b *testing.B) {
			s := mk(Buy)
			for i := 0; i < 100; i++ {
				s.Add(field.Price4(100000-100*i), 100)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				px := field.Price4(100000 - 100*(i%100))
				s.Add(px, 10)
				s.Reduce(px, 10)
			}
		})
	}
}

func TestTopLevelsDoNotCopySide(t *testing.T) {
	const deep = 20000
	for name, mk := range backends() {
		for _, side := range []Side{Buy, Sell} {
			s := mk(side)
			for i := 0; i < deep; i++ {
				// mix of window and overflow prices for the array backends
				if _, err := s.Add(field.Price4(10000+100*i), 1); err != nil {
					t.Fatal(err)
				}
			}
			res := testing.Benchmark(func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					s.Levels(5)
				}
			})
			// a full copy would be deep*16 bytes per call
			if got := res.AllocedBytesPerOp(); got > 1024 {
				t.Errorf("%s/%s: Levels(5) allocates %d bytes per call", name, side, got)
			}
		}
	}
}

func TestMergeBestFirst(t *testing.T) {
	a := []Quote{{Price: 105, Qty: 1}, {Price: 101, Qty: 1}}
	b := []Quote{{Price: 104, Qty: 2}, {Price: 103, Qty: 2}, {Price: 100, Qty: 2}}
	got := mergeBestFirst(Buy, a, b, 4)
	want := []field.Price4{105, 104, 103, 101}
	if len(got) != len(want) {
		t.Fatalf("mergeBestFirst() = %v", got)
	}
	for i := range want {
		if got[i].Price != want[i] {
			t.Errorf("mergeBestFirst()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
