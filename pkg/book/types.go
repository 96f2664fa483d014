// Package book keeps per-instrument price-level books and answers
// best-bid / best-offer queries.
package book

import (
	"fmt"

	"github.com/uhyunpark/mktfeed/pkg/field"
)

// Side of the book.
type Side uint8

const (
	Buy  Side = 'B'
	Sell Side = 'S'
)

// ParseSide maps a wire side indicator to a Side.
func ParseSide(b byte) (Side, error) {
	switch Side(b) {
	case Buy, Sell:
		return Side(b), nil
	}
	return 0, fmt.Errorf("book: invalid side %q", b)
}

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return fmt.Sprintf("side(%d)", uint8(s))
}

// MaxPrice is the no-offer sentinel. Valid resting prices are strictly
// between zero and MaxPrice.
const MaxPrice = field.MaxPrice4

// Quote is a price and the total quantity resting at it.
type Quote struct {
	Price field.Price4 `json:"price"`
	Qty   int64        `json:"qty"`
}

func (q Quote) String() string { return fmt.Sprintf("%d@%s", q.Qty, q.Price) }

var (
	// EmptyBid is reported by a bid side with no levels.
	EmptyBid = Quote{Price: 0, Qty: 0}
	// EmptyOffer is reported by an offer side with no levels.
	EmptyOffer = Quote{Price: MaxPrice, Qty: 0}
)

// BookSide is one side of an instrument's book. Implementations keep only
// levels with positive quantity.
type BookSide interface {
	// Add rests qty more at px. It reports whether the best quote changed.
	Add(px field.Price4, qty int64) (bool, error)
	// Reduce removes qty from the level at px, deleting the level when it
	// reaches zero. It reports whether the best quote changed.
	Reduce(px field.Price4, qty int64) (bool, error)
	// Best returns the best level, or the empty quote for this side.
	Best() Quote
	// Worst returns the worst level, or the empty quote for this side.
	Worst() Quote
	// Count is the number of price levels.
	Count() int
	// Levels returns up to n levels, best first. n <= 0 returns all levels.
	Levels(n int) []Quote
}

// better reports whether a is a more aggressive price than b for side s.
func better(s Side, a, b field.Price4) bool {
	if s == Buy {
		return a > b
	}
	return a < b
}

func emptyQuote(s Side) Quote {
	if s == Buy {
		return EmptyBid
	}
	return EmptyOffer
}

func checkAdd(s Side, px field.Price4, qty int64) error {
	if qty <= 0 {
		return &FeedError{Op: "add", Side: s, Price: px, Qty: qty, Err: ErrInvalidQuantity}
	}
	if px <= 0 || px >= MaxPrice {
		return &FeedError{Op: "add", Side: s, Price: px, Qty: qty, Err: ErrInvalidPrice}
	}
	return nil
}
