package book

import (
	"errors"
	"fmt"
	"strings"

	"github.com/uhyunpark/mktfeed/pkg/field"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidPrice       = errors.New("price out of range")
	ErrNoSuchLevel        = errors.New("no such price level")
	ErrReduceExceedsLevel = errors.New("reduce exceeds resting quantity")
)

// FeedError reports a message that cannot be applied to the book without
// losing consistency with the venue. The book is unchanged when it is
// returned.
type FeedError struct {
	Op      string
	Symbol  string
	OrderID uint64
	Side    Side
	Price   field.Price4
	Qty     int64
	Err     error
}

func (e *FeedError) Error() string {
	var b strings.Builder
	b.WriteString("feed error: ")
	b.WriteString(e.Op)
	if e.Symbol != "" {
		fmt.Fprintf(&b, " symbol=%s", e.Symbol)
	}
	if e.OrderID != 0 {
		fmt.Fprintf(&b, " order=%d", e.OrderID)
	}
	if e.Side != 0 {
		fmt.Fprintf(&b, " side=%s px=%s qty=%d", e.Side, e.Price, e.Qty)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FeedError) Unwrap() error { return e.Err }
