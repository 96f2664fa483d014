package book

import (
	"fmt"

	"github.com/uhyunpark/mktfeed/pkg/field"
)

// OrderBook is the pair of sides for one instrument. Crossed books are
// kept as reported.
type OrderBook struct {
	buy  BookSide
	sell BookSide
}

func NewOrderBook(buy, sell BookSide) *OrderBook {
	return &OrderBook{buy: buy, sell: sell}
}

func (b *OrderBook) Side(s Side) BookSide {
	if s == Buy {
		return b.buy
	}
	return b.sell
}

func (b *OrderBook) Add(s Side, px field.Price4, qty int64) (bool, error) {
	return b.Side(s).Add(px, qty)
}

func (b *OrderBook) Reduce(s Side, px field.Price4, qty int64) (bool, error) {
	return b.Side(s).Reduce(px, qty)
}

func (b *OrderBook) BestBid() Quote   { return b.buy.Best() }
func (b *OrderBook) BestOffer() Quote { return b.sell.Best() }

// Inside returns the best bid and best offer.
func (b *OrderBook) Inside() (bid, offer Quote) {
	return b.buy.Best(), b.sell.Best()
}

// Depth is a point-in-time copy of the top levels of both sides.
type Depth struct {
	Bids []Quote `json:"bids"`
	Asks []Quote `json:"asks"`
}

func (b *OrderBook) Depth(n int) Depth {
	return Depth{Bids: b.buy.Levels(n), Asks: b.sell.Levels(n)}
}

// Backend names accepted by Config.Type.
const (
	BackendMap   = "map"
	BackendArray = "array"
)

// Config selects the side implementation used for new books.
type Config struct {
	Type    string `yaml:"type"`
	MaxSize int    `yaml:"max_size"`
}

func DefaultConfig() Config {
	return Config{Type: BackendMap, MaxSize: DefaultMaxSize}
}

func (c Config) Validate() error {
	switch c.Type {
	case BackendMap:
	case BackendArray:
		if c.MaxSize <= 0 {
			return fmt.Errorf("book: max_size must be > 0, got %d", c.MaxSize)
		}
	default:
		return fmt.Errorf("book: unknown backend %q", c.Type)
	}
	return nil
}

// Factory builds empty books.
type Factory func() *OrderBook

// NewFactory returns a Factory for the configured backend.
func NewFactory(cfg Config) (Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Type == BackendArray {
		size := cfg.MaxSize
		return func() *OrderBook {
			return NewOrderBook(NewArraySide(Buy, size), NewArraySide(Sell, size))
		}, nil
	}
	return func() *OrderBook {
		return NewOrderBook(NewMapSide(Buy), NewMapSide(Sell))
	}, nil
}
