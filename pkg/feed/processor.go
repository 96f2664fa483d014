// Package feed turns decoded market-data messages into order book
// mutations and reports every change of an instrument's inside quote.
//
// A Processor owns one session: the table of live orders and the
// directory of books. It is not safe for concurrent use; run one
// Processor per feed session.
package feed

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/itch5"
	"github.com/uhyunpark/mktfeed/pkg/pitch2"
)

var (
	ErrMissingOrder       = errors.New("order not found")
	ErrDuplicateOrder     = errors.New("duplicate order id")
	ErrReduceExceedsOrder = errors.New("reduce exceeds order quantity")
)

// InsideMode selects which changes of the inside quote are reported.
type InsideMode int

const (
	// PriceOnly reports a change of the best bid or best offer price.
	PriceOnly InsideMode = iota
	// PriceAndSize also reports size changes at an unchanged best price.
	PriceAndSize
)

func (m InsideMode) String() string {
	switch m {
	case PriceOnly:
		return "price"
	case PriceAndSize:
		return "price_and_size"
	}
	return fmt.Sprintf("InsideMode(%d)", int(m))
}

// ParseInsideMode accepts the names printed by String.
func ParseInsideMode(s string) (InsideMode, error) {
	switch s {
	case "", "price":
		return PriceOnly, nil
	case "price_and_size":
		return PriceAndSize, nil
	}
	return 0, fmt.Errorf("feed: unknown inside mode %q", s)
}

// OrderRecord is what the processor remembers about a live order.
type OrderRecord struct {
	Symbol field.Stock
	Side   book.Side
	Price  field.Price4
	Qty    int64
}

// InsideFunc receives the new inside quote of stock after a change.
// PITCH updates carry a synthesized header: the PITCH message type, the
// unit number as the locate code and the time since midnight rebuilt
// from the unit's Time messages.
type InsideFunc func(recv time.Time, hdr itch5.Header, stock field.Stock, bid, offer book.Quote)

// TradeKind distinguishes the informational trade messages.
type TradeKind uint8

const (
	TradeNonCross TradeKind = iota + 1
	TradeCross
	TradeBroken
)

func (k TradeKind) String() string {
	switch k {
	case TradeNonCross:
		return "trade"
	case TradeCross:
		return "cross"
	case TradeBroken:
		return "broken"
	}
	return fmt.Sprintf("TradeKind(%d)", uint8(k))
}

// TradeEvent is forwarded for trade messages. They never touch the book.
// Broken trades only carry the match number. OrderRef and Side are set
// for non-cross trades only; Side is zero otherwise.
type TradeEvent struct {
	Kind        TradeKind
	Header      itch5.Header
	Stock       field.Stock
	OrderRef    uint64
	Side        book.Side
	Price       field.Price4
	Shares      uint64
	MatchNumber uint64
}

type TradeFunc func(recv time.Time, ev TradeEvent)

// DepthFunc receives the number of price levels left on the side of
// stock's book that a message changed, after the change.
type DepthFunc func(hdr itch5.Header, stock field.Stock, side book.Side, levels int)

// SuspendFunc is called once when an instrument is suspended.
type SuspendFunc func(hdr itch5.Header, stock field.Stock, err error)

// Config tunes a Processor.
type Config struct {
	Mode InsideMode
	// SuspendOnError stops applying messages for an instrument after its
	// first FeedError instead of returning the error to the caller.
	SuspendOnError bool
	// OnTrade, when set, receives trade, cross and broken trade messages.
	OnTrade TradeFunc
	// OnDepth, when set, is called after every successful book mutation.
	OnDepth DepthFunc
	// OnSuspend, when set, is called as SuspendOnError suspends an
	// instrument.
	OnSuspend SuspendFunc
}

// Counters are per-session message and outcome counts.
type Counters struct {
	Messages      uint64 `json:"messages"`
	Adds          uint64 `json:"adds"`
	Reduces       uint64 `json:"reduces"`
	Deletes       uint64 `json:"deletes"`
	Replaces      uint64 `json:"replaces"`
	Trades        uint64 `json:"trades"`
	Unknown       uint64 `json:"unknown"`
	FeedErrors    uint64 `json:"feed_errors"`
	Skipped       uint64 `json:"skipped"`
	InsideUpdates uint64 `json:"inside_updates"`
}

type Processor struct {
	cfg      Config
	log      *zap.SugaredLogger
	newBook  book.Factory
	onInside InsideFunc

	orders  map[uint64]OrderRecord
	books   map[field.Stock]*book.OrderBook
	suspect map[field.Stock]error

	// PITCH clock: seconds since midnight from the last Time message
	// of each unit.
	unitSeconds map[uint8]uint32
	lastTS      field.Timestamp

	counters Counters
}

// New creates a Processor for one session. onInside may be nil.
func New(cfg Config, newBook book.Factory, onInside InsideFunc, log *zap.SugaredLogger) *Processor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if onInside == nil {
		onInside = func(time.Time, itch5.Header, field.Stock, book.Quote, book.Quote) {}
	}
	return &Processor{
		cfg:         cfg,
		log:         log,
		newBook:     newBook,
		onInside:    onInside,
		orders:      make(map[uint64]OrderRecord),
		books:       make(map[field.Stock]*book.OrderBook),
		suspect:     make(map[field.Stock]error),
		unitSeconds: make(map[uint8]uint32),
	}
}

// ITCH returns the handler for ITCH-5.0 messages.
func (p *Processor) ITCH() itch5.Handler { return itchHandler{p} }

// PITCH returns the handler for PITCH-2.x messages.
func (p *Processor) PITCH() pitch2.Handler { return pitchHandler{p} }

// LiveOrders is the number of orders in the order table.
func (p *Processor) LiveOrders() int { return len(p.orders) }

// Order returns the record of a live order.
func (p *Processor) Order(id uint64) (OrderRecord, bool) {
	r, ok := p.orders[id]
	return r, ok
}

// Books returns the directory. Callers must not mutate it.
func (p *Processor) Books() map[field.Stock]*book.OrderBook { return p.books }

func (p *Processor) Book(stock field.Stock) (*book.OrderBook, bool) {
	b, ok := p.books[stock]
	return b, ok
}

// Suspect returns the instruments suspended after a FeedError, with the
// error that suspended them.
func (p *Processor) Suspect() map[field.Stock]error { return p.suspect }

func (p *Processor) Stats() Counters { return p.counters }

// LastTimestamp is the feed time of the most recent message with a
// header.
func (p *Processor) LastTimestamp() field.Timestamp { return p.lastTS }

func (p *Processor) ensureBook(stock field.Stock) *book.OrderBook {
	b, ok := p.books[stock]
	if !ok {
		b = p.newBook()
		p.books[stock] = b
	}
	return b
}

func (p *Processor) skip(stock field.Stock) bool {
	if _, ok := p.suspect[stock]; ok {
		p.counters.Skipped++
		return true
	}
	return false
}

// fail applies the error policy to a FeedError raised while handling a
// message for stock. The zero stock means the instrument is unknown.
func (p *Processor) fail(stock field.Stock, hdr itch5.Header, err error) error {
	p.counters.FeedErrors++
	if !p.cfg.SuspendOnError {
		return err
	}
	if stock != (field.Stock{}) {
		p.suspect[stock] = err
	}
	p.log.Warnw("instrument suspended",
		"stock", stock.String(),
		"timestamp", hdr.Timestamp.String(),
		"tracking", hdr.TrackingNumber,
		"error", err,
	)
	if stock != (field.Stock{}) && p.cfg.OnSuspend != nil {
		p.cfg.OnSuspend(hdr, stock, err)
	}
	return nil
}

func (p *Processor) depth(hdr itch5.Header, stock field.Stock, b *book.OrderBook, side book.Side) {
	if p.cfg.OnDepth != nil {
		p.cfg.OnDepth(hdr, stock, side, b.Side(side).Count())
	}
}

func annotate(err error, stock field.Stock, id uint64) error {
	var fe *book.FeedError
	if errors.As(err, &fe) {
		fe.Symbol = stock.String()
		fe.OrderID = id
	}
	return err
}

func validAdd(op string, stock field.Stock, id uint64, side book.Side, px field.Price4, qty int64) error {
	if qty <= 0 {
		return &book.FeedError{Op: op, Symbol: stock.String(), OrderID: id, Side: side, Price: px, Qty: qty, Err: book.ErrInvalidQuantity}
	}
	if px <= 0 || px >= book.MaxPrice {
		return &book.FeedError{Op: op, Symbol: stock.String(), OrderID: id, Side: side, Price: px, Qty: qty, Err: book.ErrInvalidPrice}
	}
	return nil
}

// addOrder rests a new order and reports the inside if it moved.
func (p *Processor) addOrder(recv time.Time, hdr itch5.Header, id uint64, stock field.Stock, side book.Side, px field.Price4, qty int64) error {
	if p.skip(stock) {
		return nil
	}
	if err := validAdd("add", stock, id, side, px, qty); err != nil {
		return p.fail(stock, hdr, err)
	}
	if _, dup := p.orders[id]; dup {
		return p.fail(stock, hdr, &book.FeedError{Op: "add", Symbol: stock.String(), OrderID: id, Side: side, Price: px, Qty: qty, Err: ErrDuplicateOrder})
	}

	b := p.ensureBook(stock)
	bid, offer := b.Inside()
	if _, err := b.Add(side, px, qty); err != nil {
		return p.fail(stock, hdr, annotate(err, stock, id))
	}
	p.orders[id] = OrderRecord{Symbol: stock, Side: side, Price: px, Qty: qty}
	p.counters.Adds++
	p.depth(hdr, stock, b, side)
	p.checkInside(recv, hdr, stock, b, bid, offer)
	return nil
}

// reduceOrder removes qty shares from a live order, or all of them when
// all is set.
func (p *Processor) reduceOrder(recv time.Time, hdr itch5.Header, id uint64, qty int64, all bool) error {
	rec, ok := p.orders[id]
	if !ok {
		return p.fail(field.Stock{}, hdr, &book.FeedError{Op: "reduce", OrderID: id, Qty: qty, Err: ErrMissingOrder})
	}
	if p.skip(rec.Symbol) {
		return nil
	}
	if all {
		qty = rec.Qty
	}
	if qty > rec.Qty {
		return p.fail(rec.Symbol, hdr, &book.FeedError{Op: "reduce", Symbol: rec.Symbol.String(), OrderID: id, Side: rec.Side, Price: rec.Price, Qty: qty, Err: ErrReduceExceedsOrder})
	}

	b := p.ensureBook(rec.Symbol)
	bid, offer := b.Inside()
	if _, err := b.Reduce(rec.Side, rec.Price, qty); err != nil {
		return p.fail(rec.Symbol, hdr, annotate(err, rec.Symbol, id))
	}
	p.retire(id, rec, qty)
	if all {
		p.counters.Deletes++
	} else {
		p.counters.Reduces++
	}
	p.depth(hdr, rec.Symbol, b, rec.Side)
	p.checkInside(recv, hdr, rec.Symbol, b, bid, offer)
	return nil
}

func (p *Processor) retire(id uint64, rec OrderRecord, qty int64) {
	rec.Qty -= qty
	if rec.Qty <= 0 {
		delete(p.orders, id)
		return
	}
	p.orders[id] = rec
}

// replaceOrder retires oldID and rests newID on the same side and
// instrument. The inside is compared once, across both mutations.
// Every check runs before the book is touched.
func (p *Processor) replaceOrder(recv time.Time, hdr itch5.Header, oldID, newID uint64, px field.Price4, qty int64) error {
	rec, ok := p.orders[oldID]
	if !ok {
		return p.fail(field.Stock{}, hdr, &book.FeedError{Op: "replace", OrderID: oldID, Err: ErrMissingOrder})
	}
	if p.skip(rec.Symbol) {
		return nil
	}
	if err := validAdd("replace", rec.Symbol, newID, rec.Side, px, qty); err != nil {
		return p.fail(rec.Symbol, hdr, err)
	}
	if _, dup := p.orders[newID]; dup && newID != oldID {
		return p.fail(rec.Symbol, hdr, &book.FeedError{Op: "replace", Symbol: rec.Symbol.String(), OrderID: newID, Side: rec.Side, Price: px, Qty: qty, Err: ErrDuplicateOrder})
	}

	b := p.ensureBook(rec.Symbol)
	bid, offer := b.Inside()
	if _, err := b.Reduce(rec.Side, rec.Price, rec.Qty); err != nil {
		return p.fail(rec.Symbol, hdr, annotate(err, rec.Symbol, oldID))
	}
	delete(p.orders, oldID)
	if _, err := b.Add(rec.Side, px, qty); err != nil {
		return p.fail(rec.Symbol, hdr, annotate(err, rec.Symbol, newID))
	}
	p.orders[newID] = OrderRecord{Symbol: rec.Symbol, Side: rec.Side, Price: px, Qty: qty}
	p.counters.Replaces++
	p.depth(hdr, rec.Symbol, b, rec.Side)
	p.checkInside(recv, hdr, rec.Symbol, b, bid, offer)
	return nil
}

func (p *Processor) checkInside(recv time.Time, hdr itch5.Header, stock field.Stock, b *book.OrderBook, bid0, offer0 book.Quote) {
	bid, offer := b.Inside()
	var changed bool
	if p.cfg.Mode == PriceAndSize {
		changed = bid != bid0 || offer != offer0
	} else {
		changed = bid.Price != bid0.Price || offer.Price != offer0.Price
	}
	if !changed {
		return
	}
	p.counters.InsideUpdates++
	p.onInside(recv, hdr, stock, bid, offer)
}

func (p *Processor) trade(recv time.Time, ev TradeEvent) error {
	p.counters.Trades++
	if p.cfg.OnTrade != nil {
		p.cfg.OnTrade(recv, ev)
	}
	return nil
}

func (p *Processor) unknown(kind string, count, offset uint64, raw []byte) error {
	p.counters.Unknown++
	var tag byte
	if len(raw) > 0 {
		tag = raw[0]
	}
	if kind == "pitch" && len(raw) > 1 {
		tag = raw[1]
	}
	p.log.Warnw("unknown message type",
		"protocol", kind,
		"type", fmt.Sprintf("%#02x", tag),
		"count", count,
		"offset", offset,
		"length", len(raw),
	)
	return nil
}
