package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/uhyunpark/mktfeed/pkg/feed"
	"github.com/uhyunpark/mktfeed/pkg/field"
)

// lineWriter serializes whole lines onto a shared writer.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

func newLineWriter(w io.Writer) lineWriter {
	c, _ := w.(io.Closer)
	return lineWriter{w: w, c: c}
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func (l *lineWriter) printf(format string, args ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.w, format, args...)
	return err
}

func (l *lineWriter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}

// TextWriter journals updates one per line:
//
//	<feed-ns> <locate> <stock> <bid-px> <bid-qty> <offer-px> <offer-qty>
//
// Prices are raw integers in 1/10000 units.
type TextWriter struct {
	lineWriter
}

// NewTextWriter writes to w. Close closes w if it is an io.Closer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{newLineWriter(w)}
}

// OpenTextFile appends to the file at path, creating it if needed.
func OpenTextFile(path string) (*TextWriter, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return NewTextWriter(f), nil
}

func (t *TextWriter) Publish(_ context.Context, u Update) error {
	return t.printf("%d %d %s %d %d %d %d\n",
		int64(u.Header.Timestamp), u.Header.StockLocate, u.Stock,
		uint32(u.Bid.Price), u.Bid.Qty, uint32(u.Offer.Price), u.Offer.Qty)
}

// TradeSink receives the trade messages of a session.
type TradeSink interface {
	PublishTrade(ctx context.Context, ev feed.TradeEvent) error
	Close() error
}

// TradeWriter reports trades one per line:
//
//	<feed-ns> <order-ref> <side> <shares> <stock> <price> <match> <kind>
//
// Prices are decimal. Crosses have no order or side and broken trades
// only a match number; missing columns are written as 0 or "-".
type TradeWriter struct {
	lineWriter
}

// NewTradeWriter writes to w. Close closes w if it is an io.Closer.
func NewTradeWriter(w io.Writer) *TradeWriter {
	return &TradeWriter{newLineWriter(w)}
}

// OpenTradeFile appends to the file at path, creating it if needed.
func OpenTradeFile(path string) (*TradeWriter, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return NewTradeWriter(f), nil
}

func (t *TradeWriter) PublishTrade(_ context.Context, ev feed.TradeEvent) error {
	side, stock, price := "-", "-", "-"
	if ev.Side != 0 {
		side = string(rune(ev.Side))
	}
	if ev.Stock != (field.Stock{}) {
		stock = ev.Stock.String()
	}
	if ev.Kind != feed.TradeBroken {
		price = ev.Price.String()
	}
	return t.printf("%d %d %s %d %s %s %d %s\n",
		int64(ev.Header.Timestamp), ev.OrderRef, side, ev.Shares, stock, price, ev.MatchNumber, ev.Kind)
}

var (
	_ Sink      = (*TextWriter)(nil)
	_ TradeSink = (*TradeWriter)(nil)
)
