// Package market keeps a concurrent snapshot of every instrument's
// inside quote and top-of-book depth for readers outside the feed
// goroutine.
package market

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/publish"
)

// Status of an instrument as seen by the feed.
type Status uint8

const (
	Active Status = iota
	// Suspended instruments saw a message inconsistent with the order
	// table; their book is no longer trusted.
	Suspended
)

func (s Status) String() string {
	switch s {
	case Active:
		return "Active"
	case Suspended:
		return "Suspended"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Instrument is a point-in-time copy of one instrument's state.
type Instrument struct {
	Symbol      string      `json:"symbol"`
	Session     string      `json:"session"`
	Locate      uint16      `json:"locate"`
	Status      string      `json:"status"`
	TimestampNs int64       `json:"timestamp_ns"`
	Updates     uint64      `json:"updates"`
	Bid         book.Quote  `json:"bid"`
	Offer       book.Quote  `json:"offer"`
	Depth       *book.Depth `json:"depth,omitempty"`
	LastTrade   *Trade      `json:"last_trade,omitempty"`
}

// Trade is the most recent print reported for an instrument.
type Trade struct {
	Price       field.Price4 `json:"price"`
	Shares      uint64       `json:"shares"`
	Cross       bool         `json:"cross"`
	TimestampNs int64        `json:"timestamp_ns"`
}

// Registry is safe for concurrent use. It implements publish.Sink.
type Registry struct {
	mu          sync.RWMutex
	instruments map[string]*Instrument
	listeners   []func(Instrument)
}

func NewRegistry() *Registry {
	return &Registry{instruments: make(map[string]*Instrument)}
}

// OnUpdate registers fn to receive a copy of every instrument change.
// fn is called outside the registry lock.
func (r *Registry) OnUpdate(fn func(Instrument)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) get(symbol string) *Instrument {
	in, ok := r.instruments[symbol]
	if !ok {
		in = &Instrument{Symbol: symbol, Status: Active.String()}
		r.instruments[symbol] = in
	}
	return in
}

// Publish records a new inside quote.
func (r *Registry) Publish(_ context.Context, u publish.Update) error {
	symbol := u.Stock.String()
	r.mu.Lock()
	in := r.get(symbol)
	in.Session = u.Session
	in.Locate = u.Header.StockLocate
	in.TimestampNs = int64(u.Header.Timestamp)
	in.Bid, in.Offer = u.Bid, u.Offer
	in.Updates++
	snap := in.copy()
	listeners := r.listeners
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return nil
}

func (r *Registry) Close() error { return nil }

// SetDepth replaces the depth snapshot for symbol.
func (r *Registry) SetDepth(symbol string, d book.Depth) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := cloneDepth(d)
	r.get(symbol).Depth = &c
}

// RecordTrade replaces the last trade for symbol.
func (r *Registry) RecordTrade(symbol string, t Trade) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(symbol).LastTrade = &t
}

// Suspend marks symbol untrusted. Suspension is terminal for the
// session.
func (r *Registry) Suspend(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in := r.get(symbol)
	in.Status = Suspended.String()
}

func (r *Registry) Get(symbol string) (Instrument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.instruments[symbol]
	if !ok {
		return Instrument{}, fmt.Errorf("instrument %s not found", symbol)
	}
	return in.copy(), nil
}

// List returns every instrument ordered by symbol.
func (r *Registry) List() []Instrument {
	r.mu.RLock()
	out := make([]Instrument, 0, len(r.instruments))
	for _, in := range r.instruments {
		out = append(out, in.copy())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instruments)
}

func (in *Instrument) copy() Instrument {
	c := *in
	if in.Depth != nil {
		d := cloneDepth(*in.Depth)
		c.Depth = &d
	}
	if in.LastTrade != nil {
		t := *in.LastTrade
		c.LastTrade = &t
	}
	return c
}

func cloneDepth(d book.Depth) book.Depth {
	return book.Depth{
		Bids: append([]book.Quote(nil), d.Bids...),
		Asks: append([]book.Quote(nil), d.Asks...),
	}
}

var _ publish.Sink = (*Registry)(nil)
