// Package publish delivers inside-quote updates to their consumers: a
// text journal, a Kafka topic, the quote store and in-process
// subscribers.
package publish

import (
	"context"
	"errors"
	"time"

	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/itch5"
	"github.com/uhyunpark/mktfeed/pkg/storage"
)

// Update is one inside change for an instrument.
type Update struct {
	Session string       `json:"session"`
	Count   uint64       `json:"count"`
	Recv    time.Time    `json:"recv"`
	Header  itch5.Header `json:"-"`
	Stock   field.Stock  `json:"stock"`
	Bid     book.Quote   `json:"bid"`
	Offer   book.Quote   `json:"offer"`
}

// Record converts the update into its stored form.
func (u Update) Record() storage.QuoteRecord {
	return storage.QuoteRecord{
		Session:   u.Session,
		Count:     u.Count,
		Stock:     u.Stock.String(),
		Locate:    u.Header.StockLocate,
		Timestamp: u.Header.Timestamp,
		Recv:      u.Recv,
		Bid:       u.Bid,
		Offer:     u.Offer,
	}
}

// Sink consumes updates. Publish is called from the feed goroutine of
// one session; sinks shared between sessions must lock.
type Sink interface {
	Publish(ctx context.Context, u Update) error
	Close() error
}

// Multi fans an update out to every sink. All sinks see the update even
// when an earlier one fails.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, u Update) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StoreSink appends updates to a quote store. Closing it leaves the
// store open; the owner closes the store.
type StoreSink struct {
	Store storage.QuoteStore
}

func (s StoreSink) Publish(_ context.Context, u Update) error { return s.Store.Append(u.Record()) }
func (s StoreSink) Close() error                               { return nil }

// Func adapts a function to a Sink.
type Func func(ctx context.Context, u Update) error

func (f Func) Publish(ctx context.Context, u Update) error { return f(ctx, u) }
func (f Func) Close() error                                { return nil }
