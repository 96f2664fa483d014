// Package storage journals emitted inside quotes so they can be queried
// after the fact. Book state itself is never persisted.
package storage

import (
	"time"

	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/field"
)

// QuoteRecord is one inside-quote change as it was published.
type QuoteRecord struct {
	Session   string          `json:"session"`
	Count     uint64          `json:"count"`
	Stock     string          `json:"stock"`
	Locate    uint16          `json:"locate"`
	Timestamp field.Timestamp `json:"timestamp_ns"`
	Recv      time.Time       `json:"recv"`
	Bid       book.Quote      `json:"bid"`
	Offer     book.Quote      `json:"offer"`
}

// QuoteStore is an append-only journal of quote records.
type QuoteStore interface {
	Append(rec QuoteRecord) error
	// Recent returns up to limit records for stock, newest first.
	Recent(stock string, limit int) ([]QuoteRecord, error)
	Close() error
}
