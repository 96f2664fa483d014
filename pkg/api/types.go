package api

import (
	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/market"
	"github.com/uhyunpark/mktfeed/pkg/storage"
)

// ==============================
// REST Response Types
// ==============================

// InstrumentList is the response for GET /api/v1/instruments
type InstrumentList struct {
	Count       int                 `json:"count"`
	Instruments []market.Instrument `json:"instruments"`
}

// DepthSnapshot is the top of both sides of one book
type DepthSnapshot struct {
	Symbol      string       `json:"symbol"`
	TimestampNs int64        `json:"timestamp_ns"`
	Bids        []book.Quote `json:"bids"` // best first
	Asks        []book.Quote `json:"asks"` // best first
}

// QuoteHistory is the response for GET /api/v1/instruments/{symbol}/quotes
type QuoteHistory struct {
	Symbol string                `json:"symbol"`
	Quotes []storage.QuoteRecord `json:"quotes"` // newest first
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by clients to manage channel subscriptions.
// Channels are named "inside:<SYMBOL>", or "inside:*" for all.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// InsideUpdate is pushed on the inside:<SYMBOL> channel, and once per
// symbol right after a subscribe when the symbol is known
type InsideUpdate struct {
	Type        string     `json:"type"` // "inside"
	Symbol      string     `json:"symbol"`
	Session     string     `json:"session"`
	TimestampNs int64      `json:"timestamp_ns"`
	Bid         book.Quote `json:"bid"`
	Offer       book.Quote `json:"offer"`
}

// WSAck confirms the channels a request applied to
type WSAck struct {
	Type     string   `json:"type"` // "subscribed" or "unsubscribed"
	Channels []string `json:"channels"`
}

// WSError reports a rejected request; the connection stays open
type WSError struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
