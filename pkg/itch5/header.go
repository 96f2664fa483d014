// Package itch5 decodes and encodes NASDAQ TotalView-ITCH 5.0 messages
// and routes them to a Handler.
//
// Every message type has a generic decoder, instantiated with the
// validation mode chosen by the caller:
//
//	msg, err := itch5.DecodeAddOrder[wire.Validated](buf)
//
// and a MarshalBinary method producing the exact wire bytes.
package itch5

import (
	"time"

	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/wire"
)

// HeaderSize is the length of the common message header.
const HeaderSize = 11

// Header is the prefix shared by every ITCH-5.0 message.
type Header struct {
	MessageType    byte
	StockLocate    uint16
	TrackingNumber uint16
	Timestamp      field.Timestamp
}

// Meta describes where a message came from in its stream.
type Meta struct {
	Recv   time.Time
	Count  uint64
	Offset uint64
}

func decodeHeader[M wire.Mode](d *wire.Decoder[M]) Header {
	return Header{
		MessageType:    d.U8("message_type", 0),
		StockLocate:    d.U16("stock_locate", 1),
		TrackingNumber: d.U16("tracking_number", 3),
		Timestamp:      field.DecodeTimestamp(d, "timestamp", 5),
	}
}

// DecodeHeader reads only the common header.
func DecodeHeader[M wire.Mode](buf []byte) (Header, error) {
	d := wire.NewDecoder[M](buf)
	h := decodeHeader(d)
	return h, d.Err()
}

func (h Header) encode(e *wire.Encoder, tag byte) {
	e.U8("message_type", 0, tag)
	e.U16("stock_locate", 1, h.StockLocate)
	e.U16("tracking_number", 3, h.TrackingNumber)
	h.Timestamp.Encode(e, "timestamp", 5)
}

func marshal(size int, write func(e *wire.Encoder)) ([]byte, error) {
	e := wire.NewEncoder(make([]byte, size))
	write(e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
