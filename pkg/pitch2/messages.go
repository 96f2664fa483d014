// Package pitch2 decodes and encodes BATS PITCH-2.x messages. All
// multi-byte fields are little-endian and every message starts with a
// one-byte length and a one-byte type.
package pitch2

import (
	"math"

	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/wire"
)

const (
	TypeTime             = 0x20
	TypeAddOrder         = 0x21
	TypeAddOrderShort    = 0x22
	TypeOrderExecuted    = 0x23
	TypeReduceSize       = 0x25
	TypeReduceSizeShort  = 0x26
	TypeModify           = 0x27
	TypeModifyShort      = 0x28
	TypeDeleteOrder      = 0x29
	TypeAddOrderExpanded = 0x2F
	TypeAuctionUpdate    = 0x95
	TypeUnitClear        = 0x97

	SizeTime             = 6
	SizeAddOrder         = 34
	SizeAddOrderShort    = 26
	SizeOrderExecuted    = 26
	SizeReduceSize       = 18
	SizeReduceSizeShort  = 16
	SizeModify           = 27
	SizeModifyShort      = 19
	SizeDeleteOrder      = 14
	SizeAddOrderExpanded = 40
	SizeAuctionUpdate    = 47
	SizeUnitClear        = 6
)

type (
	Sides        struct{}
	AuctionTypes struct{}
)

func (Sides) Values() string        { return "BS" }
func (AuctionTypes) Values() string { return "OCHI" }

type (
	Side        = field.Char[Sides]
	AuctionType = field.Char[AuctionTypes]
)

var (
	Buy  = field.MustChar[Sides]('B')
	Sell = field.MustChar[Sides]('S')
)

// LongPrice carries four implied decimals in eight bytes.
type LongPrice uint64

// ShortPrice carries two implied decimals in two bytes.
type ShortPrice uint16

// Price4 converts to the four-decimal price used by the books. ok is
// false when the value does not fit.
func (p LongPrice) Price4() (field.Price4, bool) {
	if p > math.MaxUint32 {
		return 0, false
	}
	return field.Price4(p), true
}

func (p ShortPrice) Price4() (field.Price4, bool) {
	return field.Price4(uint32(p) * 100), true
}

// Header is the common prefix. TimeOffset is nanoseconds since the last
// Time message; in a Time message the same bytes hold seconds since
// midnight.
type Header struct {
	Length      uint8
	MessageType uint8
	TimeOffset  uint32
}

func decodeHeader[M wire.Mode](d *wire.Decoder[M]) Header {
	return Header{
		Length:      d.U8("length", 0),
		MessageType: d.U8("message_type", 1),
		TimeOffset:  d.U32LE("time_offset", 2),
	}
}

func (h Header) encode(e *wire.Encoder, size int, typ uint8) {
	e.U8("length", 0, uint8(size))
	e.U8("message_type", 1, typ)
	e.U32LE("time_offset", 2, h.TimeOffset)
}

func marshal(size int, typ uint8, h Header, write func(e *wire.Encoder)) ([]byte, error) {
	e := wire.NewEncoder(make([]byte, size))
	h.encode(e, size, typ)
	write(e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

type Time struct {
	Header
}

// Seconds is the number of seconds since midnight carried by the message.
func (m Time) Seconds() uint32 { return m.TimeOffset }

func DecodeTime[M wire.Mode](buf []byte) (Time, error) {
	d := wire.NewDecoder[M](buf)
	m := Time{Header: decodeHeader(d)}
	return m, d.Err()
}

func (m Time) MarshalBinary() ([]byte, error) {
	return marshal(SizeTime, TypeTime, m.Header, func(*wire.Encoder) {})
}

type UnitClear struct {
	Header
}

func DecodeUnitClear[M wire.Mode](buf []byte) (UnitClear, error) {
	d := wire.NewDecoder[M](buf)
	m := UnitClear{Header: decodeHeader(d)}
	return m, d.Err()
}

func (m UnitClear) MarshalBinary() ([]byte, error) {
	return marshal(SizeUnitClear, TypeUnitClear, m.Header, func(*wire.Encoder) {})
}

// AddOrder is the long form: 4-byte quantity, 8-byte price.
type AddOrder struct {
	Header
	OrderID  uint64
	Side     Side
	Quantity uint32
	Symbol   field.Symbol6
	Price    LongPrice
	Flags    uint8
}

func DecodeAddOrder[M wire.Mode](buf []byte) (AddOrder, error) {
	d := wire.NewDecoder[M](buf)
	m := AddOrder{
		Header:   decodeHeader(d),
		OrderID:  d.U64LE("order_id", 6),
		Side:     field.DecodeChar[Sides](d, "side_indicator", 14),
		Quantity: d.U32LE("quantity", 15),
		Symbol:   field.DecodeShortString[field.W6](d, "symbol", 19),
		Price:    LongPrice(d.U64LE("price", 25)),
		Flags:    d.U8("add_flags", 33),
	}
	return m, d.Err()
}

func (m AddOrder) MarshalBinary() ([]byte, error) {
	return marshal(SizeAddOrder, TypeAddOrder, m.Header, func(e *wire.Encoder) {
		e.U64LE("order_id", 6, m.OrderID)
		m.Side.Encode(e, "side_indicator", 14)
		e.U32LE("quantity", 15, m.Quantity)
		m.Symbol.Encode(e, "symbol", 19)
		e.U64LE("price", 25, uint64(m.Price))
		e.U8("add_flags", 33, m.Flags)
	})
}

// AddOrderShort uses a 2-byte quantity and a 2-byte, two-decimal price.
type AddOrderShort struct {
	Header
	OrderID  uint64
	Side     Side
	Quantity uint16
	Symbol   field.Symbol6
	Price    ShortPrice
	Flags    uint8
}

func DecodeAddOrderShort[M wire.Mode](buf []byte) (AddOrderShort, error) {
	d := wire.NewDecoder[M](buf)
	m := AddOrderShort{
		Header:   decodeHeader(d),
		OrderID:  d.U64LE("order_id", 6),
		Side:     field.DecodeChar[Sides](d, "side_indicator", 14),
		Quantity: d.U16LE("quantity", 15),
		Symbol:   field.DecodeShortString[field.W6](d, "symbol", 17),
		Price:    ShortPrice(d.U16LE("price", 23)),
		Flags:    d.U8("add_flags", 25),
	}
	return m, d.Err()
}

func (m AddOrderShort) MarshalBinary() ([]byte, error) {
	return marshal(SizeAddOrderShort, TypeAddOrderShort, m.Header, func(e *wire.Encoder) {
		e.U64LE("order_id", 6, m.OrderID)
		m.Side.Encode(e, "side_indicator", 14)
		e.U16LE("quantity", 15, m.Quantity)
		m.Symbol.Encode(e, "symbol", 17)
		e.U16LE("price", 23, uint16(m.Price))
		e.U8("add_flags", 25, m.Flags)
	})
}

// AddOrderExpanded carries an 8-byte symbol and the participant id.
type AddOrderExpanded struct {
	Header
	OrderID       uint64
	Side          Side
	Quantity      uint32
	Symbol        field.Stock
	Price         LongPrice
	Flags         uint8
	ParticipantID field.MPID
}

func DecodeAddOrderExpanded[M wire.Mode](buf []byte) (AddOrderExpanded, error) {
	d := wire.NewDecoder[M](buf)
	m := AddOrderExpanded{
		Header:        decodeHeader(d),
		OrderID:       d.U64LE("order_id", 6),
		Side:          field.DecodeChar[Sides](d, "side_indicator", 14),
		Quantity:      d.U32LE("quantity", 15),
		Symbol:        field.DecodeStock(d, "symbol", 19),
		Price:         LongPrice(d.U64LE("price", 27)),
		Flags:         d.U8("add_flags", 35),
		ParticipantID: field.DecodeShortString[field.W4](d, "participant_id", 36),
	}
	return m, d.Err()
}

func (m AddOrderExpanded) MarshalBinary() ([]byte, error) {
	return marshal(SizeAddOrderExpanded, TypeAddOrderExpanded, m.Header, func(e *wire.Encoder) {
		e.U64LE("order_id", 6, m.OrderID)
		m.Side.Encode(e, "side_indicator", 14)
		e.U32LE("quantity", 15, m.Quantity)
		m.Symbol.Encode(e, "symbol", 19)
		e.U64LE("price", 27, uint64(m.Price))
		e.U8("add_flags", 35, m.Flags)
		m.ParticipantID.Encode(e, "participant_id", 36)
	})
}

type OrderExecuted struct {
	Header
	OrderID          uint64
	ExecutedQuantity uint32
	ExecutionID      uint64
}

func DecodeOrderExecuted[M wire.Mode](buf []byte) (OrderExecuted, error) {
	d := wire.NewDecoder[M](buf)
	m := OrderExecuted{
		Header:           decodeHeader(d),
		OrderID:          d.U64LE("order_id", 6),
		ExecutedQuantity: d.U32LE("executed_quantity", 14),
		ExecutionID:      d.U64LE("execution_id", 18),
	}
	return m, d.Err()
}

func (m OrderExecuted) MarshalBinary() ([]byte, error) {
	return marshal(SizeOrderExecuted, TypeOrderExecuted, m.Header, func(e *wire.Encoder) {
		e.U64LE("order_id", 6, m.OrderID)
		e.U32LE("executed_quantity", 14, m.ExecutedQuantity)
		e.U64LE("execution_id", 18, m.ExecutionID)
	})
}

type ReduceSize struct {
	Header
	OrderID          uint64
	CanceledQuantity uint32
}

func DecodeReduceSize[M wire.Mode](buf []byte) (ReduceSize, error) {
	d := wire.NewDecoder[M](buf)
	m := ReduceSize{
		Header:           decodeHeader(d),
		OrderID:          d.U64LE("order_id", 6),
		CanceledQuantity: d.U32LE("canceled_quantity", 14),
	}
	return m, d.Err()
}

func (m ReduceSize) MarshalBinary() ([]byte, error) {
	return marshal(SizeReduceSize, TypeReduceSize, m.Header, func(e *wire.Encoder) {
		e.U64LE("order_id", 6, m.OrderID)
		e.U32LE("canceled_quantity", 14, m.CanceledQuantity)
	})
}

type ReduceSizeShort struct {
	Header
	OrderID          uint64
	CanceledQuantity uint16
}

func DecodeReduceSizeShort[M wire.Mode](buf []byte) (ReduceSizeShort, error) {
	d := wire.NewDecoder[M](buf)
	m := ReduceSizeShort{
		Header:           decodeHeader(d),
		OrderID:          d.U64LE("order_id", 6),
		CanceledQuantity: d.U16LE("canceled_quantity", 14),
	}
	return m, d.Err()
}

func (m ReduceSizeShort) MarshalBinary() ([]byte, error) {
	return marshal(SizeReduceSizeShort, TypeReduceSizeShort, m.Header, func(e *wire.Encoder) {
		e.U64LE("order_id", 6, m.OrderID)
		e.U16LE("canceled_quantity", 14, m.CanceledQuantity)
	})
}

// Modify changes the quantity and price of an order while keeping its id.
type Modify struct {
	Header
	OrderID  uint64
	Quantity uint32
	Price    LongPrice
	Flags    uint8
}

func DecodeModify[M wire.Mode](buf []byte) (Modify, error) {
	d := wire.NewDecoder[M](buf)
	m := Modify{
		Header:   decodeHeader(d),
		OrderID:  d.U64LE("order_id", 6),
		Quantity: d.U32LE("quantity", 14),
		Price:    LongPrice(d.U64LE("price", 18)),
		Flags:    d.U8("modify_flags", 26),
	}
	return m, d.Err()
}

func (m Modify) MarshalBinary() ([]byte, error) {
	return marshal(SizeModify, TypeModify, m.Header, func(e *wire.Encoder) {
		e.U64LE("order_id", 6, m.OrderID)
		e.U32LE("quantity", 14, m.Quantity)
		e.U64LE("price", 18, uint64(m.Price))
		e.U8("modify_flags", 26, m.Flags)
	})
}

type ModifyShort struct {
	Header
	OrderID  uint64
	Quantity uint16
	Price    ShortPrice
	Flags    uint8
}

func DecodeModifyShort[M wire.Mode](buf []byte) (ModifyShort, error) {
	d := wire.NewDecoder[M](buf)
	m := ModifyShort{
		Header:   decodeHeader(d),
		OrderID:  d.U64LE("order_id", 6),
		Quantity: d.U16LE("quantity", 14),
		Price:    ShortPrice(d.U16LE("price", 16)),
		Flags:    d.U8("modify_flags", 18),
	}
	return m, d.Err()
}

func (m ModifyShort) MarshalBinary() ([]byte, error) {
	return marshal(SizeModifyShort, TypeModifyShort, m.Header, func(e *wire.Encoder) {
		e.U64LE("order_id", 6, m.OrderID)
		e.U16LE("quantity", 14, m.Quantity)
		e.U16LE("price", 16, uint16(m.Price))
		e.U8("modify_flags", 18, m.Flags)
	})
}

type DeleteOrder struct {
	Header
	OrderID uint64
}

func DecodeDeleteOrder[M wire.Mode](buf []byte) (DeleteOrder, error) {
	d := wire.NewDecoder[M](buf)
	m := DeleteOrder{
		Header:  decodeHeader(d),
		OrderID: d.U64LE("order_id", 6),
	}
	return m, d.Err()
}

func (m DeleteOrder) MarshalBinary() ([]byte, error) {
	return marshal(SizeDeleteOrder, TypeDeleteOrder, m.Header, func(e *wire.Encoder) {
		e.U64LE("order_id", 6, m.OrderID)
	})
}

type AuctionUpdate struct {
	Header
	Symbol           field.Stock
	AuctionType      AuctionType
	ReferencePrice   LongPrice
	BuyShares        uint32
	SellShares       uint32
	IndicativePrice  LongPrice
	AuctionOnlyPrice LongPrice
}

func DecodeAuctionUpdate[M wire.Mode](buf []byte) (AuctionUpdate, error) {
	d := wire.NewDecoder[M](buf)
	m := AuctionUpdate{
		Header:           decodeHeader(d),
		Symbol:           field.DecodeStock(d, "stock_symbol", 6),
		AuctionType:      field.DecodeChar[AuctionTypes](d, "auction_type", 14),
		ReferencePrice:   LongPrice(d.U64LE("reference_price", 15)),
		BuyShares:        d.U32LE("buy_shares", 23),
		SellShares:       d.U32LE("sell_shares", 27),
		IndicativePrice:  LongPrice(d.U64LE("indicative_price", 31)),
		AuctionOnlyPrice: LongPrice(d.U64LE("auction_only_price", 39)),
	}
	return m, d.Err()
}

func (m AuctionUpdate) MarshalBinary() ([]byte, error) {
	return marshal(SizeAuctionUpdate, TypeAuctionUpdate, m.Header, func(e *wire.Encoder) {
		m.Symbol.Encode(e, "stock_symbol", 6)
		m.AuctionType.Encode(e, "auction_type", 14)
		e.U64LE("reference_price", 15, uint64(m.ReferencePrice))
		e.U32LE("buy_shares", 23, m.BuyShares)
		e.U32LE("sell_shares", 27, m.SellShares)
		e.U64LE("indicative_price", 31, uint64(m.IndicativePrice))
		e.U64LE("auction_only_price", 39, uint64(m.AuctionOnlyPrice))
	})
}
