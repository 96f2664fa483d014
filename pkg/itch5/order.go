package itch5

import (
	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/wire"
)

const (
	TagAddOrder           = 'A'
	TagAddOrderMPID       = 'F'
	TagOrderExecuted      = 'E'
	TagOrderExecutedPrice = 'C'
	TagOrderCancel        = 'X'
	TagOrderDelete        = 'D'
	TagOrderReplace       = 'U'

	SizeAddOrder           = 36
	SizeAddOrderMPID       = 40
	SizeOrderExecuted      = 31
	SizeOrderExecutedPrice = 36
	SizeOrderCancel        = 23
	SizeOrderDelete        = 19
	SizeOrderReplace       = 35
)

type AddOrder struct {
	Header
	OrderRef uint64
	Side     BuySell
	Shares   uint32
	Stock    field.Stock
	Price    field.Price4
}

func decodeAddOrder[M wire.Mode](d *wire.Decoder[M]) AddOrder {
	return AddOrder{
		Header:   decodeHeader(d),
		OrderRef: d.U64("order_reference_number", 11),
		Side:     field.DecodeChar[Sides](d, "buy_sell_indicator", 19),
		Shares:   d.U32("shares", 20),
		Stock:    field.DecodeStock(d, "stock", 24),
		Price:    field.DecodePrice4(d, "price", 32),
	}
}

func (m AddOrder) encode(e *wire.Encoder, tag byte) {
	m.Header.encode(e, tag)
	e.U64("order_reference_number", 11, m.OrderRef)
	m.Side.Encode(e, "buy_sell_indicator", 19)
	e.U32("shares", 20, m.Shares)
	m.Stock.Encode(e, "stock", 24)
	m.Price.Encode(e, "price", 32)
}

func DecodeAddOrder[M wire.Mode](buf []byte) (AddOrder, error) {
	d := wire.NewDecoder[M](buf)
	m := decodeAddOrder(d)
	return m, d.Err()
}

func (m AddOrder) MarshalBinary() ([]byte, error) {
	return marshal(SizeAddOrder, func(e *wire.Encoder) { m.encode(e, TagAddOrder) })
}

// AddOrderMPID is an AddOrder carrying the attributed participant.
type AddOrderMPID struct {
	AddOrder
	Attribution field.MPID
}

func DecodeAddOrderMPID[M wire.Mode](buf []byte) (AddOrderMPID, error) {
	d := wire.NewDecoder[M](buf)
	m := AddOrderMPID{
		AddOrder:    decodeAddOrder(d),
		Attribution: field.DecodeShortString[field.W4](d, "attribution", 36),
	}
	return m, d.Err()
}

func (m AddOrderMPID) MarshalBinary() ([]byte, error) {
	return marshal(SizeAddOrderMPID, func(e *wire.Encoder) {
		m.AddOrder.encode(e, TagAddOrderMPID)
		m.Attribution.Encode(e, "attribution", 36)
	})
}

type OrderExecuted struct {
	Header
	OrderRef       uint64
	ExecutedShares uint32
	MatchNumber    uint64
}

func decodeOrderExecuted[M wire.Mode](d *wire.Decoder[M]) OrderExecuted {
	return OrderExecuted{
		Header:         decodeHeader(d),
		OrderRef:       d.U64("order_reference_number", 11),
		ExecutedShares: d.U32("executed_shares", 19),
		MatchNumber:    d.U64("match_number", 23),
	}
}

func (m OrderExecuted) encode(e *wire.Encoder, tag byte) {
	m.Header.encode(e, tag)
	e.U64("order_reference_number", 11, m.OrderRef)
	e.U32("executed_shares", 19, m.ExecutedShares)
	e.U64("match_number", 23, m.MatchNumber)
}

func DecodeOrderExecuted[M wire.Mode](buf []byte) (OrderExecuted, error) {
	d := wire.NewDecoder[M](buf)
	m := decodeOrderExecuted(d)
	return m, d.Err()
}

func (m OrderExecuted) MarshalBinary() ([]byte, error) {
	return marshal(SizeOrderExecuted, func(e *wire.Encoder) { m.encode(e, TagOrderExecuted) })
}

// OrderExecutedPrice is an execution at a price other than the order's
// display price.
type OrderExecutedPrice struct {
	OrderExecuted
	Printable      YesNo
	ExecutionPrice field.Price4
}

func DecodeOrderExecutedPrice[M wire.Mode](buf []byte) (OrderExecutedPrice, error) {
	d := wire.NewDecoder[M](buf)
	m := OrderExecutedPrice{
		OrderExecuted:  decodeOrderExecuted(d),
		Printable:      field.DecodeChar[YesNoCodes](d, "printable", 31),
		ExecutionPrice: field.DecodePrice4(d, "execution_price", 32),
	}
	return m, d.Err()
}

func (m OrderExecutedPrice) MarshalBinary() ([]byte, error) {
	return marshal(SizeOrderExecutedPrice, func(e *wire.Encoder) {
		m.OrderExecuted.encode(e, TagOrderExecutedPrice)
		m.Printable.Encode(e, "printable", 31)
		m.ExecutionPrice.Encode(e, "execution_price", 32)
	})
}

type OrderCancel struct {
	Header
	OrderRef       uint64
	CanceledShares uint32
}

func DecodeOrderCancel[M wire.Mode](buf []byte) (OrderCancel, error) {
	d := wire.NewDecoder[M](buf)
	m := OrderCancel{
		Header:         decodeHeader(d),
		OrderRef:       d.U64("order_reference_number", 11),
		CanceledShares: d.U32("canceled_shares", 19),
	}
	return m, d.Err()
}

func (m OrderCancel) MarshalBinary() ([]byte, error) {
	return marshal(SizeOrderCancel, func(e *wire.Encoder) {
		m.Header.encode(e, TagOrderCancel)
		e.U64("order_reference_number", 11, m.OrderRef)
		e.U32("canceled_shares", 19, m.CanceledShares)
	})
}

type OrderDelete struct {
	Header
	OrderRef uint64
}

func DecodeOrderDelete[M wire.Mode](buf []byte) (OrderDelete, error) {
	d := wire.NewDecoder[M](buf)
	m := OrderDelete{
		Header:   decodeHeader(d),
		OrderRef: d.U64("order_reference_number", 11),
	}
	return m, d.Err()
}

func (m OrderDelete) MarshalBinary() ([]byte, error) {
	return marshal(SizeOrderDelete, func(e *wire.Encoder) {
		m.Header.encode(e, TagOrderDelete)
		e.U64("order_reference_number", 11, m.OrderRef)
	})
}

type OrderReplace struct {
	Header
	OriginalOrderRef uint64
	NewOrderRef      uint64
	Shares           uint32
	Price            field.Price4
}

func DecodeOrderReplace[M wire.Mode](buf []byte) (OrderReplace, error) {
	d := wire.NewDecoder[M](buf)
	m := OrderReplace{
		Header:           decodeHeader(d),
		OriginalOrderRef: d.U64("original_order_reference_number", 11),
		NewOrderRef:      d.U64("new_order_reference_number", 19),
		Shares:           d.U32("shares", 27),
		Price:            field.DecodePrice4(d, "price", 31),
	}
	return m, d.Err()
}

func (m OrderReplace) MarshalBinary() ([]byte, error) {
	return marshal(SizeOrderReplace, func(e *wire.Encoder) {
		m.Header.encode(e, TagOrderReplace)
		e.U64("original_order_reference_number", 11, m.OriginalOrderRef)
		e.U64("new_order_reference_number", 19, m.NewOrderRef)
		e.U32("shares", 27, m.Shares)
		m.Price.Encode(e, "price", 31)
	})
}
