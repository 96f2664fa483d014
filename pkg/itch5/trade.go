package itch5

import (
	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/wire"
)

const (
	TagTrade       = 'P'
	TagCrossTrade  = 'Q'
	TagBrokenTrade = 'B'

	SizeTrade       = 44
	SizeCrossTrade  = 40
	SizeBrokenTrade = 19
)

// Trade reports an execution against a non-displayed order.
type Trade struct {
	Header
	OrderRef    uint64
	Side        BuySell
	Shares      uint32
	Stock       field.Stock
	Price       field.Price4
	MatchNumber uint64
}

func DecodeTrade[M wire.Mode](buf []byte) (Trade, error) {
	d := wire.NewDecoder[M](buf)
	m := Trade{
		Header:      decodeHeader(d),
		OrderRef:    d.U64("order_reference_number", 11),
		Side:        field.DecodeChar[Sides](d, "buy_sell_indicator", 19),
		Shares:      d.U32("shares", 20),
		Stock:       field.DecodeStock(d, "stock", 24),
		Price:       field.DecodePrice4(d, "price", 32),
		MatchNumber: d.U64("match_number", 36),
	}
	return m, d.Err()
}

func (m Trade) MarshalBinary() ([]byte, error) {
	return marshal(SizeTrade, func(e *wire.Encoder) {
		m.Header.encode(e, TagTrade)
		e.U64("order_reference_number", 11, m.OrderRef)
		m.Side.Encode(e, "buy_sell_indicator", 19)
		e.U32("shares", 20, m.Shares)
		m.Stock.Encode(e, "stock", 24)
		m.Price.Encode(e, "price", 32)
		e.U64("match_number", 36, m.MatchNumber)
	})
}

type CrossTrade struct {
	Header
	Shares      uint64
	Stock       field.Stock
	CrossPrice  field.Price4
	MatchNumber uint64
	CrossType   CrossType
}

func DecodeCrossTrade[M wire.Mode](buf []byte) (CrossTrade, error) {
	d := wire.NewDecoder[M](buf)
	m := CrossTrade{
		Header:      decodeHeader(d),
		Shares:      d.U64("shares", 11),
		Stock:       field.DecodeStock(d, "stock", 19),
		CrossPrice:  field.DecodePrice4(d, "cross_price", 27),
		MatchNumber: d.U64("match_number", 31),
		CrossType:   field.DecodeChar[CrossTypes](d, "cross_type", 39),
	}
	return m, d.Err()
}

func (m CrossTrade) MarshalBinary() ([]byte, error) {
	return marshal(SizeCrossTrade, func(e *wire.Encoder) {
		m.Header.encode(e, TagCrossTrade)
		e.U64("shares", 11, m.Shares)
		m.Stock.Encode(e, "stock", 19)
		m.CrossPrice.Encode(e, "cross_price", 27)
		e.U64("match_number", 31, m.MatchNumber)
		m.CrossType.Encode(e, "cross_type", 39)
	})
}

type BrokenTrade struct {
	Header
	MatchNumber uint64
}

func DecodeBrokenTrade[M wire.Mode](buf []byte) (BrokenTrade, error) {
	d := wire.NewDecoder[M](buf)
	m := BrokenTrade{
		Header:      decodeHeader(d),
		MatchNumber: d.U64("match_number", 11),
	}
	return m, d.Err()
}

func (m BrokenTrade) MarshalBinary() ([]byte, error) {
	return marshal(SizeBrokenTrade, func(e *wire.Encoder) {
		m.Header.encode(e, TagBrokenTrade)
		e.U64("match_number", 11, m.MatchNumber)
	})
}
