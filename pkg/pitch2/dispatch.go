package pitch2

import (
	"time"

	"github.com/uhyunpark/mktfeed/pkg/wire"
)

// Meta locates a message in its stream.
type Meta struct {
	Recv   time.Time
	Unit   uint8
	Count  uint64
	Offset uint64
}

// Handler receives decoded PITCH messages.
type Handler interface {
	HandleTime(Meta, Time) error
	HandleUnitClear(Meta, UnitClear) error
	HandleAddOrder(Meta, AddOrder) error
	HandleAddOrderShort(Meta, AddOrderShort) error
	HandleAddOrderExpanded(Meta, AddOrderExpanded) error
	HandleOrderExecuted(Meta, OrderExecuted) error
	HandleReduceSize(Meta, ReduceSize) error
	HandleReduceSizeShort(Meta, ReduceSizeShort) error
	HandleModify(Meta, Modify) error
	HandleModifyShort(Meta, ModifyShort) error
	HandleDeleteOrder(Meta, DeleteOrder) error
	HandleAuctionUpdate(Meta, AuctionUpdate) error
	HandleUnknown(meta Meta, raw []byte) error
}

// Dispatch decodes one message by its type byte and calls h.
func Dispatch[M wire.Mode](h Handler, meta Meta, buf []byte) error {
	if err := wire.CheckOffset[wire.Validated]("message_type", len(buf), 1, 1); err != nil {
		return err
	}

	switch buf[1] {
	case TypeTime:
		return route(meta, buf, SizeTime, DecodeTime[M], h.HandleTime)
	case TypeUnitClear:
		return route(meta, buf, SizeUnitClear, DecodeUnitClear[M], h.HandleUnitClear)
	case TypeAddOrder:
		return route(meta, buf, SizeAddOrder, DecodeAddOrder[M], h.HandleAddOrder)
	case TypeAddOrderShort:
		return route(meta, buf, SizeAddOrderShort, DecodeAddOrderShort[M], h.HandleAddOrderShort)
	case TypeAddOrderExpanded:
		return route(meta, buf, SizeAddOrderExpanded, DecodeAddOrderExpanded[M], h.HandleAddOrderExpanded)
	case TypeOrderExecuted:
		return route(meta, buf, SizeOrderExecuted, DecodeOrderExecuted[M], h.HandleOrderExecuted)
	case TypeReduceSize:
		return route(meta, buf, SizeReduceSize, DecodeReduceSize[M], h.HandleReduceSize)
	case TypeReduceSizeShort:
		return route(meta, buf, SizeReduceSizeShort, DecodeReduceSizeShort[M], h.HandleReduceSizeShort)
	case TypeModify:
		return route(meta, buf, SizeModify, DecodeModify[M], h.HandleModify)
	case TypeModifyShort:
		return route(meta, buf, SizeModifyShort, DecodeModifyShort[M], h.HandleModifyShort)
	case TypeDeleteOrder:
		return route(meta, buf, SizeDeleteOrder, DecodeDeleteOrder[M], h.HandleDeleteOrder)
	case TypeAuctionUpdate:
		return route(meta, buf, SizeAuctionUpdate, DecodeAuctionUpdate[M], h.HandleAuctionUpdate)
	}
	return h.HandleUnknown(meta, buf)
}

// route checks the fixed length of the message type before decoding,
// so a truncated frame is an error even in Trusted mode.
func route[T any](meta Meta, buf []byte, size int, decode func([]byte) (T, error), handle func(Meta, T) error) error {
	if len(buf) < size {
		return &wire.DecodeError{Field: "message", Size: len(buf), Offset: 0, Width: size}
	}
	msg, err := decode(buf)
	if err != nil {
		return err
	}
	return handle(meta, msg)
}
