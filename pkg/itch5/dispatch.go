package itch5

import "github.com/uhyunpark/mktfeed/pkg/wire"

// Handler receives decoded messages. Embed UnimplementedHandler to accept
// only the message types of interest.
type Handler interface {
	HandleSystemEvent(Meta, SystemEvent) error
	HandleStockDirectory(Meta, StockDirectory) error
	HandleStockTradingAction(Meta, StockTradingAction) error
	HandleRegSHORestriction(Meta, RegSHORestriction) error
	HandleMarketParticipantPosition(Meta, MarketParticipantPosition) error
	HandleMWCBDeclineLevel(Meta, MWCBDeclineLevel) error
	HandleMWCBBreach(Meta, MWCBBreach) error
	HandleIPOQuotingPeriodUpdate(Meta, IPOQuotingPeriodUpdate) error
	HandleAddOrder(Meta, AddOrder) error
	HandleAddOrderMPID(Meta, AddOrderMPID) error
	HandleOrderExecuted(Meta, OrderExecuted) error
	HandleOrderExecutedPrice(Meta, OrderExecutedPrice) error
	HandleOrderCancel(Meta, OrderCancel) error
	HandleOrderDelete(Meta, OrderDelete) error
	HandleOrderReplace(Meta, OrderReplace) error
	HandleTrade(Meta, Trade) error
	HandleCrossTrade(Meta, CrossTrade) error
	HandleBrokenTrade(Meta, BrokenTrade) error
	HandleNOII(Meta, NOII) error
	HandleRetailPriceImprovement(Meta, RetailPriceImprovement) error

	// HandleUnknown receives messages whose type tag is not in the catalog.
	HandleUnknown(meta Meta, raw []byte) error
}

// Dispatch decodes buf according to its type tag and passes the result to
// the matching Handler method. Decode failures are returned without
// calling the handler.
func Dispatch[M wire.Mode](h Handler, meta Meta, buf []byte) error {
	if err := wire.CheckOffset[wire.Validated]("message_type", len(buf), 0, 1); err != nil {
		return err
	}

	switch buf[0] {
	case TagSystemEvent:
		return route(meta, buf, SizeSystemEvent, DecodeSystemEvent[M], h.HandleSystemEvent)
	case TagStockDirectory:
		return route(meta, buf, SizeStockDirectory, DecodeStockDirectory[M], h.HandleStockDirectory)
	case TagStockTradingAction:
		return route(meta, buf, SizeStockTradingAction, DecodeStockTradingAction[M], h.HandleStockTradingAction)
	case TagRegSHORestriction:
		return route(meta, buf, SizeRegSHORestriction, DecodeRegSHORestriction[M], h.HandleRegSHORestriction)
	case TagMarketParticipantPosition:
		return route(meta, buf, SizeMarketParticipantPosition, DecodeMarketParticipantPosition[M], h.HandleMarketParticipantPosition)
	case TagMWCBDeclineLevel:
		return route(meta, buf, SizeMWCBDeclineLevel, DecodeMWCBDeclineLevel[M], h.HandleMWCBDeclineLevel)
	case TagMWCBBreach:
		return route(meta, buf, SizeMWCBBreach, DecodeMWCBBreach[M], h.HandleMWCBBreach)
	case TagIPOQuotingPeriodUpdate:
		return route(meta, buf, SizeIPOQuotingPeriodUpdate, DecodeIPOQuotingPeriodUpdate[M], h.HandleIPOQuotingPeriodUpdate)
	case TagAddOrder:
		return route(meta, buf, SizeAddOrder, DecodeAddOrder[M], h.HandleAddOrder)
	case TagAddOrderMPID:
		return route(meta, buf, SizeAddOrderMPID, DecodeAddOrderMPID[M], h.HandleAddOrderMPID)
	case TagOrderExecuted:
		return route(meta, buf, SizeOrderExecuted, DecodeOrderExecuted[M], h.HandleOrderExecuted)
	case TagOrderExecutedPrice:
		return route(meta, buf, SizeOrderExecutedPrice, DecodeOrderExecutedPrice[M], h.HandleOrderExecutedPrice)
	case TagOrderCancel:
		return route(meta, buf, SizeOrderCancel, DecodeOrderCancel[M], h.HandleOrderCancel)
	case TagOrderDelete:
		return route(meta, buf, SizeOrderDelete, DecodeOrderDelete[M], h.HandleOrderDelete)
	case TagOrderReplace:
		return route(meta, buf, SizeOrderReplace, DecodeOrderReplace[M], h.HandleOrderReplace)
	case TagTrade:
		return route(meta, buf, SizeTrade, DecodeTrade[M], h.HandleTrade)
	case TagCrossTrade:
		return route(meta, buf, SizeCrossTrade, DecodeCrossTrade[M], h.HandleCrossTrade)
	case TagBrokenTrade:
		return route(meta, buf, SizeBrokenTrade, DecodeBrokenTrade[M], h.HandleBrokenTrade)
	case TagNOII:
		return route(meta, buf, SizeNOII, DecodeNOII[M], h.HandleNOII)
	case TagRetailPriceImprovement:
		return route(meta, buf, SizeRetailPriceImprovement, DecodeRetailPriceImprovement[M], h.HandleRetailPriceImprovement)
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

// UnimplementedHandler accepts every message and does nothing.
type UnimplementedHandler struct{}

func (UnimplementedHandler) HandleSystemEvent(Meta, SystemEvent) error               { return nil }
func (UnimplementedHandler) HandleStockDirectory(Meta, StockDirectory) error         { return nil }
func (UnimplementedHandler) HandleStockTradingAction(Meta, StockTradingAction) error { return nil }
func (UnimplementedHandler) HandleRegSHORestriction(Meta, RegSHORestriction) error   { return nil }
func (UnimplementedHandler) HandleMarketParticipantPosition(Meta, MarketParticipantPosition) error {
	return nil
}
func (UnimplementedHandler) HandleMWCBDeclineLevel(Meta, MWCBDeclineLevel) error { return nil }
func (UnimplementedHandler) HandleMWCBBreach(Meta, MWCBBreach) error             { return nil }
func (UnimplementedHandler) HandleIPOQuotingPeriodUpdate(Meta, IPOQuotingPeriodUpdate) error {
	return nil
}
func (UnimplementedHandler) HandleAddOrder(Meta, AddOrder) error                     { return nil }
func (UnimplementedHandler) HandleAddOrderMPID(Meta, AddOrderMPID) error             { return nil }
func (UnimplementedHandler) HandleOrderExecuted(Meta, OrderExecuted) error           { return nil }
func (UnimplementedHandler) HandleOrderExecutedPrice(Meta, OrderExecutedPrice) error { return nil }
func (UnimplementedHandler) HandleOrderCancel(Meta, OrderCancel) error               { return nil }
func (UnimplementedHandler) HandleOrderDelete(Meta, OrderDelete) error               { return nil }
func (UnimplementedHandler) HandleOrderReplace(Meta, OrderReplace) error             { return nil }
func (UnimplementedHandler) HandleTrade(Meta, Trade) error                           { return nil }
func (UnimplementedHandler) HandleCrossTrade(Meta, CrossTrade) error                 { return nil }
func (UnimplementedHandler) HandleBrokenTrade(Meta, BrokenTrade) error               { return nil }
func (UnimplementedHandler) HandleNOII(Meta, NOII) error                             { return nil }
func (UnimplementedHandler) HandleRetailPriceImprovement(Meta, RetailPriceImprovement) error {
	return nil
}
func (UnimplementedHandler) HandleUnknown(Meta, []byte) error { return nil }

var _ Handler = UnimplementedHandler{}
