package feed

import (
	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/itch5"
)

// itchHandler applies ITCH-5.0 messages to a Processor.
type itchHandler struct {
	p *Processor
}

var _ itch5.Handler = itchHandler{}

// seen runs for every message, so it must not log or allocate.
func (h itchHandler) seen(hdr itch5.Header) {
	h.p.counters.Messages++
	h.p.lastTS = hdr.Timestamp
}

func (h itchHandler) HandleStockDirectory(meta itch5.Meta, m itch5.StockDirectory) error {
	h.seen(m.Header)
	h.p.ensureBook(m.Stock)
	return nil
}

func (h itchHandler) HandleAddOrder(meta itch5.Meta, m itch5.AddOrder) error {
	h.seen(m.Header)
	return h.add(meta, m)
}

func (h itchHandler) HandleAddOrderMPID(meta itch5.Meta, m itch5.AddOrderMPID) error {
	h.seen(m.Header)
	return h.add(meta, m.AddOrder)
}

func (h itchHandler) add(meta itch5.Meta, m itch5.AddOrder) error {
	side, err := book.ParseSide(m.Side.Byte())
	if err != nil {
		return h.p.fail(m.Stock, m.Header, &book.FeedError{Op: "add", Symbol: m.Stock.String(), OrderID: m.OrderRef, Err: err})
	}
	return h.p.addOrder(meta.Recv, m.Header, m.OrderRef, m.Stock, side, m.Price, int64(m.Shares))
}

func (h itchHandler) HandleOrderExecuted(meta itch5.Meta, m itch5.OrderExecuted) error {
	h.seen(m.Header)
	return h.p.reduceOrder(meta.Recv, m.Header, m.OrderRef, int64(m.ExecutedShares), false)
}

func (h itchHandler) HandleOrderExecutedPrice(meta itch5.Meta, m itch5.OrderExecutedPrice) error {
	h.seen(m.Header)
	return h.p.reduceOrder(meta.Recv, m.Header, m.OrderRef, int64(m.ExecutedShares), false)
}

func (h itchHandler) HandleOrderCancel(meta itch5.Meta, m itch5.OrderCancel) error {
	h.seen(m.Header)
	return h.p.reduceOrder(meta.Recv, m.Header, m.OrderRef, int64(m.CanceledShares), false)
}

func (h itchHandler) HandleOrderDelete(meta itch5.Meta, m itch5.OrderDelete) error {
	h.seen(m.Header)
	return h.p.reduceOrder(meta.Recv, m.Header, m.OrderRef, 0, true)
}

func (h itchHandler) HandleOrderReplace(meta itch5.Meta, m itch5.OrderReplace) error {
	h.seen(m.Header)
	return h.p.replaceOrder(meta.Recv, m.Header, m.OriginalOrderRef, m.NewOrderRef, m.Price, int64(m.Shares))
}

func (h itchHandler) HandleTrade(meta itch5.Meta, m itch5.Trade) error {
	h.seen(m.Header)
	side, _ := book.ParseSide(m.Side.Byte())
	return h.p.trade(meta.Recv, TradeEvent{
		Kind:        TradeNonCross,
		Header:      m.Header,
		Stock:       m.Stock,
		OrderRef:    m.OrderRef,
		Side:        side,
		Price:       m.Price,
		Shares:      uint64(m.Shares),
		MatchNumber: m.MatchNumber,
	})
}

func (h itchHandler) HandleCrossTrade(meta itch5.Meta, m itch5.CrossTrade) error {
	h.seen(m.Header)
	return h.p.trade(meta.Recv, TradeEvent{
		Kind:        TradeCross,
		Header:      m.Header,
		Stock:       m.Stock,
		Price:       m.CrossPrice,
		Shares:      m.Shares,
		MatchNumber: m.MatchNumber,
	})
}

func (h itchHandler) HandleBrokenTrade(meta itch5.Meta, m itch5.BrokenTrade) error {
	h.seen(m.Header)
	return h.p.trade(meta.Recv, TradeEvent{Kind: TradeBroken, Header: m.Header, MatchNumber: m.MatchNumber})
}

func (h itchHandler) HandleUnknown(meta itch5.Meta, raw []byte) error {
	h.p.counters.Messages++
	return h.p.unknown("itch", meta.Count, meta.Offset, raw)
}

// Administrative messages do not change any book.

func (h itchHandler) HandleSystemEvent(meta itch5.Meta, m itch5.SystemEvent) error {
	h.seen(m.Header)
	h.p.log.Infow("system event", "code", m.EventCode.String(), "timestamp", m.Timestamp.String())
	return nil
}

func (h itchHandler) HandleStockTradingAction(meta itch5.Meta, m itch5.StockTradingAction) error {
	h.seen(m.Header)
	return nil
}

func (h itchHandler) HandleRegSHORestriction(meta itch5.Meta, m itch5.RegSHORestriction) error {
	h.seen(m.Header)
	return nil
}

func (h itchHandler) HandleMarketParticipantPosition(meta itch5.Meta, m itch5.MarketParticipantPosition) error {
	h.seen(m.Header)
	return nil
}

func (h itchHandler) HandleMWCBDeclineLevel(meta itch5.Meta, m itch5.MWCBDeclineLevel) error {
	h.seen(m.Header)
	return nil
}

func (h itchHandler) HandleMWCBBreach(meta itch5.Meta, m itch5.MWCBBreach) error {
	h.seen(m.Header)
	h.p.log.Warnw("market wide circuit breaker breached", "level", m.BreachedLevel.String(), "timestamp", m.Timestamp.String())
	return nil
}

func (h itchHandler) HandleIPOQuotingPeriodUpdate(meta itch5.Meta, m itch5.IPOQuotingPeriodUpdate) error {
	h.seen(m.Header)
	return nil
}

func (h itchHandler) HandleNOII(meta itch5.Meta, m itch5.NOII) error {
	h.seen(m.Header)
	return nil
}

func (h itchHandler) HandleRetailPriceImprovement(meta itch5.Meta, m itch5.RetailPriceImprovement) error {
	h.seen(m.Header)
	return nil
}
