package feed

import (
	"time"

	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/itch5"
	"github.com/uhyunpark/mktfeed/pkg/pitch2"
)

// pitchHandler applies PITCH-2.x messages to a Processor. Modify keeps the
// order id, so it runs through the same path as an ITCH replace with
// equal old and new ids.
type pitchHandler struct {
	p *Processor
}

var _ pitch2.Handler = pitchHandler{}

// header rebuilds an ITCH style header for callbacks: the time since
// midnight comes from the unit's last Time message plus the offset.
func (h pitchHandler) header(meta pitch2.Meta, ph pitch2.Header) itch5.Header {
	h.p.counters.Messages++
	sec := h.p.unitSeconds[meta.Unit]
	h.p.lastTS = field.Timestamp(time.Duration(sec)*time.Second + time.Duration(ph.TimeOffset))
	return itch5.Header{
		MessageType: ph.MessageType,
		StockLocate: uint16(meta.Unit),
		Timestamp:   h.p.lastTS,
	}
}

func (h pitchHandler) HandleTime(meta pitch2.Meta, m pitch2.Time) error {
	h.p.counters.Messages++
	h.p.unitSeconds[meta.Unit] = m.Seconds()
	h.p.lastTS = field.Timestamp(time.Duration(m.Seconds()) * time.Second)
	return nil
}

func (h pitchHandler) HandleUnitClear(meta pitch2.Meta, m pitch2.UnitClear) error {
	hdr := h.header(meta, m.Header)
	h.p.log.Warnw("unit clear ignored", "unit", meta.Unit, "timestamp", hdr.Timestamp, "live_orders", len(h.p.orders))
	return nil
}

func (h pitchHandler) add(hdr itch5.Header, recv time.Time, id uint64, stock field.Stock, s pitch2.Side, px field.Price4, ok bool, qty int64) error {
	side, err := book.ParseSide(s.Byte())
	if err != nil {
		return h.p.fail(stock, hdr, &book.FeedError{Op: "add", Symbol: stock.String(), OrderID: id, Err: err})
	}
	if !ok {
		return h.p.fail(stock, hdr, &book.FeedError{Op: "add", Symbol: stock.String(), OrderID: id, Side: side, Qty: qty, Err: book.ErrInvalidPrice})
	}
	return h.p.addOrder(recv, hdr, id, stock, side, px, qty)
}

func (h pitchHandler) HandleAddOrder(meta pitch2.Meta, m pitch2.AddOrder) error {
	hdr := h.header(meta, m.Header)
	px, ok := m.Price.Price4()
	return h.add(hdr, meta.Recv, m.OrderID, field.NewStock(m.Symbol.String()), m.Side, px, ok, int64(m.Quantity))
}

func (h pitchHandler) HandleAddOrderShort(meta pitch2.Meta, m pitch2.AddOrderShort) error {
	hdr := h.header(meta, m.Header)
	px, ok := m.Price.Price4()
	return h.add(hdr, meta.Recv, m.OrderID, field.NewStock(m.Symbol.String()), m.Side, px, ok, int64(m.Quantity))
}

func (h pitchHandler) HandleAddOrderExpanded(meta pitch2.Meta, m pitch2.AddOrderExpanded) error {
	hdr := h.header(meta, m.Header)
	px, ok := m.Price.Price4()
	return h.add(hdr, meta.Recv, m.OrderID, m.Symbol, m.Side, px, ok, int64(m.Quantity))
}

func (h pitchHandler) HandleOrderExecuted(meta pitch2.Meta, m pitch2.OrderExecuted) error {
	hdr := h.header(meta, m.Header)
	return h.p.reduceOrder(meta.Recv, hdr, m.OrderID, int64(m.ExecutedQuantity), false)
}

func (h pitchHandler) HandleReduceSize(meta pitch2.Meta, m pitch2.ReduceSize) error {
	hdr := h.header(meta, m.Header)
	return h.p.reduceOrder(meta.Recv, hdr, m.OrderID, int64(m.CanceledQuantity), false)
}

func (h pitchHandler) HandleReduceSizeShort(meta pitch2.Meta, m pitch2.ReduceSizeShort) error {
	hdr := h.header(meta, m.Header)
	return h.p.reduceOrder(meta.Recv, hdr, m.OrderID, int64(m.CanceledQuantity), false)
}

func (h pitchHandler) modify(hdr itch5.Header, recv time.Time, id uint64, px field.Price4, ok bool, qty int64) error {
	if !ok {
		return h.p.fail(field.Stock{}, hdr, &book.FeedError{Op: "modify", OrderID: id, Qty: qty, Err: book.ErrInvalidPrice})
	}
	return h.p.replaceOrder(recv, hdr, id, id, px, qty)
}

func (h pitchHandler) HandleModify(meta pitch2.Meta, m pitch2.Modify) error {
	hdr := h.header(meta, m.Header)
	px, ok := m.Price.Price4()
	return h.modify(hdr, meta.Recv, m.OrderID, px, ok, int64(m.Quantity))
}

func (h pitchHandler) HandleModifyShort(meta pitch2.Meta, m pitch2.ModifyShort) error {
	hdr := h.header(meta, m.Header)
	px, ok := m.Price.Price4()
	return h.modify(hdr, meta.Recv, m.OrderID, px, ok, int64(m.Quantity))
}

func (h pitchHandler) HandleDeleteOrder(meta pitch2.Meta, m pitch2.DeleteOrder) error {
	hdr := h.header(meta, m.Header)
	return h.p.reduceOrder(meta.Recv, hdr, m.OrderID, 0, true)
}

func (h pitchHandler) HandleAuctionUpdate(meta pitch2.Meta, m pitch2.AuctionUpdate) error {
	hdr := h.header(meta, m.Header)
	h.p.log.Debugw("auction update", "symbol", m.Symbol.String(), "type", m.AuctionType.String(), "timestamp", hdr.Timestamp)
	return nil
}

func (h pitchHandler) HandleUnknown(meta pitch2.Meta, raw []byte) error {
	h.p.counters.Messages++
	return h.p.unknown("pitch", meta.Count, meta.Offset, raw)
}
