package pitch2

import (
	"bytes"
	"encoding"
	"errors"
	"testing"

	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/wire"
)

func hdr(size int, typ uint8) Header {
	return Header{Length: uint8(size), MessageType: typ, TimeOffset: 123456}
}

type sample struct {
	name   string
	msg    encoding.BinaryMarshaler
	decode func([]byte) (encoding.BinaryMarshaler, error)
}

func as[T encoding.BinaryMarshaler](f func([]byte) (T, error)) func([]byte) (encoding.BinaryMarshaler, error) {
	return func(b []byte) (encoding.BinaryMarshaler, error) {
		m, err := f(b)
		return m, err
	}
}

func samples() []sample {
	sym6 := field.NewShortString[field.W6]("MSFT")
	return []sample{
		{"time", Time{Header: hdr(SizeTime, TypeTime)}, as(DecodeTime[wire.Validated])},
		{"unit clear", UnitClear{Header: hdr(SizeUnitClear, TypeUnitClear)}, as(DecodeUnitClear[wire.Validated])},
		{"add order", AddOrder{
			Header: hdr(SizeAddOrder, TypeAddOrder), OrderID: 1, Side: Buy, Quantity: 100,
			Symbol: sym6, Price: 1234500, Flags: 1,
		}, as(DecodeAddOrder[wire.Validated])},
		{"add order short", AddOrderShort{
			Header: hdr(SizeAddOrderShort, TypeAddOrderShort), OrderID: 2, Side: Sell, Quantity: 50,
			Symbol: sym6, Price: 12345,
		}, as(DecodeAddOrderShort[wire.Validated])},
		{"add order expanded", AddOrderExpanded{
			Header: hdr(SizeAddOrderExpanded, TypeAddOrderExpanded), OrderID: 3, Side: Buy, Quantity: 10,
			Symbol: field.NewStock("MSFT"), Price: 1234500, ParticipantID: field.NewShortString[field.W4]("ABCD"),
		}, as(DecodeAddOrderExpanded[wire.Validated])},
		{"order executed", OrderExecuted{
			Header: hdr(SizeOrderExecuted, TypeOrderExecuted), OrderID: 1, ExecutedQuantity: 10, ExecutionID: 77,
		}, as(DecodeOrderExecuted[wire.Validated])},
		{"reduce size", ReduceSize{
			Header: hdr(SizeReduceSize, TypeReduceSize), OrderID: 1, CanceledQuantity: 5,
		}, as(DecodeReduceSize[wire.Validated])},
		{"reduce size short", ReduceSizeShort{
			Header: hdr(SizeReduceSizeShort, TypeReduceSizeShort), OrderID: 1, CanceledQuantity: 5,
		}, as(DecodeReduceSizeShort[wire.Validated])},
		{"modify", Modify{
			Header: hdr(SizeModify, TypeModify), OrderID: 1, Quantity: 80, Price: 1235000, Flags: 2,
		}, as(DecodeModify[wire.Validated])},
		{"modify short", ModifyShort{
			Header: hdr(SizeModifyShort, TypeModifyShort), OrderID: 1, Quantity: 80, Price: 12350,
		}, as(DecodeModifyShort[wire.Validated])},
		{"delete order", DeleteOrder{Header: hdr(SizeDeleteOrder, TypeDeleteOrder), OrderID: 1}, as(DecodeDeleteOrder[wire.Validated])},
		{"auction update", AuctionUpdate{
			Header: hdr(SizeAuctionUpdate, TypeAuctionUpdate), Symbol: field.NewStock("MSFT"),
			AuctionType: field.MustChar[AuctionTypes]('O'), ReferencePrice: 1230000,
			BuyShares: 100, SellShares: 200, IndicativePrice: 1231000, AuctionOnlyPrice: 1232000,
		}, as(DecodeAuctionUpdate[wire.Validated])},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, tt := range samples() {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := tt.msg.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary() error = %v", err)
			}
			if int(buf[0]) != len(buf) {
				t.Errorf("length byte = %d, want %d", buf[0], len(buf))
			}

			got, err := tt.decode(buf)
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if got != tt.msg {
				t.Errorf("decode = %+v\nwant %+v", got, tt.msg)
			}

			again, _ := got.MarshalBinary()
			if !bytes.Equal(again, buf) {
				t.Errorf("encode(decode(buf)) = % x\nwant % x", again, buf)
			}

			for n := 0; n < len(buf); n++ {
				var de *wire.DecodeError
				if _, err := tt.decode(buf[:n]); !errors.As(err, &de) {
					t.Fatalf("decode(buf[:%d]) error = %v, want DecodeError", n, err)
				}
			}
		})
	}
}

func TestLittleEndianLayout(t *testing.T) {
	raw := []byte{
		SizeDeleteOrder, TypeDeleteOrder,
		0x01, 0x00, 0x00, 0x00, // time offset 1
		0x2a, 0, 0, 0, 0, 0, 0, 0, // order id 42
	}
	msg, err := DecodeDeleteOrder[wire.Validated](raw)
	if err != nil {
		t.Fatalf("DecodeDeleteOrder() error = %v", err)
	}
	if msg.OrderID != 42 || msg.TimeOffset != 1 {
		t.Errorf("decoded %+v", msg)
	}
}

func TestPriceConversion(t *testing.T) {
	if p, ok := ShortPrice(1005).Price4(); !ok || p != field.MustPrice4("10.05") {
		t.Errorf("ShortPrice(1005).Price4() = %s, %v", p, ok)
	}
	if p, ok := LongPrice(100500).Price4(); !ok || p.String() != "10.0500" {
		t.Errorf("LongPrice(100500).Price4() = %s, %v", p, ok)
	}
	if _, ok := LongPrice(1 << 40).Price4(); ok {
		t.Errorf("oversized LongPrice converted")
	}
}

type counter struct {
	adds, unknown int
}

func (c *counter) HandleTime(Meta, Time) error                         { return nil }
func (c *counter) HandleUnitClear(Meta, UnitClear) error               { return nil }
func (c *counter) HandleAddOrder(Meta, AddOrder) error                 { c.adds++; return nil }
func (c *counter) HandleAddOrderShort(Meta, AddOrderShort) error       { c.adds++; return nil }
func (c *counter) HandleAddOrderExpanded(Meta, AddOrderExpanded) error { c.adds++; return nil }
func (c *counter) HandleOrderExecuted(Meta, OrderExecuted) error       { return nil }
func (c *counter) HandleReduceSize(Meta, ReduceSize) error             { return nil }
func (c *counter) HandleReduceSizeShort(Meta, ReduceSizeShort) error   { return nil }
func (c *counter) HandleModify(Meta, Modify) error                     { return nil }
func (c *counter) HandleModifyShort(Meta, ModifyShort) error           { return nil }
func (c *counter) HandleDeleteOrder(Meta, DeleteOrder) error           { return nil }
func (c *counter) HandleAuctionUpdate(Meta, AuctionUpdate) error       { return nil }
func (c *counter) HandleUnknown(Meta, []byte) error                    { c.unknown++; return nil }

func TestDispatch(t *testing.T) {
	c := &counter{}
	for _, s := range samples() {
		buf, _ := s.msg.MarshalBinary()
		if err := Dispatch[wire.Validated](c, Meta{}, buf); err != nil {
			t.Fatalf("%s: Dispatch() error = %v", s.name, err)
		}
	}
	if c.adds != 3 {
		t.Errorf("adds = %d, want 3", c.adds)
	}

	if err := Dispatch[wire.Validated](c, Meta{}, []byte{3, 0x2A, 0}); err != nil {
		t.Fatalf("Dispatch(unknown) error = %v", err)
	}
	if c.unknown != 1 {
		t.Errorf("unknown = %d, want 1", c.unknown)
	}
	if err := Dispatch[wire.Validated](c, Meta{}, []byte{1}); err == nil {
		t.Errorf("Dispatch(1 byte) expected error")
	}
}

func TestDispatchTruncatedFrame(t *testing.T) {
	for _, s := range samples() {
		buf, err := s.msg.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		short := buf[:2]
		for name, dispatch := range map[string]func(Handler, Meta, []byte) error{
			"validated": Dispatch[wire.Validated],
			"trusted":   Dispatch[wire.Trusted],
		} {
			c := &counter{}
			err := dispatch(c, Meta{}, short)
			if !errors.Is(err, wire.ErrOutOfBounds) {
				t.Errorf("%s: %s Dispatch(2 bytes) error = %v, want ErrOutOfBounds", s.name, name, err)
			}
			if c.adds != 0 {
				t.Errorf("%s: handler called on truncated frame", s.name)
			}
		}
	}
}
