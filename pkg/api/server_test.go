package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/itch5"
	"github.com/uhyunpark/mktfeed/pkg/market"
	"github.com/uhyunpark/mktfeed/pkg/publish"
	"github.com/uhyunpark/mktfeed/pkg/storage"
)

func inside(stock string, bid field.Price4, count uint64) publish.Update {
	return publish.Update{
		Session: "s1",
		Count:   count,
		Recv:    time.Unix(1700000000, 0).UTC(),
		Header:  itch5.Header{StockLocate: 1, Timestamp: field.Timestamp(count)},
		Stock:   field.NewStock(stock),
		Bid:     book.Quote{Price: bid, Qty: 100},
		Offer:   book.Quote{Price: bid + 100, Qty: 200},
	}
}

func newTestServer(t *testing.T) (*Server, *market.Registry, *httptest.Server) {
	t.Helper()
	reg := market.NewRegistry()
	store := storage.NewMemoryStore(0)
	sink := publish.Multi{reg, publish.StoreSink{Store: store}}
	for i := uint64(1); i <= 3; i++ {
		if err := sink.Publish(context.Background(), inside("MSFT", field.Price4(10000*i), i)); err != nil {
			t.Fatal(err)
		}
	}
	reg.SetDepth("MSFT", book.Depth{
		Bids: []book.Quote{{Price: 30000, Qty: 100}, {Price: 29900, Qty: 50}},
		Asks: []book.Quote{{Price: 30100, Qty: 200}},
	})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("m 1\n")) })

	s := NewServer(Config{}, reg, store, metrics, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, reg, ts
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestInstrumentEndpoints(t *testing.T) {
	_, _, ts := newTestServer(t)

	var list InstrumentList
	getJSON(t, ts.URL+"/api/v1/instruments", http.StatusOK, &list)
	if list.Count != 1 || list.Instruments[0].Symbol != "MSFT" {
		t.Errorf("instruments = %+v", list)
	}

	var in market.Instrument
	getJSON(t, ts.URL+"/api/v1/instruments/msft", http.StatusOK, &in)
	if in.Updates != 3 || in.Bid.Price != 30000 || in.Offer.Qty != 200 {
		t.Errorf("instrument = %+v", in)
	}

	var errResp ErrorResponse
	getJSON(t, ts.URL+"/api/v1/instruments/IBM", http.StatusNotFound, &errResp)
	if errResp.Error != "instrument not found" {
		t.Errorf("error = %+v", errResp)
	}

	var depth DepthSnapshot
	getJSON(t, ts.URL+"/api/v1/instruments/MSFT/depth", http.StatusOK, &depth)
	if len(depth.Bids) != 2 || len(depth.Asks) != 1 || depth.Bids[1].Price != 29900 {
		t.Errorf("depth = %+v", depth)
	}
}

func TestQuotesEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCounts []uint64
	}{
		{"default limit", "", http.StatusOK, []uint64{3, 2, 1}},
		{"limited", "?limit=2", http.StatusOK, []uint64{3, 2}},
		{"bad limit", "?limit=x", http.StatusBadRequest, nil},
		{"zero limit", "?limit=0", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h QuoteHistory
			getJSON(t, ts.URL+"/api/v1/instruments/MSFT/quotes"+tt.query, tt.wantStatus, &h)
			if tt.wantStatus != http.StatusOK {
				return
			}
			if len(h.Quotes) != len(tt.wantCounts) {
				t.Fatalf("got %d quotes, want %d", len(h.Quotes), len(tt.wantCounts))
			}
			for i, c := range tt.wantCounts {
				if h.Quotes[i].Count != c {
					t.Errorf("quote %d count = %d, want %d", i, h.Quotes[i].Count, c)
				}
			}
		})
	}

	var empty QuoteHistory
	getJSON(t, ts.URL+"/api/v1/instruments/IBM/quotes", http.StatusOK, &empty)
	if empty.Quotes == nil || len(empty.Quotes) != 0 {
		t.Errorf("quotes for unknown symbol = %+v, want empty list", empty.Quotes)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, _, ts := newTestServer(t)

	var health map[string]any
	getJSON(t, ts.URL+"/health", http.StatusOK, &health)
	if health["status"] != "ok" || health["instruments"] != float64(1) {
		t.Errorf("health = %v", health)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /metrics status = %d", resp.StatusCode)
	}
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

// frame reads the next message, decoding it into v when set, and returns
// its type field.
func frame(t *testing.T, conn *websocket.Conn, v any) string {
	t.Helper()
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		t.Fatal(err)
	}
	if v != nil {
		if err := json.Unmarshal(msg, v); err != nil {
			t.Fatal(err)
		}
	}
	return head.Type
}

func TestWebSocketInside(t *testing.T) {
	s, reg, ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Run(ctx)

	conn := dialWS(t, ts)
	if err := conn.WriteJSON(WSSubscribeRequest{Op: "subscribe", Channels: []string{"inside:msft"}}); err != nil {
		t.Fatal(err)
	}

	var ack WSAck
	if typ := frame(t, conn, &ack); typ != "subscribed" || len(ack.Channels) != 1 || ack.Channels[0] != "inside:MSFT" {
		t.Fatalf("ack = %+v", ack)
	}
	// current inside of a known symbol follows the ack
	var snap InsideUpdate
	if typ := frame(t, conn, &snap); typ != "inside" || snap.Symbol != "MSFT" || snap.Bid.Price != 30000 {
		t.Errorf("snapshot = %+v", snap)
	}

	reg.Publish(context.Background(), inside("AAPL", 5000, 9))
	reg.Publish(context.Background(), inside("MSFT", 40000, 10))

	var got InsideUpdate
	frame(t, conn, &got)
	if got.Type != "inside" || got.Symbol != "MSFT" || got.Bid.Price != 40000 {
		t.Errorf("update = %+v", got)
	}
	if n := s.hub.Subscribers("inside:MSFT"); n != 1 {
		t.Errorf("Subscribers() = %d, want 1", n)
	}
}

func TestWebSocketWildcardAndErrors(t *testing.T) {
	s, reg, ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Run(ctx)

	conn := dialWS(t, ts)
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	var e WSError
	if typ := frame(t, conn, &e); typ != "error" || e.Message != "malformed request" {
		t.Errorf("error frame = %+v", e)
	}

	conn.WriteJSON(WSSubscribeRequest{Op: "subscribe", Channels: []string{"trades:MSFT"}})
	if typ := frame(t, conn, &e); typ != "error" || !strings.Contains(e.Message, "trades:MSFT") {
		t.Errorf("error frame = %+v", e)
	}

	conn.WriteJSON(WSSubscribeRequest{Op: "subscribe", Channels: []string{"inside:*"}})
	if typ := frame(t, conn, nil); typ != "subscribed" {
		t.Fatalf("got %q, want subscribed", typ)
	}
	frame(t, conn, nil) // MSFT snapshot

	reg.Publish(context.Background(), inside("AAPL", 5000, 9))
	var got InsideUpdate
	frame(t, conn, &got)
	if got.Symbol != "AAPL" || got.Bid.Price != 5000 {
		t.Errorf("update = %+v", got)
	}

	conn.WriteJSON(WSSubscribeRequest{Op: "unsubscribe", Channels: []string{"inside:*"}})
	if typ := frame(t, conn, nil); typ != "unsubscribed" {
		t.Errorf("got %q, want unsubscribed", typ)
	}
	if n := s.hub.Subscribers("inside:*"); n != 0 {
		t.Errorf("Subscribers() = %d after unsubscribe", n)
	}
}

func TestHubRefusesAfterStop(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)
	if h.join(&peer{out: make(chan []byte, 1), channels: map[string]struct{}{}}) {
		t.Error("join() after Run returned = true, want false")
	}
}

func TestInsideChannel(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"inside:aapl", "inside:AAPL", true},
		{"inside:*", "inside:*", true},
		{"inside:", "", false},
		{"inside:TOOLONGSYM", "", false},
		{"depth:AAPL", "", false},
	}
	for _, tt := range tests {
		got, ok := insideChannel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("insideChannel(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
