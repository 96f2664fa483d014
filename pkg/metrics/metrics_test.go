package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/uhyunpark/mktfeed/pkg/feed"
)

func TestSessionUpdateDeltas(t *testing.T) {
	m := New()
	s := m.Session("s1", "itch")

	s.Update(feed.Counters{Messages: 10, InsideUpdates: 3}, 5, 2)
	s.Update(feed.Counters{Messages: 25, InsideUpdates: 4, FeedErrors: 1}, 7, 2)

	l := []string{"s1", "itch"}
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"messages", testutil.ToFloat64(m.messages.WithLabelValues(l...)), 25},
		{"inside", testutil.ToFloat64(m.insideUpdates.WithLabelValues(l...)), 4},
		{"errors", testutil.ToFloat64(m.feedErrors.WithLabelValues(l...)), 1},
		{"live orders", testutil.ToFloat64(m.liveOrders.WithLabelValues(l...)), 7},
		{"books", testutil.ToFloat64(m.books.WithLabelValues(l...)), 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestHandler(t *testing.T) {
	m := New()
	s := m.Session("s2", "pitch")
	s.Update(feed.Counters{Messages: 1}, 0, 0)
	s.ObserveLatency(250)
	s.ObservePublish(4000)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`mktfeed_messages_total{protocol="pitch",session="s2"} 1`,
		`mktfeed_processing_seconds_count{protocol="pitch",session="s2"} 1`,
		`mktfeed_publish_seconds_count{protocol="pitch",session="s2"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
