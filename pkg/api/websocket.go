package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/uhyunpark/mktfeed/pkg/market"
)

// Inside-quote channels are "inside:<SYMBOL>"; "inside:*" follows every
// instrument.
const (
	insidePrefix  = "inside:"
	insideAll     = insidePrefix + "*"
	maxRequestLen = 4096
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced by the server handler
		return true
	},
}

// insideChannel normalizes a channel name, reporting false for channels
// the feed does not serve.
func insideChannel(name string) (string, bool) {
	sym, ok := strings.CutPrefix(name, insidePrefix)
	if !ok || sym == "" || len(sym) > 8 {
		return "", false
	}
	return insidePrefix + strings.ToUpper(sym), true
}

// Hub indexes subscribers by channel so that a quote change only visits
// the sockets that asked for it.
type Hub struct {
	log *zap.SugaredLogger

	mu       sync.Mutex
	closed   bool
	peers    map[*peer]struct{}
	channels map[string]map[*peer]struct{}
	dropped  uint64
}

func NewHub(log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{
		log:      log,
		peers:    make(map[*peer]struct{}),
		channels: make(map[string]map[*peer]struct{}),
	}
}

// Run blocks until ctx is done, then disconnects every peer and refuses
// new ones.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for p := range h.peers {
		h.dropLocked(p)
	}
	h.log.Infow("ws hub stopped", "dropped_frames", h.dropped)
}

// Clients returns the number of connected peers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Subscribers returns the number of peers on channel, not counting
// wildcard subscribers.
func (h *Hub) Subscribers(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}

func (h *Hub) join(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.peers[p] = struct{}{}
	h.log.Infow("ws client connected", "client", p.addr, "total", len(h.peers))
	return true
}

func (h *Hub) leave(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p]; !ok {
		return
	}
	h.dropLocked(p)
	h.log.Infow("ws client disconnected", "client", p.addr, "total", len(h.peers))
}

func (h *Hub) dropLocked(p *peer) {
	for ch := range p.channels {
		h.unsubscribeLocked(p, ch)
	}
	delete(h.peers, p)
	close(p.out)
}

func (h *Hub) subscribe(p *peer, ch string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p]; !ok {
		return
	}
	set := h.channels[ch]
	if set == nil {
		set = make(map[*peer]struct{})
		h.channels[ch] = set
	}
	set[p] = struct{}{}
	p.channels[ch] = struct{}{}
}

func (h *Hub) unsubscribe(p *peer, ch string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(p, ch)
}

func (h *Hub) unsubscribeLocked(p *peer, ch string) {
	delete(p.channels, ch)
	if set := h.channels[ch]; set != nil {
		delete(set, p)
		if len(set) == 0 {
			delete(h.channels, ch)
		}
	}
}

// PublishInside pushes an inside change to the symbol's channel and to
// wildcard subscribers. A peer whose queue is full loses the frame; the
// feed never waits on a socket.
func (h *Hub) PublishInside(in market.Instrument) {
	frame, err := json.Marshal(insideUpdate(in))
	if err != nil {
		h.log.Errorw("ws marshal failed", "symbol", in.Symbol, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[*peer]struct{}, len(h.channels[insideAll]))
	for _, ch := range []string{insideAll, insidePrefix + in.Symbol} {
		for p := range h.channels[ch] {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			if !p.offer(frame) {
				h.dropped++
			}
		}
	}
}

func insideUpdate(in market.Instrument) InsideUpdate {
	return InsideUpdate{
		Type:        "inside",
		Symbol:      in.Symbol,
		Session:     in.Session,
		TimestampNs: in.TimestampNs,
		Bid:         in.Bid,
		Offer:       in.Offer,
	}
}

// peer is one websocket connection. channels is guarded by the hub's
// mutex.
type peer struct {
	conn     *websocket.Conn
	addr     string
	out      chan []byte
	channels map[string]struct{}
}

func (p *peer) offer(frame []byte) bool {
	select {
	case p.out <- frame:
		return true
	default:
		return false
	}
}

// reply queues a direct response to p unless it has already been
// dropped.
func (h *Hub) reply(p *peer, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p]; ok && !p.offer(frame) {
		h.dropped++
	}
}

// serve applies subscription requests until the connection fails.
// Subscribing to a symbol that is already known sends its current inside
// first.
func (s *Server) serve(p *peer) {
	defer func() {
		s.hub.leave(p)
		p.conn.Close()
	}()

	p.conn.SetReadLimit(maxRequestLen)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debugw("ws read failed", "client", p.addr, "err", err)
			}
			return
		}
		var req WSSubscribeRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.hub.reply(p, WSError{Type: "error", Message: "malformed request"})
			continue
		}

		var accepted []string
		for _, name := range req.Channels {
			ch, ok := insideChannel(name)
			if !ok {
				s.hub.reply(p, WSError{Type: "error", Message: fmt.Sprintf("unknown channel %q", name)})
				continue
			}
			switch req.Op {
			case "subscribe":
				s.hub.subscribe(p, ch)
			case "unsubscribe":
				s.hub.unsubscribe(p, ch)
			default:
				s.hub.reply(p, WSError{Type: "error", Message: fmt.Sprintf("unknown op %q", req.Op)})
				continue
			}
			accepted = append(accepted, ch)
		}
		if len(accepted) == 0 {
			continue
		}
		s.hub.reply(p, WSAck{Type: req.Op + "d", Channels: accepted})
		if req.Op == "subscribe" {
			s.sendSnapshots(p, accepted)
		}
	}
}

func (s *Server) sendSnapshots(p *peer, channels []string) {
	for _, ch := range channels {
		if ch == insideAll {
			for _, in := range s.registry.List() {
				s.hub.reply(p, insideUpdate(in))
			}
			continue
		}
		if in, err := s.registry.Get(strings.TrimPrefix(ch, insidePrefix)); err == nil {
			s.hub.reply(p, insideUpdate(in))
		}
	}
}

// pump writes queued frames and keeps the connection alive with pings.
func (p *peer) pump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-p.out:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				p.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed stopped"))
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("ws upgrade failed", "err", err)
		return
	}
	p := &peer{
		conn:     conn,
		addr:     conn.RemoteAddr().String(),
		out:      make(chan []byte, sendBuffer),
		channels: make(map[string]struct{}),
	}
	if !s.hub.join(p) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	go p.pump()
	go s.serve(p)
}
