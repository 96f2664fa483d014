// Package replay drives one feed session: it frames a recorded stream,
// dispatches every message into a feed.Processor and routes the
// resulting inside quotes to the configured outputs.
package replay

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/feed"
	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/itch5"
	"github.com/uhyunpark/mktfeed/pkg/market"
	"github.com/uhyunpark/mktfeed/pkg/metrics"
	"github.com/uhyunpark/mktfeed/pkg/pitch2"
	"github.com/uhyunpark/mktfeed/pkg/publish"
	"github.com/uhyunpark/mktfeed/pkg/stats"
	"github.com/uhyunpark/mktfeed/pkg/stream"
	"github.com/uhyunpark/mktfeed/pkg/util"
	"github.com/uhyunpark/mktfeed/pkg/wire"
)

const (
	ITCH  = "itch"
	PITCH = "pitch"
)

// metricsEvery is the number of messages between metric refreshes.
const metricsEvery = 4096

// Options configure a Session. Book is required; every output is
// optional.
type Options struct {
	Protocol string
	// Trusted skips per-field bounds checks and enum validation; frame
	// lengths are still checked.
	Trusted bool
	Feed    feed.Config
	Book    book.Factory
	Stats   stats.Config

	Sink        publish.Sink
	Trades      publish.TradeSink
	Registry    *market.Registry
	DepthLevels int
	Metrics     *metrics.Metrics

	Clock util.Clock
	Log   *zap.SugaredLogger
}

// Session is a single replay with its own order table and books.
type Session struct {
	ID string

	opts  Options
	ctx   context.Context
	log   *zap.SugaredLogger
	proc  *feed.Processor
	rec   *stats.Recorder
	met   *metrics.SessionMetrics
	count uint64
	err   error // first publish error

	// t0 is the receive time of the current message; processed is set
	// when it changed an inside, before any output was produced.
	t0        time.Time
	processed time.Time
}

// New creates a session with a fresh uuid.
func New(opts Options) (*Session, error) {
	if opts.Book == nil {
		return nil, fmt.Errorf("replay: book factory required")
	}
	switch opts.Protocol {
	case ITCH, PITCH:
	default:
		return nil, fmt.Errorf("replay: unknown protocol %q", opts.Protocol)
	}
	if opts.Clock == nil {
		opts.Clock = util.RealClock{}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}

	s := &Session{ID: uuid.NewString(), opts: opts}
	s.log = opts.Log.With("session", s.ID, "protocol", opts.Protocol)
	fc := opts.Feed
	onTrade, onDepth, onSuspend := fc.OnTrade, fc.OnDepth, fc.OnSuspend
	fc.OnTrade = func(recv time.Time, ev feed.TradeEvent) {
		s.onTrade(ev)
		if onTrade != nil {
			onTrade(recv, ev)
		}
	}
	fc.OnDepth = func(hdr itch5.Header, stock field.Stock, side book.Side, levels int) {
		s.rec.SampleDepth(levels)
		if onDepth != nil {
			onDepth(hdr, stock, side, levels)
		}
	}
	fc.OnSuspend = func(hdr itch5.Header, stock field.Stock, err error) {
		if opts.Registry != nil {
			opts.Registry.Suspend(stock.String())
		}
		if onSuspend != nil {
			onSuspend(hdr, stock, err)
		}
	}
	s.rec = stats.NewRecorder(opts.Stats, s.log)
	s.proc = feed.New(fc, opts.Book, s.onInside, s.log)
	if opts.Metrics != nil {
		s.met = opts.Metrics.Session(s.ID, opts.Protocol)
	}
	return s, nil
}

func (s *Session) Processor() *feed.Processor { return s.proc }
func (s *Session) Stats() *stats.Recorder     { return s.rec }

// Run consumes r until EOF, a decode error, a feed error or ctx is
// done. Publish failures are logged and reported after the stream ends.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	s.ctx = ctx
	start := time.Now()
	s.log.Infow("session started")

	var err error
	if s.opts.Protocol == ITCH {
		err = stream.ReadITCH(ctx, r, s.itchFrame)
	} else {
		err = stream.ReadPITCH(ctx, r, s.pitchFrame)
	}

	s.finish()
	c := s.proc.Stats()
	s.log.Infow("session finished",
		"messages", c.Messages,
		"inside_updates", c.InsideUpdates,
		"feed_errors", c.FeedErrors,
		"unknown", c.Unknown,
		"books", len(s.proc.Books()),
		"live_orders", s.proc.LiveOrders(),
		"elapsed", time.Since(start).String(),
	)
	if err != nil {
		return fmt.Errorf("session %s: message %d: %w", s.ID, s.count, err)
	}
	return s.err
}

func (s *Session) itchFrame(f stream.Frame) error {
	s.count = f.Count
	s.t0 = s.opts.Clock.Now()
	meta := itch5.Meta{Recv: s.t0, Count: f.Count, Offset: f.Offset}
	var err error
	if s.opts.Trusted {
		err = itch5.Dispatch[wire.Trusted](s.proc.ITCH(), meta, f.Msg)
	} else {
		err = itch5.Dispatch[wire.Validated](s.proc.ITCH(), meta, f.Msg)
	}
	s.sample()
	return err
}

func (s *Session) pitchFrame(f stream.Frame) error {
	s.count = f.Count
	s.t0 = s.opts.Clock.Now()
	meta := pitch2.Meta{Recv: s.t0, Unit: f.Unit, Count: f.Count, Offset: f.Offset}
	var err error
	if s.opts.Trusted {
		err = pitch2.Dispatch[wire.Trusted](s.proc.PITCH(), meta, f.Msg)
	} else {
		err = pitch2.Dispatch[wire.Validated](s.proc.PITCH(), meta, f.Msg)
	}
	s.sample()
	return err
}

// sample records the processing latency of the current message. When the
// message changed an inside, the time spent in the outputs is reported
// separately and not counted as processing.
func (s *Session) sample() {
	end := s.opts.Clock.Now()
	if !s.processed.IsZero() {
		if s.met != nil {
			s.met.ObservePublish(float64(end.Sub(s.processed)))
		}
		end, s.processed = s.processed, time.Time{}
	}
	latency := end.Sub(s.t0)
	s.rec.Sample(s.proc.LastTimestamp().Duration(), latency)
	if s.met != nil {
		s.met.ObserveLatency(float64(latency))
		if s.count%metricsEvery == 0 {
			s.met.Update(s.proc.Stats(), s.proc.LiveOrders(), len(s.proc.Books()))
		}
	}
}

func (s *Session) onInside(recv time.Time, hdr itch5.Header, stock field.Stock, bid, offer book.Quote) {
	if s.processed.IsZero() {
		s.processed = s.opts.Clock.Now()
	}
	u := publish.Update{
		Session: s.ID,
		Count:   s.count,
		Recv:    recv,
		Header:  hdr,
		Stock:   stock,
		Bid:     bid,
		Offer:   offer,
	}
	if s.opts.Registry != nil {
		if s.opts.DepthLevels > 0 {
			if b, ok := s.proc.Book(stock); ok {
				s.opts.Registry.SetDepth(stock.String(), b.Depth(s.opts.DepthLevels))
			}
		}
		s.opts.Registry.Publish(s.ctx, u)
	}
	if s.opts.Sink == nil {
		return
	}
	if err := s.opts.Sink.Publish(s.ctx, u); err != nil {
		s.publishFailed(stock, err)
	}
}

// publishFailed logs an output error and keeps the first one for Run.
func (s *Session) publishFailed(stock field.Stock, err error) {
	s.log.Warnw("publish failed", "stock", stock.String(), "count", s.count, "err", err)
	if s.err == nil {
		s.err = fmt.Errorf("session %s: publish: %w", s.ID, err)
	}
}

func (s *Session) onTrade(ev feed.TradeEvent) {
	if s.opts.Trades != nil {
		if err := s.opts.Trades.PublishTrade(s.ctx, ev); err != nil {
			s.publishFailed(ev.Stock, err)
		}
	}
	if s.opts.Registry == nil || ev.Kind == feed.TradeBroken {
		return
	}
	s.opts.Registry.RecordTrade(ev.Stock.String(), market.Trade{
		Price:       ev.Price,
		Shares:      ev.Shares,
		Cross:       ev.Kind == feed.TradeCross,
		TimestampNs: int64(ev.Header.Timestamp),
	})
}

func (s *Session) finish() {
	if s.met != nil {
		s.met.Update(s.proc.Stats(), s.proc.LiveOrders(), len(s.proc.Books()))
	}
}
