package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/uhyunpark/mktfeed/params"
	"github.com/uhyunpark/mktfeed/pkg/api"
	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/feed"
	"github.com/uhyunpark/mktfeed/pkg/market"
	"github.com/uhyunpark/mktfeed/pkg/metrics"
	"github.com/uhyunpark/mktfeed/pkg/publish"
	"github.com/uhyunpark/mktfeed/pkg/replay"
	"github.com/uhyunpark/mktfeed/pkg/stats"
	"github.com/uhyunpark/mktfeed/pkg/storage"
	"github.com/uhyunpark/mktfeed/pkg/stream"
	"github.com/uhyunpark/mktfeed/pkg/util"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	envPath := flag.String("env", "", ".env file (default ./.env)")
	progress := flag.Bool("progress", false, "show a progress bar per input")
	flag.Parse()

	cfg, err := params.Load(*configPath, *envPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if flag.NArg() > 0 {
		cfg.Feed.Inputs = flag.Args()
	}
	if len(cfg.Feed.Inputs) == 0 {
		log.Fatalf("no inputs: pass feed files as arguments or set MKTFEED_INPUTS")
	}

	var logger *zap.Logger
	if cfg.Log.File != "" {
		logger, err = util.NewLoggerWithFile(cfg.Log.Level, cfg.Log.File)
	} else {
		logger, err = util.NewLogger(cfg.Log.Level)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *progress, sugar); err != nil {
		sugar.Errorw("replay failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg params.Config, progress bool, sugar *zap.SugaredLogger) error {
	factory, err := book.NewFactory(cfg.Book)
	if err != nil {
		return err
	}
	mode, err := feed.ParseInsideMode(cfg.Feed.InsideMode)
	if err != nil {
		return err
	}

	// ---- Quote store ----
	var store storage.QuoteStore
	if cfg.Output.StorePath != "" {
		ps, err := storage.NewPebbleStore(cfg.Output.StorePath)
		if err != nil {
			return fmt.Errorf("open quote store: %w", err)
		}
		store = ps
	} else {
		store = storage.NewMemoryStore(cfg.Output.StorePerStock)
	}
	defer store.Close()

	// ---- Sinks ----
	sinks := publish.Multi{publish.StoreSink{Store: store}}
	switch cfg.Output.TextPath {
	case "":
	case "-":
		// keep stdout open after the sink closes
		sinks = append(sinks, publish.NewTextWriter(struct{ io.Writer }{os.Stdout}))
	default:
		tw, err := publish.OpenTextFile(cfg.Output.TextPath)
		if err != nil {
			return err
		}
		sinks = append(sinks, tw)
	}
	if len(cfg.Output.Kafka.Brokers) > 0 {
		ks, err := publish.NewKafkaSink(cfg.Output.Kafka)
		if err != nil {
			return err
		}
		sinks = append(sinks, ks)
		sugar.Infow("kafka sink enabled", "brokers", cfg.Output.Kafka.Brokers, "topic", cfg.Output.Kafka.Topic)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			sugar.Warnw("closing sinks", "err", err)
		}
	}()

	var trades publish.TradeSink
	switch cfg.Output.TradesPath {
	case "":
	case "-":
		trades = publish.NewTradeWriter(struct{ io.Writer }{os.Stdout})
	default:
		tw, err := publish.OpenTradeFile(cfg.Output.TradesPath)
		if err != nil {
			return err
		}
		trades = tw
	}
	if trades != nil {
		defer trades.Close()
	}

	registry := market.NewRegistry()
	met := metrics.New()

	// ---- API Server ----
	apiDone := make(chan error, 1)
	if cfg.API.Addr != "" {
		srv := api.NewServer(cfg.API, registry, store, met.Handler(), sugar)
		go func() { apiDone <- srv.Run(ctx) }()
	} else {
		close(apiDone)
	}

	// ---- Sessions: one per input ----
	workers := cfg.Feed.Parallelism
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	rp := pool.NewWithResults[result]().WithMaxGoroutines(workers).WithContext(ctx)
	for _, input := range cfg.Feed.Inputs {
		in := input
		rp.Go(func(ctx context.Context) (result, error) {
			s, err := replay.New(replay.Options{
				Protocol:    cfg.Feed.Protocol,
				Trusted:     cfg.Feed.Trusted,
				Feed:        feed.Config{Mode: mode, SuspendOnError: cfg.Feed.SuspendOnError},
				Book:        factory,
				Stats:       stats.Config{ReportInterval: cfg.Stats.ReportInterval, MaxSamples: cfg.Stats.MaxSamples},
				Sink:        sinks,
				Trades:      trades,
				Registry:    registry,
				DepthLevels: cfg.Output.DepthLevels,
				Metrics:     met,
				Log:         sugar.With("input", in),
			})
			if err != nil {
				return result{}, err
			}
			r, err := openInput(in, progress)
			if err != nil {
				return result{}, err
			}
			defer r.Close()
			if err := s.Run(ctx, r); err != nil {
				return result{}, fmt.Errorf("%s: %w", in, err)
			}
			return result{input: in, rec: s.Stats()}, nil
		})
	}
	results, err := rp.Wait()

	if cfg.Stats.CSVPath != "" {
		if werr := writeStats(cfg.Stats.CSVPath, results); werr != nil {
			sugar.Warnw("writing statistics", "path", cfg.Stats.CSVPath, "err", werr)
		}
	}
	if err != nil {
		return err
	}

	if cfg.API.Addr != "" && ctx.Err() == nil {
		sugar.Infow("replay complete, serving until interrupted", "addr", cfg.API.Addr)
	}
	return <-apiDone
}

func openInput(path string, progress bool) (io.ReadCloser, error) {
	if !progress {
		return stream.Open(path)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	bar := progressbar.DefaultBytes(fi.Size(), filepath.Base(path))
	return stream.OpenTee(path, bar)
}

type result struct {
	input string
	rec   *stats.Recorder
}

// writeStats writes one CSV row per completed session.
func writeStats(path string, results []result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := stats.WriteCSVHeader(f); err != nil {
		return err
	}
	for _, r := range results {
		if r.rec == nil {
			continue
		}
		if err := r.rec.WriteCSV(f, filepath.Base(r.input)); err != nil {
			return err
		}
	}
	return f.Close()
}
