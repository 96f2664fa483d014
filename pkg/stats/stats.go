// Package stats collects offline statistics about a replayed feed:
// message rates, inter-arrival times, per-message processing latency and
// the depth of the books after each change.
package stats

import (
	"encoding/csv"
	"io"
	"math/rand"
	"strconv"
	"time"

	mstats "github.com/montanaflynn/stats"
	"go.uber.org/zap"
)

// DefaultMaxSamples bounds the latency and inter-arrival reservoirs.
const DefaultMaxSamples = 1 << 20

// Config controls a Recorder.
type Config struct {
	// ReportInterval is the feed-time interval between progress logs.
	// Zero disables progress logging.
	ReportInterval time.Duration
	MaxSamples     int
}

func DefaultConfig() Config {
	return Config{ReportInterval: 10 * time.Minute, MaxSamples: DefaultMaxSamples}
}

// Recorder accumulates samples for one session. Not safe for concurrent
// use.
type Recorder struct {
	cfg Config
	log *zap.SugaredLogger
	rng *rand.Rand

	count      uint64
	lastTS     time.Duration
	lastReport time.Duration

	perSecond map[int64]float64
	msBucket  int64
	msCount   float64
	msPeak    float64

	interarrival reservoir
	latency      reservoir
	depth        reservoir
}

func NewRecorder(cfg Config, log *zap.SugaredLogger) *Recorder {
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultMaxSamples
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	rng := rand.New(rand.NewSource(1))
	return &Recorder{
		cfg:          cfg,
		log:          log,
		rng:          rng,
		perSecond:    make(map[int64]float64),
		msBucket:     -1,
		interarrival: reservoir{max: cfg.MaxSamples, rng: rng},
		latency:      reservoir{max: cfg.MaxSamples, rng: rng},
		depth:        reservoir{max: cfg.MaxSamples, rng: rng},
	}
}

// Sample records one message with feed timestamp ts (time since
// midnight) and the time it took to process.
func (r *Recorder) Sample(ts, latency time.Duration) {
	if r.count > 0 {
		r.interarrival.add(float64(ts - r.lastTS))
	}
	r.count++
	r.lastTS = ts
	r.latency.add(float64(latency))

	r.perSecond[int64(ts/time.Second)]++
	if ms := int64(ts / time.Millisecond); ms != r.msBucket {
		r.msBucket = ms
		r.msCount = 0
	}
	r.msCount++
	r.msPeak = max(r.msPeak, r.msCount)

	if r.cfg.ReportInterval > 0 && ts-r.lastReport > r.cfg.ReportInterval {
		r.lastReport = ts
		r.logProgress(ts)
	}
}

// SampleDepth records the number of price levels on a book side right
// after a message changed it.
func (r *Recorder) SampleDepth(levels int) {
	r.depth.add(float64(levels))
}

func (r *Recorder) logProgress(ts time.Duration) {
	s := r.Summary()
	r.log.Infow("feed statistics",
		"feed_time", ts.String(),
		"messages", s.Count,
		"rate_p50", s.RatePerSecond.P50,
		"rate_max", s.RatePerSecond.Max,
		"latency_p50_ns", s.Processing.P50,
		"latency_p99_ns", s.Processing.P99,
		"book_depth_p50", s.BookDepth.P50,
		"book_depth_max", s.BookDepth.Max,
	)
}

// Distribution summarizes a set of samples.
type Distribution struct {
	Min float64 `json:"min"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

func distribution(data []float64) Distribution {
	if len(data) == 0 {
		return Distribution{}
	}
	var d Distribution
	d.Min, _ = mstats.Min(data)
	d.Max, _ = mstats.Max(data)
	pct := func(p float64) float64 {
		// small inputs have no rank for low percentiles
		v, err := mstats.Percentile(data, p)
		if err != nil {
			return d.Min
		}
		return v
	}
	d.P25 = pct(25)
	d.P50 = pct(50)
	d.P75 = pct(75)
	d.P90 = pct(90)
	d.P99 = pct(99)
	return d
}

type Summary struct {
	Count            uint64       `json:"count"`
	RatePerSecond    Distribution `json:"rate_per_second"`
	PeakPerMilli     float64      `json:"peak_per_millisecond"`
	InterarrivalNs   Distribution `json:"interarrival_ns"`
	Processing       Distribution `json:"processing_ns"`
	MeanProcessingNs float64      `json:"mean_processing_ns"`
	DepthSamples     int          `json:"depth_samples"`
	BookDepth        Distribution `json:"book_depth"`
}

func (r *Recorder) Summary() Summary {
	rates := make([]float64, 0, len(r.perSecond))
	for _, n := range r.perSecond {
		rates = append(rates, n)
	}
	mean, err := mstats.Mean(r.latency.data)
	if err != nil {
		mean = 0
	}
	return Summary{
		Count:            r.count,
		RatePerSecond:    distribution(rates),
		PeakPerMilli:     r.msPeak,
		InterarrivalNs:   distribution(r.interarrival.data),
		Processing:       distribution(r.latency.data),
		MeanProcessingNs: mean,
		DepthSamples:     r.depth.seen,
		BookDepth:        distribution(r.depth.data),
	}
}

var distributionColumns = []string{"min", "p25", "p50", "p75", "p90", "p99", "max"}

// WriteCSVHeader writes the column names used by WriteCSV.
func WriteCSVHeader(w io.Writer) error {
	row := []string{"name", "count", "peakPerMilli"}
	for _, group := range []string{"RatePerSec", "Arrival", "Processing", "BookDepth"} {
		for _, c := range distributionColumns {
			row = append(row, c+group)
		}
	}
	cw := csv.NewWriter(w)
	cw.Write(row)
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes one row for the session. Distributions are empty
// when nothing was sampled into them.
func (r *Recorder) WriteCSV(w io.Writer, name string) error {
	s := r.Summary()
	row := []string{name, strconv.FormatUint(s.Count, 10), ftoa(s.PeakPerMilli)}
	groups := []struct {
		d     Distribution
		empty bool
	}{
		{s.RatePerSecond, s.Count == 0},
		{s.InterarrivalNs, s.Count == 0},
		{s.Processing, s.Count == 0},
		{s.BookDepth, s.DepthSamples == 0},
	}
	for _, g := range groups {
		d := g.d
		for _, v := range []float64{d.Min, d.P25, d.P50, d.P75, d.P90, d.P99, d.Max} {
			if g.empty {
				row = append(row, "")
				continue
			}
			row = append(row, ftoa(v))
		}
	}
	cw := csv.NewWriter(w)
	cw.Write(row)
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// reservoir keeps a uniform sample of at most max values.
type reservoir struct {
	max  int
	seen int
	data []float64
	rng  *rand.Rand
}

func (r *reservoir) add(v float64) {
	r.seen++
	if len(r.data) < r.max {
		r.data = append(r.data, v)
		return
	}
	if i := r.rng.Intn(r.seen); i < r.max {
		r.data[i] = v
	}
}
