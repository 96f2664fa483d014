package params

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"

	"github.com/uhyunpark/mktfeed/pkg/api"
	"github.com/uhyunpark/mktfeed/pkg/book"
	"github.com/uhyunpark/mktfeed/pkg/feed"
	"github.com/uhyunpark/mktfeed/pkg/publish"
	"github.com/uhyunpark/mktfeed/pkg/stats"
)

const (
	ProtocolITCH  = "itch"
	ProtocolPITCH = "pitch"
)

type Feed struct {
	Protocol string   `yaml:"protocol"`
	Inputs   []string `yaml:"inputs"`
	// InsideMode is "price" or "price_and_size".
	InsideMode     string `yaml:"inside_mode"`
	SuspendOnError bool   `yaml:"suspend_on_error"`
	// Trusted skips per-field bounds checks and enum validation while
	// decoding. Frames are still checked against their type's fixed
	// length. Only for feeds already known to be well formed.
	Trusted bool `yaml:"trusted"`
	// Parallelism caps concurrently replayed inputs. Zero means one per
	// CPU.
	Parallelism int `yaml:"parallelism"`
}

type Stats struct {
	ReportInterval time.Duration `yaml:"report_interval"`
	MaxSamples     int           `yaml:"max_samples"`
	CSVPath        string        `yaml:"csv_path"`
}

type Output struct {
	// TextPath receives the inside journal; "-" is stdout, empty disables.
	TextPath string `yaml:"text_path"`
	// TradesPath receives the trade report; "-" is stdout, empty disables.
	TradesPath string `yaml:"trades_path"`
	// StorePath is a pebble directory. Empty keeps quotes in memory.
	StorePath     string `yaml:"store_path"`
	StorePerStock int    `yaml:"store_per_stock"`
	// DepthLevels tracked per instrument for the API. Zero disables.
	DepthLevels int                 `yaml:"depth_levels"`
	Kafka       publish.KafkaConfig `yaml:"kafka"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Config struct {
	Feed   Feed        `yaml:"feed"`
	Book   book.Config `yaml:"book"`
	Stats  Stats       `yaml:"stats"`
	Output Output      `yaml:"output"`
	API    api.Config  `yaml:"api"`
	Log    Log         `yaml:"log"`
}

func Default() Config {
	sc := stats.DefaultConfig()
	return Config{
		Feed: Feed{
			Protocol:   ProtocolITCH,
			InsideMode: feed.PriceOnly.String(),
		},
		Book: book.DefaultConfig(),
		Stats: Stats{
			ReportInterval: sc.ReportInterval,
			MaxSamples:     sc.MaxSamples,
		},
		Output: Output{
			StorePerStock: 1024,
			DepthLevels:   5,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads a YAML file over the defaults and then applies the
// environment. An empty path skips the file.
func Load(path, envPath string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, envPath); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()
	if err := applyEnv(&cfg, envPath); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, envPath string) error {
	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Feed.Protocol = getEnv("MKTFEED_PROTOCOL", cfg.Feed.Protocol)
	if v := os.Getenv("MKTFEED_INPUTS"); v != "" {
		cfg.Feed.Inputs = splitList(v)
	}
	cfg.Feed.InsideMode = getEnv("MKTFEED_INSIDE_MODE", cfg.Feed.InsideMode)
	cfg.Book.Type = getEnv("MKTFEED_BOOK_TYPE", cfg.Book.Type)
	cfg.Output.TextPath = getEnv("MKTFEED_TEXT_PATH", cfg.Output.TextPath)
	cfg.Output.TradesPath = getEnv("MKTFEED_TRADES_PATH", cfg.Output.TradesPath)
	cfg.Output.StorePath = getEnv("MKTFEED_STORE_PATH", cfg.Output.StorePath)
	cfg.Output.Kafka.Topic = getEnv("MKTFEED_KAFKA_TOPIC", cfg.Output.Kafka.Topic)
	if v := os.Getenv("MKTFEED_KAFKA_BROKERS"); v != "" {
		cfg.Output.Kafka.Brokers = splitList(v)
	}
	cfg.Stats.CSVPath = getEnv("MKTFEED_STATS_CSV", cfg.Stats.CSVPath)
	cfg.API.Addr = getEnv("MKTFEED_API_ADDR", cfg.API.Addr)
	cfg.Log.Level = getEnv("MKTFEED_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("MKTFEED_LOG_FILE", cfg.Log.File)

	ints := []struct {
		key string
		dst *int
	}{
		{"MKTFEED_BOOK_MAX_SIZE", &cfg.Book.MaxSize},
		{"MKTFEED_PARALLELISM", &cfg.Feed.Parallelism},
		{"MKTFEED_DEPTH_LEVELS", &cfg.Output.DepthLevels},
		{"MKTFEED_STATS_MAX_SAMPLES", &cfg.Stats.MaxSamples},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"MKTFEED_SUSPEND_ON_ERROR", &cfg.Feed.SuspendOnError},
		{"MKTFEED_TRUSTED", &cfg.Feed.Trusted},
	}
	for _, e := range bools {
		if v := os.Getenv(e.key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = b
		}
	}

	if v := os.Getenv("MKTFEED_STATS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MKTFEED_STATS_INTERVAL: %w", err)
		}
		cfg.Stats.ReportInterval = d
	}
	return nil
}

// Validate checks fields that would otherwise fail deep inside a
// session.
func (c Config) Validate() error {
	switch c.Feed.Protocol {
	case ProtocolITCH, ProtocolPITCH:
	default:
		return fmt.Errorf("feed: unknown protocol %q", c.Feed.Protocol)
	}
	if _, err := feed.ParseInsideMode(c.Feed.InsideMode); err != nil {
		return err
	}
	if c.Feed.Parallelism < 0 {
		return fmt.Errorf("feed: parallelism must be >= 0, got %d", c.Feed.Parallelism)
	}
	if c.Output.DepthLevels < 0 {
		return fmt.Errorf("output: depth_levels must be >= 0, got %d", c.Output.DepthLevels)
	}
	if len(c.Output.Kafka.Brokers) > 0 && c.Output.Kafka.Topic == "" {
		return fmt.Errorf("output: kafka topic required when brokers are set")
	}
	return c.Book.Validate()
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
