package params

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "mktfeed.yaml", `
feed:
  protocol: pitch
  inputs: [a.pitch, b.pitch.gz]
  inside_mode: price_and_size
  suspend_on_error: true
book:
  type: array
  max_size: 4096
stats:
  report_interval: 30s
output:
  depth_levels: 10
  trades_path: trades.txt
  kafka:
    brokers: [localhost:9092]
    topic: inside
api:
  addr: ":8080"
`)
	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.Protocol != ProtocolPITCH || len(cfg.Feed.Inputs) != 2 || !cfg.Feed.SuspendOnError {
		t.Errorf("Feed = %+v", cfg.Feed)
	}
	if cfg.Book.Type != "array" || cfg.Book.MaxSize != 4096 {
		t.Errorf("Book = %+v", cfg.Book)
	}
	if cfg.Stats.ReportInterval != 30*time.Second {
		t.Errorf("ReportInterval = %v, want 30s", cfg.Stats.ReportInterval)
	}
	// untouched fields keep their defaults
	if cfg.Stats.MaxSamples != Default().Stats.MaxSamples || cfg.Log.Level != "info" {
		t.Errorf("defaults lost: %+v %+v", cfg.Stats, cfg.Log)
	}
	if cfg.Output.TradesPath != "trades.txt" {
		t.Errorf("TradesPath = %q, want trades.txt", cfg.Output.TradesPath)
	}
	if cfg.Output.Kafka.Topic != "inside" || cfg.API.Addr != ":8080" {
		t.Errorf("Output = %+v, API = %+v", cfg.Output, cfg.API)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MKTFEED_PROTOCOL", "pitch")
	t.Setenv("MKTFEED_INPUTS", "x.pitch, y.pitch,")
	t.Setenv("MKTFEED_BOOK_TYPE", "array")
	t.Setenv("MKTFEED_BOOK_MAX_SIZE", "64")
	t.Setenv("MKTFEED_SUSPEND_ON_ERROR", "true")
	t.Setenv("MKTFEED_STATS_INTERVAL", "1m")

	envFile := writeFile(t, ".env", "MKTFEED_LOG_LEVEL=debug\nMKTFEED_PROTOCOL=itch\n")
	t.Cleanup(func() { os.Unsetenv("MKTFEED_LOG_LEVEL") })
	cfg, err := LoadFromEnv(envFile)
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	// the process environment wins over the .env file
	if cfg.Feed.Protocol != ProtocolPITCH {
		t.Errorf("Protocol = %q, want pitch", cfg.Feed.Protocol)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if len(cfg.Feed.Inputs) != 2 || cfg.Feed.Inputs[1] != "y.pitch" {
		t.Errorf("Inputs = %q", cfg.Feed.Inputs)
	}
	if cfg.Book.MaxSize != 64 || !cfg.Feed.SuspendOnError || cfg.Stats.ReportInterval != time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"protocol", func(c *Config) { c.Feed.Protocol = "fix" }},
		{"inside mode", func(c *Config) { c.Feed.InsideMode = "size" }},
		{"parallelism", func(c *Config) { c.Feed.Parallelism = -1 }},
		{"depth", func(c *Config) { c.Output.DepthLevels = -1 }},
		{"kafka topic", func(c *Config) { c.Output.Kafka.Brokers = []string{"b:9092"} }},
		{"book", func(c *Config) { c.Book.Type = "tree" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestBadEnvNumber(t *testing.T) {
	t.Setenv("MKTFEED_PARALLELISM", "many")
	if _, err := LoadFromEnv(filepath.Join(t.TempDir(), "none")); err == nil {
		t.Error("LoadFromEnv() = nil error, want parse failure")
	}
}
