package config

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
)

// Config holds the node settings. Identity and peers are not here: the
// harness hands them out in the init message.
type Config struct {
	// GossipInterval is the fixed delay between gossip rounds.
	GossipInterval time.Duration
	// Redundancy divides the store size to get the number of random facts
	// padded into every gossip batch. Zero disables padding.
	Redundancy  int
	LogLevel    string
	MetricsAddr string
	// Seed for the gossip sampler; zero seeds from the clock.
	Seed int64
}

func Default() Config {
	return Config{
		GossipInterval: 30 * time.Millisecond,
		Redundancy:     10,
		LogLevel:       "info",
	}
}

// Load reads the environment first, then lets flags in args override it.
func Load(name string, args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if err := cfg.fromEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.DurationVar(&cfg.GossipInterval, "gossip-interval", cfg.GossipInterval, "delay between gossip rounds")
	fs.IntVar(&cfg.Redundancy, "redundancy", cfg.Redundancy, "pad gossip with store_size/redundancy random facts (0 disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (empty disables)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "gossip sampler seed (0 uses the clock)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fromEnv(getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	if v := getenv("GOSSIP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GOSSIP_INTERVAL: %w", err)
		}
		c.GossipInterval = d
	}
	if v := getenv("GOSSIP_REDUNDANCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOSSIP_REDUNDANCY: %w", err)
		}
		c.Redundancy = n
	}
	if v := getenv("GOSSIP_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GOSSIP_SEED: %w", err)
		}
		c.Seed = n
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	return nil
}

func (c Config) Validate() error {
	if c.GossipInterval <= 0 {
		return fmt.Errorf("gossip interval must be positive, got %s", c.GossipInterval)
	}
	if c.Redundancy < 0 {
		return fmt.Errorf("redundancy cannot be negative, got %d", c.Redundancy)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}
