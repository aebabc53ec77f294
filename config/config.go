// Package config loads server settings from BARTER_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"barter/domain/exchange"
)

type Config struct {
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":50051"`
	DirectoryFile string `env:"DIRECTORY_FILE" envDefault:"./communities.yaml"`

	EntryWALDir     string        `env:"ENTRY_WAL_DIR" envDefault:"./data/wal_entry"`
	SegmentSize     int64         `env:"WAL_SEGMENT_SIZE" envDefault:"2097152"`
	SegmentDuration time.Duration `env:"WAL_SEGMENT_DURATION" envDefault:"1m"`
	SyncEveryWrite  bool          `env:"WAL_SYNC_EVERY_WRITE" envDefault:"false"`

	OutboxDir        string        `env:"OUTBOX_DIR" envDefault:"./data/wal_exit"`
	SnapshotDir      string        `env:"SNAPSHOT_DIR" envDefault:"./data/snapshots"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	IndexPath        string        `env:"INDEX_PATH" envDefault:"./data/index/trades.db"`

	// MatchInterval schedules a periodic matching pass; 0 disables it.
	MatchInterval time.Duration `env:"MATCH_INTERVAL" envDefault:"0s"`

	Kafka    Kafka    `envPrefix:"KAFKA_"`
	Log      Log      `envPrefix:"LOG_"`
	Exchange Exchange `envPrefix:"EXCHANGE_"`
}

type Kafka struct {
	Brokers    []string      `env:"BROKERS" envSeparator:","`
	Topic      string        `env:"TOPIC" envDefault:"barter.trades"`
	Client     string        `env:"CLIENT" envDefault:"sarama"`
	Interval   time.Duration `env:"INTERVAL" envDefault:"250ms"`
	MaxRetries uint32        `env:"MAX_RETRIES" envDefault:"10"`
}

// Enabled reports whether trade events should be published.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

type Log struct {
	Level       string `env:"LEVEL" envDefault:"info"`
	Development bool   `env:"DEVELOPMENT" envDefault:"false"`
}

type Exchange struct {
	MinStartingBalance int64   `env:"MIN_STARTING_BALANCE" envDefault:"500"`
	BalanceFactor      float64 `env:"BALANCE_FACTOR" envDefault:"0.05"`
	ReserveRatio       float64 `env:"RESERVE_RATIO" envDefault:"0.2"`
	CarbonFactor       float64 `env:"CARBON_FACTOR" envDefault:"0.0001"`
}

func (e Exchange) Params() exchange.Params {
	return exchange.Params{
		MinStartingBalance: e.MinStartingBalance,
		BalanceFactor:      e.BalanceFactor,
		ReserveRatio:       e.ReserveRatio,
		CarbonFactor:       e.CarbonFactor,
	}
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: "BARTER_"})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Kafka.Client {
	case "sarama", "kafka-go":
	default:
		return fmt.Errorf("BARTER_KAFKA_CLIENT must be sarama or kafka-go, got %q", c.Kafka.Client)
	}
	if c.SegmentSize <= 0 {
		return fmt.Errorf("BARTER_WAL_SEGMENT_SIZE must be positive")
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("BARTER_SNAPSHOT_INTERVAL must be positive")
	}
	if c.Exchange.ReserveRatio < 0 || c.Exchange.ReserveRatio > 1 {
		return fmt.Errorf("BARTER_EXCHANGE_RESERVE_RATIO must be within [0,1]")
	}
	if c.Exchange.MinStartingBalance < 0 || c.Exchange.BalanceFactor < 0 || c.Exchange.CarbonFactor < 0 {
		return fmt.Errorf("exchange parameters must not be negative")
	}
	return nil
}
