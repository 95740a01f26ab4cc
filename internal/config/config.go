package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dennisgathu8/house-hedge/pkg/models"
	"gopkg.in/yaml.v3"
)

// OddsConfig controls which bookmakers are accepted at ingestion
type OddsConfig struct {
	// Empty accepts every bookmaker
	Bookmakers []string `yaml:"bookmakers"`
}

// SharpConfig holds sharp signal thresholds
type SharpConfig struct {
	RLMThreshold   float64 `yaml:"rlm_threshold"`
	SteamThreshold float64 `yaml:"steam_threshold"`
	MinConfidence  float64 `yaml:"min_confidence"`
	HistoryLimit   int     `yaml:"history_limit"`
}

// BankrollConfig holds staking policy parameters
type BankrollConfig struct {
	DefaultStrategy  models.StakingStrategy `yaml:"default_strategy"`
	FlatFraction     float64                `yaml:"flat_fraction"`
	KellyFraction    float64                `yaml:"kelly_fraction"`
	MaxStakeFraction float64                `yaml:"max_stake_fraction"`
	MinStake         float64                `yaml:"min_stake"`
	InitialBankroll  float64                `yaml:"initial_bankroll"`
}

// SlipsConfig gates which staking decisions qualify as bet slips
type SlipsConfig struct {
	MinEV         float64 `yaml:"min_ev"`
	MinConfidence float64 `yaml:"min_confidence"`
	// Qualifying decisions are appended to the ledger as pending bets
	AutoPlace bool `yaml:"auto_place"`
}

// PerformanceConfig holds analyzer parameters
type PerformanceConfig struct {
	VarianceTolerance float64 `yaml:"variance_tolerance"`
}

// LedgerConfig selects the ledger persistence backend
type LedgerConfig struct {
	Backend     string `yaml:"backend"` // file or postgres
	Path        string `yaml:"path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// IngestConfig sizes the ingestion queue
type IngestConfig struct {
	QueueSize   int  `yaml:"queue_size"`
	DrainOnStop bool `yaml:"drain_on_stop"`
}

// RedisConfig holds Redis connection and stream settings
type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Password      string `yaml:"password"`
	RawStream     string `yaml:"raw_stream"`
	ConsumerGroup string `yaml:"consumer_group"`
	ConsumerID    string `yaml:"consumer_id"`
}

// PublisherConfig limits outbound stream writes
type PublisherConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
	MaxAttempts   int     `yaml:"max_attempts"`
}

// FeedConfig drives the mock feed used when Redis is disabled
type FeedConfig struct {
	Seed       int64    `yaml:"seed"`
	Matches    int      `yaml:"matches"`
	Markets    []string `yaml:"markets"`
	IntervalMS int      `yaml:"interval_ms"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig configures the logger and optional rotated log file
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Config holds all application configuration
type Config struct {
	Odds        OddsConfig        `yaml:"odds"`
	Sharp       SharpConfig       `yaml:"sharp"`
	Bankroll    BankrollConfig    `yaml:"bankroll"`
	Slips       SlipsConfig       `yaml:"slips"`
	Performance PerformanceConfig `yaml:"performance"`
	Ledger      LedgerConfig      `yaml:"ledger"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Redis       RedisConfig       `yaml:"redis"`
	Feed        FeedConfig        `yaml:"feed"`
	Publisher   PublisherConfig   `yaml:"publisher"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// Default returns the configuration used when no file is supplied
func Default() *Config {
	return &Config{
		Sharp: SharpConfig{
			RLMThreshold:   0.05,
			SteamThreshold: 0.03,
			MinConfidence:  0.70,
			HistoryLimit:   10000,
		},
		Bankroll: BankrollConfig{
			DefaultStrategy:  models.StrategyKelly,
			FlatFraction:     0.02,
			KellyFraction:    0.25,
			MaxStakeFraction: 0.05,
			MinStake:         1.0,
			InitialBankroll:  1000,
		},
		Slips: SlipsConfig{
			MinEV:         0.03,
			MinConfidence: 0.65,
			AutoPlace:     true,
		},
		Performance: PerformanceConfig{
			VarianceTolerance: 2.0,
		},
		Ledger: LedgerConfig{
			Backend: "file",
			Path:    "data/ledger.json",
		},
		Ingest: IngestConfig{
			QueueSize: 1024,
		},
		Redis: RedisConfig{
			URL:           "localhost:6379",
			RawStream:     "odds.raw",
			ConsumerGroup: "house-hedge",
			ConsumerID:    "house-hedge-1",
		},
		Feed: FeedConfig{
			Seed:       1,
			Matches:    8,
			Markets:    []string{models.Market1X2, models.MarketTotals},
			IntervalMS: 500,
		},
		Publisher: PublisherConfig{
			RatePerSecond: 50,
			Burst:         100,
			MaxAttempts:   3,
		},
		Server: ServerConfig{
			Addr: ":8090",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads a YAML file on top of the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides file values with environment variables when set
func (c *Config) applyEnv() {
	c.Bankroll.DefaultStrategy = models.StakingStrategy(getEnv("HH_DEFAULT_STRATEGY", string(c.Bankroll.DefaultStrategy)))
	c.Bankroll.InitialBankroll = getEnvFloat("HH_INITIAL_BANKROLL", c.Bankroll.InitialBankroll)
	c.Bankroll.KellyFraction = getEnvFloat("HH_KELLY_FRACTION", c.Bankroll.KellyFraction)
	c.Ledger.Path = getEnv("HH_LEDGER_PATH", c.Ledger.Path)
	c.Ledger.Backend = getEnv("HH_LEDGER_BACKEND", c.Ledger.Backend)
	c.Ledger.PostgresDSN = getEnv("HH_POSTGRES_DSN", c.Ledger.PostgresDSN)
	c.Redis.Enabled = getEnvBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	if books := getEnv("HH_BOOKMAKERS", ""); books != "" {
		c.Odds.Bookmakers = nil
		for _, b := range strings.Split(books, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Odds.Bookmakers = append(c.Odds.Bookmakers, b)
			}
		}
	}
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	var errs []error

	switch c.Bankroll.DefaultStrategy {
	case models.StrategyFlat, models.StrategyKelly, models.StrategyConfidence:
	default:
		errs = append(errs, fmt.Errorf("bankroll.default_strategy %q must be flat, kelly or confidence", c.Bankroll.DefaultStrategy))
	}

	if c.Bankroll.InitialBankroll <= 0 {
		errs = append(errs, fmt.Errorf("bankroll.initial_bankroll must be positive"))
	}
	if !inUnitInterval(c.Bankroll.KellyFraction) {
		errs = append(errs, fmt.Errorf("bankroll.kelly_fraction must be in (0, 1]"))
	}
	if !inUnitInterval(c.Bankroll.MaxStakeFraction) {
		errs = append(errs, fmt.Errorf("bankroll.max_stake_fraction must be in (0, 1]"))
	}
	if !inUnitInterval(c.Bankroll.FlatFraction) {
		errs = append(errs, fmt.Errorf("bankroll.flat_fraction must be in (0, 1]"))
	}
	if c.Bankroll.MinStake < 0 {
		errs = append(errs, fmt.Errorf("bankroll.min_stake cannot be negative"))
	}

	if c.Sharp.RLMThreshold <= 0 || c.Sharp.SteamThreshold <= 0 {
		errs = append(errs, fmt.Errorf("sharp thresholds must be positive"))
	}
	if c.Sharp.MinConfidence < 0 || c.Sharp.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("sharp.min_confidence must be in [0, 1]"))
	}
	if c.Sharp.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("sharp.history_limit must be positive"))
	}

	if c.Slips.MinEV < 0 {
		errs = append(errs, fmt.Errorf("slips.min_ev cannot be negative"))
	}
	if c.Slips.MinConfidence < 0 || c.Slips.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("slips.min_confidence must be in [0, 1]"))
	}

	if c.Performance.VarianceTolerance <= 0 {
		errs = append(errs, fmt.Errorf("performance.variance_tolerance must be positive"))
	}

	switch c.Ledger.Backend {
	case "file":
		if c.Ledger.Path == "" {
			errs = append(errs, fmt.Errorf("ledger.path is required for the file backend"))
		}
	case "postgres":
		if c.Ledger.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("ledger.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("ledger.backend %q must be file or postgres", c.Ledger.Backend))
	}

	if c.Ingest.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.queue_size must be positive"))
	}

	if !c.Redis.Enabled && (c.Feed.Matches <= 0 || len(c.Feed.Markets) == 0 || c.Feed.IntervalMS <= 0) {
		errs = append(errs, fmt.Errorf("feed.matches, feed.markets and feed.interval_ms are required when redis is disabled"))
	}

	if c.Publisher.RatePerSecond <= 0 || c.Publisher.Burst <= 0 {
		errs = append(errs, fmt.Errorf("publisher rate and burst must be positive"))
	}
	if c.Publisher.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("publisher.max_attempts must be at least 1"))
	}

	return errors.Join(errs...)
}

func inUnitInterval(v float64) bool {
	return v > 0 && v <= 1
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
