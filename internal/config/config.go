// Package config loads service configuration from an optional YAML file with
// environment-variable overrides. Environment always wins.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CollaboratorConfig holds the endpoint and credential for one external
// collaborator. An empty endpoint means the built-in fixture implementation
// is used instead.
type CollaboratorConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type TimeoutConfig struct {
	Scrape time.Duration `yaml:"scrape"`
	Source time.Duration `yaml:"source"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

type Config struct {
	Server        ServerConfig       `yaml:"server"`
	ScorecardPath string             `yaml:"scorecard_path"`
	LogLevel      string             `yaml:"log_level"`
	Scraper       CollaboratorConfig `yaml:"scraper"`
	Directory     CollaboratorConfig `yaml:"esg_directory"`
	Sentiment     CollaboratorConfig `yaml:"sentiment"`
	Timeouts      TimeoutConfig      `yaml:"timeouts"`
	Redis         RedisConfig        `yaml:"redis"`
	Cache         CacheConfig        `yaml:"cache"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		ScorecardPath: "data/scorecard.csv",
		LogLevel:      "info",
		Timeouts: TimeoutConfig{
			Scrape: 20 * time.Second,
			Source: 15 * time.Second,
		},
		Cache: CacheConfig{
			TTL:        15 * time.Minute,
			MaxEntries: 1000,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 60,
			Burst:     10,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file named
// by THREADSCORE_CONFIG (if set), then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("THREADSCORE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.ScorecardPath, "SCORECARD_PATH")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setString(&cfg.Scraper.Endpoint, "SCRAPER_ENDPOINT")
	setString(&cfg.Scraper.APIKey, "SCRAPER_API_KEY")
	setString(&cfg.Directory.Endpoint, "ESG_DIRECTORY_ENDPOINT")
	setString(&cfg.Directory.APIKey, "ESG_DIRECTORY_API_KEY")
	setString(&cfg.Sentiment.Endpoint, "SENTIMENT_ENDPOINT")
	setString(&cfg.Sentiment.APIKey, "SENTIMENT_API_KEY")
	setString(&cfg.Sentiment.Model, "SENTIMENT_MODEL")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	setDuration(&cfg.Timeouts.Scrape, "SCRAPE_TIMEOUT")
	setDuration(&cfg.Timeouts.Source, "SOURCE_TIMEOUT")
	setDuration(&cfg.Cache.TTL, "CACHE_TTL")
	setInt(&cfg.Cache.MaxEntries, "CACHE_MAX_ENTRIES")
	setInt(&cfg.RateLimit.PerMinute, "RATE_LIMIT_PER_MINUTE")
	setInt(&cfg.RateLimit.Burst, "RATE_LIMIT_BURST")
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port must not be empty")
	}
	if c.ScorecardPath == "" {
		return fmt.Errorf("scorecard path must not be empty")
	}
	if c.Timeouts.Scrape <= 0 || c.Timeouts.Source <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("rate limit per minute must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// UseFixtureScraper reports whether the built-in fixture catalog should stand
// in for the scraping collaborator.
func (c Config) UseFixtureScraper() bool { return c.Scraper.Endpoint == "" }

// UseFixtureDirectory reports whether the built-in ESG fixture directory
// should stand in for the directory collaborator.
func (c Config) UseFixtureDirectory() bool { return c.Directory.Endpoint == "" }

// UseLexiconScorer reports whether the offline lexicon scorer should stand in
// for the sentiment collaborator.
func (c Config) UseLexiconScorer() bool { return c.Sentiment.Endpoint == "" }

// SlogLevel converts the configured level name. Load has already validated
// the name, so unknown values only occur on hand-built configs.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
