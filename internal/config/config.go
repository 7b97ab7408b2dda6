// Package config provides configuration for the crypto-history builder and its
// collaborators. Configuration loads from an optional JSON file with
// environment variable overrides, and every build gets its own Config value so
// builds stay independently testable — no process-wide state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/klevvr/go-crypto-history/internal/errors"
)

// MaxFetchLimit is the largest number of klines Binance returns per request.
const MaxFetchLimit = 1000

// DefaultExampleSymbol is the reference ticker whose history establishes the
// expected time-index depth.
const DefaultExampleSymbol = "ETHBTC"

// Accepted layouts for request start/end values.
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Config is the complete application configuration.
type Config struct {
	Exchange ExchangeConfig `json:"exchange"`
	Request  RequestConfig  `json:"request"`
	Fetcher  FetcherConfig  `json:"fetcher"`
	Logging  LoggingConfig  `json:"logging"`

	// StrictFetch aborts a build when any pair's fetch fails. When false
	// (default) failed pairs are excluded from the container and the build
	// continues, matching the empty-history treatment.
	StrictFetch bool `json:"strict_fetch" env:"STRICT_FETCH"`
}

// ExchangeConfig configures the Binance collaborator.
type ExchangeConfig struct {
	APIKey    string `json:"api_key" env:"BINANCE_API_KEY"`
	APISecret string `json:"api_secret" env:"BINANCE_API_SECRET"`
	Testnet   bool   `json:"testnet" env:"BINANCE_TESTNET"`
	RateLimit int    `json:"rate_limit" env:"EXCHANGE_RATE_LIMIT"` // requests per second
}

// RequestConfig describes the candle history request shared by every fetch.
type RequestConfig struct {
	Interval      string `json:"interval" env:"REQUEST_INTERVAL"`
	Start         string `json:"start" env:"REQUEST_START"`
	End           string `json:"end" env:"REQUEST_END"`
	Limit         int    `json:"limit" env:"REQUEST_LIMIT"`
	ExampleSymbol string `json:"example_symbol" env:"REQUEST_EXAMPLE_SYMBOL"`
}

// FetcherConfig configures the bulk history fetcher.
type FetcherConfig struct {
	// MaxConcurrent bounds the fan-out of FetchAll. Zero means one goroutine
	// per pair.
	MaxConcurrent int `json:"max_concurrent" env:"FETCHER_MAX_CONCURRENT"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level      string `json:"level" env:"LOG_LEVEL"`   // debug, info, warn, error
	Format     string `json:"format" env:"LOG_FORMAT"` // json, text
	Output     string `json:"output" env:"LOG_OUTPUT"` // stdout, stderr, file
	FilePath   string `json:"file_path" env:"LOG_FILE_PATH"`
	MaxSizeMB  int    `json:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
	MaxBackups int    `json:"max_backups" env:"LOG_MAX_BACKUPS"`
	MaxAgeDays int    `json:"max_age_days" env:"LOG_MAX_AGE_DAYS"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			RateLimit: 10,
		},
		Request: RequestConfig{
			Interval:      "1d",
			Limit:         MaxFetchLimit,
			ExampleSymbol: DefaultExampleSymbol,
		},
		Fetcher: FetcherConfig{
			MaxConcurrent: 16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration from an optional JSON file, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides configuration fields from the environment.
func (c *Config) applyEnv() {
	setString(&c.Exchange.APIKey, "BINANCE_API_KEY")
	setString(&c.Exchange.APISecret, "BINANCE_API_SECRET")
	setBool(&c.Exchange.Testnet, "BINANCE_TESTNET")
	setInt(&c.Exchange.RateLimit, "EXCHANGE_RATE_LIMIT")

	setString(&c.Request.Interval, "REQUEST_INTERVAL")
	setString(&c.Request.Start, "REQUEST_START")
	setString(&c.Request.End, "REQUEST_END")
	setInt(&c.Request.Limit, "REQUEST_LIMIT")
	setString(&c.Request.ExampleSymbol, "REQUEST_EXAMPLE_SYMBOL")

	setInt(&c.Fetcher.MaxConcurrent, "FETCHER_MAX_CONCURRENT")
	setBool(&c.StrictFetch, "STRICT_FETCH")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.Logging.Output, "LOG_OUTPUT")
	setString(&c.Logging.FilePath, "LOG_FILE_PATH")
}

// Validate checks construction parameters, failing fast with configuration
// errors before any network call is made.
func (c *Config) Validate() error {
	if c.Request.Limit <= 0 {
		return errors.NewConfiguration("config", "limit must be positive, got %d", c.Request.Limit)
	}
	if c.Request.Limit > MaxFetchLimit {
		return errors.NewConfiguration("config",
			"limit %d exceeds the exchange maximum of %d", c.Request.Limit, MaxFetchLimit)
	}
	if c.Request.Interval == "" {
		return errors.NewConfiguration("config", "interval is required")
	}
	if c.Request.ExampleSymbol == "" {
		return errors.NewConfiguration("config", "example symbol is required")
	}
	if c.Fetcher.MaxConcurrent < 0 {
		return errors.NewConfiguration("config", "max_concurrent cannot be negative")
	}

	start, err := c.Request.StartTime()
	if err != nil {
		return err
	}
	end, err := c.Request.EndTime()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return errors.NewConfiguration("config", "start %s is after end %s", c.Request.Start, c.Request.End)
	}

	return nil
}

// StartTime parses the request start. A zero time means "no lower bound".
func (r RequestConfig) StartTime() (time.Time, error) {
	return parseTime("start", r.Start)
}

// EndTime parses the request end. A zero time means "now".
func (r RequestConfig) EndTime() (time.Time, error) {
	return parseTime("end", r.End)
}

func parseTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.NewConfiguration("config", "cannot parse %s time %q", field, value)
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

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
