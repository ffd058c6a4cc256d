package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/ladder/backtest"
	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/sim"
	"github.com/rustyeddy/ladder/trend"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a configuration that fails validation.
var ErrInvalid = errors.New("invalid config")

// Config represents the complete backtest configuration
type Config struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Start    string `json:"start" yaml:"start"`
	End      string `json:"end,omitempty" yaml:"end,omitempty"`           // empty means today
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty"` // empty picks one from the range

	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Trend    TrendConfig    `json:"trend" yaml:"trend"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
}

// StrategyConfig contains the ladder parameters. BuyWindowStart and
// BuyWindowEnd, when both set, override the window derived from BuyTime.
type StrategyConfig struct {
	InvestmentPerBuy float64 `json:"investment_per_buy" yaml:"investment_per_buy"`
	PriceIncrement   float64 `json:"price_increment" yaml:"price_increment"`
	BuyTime          string  `json:"buy_time,omitempty" yaml:"buy_time,omitempty"`
	BuyWindowStart   string  `json:"buy_window_start,omitempty" yaml:"buy_window_start,omitempty"`
	BuyWindowEnd     string  `json:"buy_window_end,omitempty" yaml:"buy_window_end,omitempty"`
}

// TrendConfig contains the market filter parameters
type TrendConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Symbol  string `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Period  int    `json:"period,omitempty" yaml:"period,omitempty"`
}

// DataConfig selects where bars come from
type DataConfig struct {
	Source string `json:"source" yaml:"source"` // "csv" or "alpaca"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	Feed   string `json:"feed,omitempty" yaml:"feed,omitempty"` // alpaca feed, e.g. "iex" or "sip"
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	ValuesFile string `json:"values_file,omitempty" yaml:"values_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return invalid("symbol is required")
	}
	start, err := market.ParseDate(c.Start)
	if err != nil {
		return invalid("start: %v", err)
	}
	if c.End != "" {
		end, err := market.ParseDate(c.End)
		if err != nil {
			return invalid("end: %v", err)
		}
		if !start.Before(end) {
			return invalid("start %s must be before end %s", start, end)
		}
	}
	if c.Interval != "" {
		if _, err := market.ParseInterval(c.Interval); err != nil {
			return invalid("interval: %v", err)
		}
	}

	if c.Account.InitialCapital <= 0 {
		return invalid("account.initial_capital must be positive")
	}
	if c.Strategy.InvestmentPerBuy <= 0 {
		return invalid("strategy.investment_per_buy must be positive")
	}
	if c.Strategy.InvestmentPerBuy > c.Account.InitialCapital {
		return invalid("strategy.investment_per_buy exceeds account.initial_capital")
	}
	if c.Strategy.PriceIncrement <= 0 {
		return invalid("strategy.price_increment must be positive")
	}
	if c.Strategy.BuyTime != "" {
		if _, err := market.ParseClock(c.Strategy.BuyTime); err != nil {
			return invalid("strategy.buy_time: %v", err)
		}
	}
	if (c.Strategy.BuyWindowStart == "") != (c.Strategy.BuyWindowEnd == "") {
		return invalid("strategy.buy_window_start and buy_window_end must be set together")
	}
	if c.Strategy.BuyWindowStart != "" {
		if _, err := c.window(); err != nil {
			return err
		}
	}

	if c.Trend.Enabled && c.Trend.Symbol == "" {
		return invalid("trend.symbol is required when the trend filter is enabled")
	}
	if c.Trend.Period < 0 {
		return invalid("trend.period must not be negative")
	}

	switch c.Data.Source {
	case "csv":
		if c.Data.Dir == "" {
			return invalid("data.dir required for csv source")
		}
	case "alpaca":
	default:
		return invalid("data.source must be 'csv' or 'alpaca'")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" {
			return invalid("journal trades_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return invalid("journal db_path required for SQLite type")
		}
	default:
		return invalid("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

func (c *Config) window() (sim.BuyWindow, error) {
	start, err := market.ParseClock(c.Strategy.BuyWindowStart)
	if err != nil {
		return sim.BuyWindow{}, invalid("strategy.buy_window_start: %v", err)
	}
	end, err := market.ParseClock(c.Strategy.BuyWindowEnd)
	if err != nil {
		return sim.BuyWindow{}, invalid("strategy.buy_window_end: %v", err)
	}
	if !start.Before(end) {
		return sim.BuyWindow{}, invalid("strategy buy window %s-%s is empty", start, end)
	}
	return sim.BuyWindow{Start: start, End: end}, nil
}

// EngineConfig returns the engine parameters. The interval and window are
// provisional until the feed reports which interval it served.
func (c *Config) EngineConfig() sim.Config {
	iv, err := market.ParseInterval(c.Interval)
	if err != nil {
		iv = market.Day1
	}
	cfg := sim.Config{
		InitialCapital:   c.Account.InitialCapital,
		InvestmentPerBuy: c.Strategy.InvestmentPerBuy,
		PriceIncrement:   c.Strategy.PriceIncrement,
		Interval:         iv,
		BuyWindow:        sim.DefaultBuyWindow,
		TrendFilter:      c.Trend.Enabled,
	}
	if c.Strategy.BuyWindowStart != "" {
		if w, err := c.window(); err == nil {
			cfg.BuyWindow = w
		}
	}
	return cfg
}

// Params converts the file configuration into runner parameters.
func (c *Config) Params() (backtest.Params, error) {
	if err := c.Validate(); err != nil {
		return backtest.Params{}, err
	}
	p := backtest.Params{
		Symbol:      strings.ToUpper(c.Symbol),
		Engine:      c.EngineConfig(),
		TrendSymbol: strings.ToUpper(c.Trend.Symbol),
		TrendPeriod: c.Trend.Period,
	}
	if c.Interval != "" {
		p.Interval, _ = market.ParseInterval(c.Interval)
	}
	p.Start, _ = market.ParseDate(c.Start)
	if c.End != "" {
		p.End, _ = market.ParseDate(c.End)
	}
	if c.Strategy.BuyTime != "" && c.Strategy.BuyWindowStart == "" {
		bt, _ := market.ParseClock(c.Strategy.BuyTime)
		p.BuyTime = &bt
	}
	return p, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Symbol:   "TQQQ",
		Start:    "2024-01-01",
		Interval: string(market.Hour1),
		Account: AccountConfig{
			InitialCapital: 20_000,
		},
		Strategy: StrategyConfig{
			InvestmentPerBuy: 2_000,
			PriceIncrement:   1,
			BuyTime:          "10:00",
		},
		Trend: TrendConfig{
			Enabled: true,
			Symbol:  "QQQ",
			Period:  trend.DefaultPeriod,
		},
		Data: DataConfig{
			Source: "csv",
			Dir:    "./data",
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
