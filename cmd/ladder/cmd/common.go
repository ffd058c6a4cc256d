package cmd

import (
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rustyeddy/ladder/config"
	"github.com/rustyeddy/ladder/feed"
	"github.com/rustyeddy/ladder/journal"
	"github.com/spf13/cobra"
)

// runFlags are the config overrides shared by backtest, sweep and fetch.
type runFlags struct {
	symbol      string
	start       string
	end         string
	interval    string
	capital     float64
	invest      float64
	increment   float64
	buyTime     string
	windowStart string
	windowEnd   string
	trend       bool
	trendSymbol string
	trendPeriod int
	source      string
	dataDir     string
	feed        string
	journal     string
	trades      string
	values      string
	db          string
}

func (f *runFlags) register(c *cobra.Command) {
	fl := c.Flags()
	fl.StringVarP(&f.symbol, "symbol", "s", "", "symbol to trade (default TQQQ)")
	fl.StringVar(&f.start, "start", "", "first date YYYY-MM-DD")
	fl.StringVar(&f.end, "end", "", "end date YYYY-MM-DD, exclusive (default today)")
	fl.StringVarP(&f.interval, "interval", "i", "", "bar interval: 1m 2m 5m 15m 30m 1h 1d (default picked from the range)")
	fl.Float64Var(&f.capital, "capital", 0, "initial capital")
	fl.Float64Var(&f.invest, "invest", 0, "dollars invested per buy")
	fl.Float64Var(&f.increment, "increment", 0, "price step between ladder rungs")
	fl.StringVar(&f.buyTime, "buy-time", "", "buy time HH:MM")
	fl.StringVar(&f.windowStart, "window-start", "", "explicit buy window start HH:MM")
	fl.StringVar(&f.windowEnd, "window-end", "", "explicit buy window end HH:MM")
	fl.BoolVar(&f.trend, "trend", true, "only buy when the trend symbol closed above its SMA")
	fl.StringVar(&f.trendSymbol, "trend-symbol", "", "trend filter reference symbol (default QQQ)")
	fl.IntVar(&f.trendPeriod, "trend-period", 0, "trend filter SMA period (default 50)")
	fl.StringVar(&f.source, "source", "", "bar source: csv or alpaca")
	fl.StringVar(&f.dataDir, "data-dir", "", "directory of <SYMBOL>_<interval>.csv files")
	fl.StringVar(&f.feed, "feed", "", "alpaca data feed: iex or sip")
	fl.StringVar(&f.journal, "journal", "", "journal type: none, csv or sqlite")
	fl.StringVar(&f.trades, "trades", "", "csv journal trades file")
	fl.StringVar(&f.values, "values", "", "csv journal daily values file")
	fl.StringVar(&f.db, "db", "", "sqlite journal path")
}

// apply copies every flag the user set onto cfg.
func (f *runFlags) apply(c *cobra.Command, cfg *config.Config) {
	set := c.Flags().Changed
	str := func(name, v string, dst *string) {
		if set(name) {
			*dst = v
		}
	}
	num := func(name string, v float64, dst *float64) {
		if set(name) {
			*dst = v
		}
	}

	str("symbol", strings.ToUpper(f.symbol), &cfg.Symbol)
	str("start", f.start, &cfg.Start)
	str("end", f.end, &cfg.End)
	str("interval", f.interval, &cfg.Interval)
	num("capital", f.capital, &cfg.Account.InitialCapital)
	num("invest", f.invest, &cfg.Strategy.InvestmentPerBuy)
	num("increment", f.increment, &cfg.Strategy.PriceIncrement)
	str("buy-time", f.buyTime, &cfg.Strategy.BuyTime)
	str("window-start", f.windowStart, &cfg.Strategy.BuyWindowStart)
	str("window-end", f.windowEnd, &cfg.Strategy.BuyWindowEnd)
	if set("trend") {
		cfg.Trend.Enabled = f.trend
	}
	str("trend-symbol", strings.ToUpper(f.trendSymbol), &cfg.Trend.Symbol)
	if set("trend-period") {
		cfg.Trend.Period = f.trendPeriod
	}
	str("source", f.source, &cfg.Data.Source)
	str("data-dir", f.dataDir, &cfg.Data.Dir)
	str("feed", f.feed, &cfg.Data.Feed)
	str("journal", f.journal, &cfg.Journal.Type)
	str("trades", f.trades, &cfg.Journal.TradesFile)
	str("values", f.values, &cfg.Journal.ValuesFile)
	str("db", f.db, &cfg.Journal.DBPath)

	// a journal path flag alone implies its journal type
	if !set("journal") {
		switch {
		case set("db"):
			cfg.Journal.Type = "sqlite"
		case set("trades"):
			cfg.Journal.Type = "csv"
		}
	}
}

// loadConfig reads --config, or the defaults, and applies f on top.
func loadConfig(c *cobra.Command, f *runFlags) (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	f.apply(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSource(cfg *config.Config) (feed.Source, error) {
	switch cfg.Data.Source {
	case "alpaca":
		src, err := feed.NewAlpacaSourceFromEnv()
		if err != nil {
			return nil, err
		}
		if cfg.Data.Feed != "" {
			src.Feed = marketdata.Feed(cfg.Data.Feed)
		}
		return src, nil
	case "csv":
		return feed.CSVSource{Dir: cfg.Data.Dir}, nil
	}
	return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.ValuesFile)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, err
		}
		return j, nil
	}
	return journal.Nop{}, nil
}
