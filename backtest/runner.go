package backtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/rustyeddy/ladder/feed"
	"github.com/rustyeddy/ladder/internal/id"
	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/sim"
	"github.com/rustyeddy/ladder/trend"
)

// TrendLookbackDays is how far before the run start the reference series is
// fetched so its moving average is warm on day one.
const TrendLookbackDays = 100

// Params describes one backtest.
type Params struct {
	Symbol   string
	Start    market.Date
	End      market.Date
	Interval market.Interval // empty picks one from the date range

	Engine sim.Config

	// BuyTime, when set, derives the buy window from the interval actually
	// served with sim.BuyWindowAt. Otherwise Engine.BuyWindow is used.
	BuyTime *market.Clock

	TrendSymbol string
	TrendPeriod int
}

func (p Params) validate() error {
	if p.Symbol == "" {
		return errors.New("backtest: Symbol is required")
	}
	if p.Start.IsZero() {
		return errors.New("backtest: Start is required")
	}
	if p.Interval != "" && !p.Interval.Valid() {
		return fmt.Errorf("backtest: unknown interval %q", p.Interval)
	}
	if p.Engine.TrendFilter && p.TrendSymbol == "" {
		return errors.New("backtest: TrendSymbol is required when the trend filter is on")
	}

	// money checks only; the window is checked once the interval is known
	early := p.Engine
	early.Interval = market.Day1
	return early.Validate()
}

// Dataset is everything a run needs, fetched once.
type Dataset struct {
	Symbol   string
	Bars     []market.Bar
	Interval market.Interval
	Start    market.Date
	End      market.Date
	Clamped  bool
	FellBack bool

	Filter trend.Filter
}

// Runner fetches data and runs the engine over it.
type Runner struct {
	Fetcher  *feed.Fetcher
	Logger   *log.Logger // progress lines
	TradeLog *log.Logger // per-trade engine lines
	Observer sim.Observer
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

// Result is a finished run.
type Result struct {
	RunID    string
	Created  time.Time
	Symbol   string
	Interval market.Interval
	Start    market.Date
	End      market.Date
	FellBack bool
	Clamped  bool

	Config    sim.Config
	Portfolio sim.Portfolio
	Report    Report
}

// Prepare fetches the trend reference series and the bars for p.
func (r *Runner) Prepare(ctx context.Context, p Params) (*Dataset, error) {
	if r.Fetcher == nil {
		return nil, errors.New("backtest: Fetcher is required")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	var filter trend.Filter = trend.Disabled{}
	if p.Engine.TrendFilter {
		period := p.TrendPeriod
		if period <= 0 {
			period = trend.DefaultPeriod
		}
		r.logf("Downloading %s daily data for market filter...", p.TrendSymbol)
		ref, err := r.Fetcher.Fetch(ctx, feed.Request{
			Symbol:   p.TrendSymbol,
			Start:    p.Start.AddDays(-TrendLookbackDays),
			End:      p.End,
			Interval: market.Day1,
		})
		if err != nil {
			return nil, fmt.Errorf("trend reference %s: %w", p.TrendSymbol, err)
		}
		sma, err := trend.NewSMAFilter(ref.Bars, period, p.Engine.Location)
		if err != nil {
			return nil, err
		}
		r.logf("Trend filter: %s > SMA(%d) over %d days", p.TrendSymbol, period, sma.Len())
		filter = sma
	}

	res, err := r.Fetcher.Fetch(ctx, feed.Request{
		Symbol:   p.Symbol,
		Start:    p.Start,
		End:      p.End,
		Interval: p.Interval,
	})
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Symbol:   p.Symbol,
		Bars:     res.Bars,
		Interval: res.Interval,
		Start:    res.Start,
		End:      res.End,
		Clamped:  res.Clamped,
		FellBack: res.FellBack,
		Filter:   filter,
	}, nil
}

// EngineConfig adapts p.Engine to the interval ds was served at.
func EngineConfig(p Params, ds *Dataset) sim.Config {
	cfg := p.Engine
	cfg.Interval = ds.Interval
	switch {
	case ds.Interval.Daily():
		cfg.BuyWindow = sim.MarketOpenWindow
	case p.BuyTime != nil:
		cfg.BuyWindow = sim.BuyWindowAt(*p.BuyTime, ds.Interval)
	case cfg.BuyWindow.MarketOpen:
		cfg.BuyWindow = sim.DefaultBuyWindow
	}
	return cfg
}

// Simulate runs one engine over ds with cfg. It does no I/O beyond logging.
func (r *Runner) Simulate(ds *Dataset, cfg sim.Config) (*Result, error) {
	return simulate(ds, cfg, r.TradeLog, r.Observer)
}

func simulate(ds *Dataset, cfg sim.Config, tradeLog *log.Logger, obs sim.Observer) (*Result, error) {
	if ds == nil || len(ds.Bars) == 0 {
		return nil, fmt.Errorf("backtest: %w", feed.ErrDataUnavailable)
	}
	if tradeLog == nil {
		tradeLog = log.New(io.Discard, "", 0)
	}
	opts := []sim.Option{sim.WithLogger(tradeLog)}
	if obs != nil {
		opts = append(opts, sim.WithObserver(obs))
	}
	e, err := sim.NewEngine(cfg, ds.Filter, opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Run(ds.Bars); err != nil {
		return nil, err
	}

	pf := e.Portfolio()
	return &Result{
		Symbol:    ds.Symbol,
		Interval:  ds.Interval,
		Start:     ds.Start,
		End:       ds.End,
		FellBack:  ds.FellBack,
		Clamped:   ds.Clamped,
		Config:    cfg,
		Portfolio: pf,
		Report:    Analyze(pf, ds.Bars, cfg.InitialCapital),
	}, nil
}

// Run prepares the data, simulates, and stamps the result with a run ID.
func (r *Runner) Run(ctx context.Context, p Params) (*Result, error) {
	ds, err := r.Prepare(ctx, p)
	if err != nil {
		return nil, err
	}
	cfg := EngineConfig(p, ds)
	if ds.FellBack {
		r.logf("Using daily bars; buying at market open")
	}
	r.logf("Running simulation: %s %s, window %s", ds.Symbol, ds.Interval, cfg.BuyWindow)

	res, err := r.Simulate(ds, cfg)
	if err != nil {
		return nil, err
	}
	res.Created = time.Now().UTC()
	res.RunID = id.At(res.Created)
	r.logf("Backtest complete: run %s", res.RunID)
	return res, nil
}
