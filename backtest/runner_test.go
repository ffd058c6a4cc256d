package backtest

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/ladder/feed"
	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sessionBars builds bars every step from the open to the close for each
// weekday in [start, end).
func sessionBars(start, end market.Date, step time.Duration) []market.Bar {
	ny := market.Exchange()
	var bars []market.Bar
	k := 0
	for dd := start; dd.Before(end); dd = dd.AddDays(1) {
		open := dd.In(ny).Add(9*time.Hour + 30*time.Minute)
		if !market.IsWeekday(open) {
			continue
		}
		for t := open; !t.After(dd.In(ny).Add(16 * time.Hour)); t = t.Add(step) {
			c := 100 + 4*math.Sin(float64(k)/9)
			bars = append(bars, market.Bar{Time: t, Open: c, High: c + 1.25, Low: c - 1.25, Close: c})
			k++
		}
	}
	return bars
}

func dailyBars(start, end market.Date) []market.Bar {
	ny := market.Exchange()
	var bars []market.Bar
	for dd, k := start, 0; dd.Before(end); dd, k = dd.AddDays(1), k+1 {
		t := dd.In(ny)
		if !market.IsWeekday(t) {
			continue
		}
		c := 50 + float64(k%7)
		bars = append(bars, market.Bar{Time: t, Open: c, High: c + 2, Low: c - 2, Close: c})
	}
	return bars
}

func day(y int, m time.Month, dd int) market.Date { return market.Date{Year: y, Month: m, Day: dd} }

// testSource serves generated bars and can refuse intraday or a symbol.
type testSource struct {
	noIntraday bool
	empty      map[string]bool
}

func (s testSource) Bars(_ context.Context, req feed.Request) ([]market.Bar, error) {
	if s.empty[req.Symbol] {
		return nil, nil
	}
	if req.Interval.Daily() {
		return dailyBars(req.Start, req.End), nil
	}
	if s.noIntraday {
		return nil, errors.New("intraday unavailable")
	}
	return sessionBars(req.Start, req.End, req.Interval.Duration()), nil
}

func baseParams() Params {
	cfg := sim.DefaultConfig()
	cfg.TrendFilter = false
	return Params{
		Symbol:   "TQQQ",
		Start:    day(2025, 1, 6),
		End:      day(2025, 1, 18),
		Interval: market.Minute5,
		Engine:   cfg,
	}
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	var progress, trades bytes.Buffer
	r := &Runner{
		Fetcher:  feed.NewFetcher(testSource{}, nil),
		Logger:   log.New(&progress, "", 0),
		TradeLog: log.New(&trades, "", 0),
	}
	p := baseParams()
	clock := market.Clock{Hour: 10}
	p.BuyTime = &clock

	res, err := r.Run(context.Background(), p)
	require.NoError(t, err)

	assert.Len(t, res.RunID, 26)
	assert.False(t, res.Created.IsZero())
	assert.Equal(t, market.Minute5, res.Interval)
	assert.Equal(t, sim.BuyWindow{Start: clock, End: market.Clock{Hour: 10, Minute: 30}}, res.Config.BuyWindow)
	assert.Equal(t, 10, res.Report.Buys, "one buy per weekday")
	assert.NotEmpty(t, res.Portfolio.Values)
	assert.Contains(t, progress.String(), "Backtest complete")
	assert.Contains(t, trades.String(), "BUY  2025-01-06 10:00:00")
}

func TestRunnerFallsBackToDaily(t *testing.T) {
	t.Parallel()

	r := &Runner{Fetcher: feed.NewFetcher(testSource{noIntraday: true}, nil)}
	res, err := r.Run(context.Background(), baseParams())
	require.NoError(t, err)

	assert.True(t, res.FellBack)
	assert.Equal(t, market.Day1, res.Interval)
	assert.Equal(t, market.Day1, res.Config.Interval)
	assert.True(t, res.Config.BuyWindow.MarketOpen)
	assert.Equal(t, 10, res.Report.Buys)
}

func TestRunnerTrendFilter(t *testing.T) {
	t.Parallel()

	p := baseParams()
	p.Engine.TrendFilter = true
	p.TrendSymbol = "QQQ"
	p.TrendPeriod = 5

	r := &Runner{Fetcher: feed.NewFetcher(testSource{}, nil)}
	ds, err := r.Prepare(context.Background(), p)
	require.NoError(t, err)
	assert.NotNil(t, ds.Filter)

	res, err := r.Simulate(ds, EngineConfig(p, ds))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Report.Buys+res.Report.Skipped.Trend)

	r = &Runner{Fetcher: feed.NewFetcher(testSource{empty: map[string]bool{"QQQ": true}}, nil)}
	_, err = r.Prepare(context.Background(), p)
	assert.ErrorIs(t, err, feed.ErrDataUnavailable)
}

func TestRunnerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Params)
		errMsg string
	}{
		{"missing symbol", func(p *Params) { p.Symbol = "" }, "Symbol is required"},
		{"missing start", func(p *Params) { p.Start = market.Date{} }, "Start is required"},
		{"bad interval", func(p *Params) { p.Interval = "7m" }, "unknown interval"},
		{"trend without symbol", func(p *Params) { p.Engine.TrendFilter = true }, "TrendSymbol is required"},
		{"investment over capital", func(p *Params) { p.Engine.InvestmentPerBuy = 1e9 }, "exceeds initial capital"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := baseParams()
			tt.mutate(&p)
			r := &Runner{Fetcher: feed.NewFetcher(testSource{}, nil)}
			_, err := r.Run(context.Background(), p)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}

	_, err := (&Runner{}).Run(context.Background(), baseParams())
	assert.ErrorContains(t, err, "Fetcher is required")
}

func TestEngineConfig(t *testing.T) {
	t.Parallel()

	p := baseParams()
	ds := &Dataset{Interval: market.Hour1}
	cfg := EngineConfig(p, ds)
	assert.Equal(t, market.Hour1, cfg.Interval)
	assert.Equal(t, p.Engine.BuyWindow, cfg.BuyWindow)

	p.Engine.BuyWindow = sim.MarketOpenWindow
	assert.Equal(t, sim.DefaultBuyWindow, EngineConfig(p, ds).BuyWindow)

	ds.Interval = market.Day1
	assert.True(t, EngineConfig(p, ds).BuyWindow.MarketOpen)
}

func TestSimulateNeedsBars(t *testing.T) {
	t.Parallel()

	_, err := (&Runner{}).Simulate(&Dataset{}, sim.DefaultConfig())
	assert.ErrorIs(t, err, feed.ErrDataUnavailable)
}
