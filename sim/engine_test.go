package sim

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/trend"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ny = market.Exchange()

// at returns an exchange-time timestamp on day (2025-01-06 is a Monday).
func at(day, hour, minute int) time.Time {
	return time.Date(2025, 1, day, hour, minute, 0, 0, ny)
}

func bar(ts time.Time, closePx, high float64) market.Bar {
	return market.Bar{Time: ts, Open: closePx, High: high, Low: closePx, Close: closePx}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intradayConfig(capital, invest float64) Config {
	return Config{
		InitialCapital:   capital,
		InvestmentPerBuy: invest,
		PriceIncrement:   1,
		Interval:         market.Minute5,
		BuyWindow:        DefaultBuyWindow,
	}
}

func newEngine(t *testing.T, cfg Config, filter trend.Filter, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, filter, opts...)
	require.NoError(t, err)
	return e
}

func step(t *testing.T, e *Engine, bars ...market.Bar) {
	t.Helper()
	for _, b := range bars {
		require.NoError(t, e.Step(b))
	}
}

type recorder struct {
	trades []Trade
	skips  []RejectReason
	values []decimal.Decimal
}

func (r *recorder) OnTrade(t Trade)                             { r.trades = append(r.trades, t) }
func (r *recorder) OnSkip(_ market.Date, reason RejectReason)   { r.skips = append(r.skips, reason) }
func (r *recorder) OnValue(_ market.Date, value decimal.Decimal) { r.values = append(r.values, value) }

func TestLadderScenario(t *testing.T) {
	t.Parallel()

	e := newEngine(t, intradayConfig(20_000, 2_000), nil)
	step(t, e, bar(at(6, 10, 0), 100, 100))

	pf := e.Portfolio()
	require.Len(t, pf.History, 1)
	buy := pf.History[0]
	assert.Equal(t, Buy, buy.Kind)
	assert.Equal(t, int64(20), buy.Shares)
	assert.True(t, dec("2000").Equal(buy.Amount))
	assert.True(t, dec("18000").Equal(pf.Cash))
	assert.Equal(t, int64(20), pf.Shares)

	require.Len(t, pf.Pending, Rungs)
	for i, o := range pf.Pending {
		assert.Equal(t, int64(2), o.Shares)
		assert.True(t, decimal.NewFromInt(int64(101+i)).Equal(o.TargetPrice), "rung %d", i)
		assert.True(t, dec("100").Equal(o.BuyPrice))
	}
	assert.Equal(t, Bought, e.DayState(market.DateOf(at(6, 10, 0))))

	// a high of 103 would also fill the 103 rung (high >= target)
	step(t, e, bar(at(6, 10, 5), 102, 102.5))

	pf = e.Portfolio()
	assert.True(t, dec("18406").Equal(pf.Cash), "cash %s", pf.Cash)
	assert.Equal(t, int64(16), pf.Shares)
	assert.Len(t, pf.Pending, 8)

	sells := pf.Trades(Sell)
	require.Len(t, sells, 2)
	assert.True(t, dec("101").Equal(sells[0].Price))
	assert.True(t, dec("102").Equal(sells[1].Price))
	assert.True(t, dec("202").Equal(sells[0].Amount))
	assert.True(t, dec("100").Equal(sells[1].BuyPrice))
}

func TestSameBarBuyDoesNotSell(t *testing.T) {
	t.Parallel()

	e := newEngine(t, intradayConfig(20_000, 2_000), nil)
	// high far above every rung, but the rungs do not exist when the high is read
	step(t, e, bar(at(6, 10, 0), 100, 150))
	pf := e.Portfolio()
	assert.Len(t, pf.Pending, Rungs)
	assert.Empty(t, pf.Trades(Sell))

	step(t, e, bar(at(6, 10, 5), 100, 150))
	assert.Empty(t, e.Portfolio().Pending)
	assert.True(t, dec("20110").Equal(e.Portfolio().Cash))
}

func TestHighClearsThreeRungs(t *testing.T) {
	t.Parallel()

	e := newEngine(t, intradayConfig(20_000, 2_000), nil)
	step(t, e, bar(at(6, 10, 0), 100, 100))
	sellAt := at(6, 10, 30)
	step(t, e, bar(sellAt, 100, 103)) // target 103 fills at a high of exactly 103

	pf := e.Portfolio()
	assert.Len(t, pf.Pending, Rungs-3)
	sells := pf.Trades(Sell)
	require.Len(t, sells, 3)
	for _, s := range sells {
		assert.Equal(t, sellAt, s.Time)
	}
}

func TestNineSharesRejected(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	e := newEngine(t, intradayConfig(20_000, 2_000), nil, WithObserver(rec))
	// 2000 / 200.01 = 9.99 shares
	step(t, e,
		bar(at(6, 10, 0), 200.01, 200.01),
		bar(at(6, 10, 5), 150, 150), // price drop does not trigger a retry
	)

	pf := e.Portfolio()
	assert.Empty(t, pf.History)
	assert.Empty(t, pf.Pending)
	assert.True(t, dec("20000").Equal(pf.Cash))
	assert.Equal(t, 1, pf.Skipped.Shares)
	assert.Equal(t, 0, pf.Skipped.Cash)
	assert.Equal(t, Rejected, e.DayState(market.DateOf(at(6, 10, 0))))
	assert.Equal(t, []RejectReason{RejectShares}, rec.skips)
}

func TestTrendFilterRejectsForTheDay(t *testing.T) {
	t.Parallel()

	bearish := trend.Func(func(d market.Date) bool { return d != market.DateOf(at(6, 0, 0)) })
	cfg := intradayConfig(20_000, 2_000)
	cfg.TrendFilter = true
	e := newEngine(t, cfg, bearish)

	step(t, e,
		bar(at(6, 10, 0), 100, 100),
		bar(at(6, 10, 5), 100, 100),
		bar(at(7, 10, 0), 100, 100),
	)

	pf := e.Portfolio()
	assert.Equal(t, 1, pf.Skipped.Trend)
	buys := pf.Trades(Buy)
	require.Len(t, buys, 1)
	assert.Equal(t, at(7, 10, 0), buys[0].Time)
	assert.Equal(t, Rejected, e.DayState(market.DateOf(at(6, 0, 0))))
}

func TestTrendFilterDisabled(t *testing.T) {
	t.Parallel()

	never := trend.Func(func(market.Date) bool { return false })
	e := newEngine(t, intradayConfig(20_000, 2_000), never)

	for d := 6; d <= 10; d++ {
		step(t, e, bar(at(d, 10, 0), 100, 100))
	}
	pf := e.Portfolio()
	assert.Len(t, pf.Trades(Buy), 5)
	assert.Zero(t, pf.Skipped.Trend)
}

func TestTrendFilterRequired(t *testing.T) {
	t.Parallel()

	cfg := intradayConfig(20_000, 2_000)
	cfg.TrendFilter = true
	_, err := NewEngine(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestInsufficientCashRetriesSameDay(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := newEngine(t, intradayConfig(3_500, 2_000), nil, WithLogger(log.New(&buf, "", 0)))

	// day 1 leaves 1500 in cash
	step(t, e, bar(at(6, 10, 0), 100, 100))
	require.True(t, dec("1500").Equal(e.Portfolio().Cash))

	day2 := market.DateOf(at(7, 0, 0))
	step(t, e, bar(at(7, 10, 0), 100, 100))
	assert.Equal(t, NotAttempted, e.DayState(day2))
	assert.Equal(t, 1, e.Portfolio().Skipped.Cash)

	// still short when this bar's buy check runs; rungs 101..105 fill afterwards
	step(t, e, bar(at(7, 10, 5), 100, 105))
	pf := e.Portfolio()
	assert.True(t, dec("2530").Equal(pf.Cash), "cash %s", pf.Cash)
	assert.Equal(t, 1, pf.Skipped.Cash, "counted once per day")
	assert.Equal(t, NotAttempted, e.DayState(day2))

	step(t, e, bar(at(7, 10, 10), 100, 100))
	pf = e.Portfolio()
	assert.Equal(t, Bought, e.DayState(day2))
	assert.Len(t, pf.Trades(Buy), 2)
	assert.True(t, dec("530").Equal(pf.Cash))

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("SKIPPED - Insufficient cash")))
}

func TestOneBuyPerDay(t *testing.T) {
	t.Parallel()

	e := newEngine(t, intradayConfig(1_000_000, 2_000), nil)
	for d := 6; d <= 10; d++ {
		for m := 0; m < 60; m += 5 {
			step(t, e, bar(at(d, 10, m), 100, 100))
		}
	}

	perDay := map[market.Date]int{}
	pf := e.Portfolio()
	for _, tr := range pf.Trades(Buy) {
		perDay[market.DateOf(tr.Time.In(ny))]++
	}
	assert.Len(t, perDay, 5)
	for d, n := range perDay {
		assert.Equal(t, 1, n, "date %s", d)
	}
}

func TestBuyWindowBounds(t *testing.T) {
	t.Parallel()

	e := newEngine(t, intradayConfig(20_000, 2_000), nil)
	step(t, e,
		bar(at(6, 9, 55), 100, 100),
		bar(at(6, 11, 0), 100, 100),
	)
	assert.Empty(t, e.Portfolio().History)

	step(t, e, bar(at(7, 10, 55), 100, 100))
	assert.Len(t, e.Portfolio().History, 1)
}

func TestOutsideSessionIgnored(t *testing.T) {
	t.Parallel()

	e := newEngine(t, intradayConfig(20_000, 2_000), nil)
	step(t, e, bar(at(6, 10, 0), 100, 100))

	step(t, e,
		bar(at(6, 16, 30), 200, 200), // after hours
		bar(at(11, 12, 0), 200, 200), // saturday
	)
	pf := e.Portfolio()
	assert.Len(t, pf.Pending, Rungs)
	assert.Equal(t, int64(20), pf.Shares)

	step(t, e, bar(at(13, 9, 30), 100, 200))
	assert.Empty(t, e.Portfolio().Pending)
}

func TestIntradayValuation(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	e := newEngine(t, intradayConfig(20_000, 2_000), nil, WithObserver(rec))
	step(t, e,
		bar(at(6, 10, 0), 100, 100),
		bar(at(6, 15, 25), 100, 100),
		bar(at(6, 15, 30), 99, 99),
		bar(at(6, 15, 55), 90, 90),
	)

	pf := e.Portfolio()
	require.Len(t, pf.Values, 1)
	v, ok := pf.ValueOn(market.DateOf(at(6, 0, 0)))
	require.True(t, ok)
	// 18000 cash + 20 * 99
	assert.True(t, dec("19980").Equal(v), "value %s", v)
	assert.Len(t, rec.values, 1)
	assert.Len(t, rec.trades, 1)
}

func TestDailyBars(t *testing.T) {
	t.Parallel()

	cfg := intradayConfig(20_000, 2_000)
	cfg.Interval = market.Day1
	cfg.BuyWindow = MarketOpenWindow
	e := newEngine(t, cfg, nil)

	bars := []market.Bar{
		bar(at(6, 0, 0), 100, 100),
		bar(at(7, 0, 0), 101, 102.5),
		bar(at(11, 0, 0), 150, 150), // saturday
		bar(at(13, 0, 0), 100, 100),
	}
	require.NoError(t, e.Run(bars))

	pf := e.Portfolio()
	assert.Len(t, pf.Trades(Buy), 3)
	// day 2's buy at 101 happens before the 102.5 high clears 101 and 102 of day 1
	assert.Len(t, pf.Trades(Sell), 2)
	assert.Len(t, pf.Values, 3)
	_, ok := pf.ValueOn(market.DateOf(at(11, 0, 0)))
	assert.False(t, ok)
}

func TestCashNeverNegative(t *testing.T) {
	t.Parallel()

	e := newEngine(t, intradayConfig(5_000, 2_000), nil)
	prices := []float64{100, 97, 104, 90, 88, 95, 110, 60, 61, 58, 120, 119, 70}
	for d := 0; d < 20; d++ {
		day := 6 + d
		if wd := at(day, 0, 0).Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for i, m := range []int{0, 15, 30, 45} {
			p := prices[(d*4+i)%len(prices)]
			step(t, e, bar(at(day, 10, m), p, p+3))
			pf := e.Portfolio()
			assert.False(t, pf.Cash.IsNegative(), "cash %s on day %d", pf.Cash, day)
			assert.GreaterOrEqual(t, pf.Shares, int64(0))
			assert.Equal(t, pf.Shares, pf.PendingShares(), "every held share sits on a rung")
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	var bars []market.Bar
	prices := []float64{50, 52.25, 49.5, 55, 57.75, 53, 60.1}
	for d := 6; d <= 31; d++ {
		for i, h := range []int{10, 12, 15} {
			p := prices[(d+i)%len(prices)]
			bars = append(bars, bar(at(d, h, 30), p, p+2.5))
		}
	}

	cfg := intradayConfig(20_000, 2_000)
	cfg.Interval = market.Hour1
	cfg.BuyWindow = BuyWindowAt(market.Clock{Hour: 10}, market.Hour1)
	cfg.PriceIncrement = 0.5

	e := newEngine(t, cfg, nil)
	require.NoError(t, e.Run(bars))
	first := e.Portfolio()

	require.NoError(t, e.Run(bars))
	second := e.Portfolio()

	other := newEngine(t, cfg, nil)
	require.NoError(t, other.Run(bars))
	third := other.Portfolio()

	assert.NotEmpty(t, first.History)
	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

func TestRunRejectsOutOfOrderBars(t *testing.T) {
	t.Parallel()

	e := newEngine(t, intradayConfig(20_000, 2_000), nil)
	step(t, e, bar(at(6, 10, 0), 100, 100))

	err := e.Run([]market.Bar{
		bar(at(7, 10, 0), 100, 100),
		bar(at(6, 10, 0), 100, 100),
	})
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Len(t, e.Portfolio().History, 1, "state untouched")

	err = e.Step(bar(at(6, 9, 0), 100, 100))
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestSnapshotIsolated(t *testing.T) {
	t.Parallel()

	e := newEngine(t, intradayConfig(20_000, 2_000), nil)
	step(t, e, bar(at(6, 10, 0), 100, 100))

	snap := e.Portfolio()
	snap.Pending[0].Shares = 999
	snap.History = nil
	assert.Equal(t, int64(2), e.Portfolio().Pending[0].Shares)
	assert.Len(t, e.Portfolio().History, 1)
}

func TestDailyBarsStampedAtUTCMidnight(t *testing.T) {
	t.Parallel()

	cfg := intradayConfig(20_000, 2_000)
	cfg.Interval = market.Day1
	cfg.BuyWindow = MarketOpenWindow
	e := newEngine(t, cfg, nil)

	utc := func(day int) time.Time { return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, e.Run([]market.Bar{
		bar(utc(6), 100, 100),
		bar(utc(7), 100, 100),
		bar(utc(8), 100, 100),
	}))

	pf := e.Portfolio()
	buys := pf.Trades(Buy)
	require.Len(t, buys, 3, "monday is not lost to a sunday stamp")
	for i, b := range buys {
		assert.Equal(t, market.Date{Year: 2025, Month: 1, Day: 6 + i}, market.DateOf(b.Time))
	}
	require.Len(t, pf.Values, 3)
	assert.Equal(t, market.Date{Year: 2025, Month: 1, Day: 6}, pf.Values[0].Date)
	assert.Equal(t, Bought, e.DayState(market.Date{Year: 2025, Month: 1, Day: 8}))
}

func TestSnapshotReadersOnValue(t *testing.T) {
	t.Parallel()

	e := newEngine(t, intradayConfig(20_000, 2_000), nil)
	step(t, e, bar(at(6, 10, 0), 100, 100), bar(at(6, 10, 5), 101, 101))

	assert.Len(t, e.Portfolio().Trades(Buy), 1)
	assert.Len(t, e.Portfolio().Trades(Sell), 1)
	assert.Equal(t, int64(18), e.Portfolio().PendingShares())
}
