// Package backtest runs the ladder engine over fetched data and turns the
// finished portfolio into a report.
package backtest

import (
	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/sim"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MonthlyReturn is one row of the month-by-month table.
type MonthlyReturn struct {
	Month      string
	StartValue float64
	EndValue   float64
	Return     float64
	ReturnPct  float64
}

// BuyAndHold is the passive comparison: all capital into fractional shares
// at the first close, held to the last close.
type BuyAndHold struct {
	FirstPrice float64
	LastPrice  float64
	Shares     float64
	Value      float64
	Return     float64
	ReturnPct  float64
}

// SellStats summarizes executed sells. Profit prices each sell against the
// most recent BUY at or before it; RealizedProfit uses the rung's own buy
// price.
type SellStats struct {
	Sells          int
	Wins           int
	Losses         int
	TotalProfit    float64
	AverageProfit  float64
	WinRate        float64
	RealizedProfit float64
}

// PendingSummary describes rungs still open at the end of the run.
type PendingSummary struct {
	Orders        int
	Shares        int64
	AverageTarget float64
}

// Report is the result of Analyze.
type Report struct {
	InitialCapital float64
	FinalPrice     float64
	FinalValue     float64
	TotalReturn    float64
	ReturnPct      float64
	Cash           float64
	Shares         int64
	SharesValue    float64

	BuyAndHold      BuyAndHold
	ExcessReturn    float64
	ExcessReturnPct float64

	Buys    int
	Sells   int
	Skipped sim.Skips

	Pending   PendingSummary
	Monthly   []MonthlyReturn
	SellStats SellStats
}

// Analyze computes the report for a finished run. bars is the sequence the
// run replayed; its first and last closes price the buy-and-hold comparison
// and the final mark.
func Analyze(pf sim.Portfolio, bars []market.Bar, initialCapital float64) Report {
	capital := decimal.NewFromFloat(initialCapital)
	r := Report{
		InitialCapital: initialCapital,
		Cash:           pf.Cash.InexactFloat64(),
		Shares:         pf.Shares,
		Skipped:        pf.Skipped,
	}

	var first, last decimal.Decimal
	if len(bars) > 0 {
		first = decimal.NewFromFloat(bars[0].Close)
		last = decimal.NewFromFloat(bars[len(bars)-1].Close)
	}
	final := pf.Value(last)
	ret := final.Sub(capital)

	r.FinalPrice = last.InexactFloat64()
	r.FinalValue = final.InexactFloat64()
	r.TotalReturn = ret.InexactFloat64()
	r.ReturnPct = pct(ret, capital)
	r.SharesValue = last.Mul(decimal.NewFromInt(pf.Shares)).InexactFloat64()

	r.BuyAndHold = buyAndHold(capital, first, last)
	r.ExcessReturn = r.TotalReturn - r.BuyAndHold.Return
	r.ExcessReturnPct = r.ReturnPct - r.BuyAndHold.ReturnPct

	r.Buys = len(pf.Trades(sim.Buy))
	r.Sells = len(pf.Trades(sim.Sell))
	r.Pending = pending(pf.Pending)
	r.Monthly = Monthly(pf.Values, capital)
	r.SellStats = sellStats(pf.History)
	return r
}

func pct(num, den decimal.Decimal) float64 {
	if !den.IsPositive() {
		return 0
	}
	return num.Div(den).Mul(hundred).InexactFloat64()
}

func buyAndHold(capital, first, last decimal.Decimal) BuyAndHold {
	bh := BuyAndHold{FirstPrice: first.InexactFloat64(), LastPrice: last.InexactFloat64()}
	if !first.IsPositive() {
		bh.Value = capital.InexactFloat64()
		return bh
	}
	shares := capital.Div(first)
	value := shares.Mul(last)
	ret := value.Sub(capital)

	bh.Shares = shares.InexactFloat64()
	bh.Value = value.InexactFloat64()
	bh.Return = ret.InexactFloat64()
	bh.ReturnPct = pct(ret, capital)
	return bh
}

func pending(orders []sim.SellOrder) PendingSummary {
	ps := PendingSummary{Orders: len(orders)}
	if len(orders) == 0 {
		return ps
	}
	sum := decimal.Zero
	for _, o := range orders {
		ps.Shares += o.Shares
		sum = sum.Add(o.TargetPrice)
	}
	ps.AverageTarget = sum.Div(decimal.NewFromInt(int64(len(orders)))).InexactFloat64()
	return ps
}

// Monthly groups daily values by calendar month. Each month starts at the
// previous month's last value; the first starts at capital.
func Monthly(values []sim.DailyValue, capital decimal.Decimal) []MonthlyReturn {
	var out []MonthlyReturn
	start := capital
	for i := 0; i < len(values); {
		key := values[i].Date.MonthKey()
		j := i
		for j < len(values) && values[j].Date.MonthKey() == key {
			j++
		}
		end := values[j-1].Value
		ret := end.Sub(start)
		out = append(out, MonthlyReturn{
			Month:      key,
			StartValue: start.InexactFloat64(),
			EndValue:   end.InexactFloat64(),
			Return:     ret.InexactFloat64(),
			ReturnPct:  pct(ret, start),
		})
		start = end
		i = j
	}
	return out
}

// sellStats walks the history once, tracking the latest BUY price seen.
// History is in execution order, so that BUY is the most recent one at or
// before each SELL.
func sellStats(history []sim.Trade) SellStats {
	var s SellStats
	lastBuy := decimal.Zero
	total, realized := decimal.Zero, decimal.Zero
	for _, t := range history {
		if t.Kind == sim.Buy {
			lastBuy = t.Price
			continue
		}
		profit := t.Price.Sub(lastBuy).Mul(decimal.NewFromInt(t.Shares))
		total = total.Add(profit)
		realized = realized.Add(t.Profit())
		s.Sells++
		switch {
		case profit.IsPositive():
			s.Wins++
		case profit.IsNegative():
			s.Losses++
		}
	}
	if s.Sells == 0 {
		return s
	}
	n := decimal.NewFromInt(int64(s.Sells))
	s.TotalProfit = total.InexactFloat64()
	s.AverageProfit = total.Div(n).InexactFloat64()
	s.WinRate = decimal.NewFromInt(int64(s.Wins)).Div(n).Mul(hundred).InexactFloat64()
	s.RealizedProfit = realized.InexactFloat64()
	return s
}
