package sim

import (
	"time"

	"github.com/rustyeddy/ladder/market"
	"github.com/shopspring/decimal"
)

// RejectReason explains why a buy attempt did not execute.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectCash
	RejectTrend
	RejectShares
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectCash:
		return "insufficient_cash"
	case RejectTrend:
		return "trend_filter"
	case RejectShares:
		return "insufficient_shares"
	}
	return "unknown"
}

// Skips counts rejected buy attempts by reason. Each counter moves at most
// once per calendar date.
type Skips struct {
	Cash   int
	Trend  int
	Shares int
}

// Total returns the number of skipped buy days.
func (s Skips) Total() int { return s.Cash + s.Trend + s.Shares }

func (s *Skips) add(r RejectReason) {
	switch r {
	case RejectCash:
		s.Cash++
	case RejectTrend:
		s.Trend++
	case RejectShares:
		s.Shares++
	}
}

// DailyValue is the mark-to-market value recorded for one date.
type DailyValue struct {
	Date  market.Date
	Value decimal.Decimal
}

// Portfolio is the simulation state: cash, share inventory, pending sell
// rungs, executed trades and end-of-day values. Only the Engine mutates it;
// everyone else works on a Snapshot.
type Portfolio struct {
	Cash    decimal.Decimal
	Shares  int64
	Pending []SellOrder
	History []Trade
	Values  []DailyValue
	Skipped Skips

	valueIdx map[market.Date]int
}

// NewPortfolio returns an empty portfolio holding cash.
func NewPortfolio(cash decimal.Decimal) *Portfolio {
	return &Portfolio{
		Cash:     cash,
		valueIdx: make(map[market.Date]int),
	}
}

// Value marks the portfolio to market at price.
func (p *Portfolio) Value(price decimal.Decimal) decimal.Decimal {
	return markToMarket(p.Cash, p.Shares, price)
}

// ValueOn returns the recorded value for a date.
func (p *Portfolio) ValueOn(d market.Date) (decimal.Decimal, bool) {
	if p.valueIdx != nil {
		if i, ok := p.valueIdx[d]; ok {
			return p.Values[i].Value, true
		}
		return decimal.Zero, false
	}
	for _, v := range p.Values {
		if v.Date == d {
			return v.Value, true
		}
	}
	return decimal.Zero, false
}

// PendingShares returns the shares still waiting on sell rungs.
func (p Portfolio) PendingShares() int64 {
	var n int64
	for _, o := range p.Pending {
		n += o.Shares
	}
	return n
}

// Trades returns the trades of one kind in execution order.
func (p Portfolio) Trades(k Kind) []Trade {
	var out []Trade
	for _, t := range p.History {
		if t.Kind == k {
			out = append(out, t)
		}
	}
	return out
}

// Snapshot returns a deep copy that shares no slices with p.
func (p *Portfolio) Snapshot() Portfolio {
	s := Portfolio{
		Cash:     p.Cash,
		Shares:   p.Shares,
		Pending:  append([]SellOrder(nil), p.Pending...),
		History:  append([]Trade(nil), p.History...),
		Values:   append([]DailyValue(nil), p.Values...),
		Skipped:  p.Skipped,
		valueIdx: make(map[market.Date]int, len(p.Values)),
	}
	for i, v := range s.Values {
		s.valueIdx[v.Date] = i
	}
	return s
}

func (p *Portfolio) buy(at time.Time, shares int64, price decimal.Decimal) Trade {
	cost := price.Mul(decimal.NewFromInt(shares))
	p.Cash = p.Cash.Sub(cost)
	p.Shares += shares

	t := Trade{
		Kind:     Buy,
		Time:     at,
		Shares:   shares,
		Price:    price,
		Amount:   cost,
		BuyPrice: price,
	}
	p.History = append(p.History, t)
	return t
}

func (p *Portfolio) fill(at time.Time, o SellOrder) Trade {
	proceeds := o.TargetPrice.Mul(decimal.NewFromInt(o.Shares))
	p.Cash = p.Cash.Add(proceeds)
	p.Shares -= o.Shares

	t := Trade{
		Kind:     Sell,
		Time:     at,
		Shares:   o.Shares,
		Price:    o.TargetPrice,
		Amount:   proceeds,
		BuyPrice: o.BuyPrice,
	}
	p.History = append(p.History, t)
	return t
}

// recordValue stores v for d unless d already has a value.
func (p *Portfolio) recordValue(d market.Date, v decimal.Decimal) bool {
	if p.valueIdx == nil {
		p.valueIdx = make(map[market.Date]int)
	}
	if _, ok := p.valueIdx[d]; ok {
		return false
	}
	p.valueIdx[d] = len(p.Values)
	p.Values = append(p.Values, DailyValue{Date: d, Value: v})
	return true
}
