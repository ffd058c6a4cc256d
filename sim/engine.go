package sim

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/trend"
	"github.com/shopspring/decimal"
)

// ErrOutOfOrder is returned when a bar is older than the one before it.
var ErrOutOfOrder = errors.New("bars out of chronological order")

// DayState tracks the buy attempt for one calendar date.
type DayState int

const (
	NotAttempted DayState = iota
	Bought
	Rejected
)

func (s DayState) String() string {
	switch s {
	case NotAttempted:
		return "not_attempted"
	case Bought:
		return "bought"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Observer is notified of engine events as they happen. Implementations must
// be cheap and must not touch the engine.
type Observer interface {
	OnTrade(t Trade)
	OnSkip(d market.Date, reason RejectReason)
	OnValue(d market.Date, value decimal.Decimal)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes BUY/SELL/SKIPPED lines to l.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithObserver attaches an event observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine replays bars against the ladder strategy. Each call to Step is one
// bar: buy attempt, then sell matching, then the daily valuation, always in
// that order. An Engine is not safe for concurrent use; parallel runs each
// need their own.
type Engine struct {
	cfg       Config
	loc       *time.Location
	filter    trend.Filter
	investAmt decimal.Decimal
	increment decimal.Decimal
	log       *log.Logger
	observer  Observer

	pf     *Portfolio
	days   map[market.Date]DayState
	logged map[market.Date]RejectReason
	last   time.Time
	steps  int
}

// NewEngine validates cfg and returns an engine ready for its first bar.
// filter is consulted only when cfg.TrendFilter is set.
func NewEngine(cfg Config, filter trend.Filter, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.TrendFilter {
		filter = trend.Disabled{}
	}
	if filter == nil {
		return nil, fmt.Errorf("%w: trend filter enabled but none provided", ErrInvalidConfig)
	}

	e := &Engine{
		cfg:       cfg,
		loc:       cfg.location(),
		filter:    filter,
		investAmt: decimal.NewFromFloat(cfg.InvestmentPerBuy),
		increment: decimal.NewFromFloat(cfg.PriceIncrement),
		log:       log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e, nil
}

// Reset discards all state and starts a fresh run with the initial capital.
func (e *Engine) Reset() {
	e.pf = NewPortfolio(decimal.NewFromFloat(e.cfg.InitialCapital))
	e.days = make(map[market.Date]DayState)
	e.logged = make(map[market.Date]RejectReason)
	e.last = time.Time{}
	e.steps = 0
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Portfolio returns a snapshot of the current state.
func (e *Engine) Portfolio() Portfolio { return e.pf.Snapshot() }

// DayState returns the buy state recorded for d.
func (e *Engine) DayState(d market.Date) DayState { return e.days[d] }

// Run resets the engine and replays bars in one pass. The sequence is checked
// for ordering before any state changes.
func (e *Engine) Run(bars []market.Bar) error {
	if i, ok := market.Bars(bars).Ordered(); !ok {
		return fmt.Errorf("%w: bar %d at %s precedes %s", ErrOutOfOrder, i,
			bars[i].Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
	}
	e.Reset()
	for _, b := range bars {
		if err := e.Step(b); err != nil {
			return err
		}
	}
	return nil
}

// Step processes one bar.
func (e *Engine) Step(b market.Bar) error {
	if e.steps > 0 && b.Time.Before(e.last) {
		return fmt.Errorf("%w: %s after %s", ErrOutOfOrder,
			b.Time.Format(time.RFC3339), e.last.Format(time.RFC3339))
	}
	e.last = b.Time
	e.steps++

	t := b.Time.In(e.loc)
	if e.cfg.Interval.Daily() {
		t = market.DailyTime(b.Time, e.loc)
	}
	if !e.inSession(t) {
		return nil
	}
	date := market.DateOf(t)
	clock := market.ClockOf(t)
	closePx := decimal.NewFromFloat(b.Close)

	// 1) buy; rungs it creates wait for the next bar
	eligible := len(e.pf.Pending)
	if e.inBuyWindow(clock) && e.days[date] == NotAttempted {
		e.attemptBuy(t, date, closePx)
	}

	// 2) sell rungs reached by this bar's high
	e.matchOrders(t, decimal.NewFromFloat(b.High), eligible)

	// 3) end of day value
	if e.cfg.Interval.Daily() || !clock.Before(ValuationClock) {
		v := e.pf.Value(closePx)
		if e.pf.recordValue(date, v) && e.observer != nil {
			e.observer.OnValue(date, v)
		}
	}
	return nil
}

func (e *Engine) inSession(t time.Time) bool {
	if e.cfg.Interval.Daily() {
		return market.IsWeekday(t)
	}
	return market.InSession(t)
}

func (e *Engine) inBuyWindow(c market.Clock) bool {
	if e.cfg.Interval.Daily() {
		return true
	}
	return e.cfg.BuyWindow.Contains(c)
}

// attemptBuy runs the cash, trend and share-count gates in that order.
// Only a cash shortfall leaves the day open for another try.
func (e *Engine) attemptBuy(t time.Time, date market.Date, price decimal.Decimal) RejectReason {
	if e.pf.Cash.LessThan(e.investAmt) {
		e.skip(date, RejectCash, "Insufficient cash on %s: $%s (need $%s)",
			date, e.pf.Cash.StringFixed(2), e.investAmt.StringFixed(2))
		return RejectCash
	}
	if e.logged[date] == RejectCash {
		delete(e.logged, date)
	}

	if !e.filter.IsBullish(date) {
		e.days[date] = Rejected
		e.skip(date, RejectTrend, "Market condition on %s: trend filter bearish", date)
		return RejectTrend
	}

	shares := purchasable(e.investAmt, price)
	if shares < MinShares {
		e.days[date] = Rejected
		e.skip(date, RejectShares, "Not enough shares on %s: can only buy %d shares (need at least %d)",
			date, shares, MinShares)
		return RejectShares
	}

	tr := e.pf.buy(t, shares, price)
	e.days[date] = Bought
	e.log.Printf("BUY  %s: %d shares @ $%s = $%s", t.Format("2006-01-02 15:04:05"),
		tr.Shares, tr.Price.StringFixed(2), tr.Amount.StringFixed(2))
	e.log.Printf("   Cash remaining: $%s, Total shares: %d", e.pf.Cash.StringFixed(2), e.pf.Shares)
	if e.observer != nil {
		e.observer.OnTrade(tr)
	}

	ladder := BuildLadder(shares, price, e.increment, t)
	e.pf.Pending = append(e.pf.Pending, ladder...)
	e.log.Printf("   Created %d sell orders: %s at $%s to $%s", len(ladder), describeSplit(shares),
		ladder[0].TargetPrice.StringFixed(2), ladder[len(ladder)-1].TargetPrice.StringFixed(2))
	return RejectNone
}

// skip counts and logs a rejection once per date.
func (e *Engine) skip(date market.Date, reason RejectReason, format string, args ...any) {
	if _, ok := e.logged[date]; ok {
		return
	}
	e.logged[date] = reason
	e.pf.Skipped.add(reason)
	e.log.Printf("SKIPPED - "+format, args...)
	if e.observer != nil {
		e.observer.OnSkip(date, reason)
	}
}

// matchOrders fills every rung among the first eligible pending orders whose
// target the high reached. Unfilled rungs keep their relative order.
func (e *Engine) matchOrders(t time.Time, high decimal.Decimal, eligible int) {
	kept := e.pf.Pending[:0]
	for i, o := range e.pf.Pending {
		if i >= eligible || !hitTarget(o, high) {
			kept = append(kept, o)
			continue
		}
		tr := e.pf.fill(t, o)
		e.log.Printf("SELL %s: %d shares @ $%s = $%s (Profit: $%s)", t.Format("2006-01-02 15:04:05"),
			tr.Shares, tr.Price.StringFixed(2), tr.Amount.StringFixed(2), tr.Profit().StringFixed(2))
		if e.observer != nil {
			e.observer.OnTrade(tr)
		}
	}
	clear(e.pf.Pending[len(kept):])
	e.pf.Pending = kept
}

func describeSplit(shares int64) string {
	base := shares / Rungs
	extra := shares % Rungs
	if extra == 0 {
		return fmt.Sprintf("%d shares each", base)
	}
	return fmt.Sprintf("%d orders of %d shares, %d orders of %d shares", Rungs-extra, base, extra, base+1)
}
