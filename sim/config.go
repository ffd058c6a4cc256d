package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/ladder/market"
)

// ErrInvalidConfig marks a configuration that cannot start a run.
var ErrInvalidConfig = errors.New("invalid engine config")

// ValuationClock is the intraday clock time from which the day's
// mark-to-market value is recorded.
var ValuationClock = market.Clock{Hour: 15, Minute: 30}

// BuyWindow says when in the day a buy may be attempted. MarketOpen applies
// to daily bars; intraday runs use the clock window [Start, End).
type BuyWindow struct {
	MarketOpen bool
	Start      market.Clock
	End        market.Clock
}

// MarketOpenWindow buys on the first bar of each day.
var MarketOpenWindow = BuyWindow{MarketOpen: true}

// DefaultBuyWindow is the 10 o'clock hour.
var DefaultBuyWindow = BuyWindow{
	Start: market.Clock{Hour: 10},
	End:   market.Clock{Hour: 11},
}

// Contains reports whether c is inside the clock window.
func (w BuyWindow) Contains(c market.Clock) bool {
	return !c.Before(w.Start) && c.Before(w.End)
}

func (w BuyWindow) String() string {
	if w.MarketOpen {
		return "market-open"
	}
	return fmt.Sprintf("%s-%s", w.Start, w.End)
}

// BuyWindowAt builds a window around a chosen buy time. Hourly bars may be
// stamped on the half hour, so they get [h-1:30, h+1:00) bounded by the
// session; finer intervals get a 30 minute window starting at buyTime.
func BuyWindowAt(buyTime market.Clock, iv market.Interval) BuyWindow {
	switch {
	case iv.Daily():
		return MarketOpenWindow
	case iv == market.Hour1:
		startHour := max(buyTime.Hour-1, 9)
		endHour := min(buyTime.Hour+1, 16)
		return BuyWindow{
			Start: market.Clock{Hour: startHour, Minute: 30},
			End:   market.Clock{Hour: endHour},
		}
	default:
		return BuyWindow{Start: buyTime, End: buyTime.Add(30 * time.Minute)}
	}
}

// ExactBuyWindow covers exactly one bar starting at buyTime. Used when
// comparing buy times against each other.
func ExactBuyWindow(buyTime market.Clock, iv market.Interval) BuyWindow {
	if iv.Daily() {
		return MarketOpenWindow
	}
	return BuyWindow{Start: buyTime, End: buyTime.Add(iv.Duration())}
}

// Config holds the engine parameters for one run.
type Config struct {
	InitialCapital   float64
	InvestmentPerBuy float64
	PriceIncrement   float64
	Interval         market.Interval
	BuyWindow        BuyWindow
	TrendFilter      bool

	// Location is the exchange time zone used for sessions and dates.
	// Nil means market.Exchange().
	Location *time.Location
}

// DefaultConfig mirrors the classic setup: 20k capital, 2k per buy, $1 rungs.
func DefaultConfig() Config {
	return Config{
		InitialCapital:   20_000,
		InvestmentPerBuy: 2_000,
		PriceIncrement:   1,
		Interval:         market.Hour1,
		BuyWindow:        BuyWindowAt(market.Clock{Hour: 10}, market.Hour1),
		TrendFilter:      true,
	}
}

// Validate rejects nonsensical parameters before a run starts.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive", ErrInvalidConfig)
	}
	if c.InvestmentPerBuy <= 0 {
		return fmt.Errorf("%w: investment per buy must be positive", ErrInvalidConfig)
	}
	if c.InvestmentPerBuy > c.InitialCapital {
		return fmt.Errorf("%w: investment per buy %.2f exceeds initial capital %.2f",
			ErrInvalidConfig, c.InvestmentPerBuy, c.InitialCapital)
	}
	if c.PriceIncrement <= 0 {
		return fmt.Errorf("%w: price increment must be positive", ErrInvalidConfig)
	}
	if !c.Interval.Valid() {
		return fmt.Errorf("%w: unknown interval %q", ErrInvalidConfig, c.Interval)
	}
	if c.Interval.Intraday() {
		if c.BuyWindow.MarketOpen {
			return fmt.Errorf("%w: market-open buy window needs daily bars, got %s", ErrInvalidConfig, c.Interval)
		}
		if !c.BuyWindow.Start.Before(c.BuyWindow.End) {
			return fmt.Errorf("%w: buy window %s is empty", ErrInvalidConfig, c.BuyWindow)
		}
	}
	return nil
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return market.Exchange()
	}
	return c.Location
}
