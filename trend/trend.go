// Package trend gates buys on a reference instrument's position relative to
// its moving average.
package trend

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/ladder/indicators"
	"github.com/rustyeddy/ladder/market"
)

// DefaultPeriod is the moving-average length used when none is configured.
const DefaultPeriod = 50

// Filter answers whether buying is allowed on a given date.
type Filter interface {
	IsBullish(d market.Date) bool
}

// Disabled lets every buy through.
type Disabled struct{}

func (Disabled) IsBullish(market.Date) bool { return true }

// Func adapts a plain function to Filter.
type Func func(d market.Date) bool

func (f Func) IsBullish(d market.Date) bool { return f(d) }

type day struct {
	date  market.Date
	close float64
	sma   float64
	ready bool
}

// SMAFilter is bullish for a date when the most recent trading day strictly
// before it closed above that day's simple moving average.
type SMAFilter struct {
	period int
	days   []day
}

// NewSMAFilter builds a filter from daily reference bars. Bars are bucketed
// by calendar date in loc (nil means exchange time), a midnight stamp
// keeping its own day; when a date repeats the last close wins.
func NewSMAFilter(bars []market.Bar, period int, loc *time.Location) (*SMAFilter, error) {
	if period <= 0 {
		return nil, fmt.Errorf("trend: period must be positive, got %d", period)
	}
	if loc == nil {
		loc = market.Exchange()
	}

	sorted := make([]market.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	var days []day
	for _, b := range sorted {
		d := market.DateOf(market.DailyTime(b.Time, loc))
		if n := len(days); n > 0 && days[n-1].date == d {
			days[n-1].close = b.Close
			continue
		}
		days = append(days, day{date: d, close: b.Close})
	}

	ma := indicators.NewMA(period)
	for i := range days {
		ma.Add(days[i].close)
		if ma.Ready() {
			days[i].sma = ma.Value()
			days[i].ready = true
		}
	}

	return &SMAFilter{period: period, days: days}, nil
}

// Period returns the moving-average length.
func (f *SMAFilter) Period() int { return f.period }

// Len returns the number of trading days loaded.
func (f *SMAFilter) Len() int { return len(f.days) }

// IsBullish is true when there is no prior trading day or the average is
// still warming up.
func (f *SMAFilter) IsBullish(d market.Date) bool {
	prev, ok := f.previous(d)
	if !ok || !prev.ready {
		return true
	}
	return prev.close > prev.sma
}

// Above reports the raw close-above-average signal for a trading day that
// is loaded and warmed up.
func (f *SMAFilter) Above(d market.Date) (above bool, ok bool) {
	i := sort.Search(len(f.days), func(i int) bool { return !f.days[i].date.Before(d) })
	if i == len(f.days) || f.days[i].date != d || !f.days[i].ready {
		return false, false
	}
	return f.days[i].close > f.days[i].sma, true
}

func (f *SMAFilter) previous(d market.Date) (day, bool) {
	i := sort.Search(len(f.days), func(i int) bool { return !f.days[i].date.Before(d) })
	if i == 0 {
		return day{}, false
	}
	return f.days[i-1], true
}
