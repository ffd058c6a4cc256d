package feed

import "github.com/rustyeddy/ladder/market"

// Limits maps an interval to the most days of history a source serves for
// it. Zero or missing means unlimited.
type Limits map[market.Interval]int

// DefaultLimits are the history windows of the common free intraday feeds.
var DefaultLimits = Limits{
	market.Minute1:  7,
	market.Minute2:  60,
	market.Minute5:  60,
	market.Minute15: 60,
	market.Minute30: 60,
	market.Hour1:    730,
	market.Day1:     0,
}

// Days returns the limit for iv and whether one applies.
func (l Limits) Days(iv market.Interval) (int, bool) {
	n, ok := l[iv]
	return n, ok && n > 0
}

// Clamp moves start forward so [start, end) fits the limit for iv.
func (l Limits) Clamp(iv market.Interval, start, end market.Date) (market.Date, bool) {
	limit, ok := l.Days(iv)
	if !ok || market.DaysBetween(start, end) <= limit {
		return start, false
	}
	return end.AddDays(-limit), true
}

// AutoInterval picks the finest interval whose history covers a span of
// days: 5m up to 60 days, 1h up to 730 days, daily beyond.
func AutoInterval(days int) market.Interval {
	switch {
	case days <= 60:
		return market.Minute5
	case days <= 730:
		return market.Hour1
	default:
		return market.Day1
	}
}
