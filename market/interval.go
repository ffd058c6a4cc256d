package market

import (
	"fmt"
	"strings"
	"time"
)

// Interval is a bar granularity, spelled the way data vendors do ("5m", "1h", "1d").
type Interval string

const (
	Minute1  Interval = "1m"
	Minute2  Interval = "2m"
	Minute5  Interval = "5m"
	Minute15 Interval = "15m"
	Minute30 Interval = "30m"
	Hour1    Interval = "1h"
	Day1     Interval = "1d"
)

var intervalDurations = map[Interval]time.Duration{
	Minute1:  time.Minute,
	Minute2:  2 * time.Minute,
	Minute5:  5 * time.Minute,
	Minute15: 15 * time.Minute,
	Minute30: 30 * time.Minute,
	Hour1:    time.Hour,
	Day1:     24 * time.Hour,
}

// Intervals lists every supported interval, finest first.
func Intervals() []Interval {
	return []Interval{Minute1, Minute2, Minute5, Minute15, Minute30, Hour1, Day1}
}

// ParseInterval accepts the canonical spellings plus a few common aliases
// ("60m", "d", "daily").
func ParseInterval(s string) (Interval, error) {
	v := Interval(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case "60m":
		return Hour1, nil
	case "d", "daily", "1day":
		return Day1, nil
	}
	if _, ok := intervalDurations[v]; !ok {
		return "", fmt.Errorf("unknown interval %q", s)
	}
	return v, nil
}

// Valid reports whether i is a supported interval.
func (i Interval) Valid() bool {
	_, ok := intervalDurations[i]
	return ok
}

// Duration returns the span of one bar.
func (i Interval) Duration() time.Duration {
	return intervalDurations[i]
}

// Daily reports whether bars are one per trading day.
func (i Interval) Daily() bool { return i == Day1 }

// Intraday reports whether several bars make up one trading day.
func (i Interval) Intraday() bool { return i.Valid() && i != Day1 }

func (i Interval) String() string { return string(i) }
