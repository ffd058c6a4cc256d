package market

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

const dateLayout = "2006-01-02"

var exchangeLoc = sync.OnceValue(func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
})

// Exchange returns the US equity exchange time zone. Session clocks are
// always evaluated in this location unless a run overrides it.
func Exchange() *time.Location { return exchangeLoc() }

// Date is a calendar day with no time-of-day or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// DailyTime places a daily bar stamp in loc. Vendors stamp daily bars at
// midnight in their own zone, often UTC; such a stamp names its calendar day
// and becomes midnight of that day in loc. Other stamps are converted as is.
func DailyTime(t time.Time, loc *time.Location) time.Time {
	if h, m, s := t.Clock(); h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
		return DateOf(t).In(loc)
	}
	return t.In(loc)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// MonthKey groups dates by calendar month, e.g. "2025-03".
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
}

// DaysBetween returns whole calendar days from a to b.
func DaysBetween(a, b Date) int {
	return int(b.In(time.UTC).Sub(a.In(time.UTC)).Hours() / 24)
}

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ClockOf returns the wall-clock time of t in t's own location.
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	return Clock{Hour: h, Minute: m, Second: s}
}

// ParseClock parses HH:MM or HH:MM:SS.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return Clock{}, fmt.Errorf("bad clock time %q (want HH:MM)", s)
}

// MustClock is ParseClock for constants; it panics on bad input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) seconds() int { return c.Hour*3600 + c.Minute*60 + c.Second }

// Compare returns -1, 0 or +1.
func (c Clock) Compare(o Clock) int { return cmpInt(c.seconds(), o.seconds()) }

func (c Clock) Before(o Clock) bool { return c.Compare(o) < 0 }
func (c Clock) After(o Clock) bool  { return c.Compare(o) > 0 }

// Add shifts the clock by d, clamped to [00:00:00, 23:59:59].
func (c Clock) Add(d time.Duration) Clock {
	s := c.seconds() + int(d/time.Second)
	if s < 0 {
		s = 0
	}
	if s > 24*3600-1 {
		s = 24*3600 - 1
	}
	return Clock{Hour: s / 3600, Minute: s % 3600 / 60, Second: s % 60}
}

func (c Clock) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MarshalText lets clocks round-trip through YAML/JSON as "HH:MM".
func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
