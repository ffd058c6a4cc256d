package market

import "time"

// Regular US equity session bounds, exchange time.
var (
	SessionOpen  = Clock{Hour: 9, Minute: 30}
	SessionClose = Clock{Hour: 16}
)

// IsWeekday reports whether t falls Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// InSession reports whether t is a weekday with a wall clock inside
// [SessionOpen, SessionClose]. t should already be in exchange time.
func InSession(t time.Time) bool {
	if !IsWeekday(t) {
		return false
	}
	c := ClockOf(t)
	return !c.Before(SessionOpen) && !c.After(SessionClose)
}
